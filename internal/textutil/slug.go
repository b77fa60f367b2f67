// Package textutil holds the string rules shared by the catalog, the reader
// and the admin tools: slugs, keyword folding, chapter titles and the
// "updated at" stamp shown on comic pages.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalid    = regexp.MustCompile(`[^a-z0-9_-]+`)
	dashRun        = regexp.MustCompile(`-+`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
	keywordInvalid = regexp.MustCompile(`[^a-z0-9\s-]+`)
	imageFileName  = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|webp)$`)
	fileExt        = regexp.MustCompile(`\.[^/.]+$`)
	fileNameBad    = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
)

// FoldDiacritics strips combining marks and maps đ/Đ to d/D.
func FoldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.NewReplacer("đ", "d", "Đ", "D").Replace(out)
}

// Slugify turns a Vietnamese title into a URL slug: "Đảo Hải Tặc" -> "dao-hai-tac".
func Slugify(s string) string {
	s = strings.ToLower(FoldDiacritics(s))
	s = strings.TrimSpace(s)
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = slugInvalid.ReplaceAllString(s, "")
	s = dashRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NormalizeKeyword folds text for case- and accent-insensitive matching.
func NormalizeKeyword(s string) string {
	s = strings.ToLower(FoldDiacritics(s))
	s = keywordInvalid.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// GenreLabel returns the display name for a category slug. Known names win;
// otherwise the slug words are title-cased.
func GenreLabel(slug string, known map[string]string) string {
	if name, ok := known[slug]; ok && name != "" {
		return name
	}
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	caser := cases.Title(language.Vietnamese)
	for i, w := range words {
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}

// ValidComicTitle rejects empty titles and titles that are just an image file name.
func ValidComicTitle(title string) bool {
	title = strings.TrimSpace(title)
	return title != "" && !imageFileName.MatchString(title)
}

// CleanFileName drops the extension and any character not safe in a public id.
func CleanFileName(name string) string {
	name = fileExt.ReplaceAllString(FoldDiacritics(name), "")
	name = whitespaceRun.ReplaceAllString(strings.TrimSpace(name), "-")
	return fileNameBad.ReplaceAllString(name, "")
}
