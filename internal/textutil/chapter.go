package textutil

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	chapterNumber     = regexp.MustCompile(`\d+(?:\.\d+)?`)
	chapterTitle      = regexp.MustCompile(`(?i)^\s*(chapter|chương|chuong)\s+\d+(\.\d+)?(\s|:|-|$)`)
	chapterSlugDigits = regexp.MustCompile(`[^0-9.]+`)
	updatedAtStamp    = regexp.MustCompile(`\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`)
)

// Vietnam time; comic update stamps are written and read in UTC+7.
var Vietnam = time.FixedZone("ICT", 7*60*60)

const updatedAtLayout = "2006-01-02 15:04:05"

// ChapterNumber extracts the first number in a chapter title ("Chapter 12.5" -> 12.5).
func ChapterNumber(title string) (float64, bool) {
	m := chapterNumber.FindString(title)
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ValidChapterTitle accepts "Chapter 12", "chương 3.5: tựa đề" and similar.
func ValidChapterTitle(title string) bool {
	return chapterTitle.MatchString(title)
}

// FormatChapterNumber prints 12 as "12" and 12.5 as "12.5".
func FormatChapterNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// ChapterSlug builds the reader URL segment for a chapter title.
func ChapterSlug(title string) string {
	n, ok := ChapterNumber(title)
	if !ok {
		return Slugify(title)
	}
	return "chuong-" + FormatChapterNumber(n)
}

// ParseChapterSlug returns the chapter number encoded in a reader URL segment.
// Both "chuong-12" and "chapter-12" are accepted.
func ParseChapterSlug(slug string) (float64, bool) {
	s := strings.ToLower(strings.TrimSpace(slug))
	s = strings.TrimPrefix(s, "chuong-")
	s = strings.TrimPrefix(s, "chapter-")
	s = chapterSlugDigits.ReplaceAllString(s, "")
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ChapterFolder is the image-host folder name for a chapter: "Chapter 12" -> "chapter-12".
func ChapterFolder(title string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "-")
}

// FormatUpdatedAt renders the stamp shown on comic pages.
func FormatUpdatedAt(t time.Time) string {
	return "[Cập nhật lúc: " + t.In(Vietnam).Format(updatedAtLayout) + "]"
}

// ParseUpdatedAt reads a stamp produced by FormatUpdatedAt or an RFC 3339 time.
// The zero time is returned when nothing parses.
func ParseUpdatedAt(s string) time.Time {
	if m := updatedAtStamp.FindString(s); m != "" {
		if t, err := time.ParseInLocation(updatedAtLayout, m, Vietnam); err == nil {
			return t.UTC()
		}
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(s)); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
