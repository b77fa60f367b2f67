// Package catalog filters, sorts and paginates comic listings for the
// search page. It works on in-memory entries so keyword matching can fold
// Vietnamese diacritics the same way everywhere.
package catalog

import (
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"comichub/internal/pagination"
	"comichub/internal/textutil"
)

// Sort selects the listing order. Values match the ?sort= query parameter.
type Sort int

const (
	SortUpdated Sort = iota + 1
	SortFollows
	SortChapters
	SortTopFollow
	SortViews
)

// SortOptions are the labels shown for each Sort, in query-value order.
var SortOptions = []string{"Ngày cập nhật", "Theo dõi", "Số chapter", "Top Follow", "Lượt xem"}

// ParseSort maps "1".."5" to a Sort; anything else is SortUpdated.
func ParseSort(raw string) Sort {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < int(SortUpdated) || n > int(SortViews) {
		return SortUpdated
	}
	return Sort(n)
}

// Status filter values for the ?status= query parameter.
const (
	StatusAll       = ""
	StatusCompleted = "1"
	StatusOngoing   = "2"
)

// StatusOptions are the labels for "", "1" and "2".
var StatusOptions = []string{"Tất cả", "Hoàn thành", "Đang cập nhật"}

var (
	completedSynonyms = []string{"hoan thanh", "complete", "completed", "full"}
	ongoingSynonyms   = []string{"dang cap nhat", "dang tien hanh", "tien hanh", "cap nhat", "update", "updating", "ongoing"}
)

// MatchStatus reports whether a comic status string passes the filter.
func MatchStatus(status, filter string) bool {
	var synonyms []string
	switch filter {
	case StatusCompleted:
		synonyms = completedSynonyms
	case StatusOngoing:
		synonyms = ongoingSynonyms
	default:
		return true
	}
	normalized := textutil.NormalizeKeyword(status)
	return slices.ContainsFunc(synonyms, func(s string) bool {
		return strings.Contains(normalized, s)
	})
}

// Entry is the searchable summary of one comic.
type Entry struct {
	ID           int64     `json:"id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	OtherName    string    `json:"other_name,omitempty"`
	CoverURL     string    `json:"cover_url"`
	Status       string    `json:"status"`
	Categories   []string  `json:"categories"`
	CategorySlug []string  `json:"category_slugs"`
	Followers    int64     `json:"followers"`
	Views        int64     `json:"views"`
	ChapterCount int       `json:"chapter_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (e Entry) inCategory(slug string) bool {
	if slices.Contains(e.CategorySlug, slug) {
		return true
	}
	return slices.ContainsFunc(e.Categories, func(name string) bool {
		return categorySlug(name) == slug
	})
}

// categorySlug mirrors how category links are built from display names.
func categorySlug(name string) string {
	return strings.ReplaceAll(textutil.NormalizeKeyword(name), " ", "-")
}

// Query is a parsed search request.
type Query struct {
	Keyword  string
	Category string
	Status   string
	Sort     Sort
	Page     pagination.Page
}

// Result is one page of matches.
type Result struct {
	Items      []Entry  `json:"items"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalPages int      `json:"total_pages"`
	Pages      []string `json:"pages"`
}

// Filter keeps entries matching keyword, category and status. Input order is kept.
func Filter(entries []Entry, q Query) []Entry {
	keyword := textutil.NormalizeKeyword(q.Keyword)
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if q.Category != "" && !e.inCategory(q.Category) {
			continue
		}
		if !MatchStatus(e.Status, q.Status) {
			continue
		}
		if keyword != "" &&
			!strings.Contains(textutil.NormalizeKeyword(e.Title), keyword) &&
			!strings.Contains(textutil.NormalizeKeyword(e.OtherName), keyword) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// SortEntries orders entries in place. The sort is stable so equal keys keep
// their incoming order.
func SortEntries(entries []Entry, by Sort) {
	var less func(a, b Entry) bool
	switch by {
	case SortFollows:
		less = func(a, b Entry) bool { return a.Followers > b.Followers }
	case SortTopFollow:
		less = func(a, b Entry) bool {
			if a.Followers != b.Followers {
				return a.Followers > b.Followers
			}
			return a.Views > b.Views
		}
	case SortChapters:
		less = func(a, b Entry) bool { return a.ChapterCount > b.ChapterCount }
	case SortViews:
		less = func(a, b Entry) bool { return a.Views > b.Views }
	default:
		// never-updated comics sink to the bottom
		less = func(a, b Entry) bool {
			if a.UpdatedAt.IsZero() || b.UpdatedAt.IsZero() {
				return !a.UpdatedAt.IsZero() && b.UpdatedAt.IsZero()
			}
			return a.UpdatedAt.After(b.UpdatedAt)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return less(entries[i], entries[j]) })
}

// Search filters, sorts and slices entries. entries is not modified.
func Search(entries []Entry, q Query) Result {
	matched := Filter(entries, q)
	SortEntries(matched, q.Sort)

	page := q.Page
	if page.Size == 0 {
		page = pagination.Normalize(page.Number, 0, pagination.CatalogPageSize)
	}
	totalPages := pagination.TotalPages(int64(len(matched)), page.Size)
	return Result{
		Items:      pagination.Slice(matched, page),
		Total:      len(matched),
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: totalPages,
		Pages:      pagination.Range(page.Number, totalPages),
	}
}

// CategoryLabel resolves a category slug to a display name using the
// category table first, then names seen on entries, then the slug itself.
func CategoryLabel(slug string, known map[string]string, entries []Entry) string {
	if slug == "" {
		return StatusOptions[0]
	}
	if name, ok := known[slug]; ok {
		return name
	}
	for _, e := range entries {
		for _, name := range e.Categories {
			if categorySlug(name) == slug {
				return name
			}
		}
	}
	return textutil.GenreLabel(slug, nil)
}
