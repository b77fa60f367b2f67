// Package history implements the reading-history list rules shared by the
// device store (Redis) and the account store (Postgres).
package history

import (
	"slices"
	"sort"
	"strings"
	"time"

	"comichub/internal/textutil"
)

// Mode selects which history a request works on.
type Mode string

const (
	ModeDevice  Mode = "device"
	ModeAccount Mode = "account"
)

// Item is one comic in a reading history.
type Item struct {
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Cover        string    `json:"cover"`
	Chapter      string    `json:"chapter"`
	ChaptersRead []string  `json:"chapters_read"`
	ReadAt       time.Time `json:"read_at"`
}

// HasRead reports whether chapter is in the read list.
func (it Item) HasRead(chapter string) bool {
	return slices.Contains(it.ChaptersRead, chapter)
}

// Merge folds update into existing: read chapters are unioned in first-seen
// order and title and cover come from update. The current chapter only moves
// when update is not older than existing.
func Merge(existing, update Item) Item {
	out := existing
	out.ChaptersRead = union(existing.ChaptersRead, update.ChaptersRead)
	if update.Chapter != "" {
		out.ChaptersRead = union(out.ChaptersRead, []string{update.Chapter})
		if !update.ReadAt.Before(existing.ReadAt) {
			out.Chapter = update.Chapter
		}
	}
	if update.Title != "" {
		out.Title = update.Title
	}
	if update.Cover != "" {
		out.Cover = update.Cover
	}
	if update.ReadAt.After(out.ReadAt) {
		out.ReadAt = update.ReadAt
	}
	return out
}

// AddChapter merges update into the entry with the same slug, or appends it.
func AddChapter(items []Item, update Item) []Item {
	if update.Chapter != "" && !slices.Contains(update.ChaptersRead, update.Chapter) {
		update.ChaptersRead = append(slices.Clone(update.ChaptersRead), update.Chapter)
	}
	for i := range items {
		if items[i].Slug == update.Slug {
			items[i] = Merge(items[i], update)
			return items
		}
	}
	return append(items, update)
}

// Remove drops the entry for slug.
func Remove(items []Item, slug string) []Item {
	return slices.DeleteFunc(items, func(it Item) bool { return it.Slug == slug })
}

// SortNewest orders items by read time, most recent first.
func SortNewest(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ReadAt.After(items[j].ReadAt)
	})
}

const prefixLen = 30

// LastRead finds the most recent entry for a comic. It tries the exact slug,
// then the slugified title or the literal title, then a 30-character slug
// prefix match in either direction.
func LastRead(items []Item, slug, title string) (Item, bool) {
	if it, ok := newest(items, func(it Item) bool { return it.Slug == slug }); ok {
		return it, true
	}
	if title != "" {
		titleSlug := textutil.Slugify(title)
		if it, ok := newest(items, func(it Item) bool { return it.Slug == titleSlug || it.Title == title }); ok {
			return it, true
		}
	}
	if slug == "" {
		return Item{}, false
	}
	return newest(items, func(it Item) bool {
		if it.Slug == "" {
			return false
		}
		return strings.Contains(it.Slug, prefix(slug)) || strings.Contains(slug, prefix(it.Slug))
	})
}

func newest(items []Item, match func(Item) bool) (Item, bool) {
	var best Item
	found := false
	for _, it := range items {
		if !match(it) {
			continue
		}
		if !found || it.ReadAt.After(best.ReadAt) {
			best, found = it, true
		}
	}
	return best, found
}

func prefix(s string) string {
	if len(s) > prefixLen {
		return s[:prefixLen]
	}
	return s
}

func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			if _, ok := seen[v]; ok || v == "" {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
