// Package pagination normalizes page parameters and builds page-bar ranges.
package pagination

import (
	"math"
	"strconv"
)

// Ellipsis marks a gap in a page range.
const Ellipsis = "..."

// Default page sizes used across the public site and the dashboard.
const (
	CatalogPageSize   = 36
	DashboardPageSize = 20
	MaxPageSize       = 100
)

// Page is a normalized page request.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps page to >= 1 and falls back to defaultSize when size is
// not in (0, MaxPageSize]. Page is also capped so Offset cannot overflow.
func Normalize(page, size, defaultSize int) Page {
	if size < 1 || size > MaxPageSize {
		size = defaultSize
	}
	return Page{Number: clampPage(page, size), Size: size}
}

func clampPage(page, size int) int {
	if page < 1 {
		return 1
	}
	if size > 0 && page > math.MaxInt/size {
		return math.MaxInt / size
	}
	return page
}

// Parse reads page and size query values; unparsable input counts as absent.
func Parse(pageRaw, sizeRaw string, defaultSize int) Page {
	page, _ := strconv.Atoi(pageRaw)
	size, _ := strconv.Atoi(sizeRaw)
	return Normalize(page, size, defaultSize)
}

// Offset is the number of rows to skip.
func (p Page) Offset() int {
	if p.Size <= 0 {
		return 0
	}
	return (clampPage(p.Number, p.Size) - 1) * p.Size
}

// TotalPages returns ceil(total/size), never below zero.
func TotalPages(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// Slice returns the items of page p from an in-memory list.
func Slice[T any](items []T, p Page) []T {
	start := p.Offset()
	if start < 0 || start >= len(items) {
		return []T{}
	}
	end := start + p.Size
	if end > len(items) || end < start {
		end = len(items)
	}
	return items[start:end]
}

// Range returns the page tokens for a page bar: the first and last page,
// current±2, and Ellipsis where pages are skipped.
func Range(current, total int) []string {
	if total <= 0 {
		return []string{}
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	const delta = 2
	left := max(2, current-delta)
	right := min(total-1, current+delta)

	out := []string{"1"}
	if left > 2 {
		out = append(out, Ellipsis)
	}
	for i := left; i <= right; i++ {
		out = append(out, strconv.Itoa(i))
	}
	if right < total-1 {
		out = append(out, Ellipsis)
	}
	if total > 1 {
		out = append(out, strconv.Itoa(total))
	}
	return out
}
