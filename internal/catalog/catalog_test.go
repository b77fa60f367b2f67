package catalog

import (
	"math"
	"strconv"
	"testing"
	"time"

	"comichub/internal/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fixture() []Entry {
	return []Entry{
		{Slug: "dao-hai-tac", Title: "Đảo Hải Tặc", OtherName: "One Piece", Status: "Đang Tiến Hành", Categories: []string{"Hành Động", "Phiêu Lưu"}, CategorySlug: []string{"hanh-dong", "phieu-luu"}, Followers: 50, Views: 900, ChapterCount: 1100, UpdatedAt: now},
		{Slug: "naruto", Title: "Naruto", Status: "Hoàn Thành", Categories: []string{"Hành Động"}, CategorySlug: []string{"hanh-dong"}, Followers: 80, Views: 500, ChapterCount: 700, UpdatedAt: now.Add(-48 * time.Hour)},
		{Slug: "conan", Title: "Thám Tử Lừng Danh Conan", Status: "ongoing", Categories: []string{"Trinh Thám"}, Followers: 80, Views: 1200, ChapterCount: 1000},
		{Slug: "doraemon", Title: "Doraemon", Status: "Full", Categories: []string{"Hài Hước"}, CategorySlug: []string{"hai-huoc"}, Followers: 10, Views: 50, ChapterCount: 45, UpdatedAt: now.Add(-time.Hour)},
	}
}

func slugs(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Slug
	}
	return out
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, SortUpdated, ParseSort(""))
	assert.Equal(t, SortViews, ParseSort("5"))
	assert.Equal(t, SortUpdated, ParseSort("9"))
	assert.Equal(t, SortChapters, ParseSort(" 3 "))
}

func TestMatchStatus(t *testing.T) {
	assert.True(t, MatchStatus("Hoàn Thành", StatusCompleted))
	assert.True(t, MatchStatus("Completed", StatusCompleted))
	assert.False(t, MatchStatus("Đang Tiến Hành", StatusCompleted))
	assert.True(t, MatchStatus("Đang Cập Nhật", StatusOngoing))
	assert.True(t, MatchStatus("anything", StatusAll))
	assert.True(t, MatchStatus("anything", "7"))
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"all", Query{}, []string{"dao-hai-tac", "naruto", "conan", "doraemon"}},
		{"keyword folds accents", Query{Keyword: "tham tu"}, []string{"conan"}},
		{"keyword matches other name", Query{Keyword: "one piece"}, []string{"dao-hai-tac"}},
		{"category by stored slug", Query{Category: "hanh-dong"}, []string{"dao-hai-tac", "naruto"}},
		{"category from display name", Query{Category: "trinh-tham"}, []string{"conan"}},
		{"completed", Query{Status: StatusCompleted}, []string{"naruto", "doraemon"}},
		{"ongoing in category", Query{Status: StatusOngoing, Category: "hanh-dong"}, []string{"dao-hai-tac"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, slugs(Filter(fixture(), tt.q)))
		})
	}
}

func TestSortEntries(t *testing.T) {
	tests := []struct {
		by   Sort
		want []string
	}{
		{SortUpdated, []string{"dao-hai-tac", "doraemon", "naruto", "conan"}},
		{SortFollows, []string{"naruto", "conan", "dao-hai-tac", "doraemon"}},
		{SortTopFollow, []string{"conan", "naruto", "dao-hai-tac", "doraemon"}},
		{SortChapters, []string{"dao-hai-tac", "conan", "naruto", "doraemon"}},
		{SortViews, []string{"conan", "dao-hai-tac", "naruto", "doraemon"}},
	}
	for _, tt := range tests {
		t.Run(SortOptions[tt.by-1], func(t *testing.T) {
			entries := fixture()
			SortEntries(entries, tt.by)
			assert.Equal(t, tt.want, slugs(entries))
		})
	}
}

func TestSearch_Paginates(t *testing.T) {
	entries := fixture()

	res := Search(entries, Query{Sort: SortViews, Page: pagination.Page{Number: 2, Size: 3}})

	require.Len(t, res.Items, 1)
	assert.Equal(t, "doraemon", res.Items[0].Slug)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 2, res.TotalPages)
	assert.Equal(t, []string{"1", "2"}, res.Pages)
	assert.Equal(t, "dao-hai-tac", entries[0].Slug, "input must not be reordered")
}

func TestSearch_PageBeyondRange(t *testing.T) {
	res := Search(fixture(), Query{Page: pagination.Page{Number: 9, Size: 36}})
	assert.Empty(t, res.Items)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 1, res.TotalPages)
}

func TestSearch_HugePage(t *testing.T) {
	for _, page := range []pagination.Page{
		{Number: math.MaxInt, Size: 36},
		pagination.Parse(strconv.Itoa(math.MaxInt), "", pagination.CatalogPageSize),
	} {
		res := Search(fixture(), Query{Page: page})
		assert.Empty(t, res.Items)
		assert.Equal(t, 4, res.Total)
		assert.Equal(t, 1, res.TotalPages)
	}
}

func TestCategoryLabel(t *testing.T) {
	known := map[string]string{"hai-huoc": "Hài Hước"}
	assert.Equal(t, "Tất cả", CategoryLabel("", known, nil))
	assert.Equal(t, "Hài Hước", CategoryLabel("hai-huoc", known, nil))
	assert.Equal(t, "Trinh Thám", CategoryLabel("trinh-tham", known, fixture()))
	assert.Equal(t, "Ngon Tinh", CategoryLabel("ngon-tinh", known, fixture()))
}
