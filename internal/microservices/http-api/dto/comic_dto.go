package dto

import (
	"time"

	"comichub/internal/microservices/http-api/models"
	"comichub/internal/microservices/http-api/service"
)

// CategoryRequest: payload for creating or renaming a category
type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

// ComicForm is the multipart form for creating or editing a comic. The
// cover arrives as the "cover" file field.
type ComicForm struct {
	Title       string  `form:"title"`
	Slug        string  `form:"slug"`
	OtherName   string  `form:"other_name"`
	Author      string  `form:"author"`
	Status      string  `form:"status"`
	Description string  `form:"description"`
	CategoryIDs []int64 `form:"category_ids"`
}

// ToInput converts the form. setCategories reports whether category_ids was
// sent at all, so an update can clear categories with an empty value.
func (f ComicForm) ToInput(setCategories bool) service.ComicInput {
	in := service.ComicInput{
		Title:       f.Title,
		Slug:        f.Slug,
		OtherName:   f.OtherName,
		Author:      f.Author,
		Status:      f.Status,
		Description: f.Description,
	}
	if setCategories {
		in.CategoryIDs = make([]int64, 0, len(f.CategoryIDs))
		for _, id := range f.CategoryIDs {
			if id > 0 {
				in.CategoryIDs = append(in.CategoryIDs, id)
			}
		}
	}
	return in
}

// ChapterForm is the multipart form for chapters; pages arrive as "images".
type ChapterForm struct {
	Title      string   `form:"title"`
	KeepImages []string `form:"keep_images"`
}

// ComicSummary is one row of the dashboard comic list.
type ComicSummary struct {
	ID         int64     `json:"id"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	CoverURL   string    `json:"cover_url"`
	Author     string    `json:"author"`
	Status     string    `json:"status"`
	Categories []string  `json:"category_slugs"`
	Complete   bool      `json:"complete"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func FromComics(comics []models.Comic) []ComicSummary {
	out := make([]ComicSummary, 0, len(comics))
	for i := range comics {
		c := &comics[i]
		out = append(out, ComicSummary{
			ID:         c.ID,
			Slug:       c.Slug,
			Title:      c.Title,
			CoverURL:   c.CoverURL,
			Author:     c.Author,
			Status:     c.Status,
			Categories: c.CategorySlugs(),
			Complete:   c.Complete(),
			UpdatedAt:  c.UpdatedAt,
		})
	}
	return out
}

// Pagination is the page block attached to list responses.
type Pagination struct {
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	Total      int64    `json:"total"`
	TotalPages int      `json:"total_pages"`
	Pages      []string `json:"pages"`
}
