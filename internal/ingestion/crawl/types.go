// Package crawl imports comics exported by the site crawler.
package crawl

import (
	"encoding/json"
	"fmt"
	"io"
)

// Comic is one entry of the crawler's JSON export.
type Comic struct {
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Link        string    `json:"link"`
	Cover       string    `json:"cover"`
	Author      string    `json:"author"`
	Status      string    `json:"status"`
	Genres      []string  `json:"genres"`
	Description string    `json:"description"`
	OtherName   string    `json:"other_name"`
	UpdatedAt   string    `json:"updated_at"`
	Chapters    []Chapter `json:"chapters"`
}

type Chapter struct {
	Title       string   `json:"title"`
	LocalImages []string `json:"local_images"`
}

// Report counts what an import changed.
type Report struct {
	Categories      int `json:"categories"`
	ComicsCreated   int `json:"comics_created"`
	ComicsUpdated   int `json:"comics_updated"`
	ChaptersCreated int `json:"chapters_created"`
	ChaptersSkipped int `json:"chapters_skipped"`
	Failed          int `json:"failed"`
}

// Load decodes a crawler export: a JSON array of comics.
func Load(r io.Reader) ([]Comic, error) {
	var comics []Comic
	if err := json.NewDecoder(r).Decode(&comics); err != nil {
		return nil, fmt.Errorf("decode crawl export: %w", err)
	}
	return comics, nil
}
