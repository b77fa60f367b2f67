package models

import "time"

// Comic is a title in the catalog, addressed by its slug.
type Comic struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Slug        string    `json:"slug" gorm:"uniqueIndex;size:200;not null"`
	Title       string    `json:"title" gorm:"not null"`
	OtherName   string    `json:"other_name,omitempty"`
	Link        string    `json:"link,omitempty"`
	CoverURL    string    `json:"cover_url"`
	Author      string    `json:"author"`
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"index"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`

	Categories []Category `json:"categories,omitempty" gorm:"many2many:comic_categories;constraint:OnDelete:CASCADE;"`
	Chapters   []Chapter  `json:"chapters,omitempty" gorm:"foreignKey:ComicID;constraint:OnDelete:CASCADE;"`
}

func (Comic) TableName() string {
	return "comics"
}

// CategorySlugs lists the slugs of the loaded categories.
func (c *Comic) CategorySlugs() []string {
	out := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		out = append(out, cat.Slug)
	}
	return out
}

// Complete reports whether the comic has every field the public listings need.
func (c *Comic) Complete() bool {
	return c.Title != "" && c.Slug != "" && c.CoverURL != "" && c.Status != "" && len(c.Categories) > 0
}

// ComicStats are the aggregates shown on comic cards.
type ComicStats struct {
	ComicID      int64
	Followers    int64
	Views        int64
	ChapterCount int
}
