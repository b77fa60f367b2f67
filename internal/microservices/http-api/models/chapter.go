package models

import "time"

type Chapter struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	ComicID   int64     `json:"comic_id" gorm:"not null;uniqueIndex:idx_comic_chapter_title"`
	Title     string    `json:"title" gorm:"not null;uniqueIndex:idx_comic_chapter_title"`
	Number    float64   `json:"number" gorm:"index"`
	Slug      string    `json:"slug" gorm:"size:64;not null"`
	Views     int64     `json:"views" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Images []ChapterImage `json:"images,omitempty" gorm:"foreignKey:ChapterID;constraint:OnDelete:CASCADE;"`
}

func (Chapter) TableName() string {
	return "chapters"
}

// ImageURLs returns the image URLs in reading order.
func (ch *Chapter) ImageURLs() []string {
	urls := make([]string, len(ch.Images))
	for i, img := range ch.Images {
		urls[i] = img.URL
	}
	return urls
}

type ChapterImage struct {
	ID        int64  `json:"-" gorm:"primaryKey;autoIncrement"`
	ChapterID int64  `json:"-" gorm:"not null;index"`
	Position  int    `json:"position" gorm:"not null"`
	URL       string `json:"url" gorm:"not null"`
}

func (ChapterImage) TableName() string {
	return "chapter_images"
}

// ViewStat counts chapter reads per calendar day (YYYY-MM-DD, UTC+7).
type ViewStat struct {
	Day   string `json:"day" gorm:"primaryKey;size:10"`
	Count int64  `json:"count" gorm:"not null;default:0"`
}

func (ViewStat) TableName() string {
	return "view_stats"
}
