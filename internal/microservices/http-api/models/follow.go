package models

import "time"

// Follow links a user to a comic. Title, cover and latest chapter are copied
// from the comic so the follow list renders without joins.
type Follow struct {
	ID            int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID        string     `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_follow_user_comic"`
	ComicSlug     string     `json:"slug" gorm:"size:200;not null;uniqueIndex:idx_follow_user_comic;index"`
	Title         string     `json:"title"`
	CoverURL      string     `json:"cover_url"`
	LatestChapter string     `json:"latest_chapter,omitempty"`
	LastReadAt    *time.Time `json:"last_read_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at" gorm:"index"`
}

func (Follow) TableName() string {
	return "follows"
}
