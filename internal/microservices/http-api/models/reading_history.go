package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReadingHistory is one comic in a user's account history.
type ReadingHistory struct {
	ID           int64      `json:"-" gorm:"primaryKey;autoIncrement"`
	UserID       string     `json:"-" gorm:"type:uuid;not null;uniqueIndex:idx_history_user_comic"`
	ComicSlug    string     `json:"slug" gorm:"size:200;not null;uniqueIndex:idx_history_user_comic"`
	Title        string     `json:"title"`
	CoverURL     string     `json:"cover"`
	Chapter      string     `json:"chapter"`
	ChaptersRead StringList `json:"chapters_read" gorm:"type:jsonb"`
	ReadAt       time.Time  `json:"read_at" gorm:"index"`
}

func (ReadingHistory) TableName() string {
	return "reading_histories"
}

// StringList stores a []string as a JSON array column.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = StringList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan StringList: unsupported type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan StringList: %w", err)
	}
	*s = out
	return nil
}
