package model

import "time"

// Term represents one academic term (e.g. FA2025).
type Term struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"uniqueIndex;size:8;not null" json:"code"`
	Name      string    `gorm:"size:64;not null" json:"name"`
	Year      int       `gorm:"not null" json:"year"`
	Season    string    `gorm:"size:16;not null" json:"season"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`
}
