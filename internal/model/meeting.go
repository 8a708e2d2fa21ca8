package model

import "time"

// Meeting represents one meeting pattern of a section. Arranged meetings
// (no fixed day/time) carry null day and time fields.
type Meeting struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	SectionID  int64     `gorm:"index;not null" json:"sectionId"`
	Days       *string   `gorm:"size:16" json:"days"`
	StartTime  *string   `gorm:"size:8" json:"startTime"`
	EndTime    *string   `gorm:"size:8" json:"endTime"`
	Location   *string   `gorm:"size:128" json:"location"`
	IsArranged bool      `gorm:"not null" json:"isArranged"`
	CreatedAt  time.Time `json:"-"`

	// Associations
	Section Section `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
