package model

import "time"

// Subject represents an academic subject (e.g. EECS).
// The source export carries no full subject name, so Name mirrors Code.
type Subject struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	Code          string    `gorm:"uniqueIndex;size:16;not null" json:"code"`
	Name          string    `gorm:"size:128;not null" json:"name"`
	AcademicGroup *string   `gorm:"size:16" json:"academicGroup"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"-"`
}
