package model

import "time"

// Course represents a catalog course, unique per (subject_code, catalog_number).
type Course struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	SubjectCode   string    `gorm:"uniqueIndex:idx_courses_subject_catalog;size:16;not null" json:"subjectCode"`
	CatalogNumber string    `gorm:"uniqueIndex:idx_courses_subject_catalog;size:16;not null" json:"catalogNumber"`
	Title         string    `gorm:"size:256;not null" json:"title"`
	CreditsMin    *float64  `json:"creditsMin"`
	CreditsMax    *float64  `json:"creditsMax"`
	Prerequisites *string   `gorm:"type:text" json:"prerequisites"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"-"`
}
