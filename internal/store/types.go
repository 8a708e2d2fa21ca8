package store

import "schedule-sync-backend/internal/retry"

// CourseKey is the natural key of a course.
type CourseKey struct {
	SubjectCode   string
	CatalogNumber string
}

// SectionKey is the natural key of a section.
type SectionKey struct {
	TermCode    string
	ClassNumber string
}

// Options tunes the store's batching behavior.
type Options struct {
	// PageSize is the backing store's per-read row cap; bulk key resolution
	// pages through tables in chunks of this size.
	PageSize int
	// BatchSize bounds the number of rows per insert/upsert statement.
	BatchSize int
	// MaxFilterIn bounds the number of ids in a delete-by-filter list.
	MaxFilterIn int
	// Retry wraps every batched write.
	Retry retry.Policy
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = 1000
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 500
	}
	if o.MaxFilterIn <= 0 {
		o.MaxFilterIn = 200
	}
	return o
}
