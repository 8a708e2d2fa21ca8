package store

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schedule-sync-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	EnsureTerm(ctx context.Context, term model.Term) error
	UpsertSubjects(ctx context.Context, subjects []model.Subject) (int, error)
	UpsertCourses(ctx context.Context, courses []model.Course) (int, error)
	CourseIDs(ctx context.Context) (map[CourseKey]int64, error)
	UpsertSections(ctx context.Context, sections []model.Section) (int, error)
	SectionIDs(ctx context.Context, termCode string) (map[SectionKey]int64, error)
	ReplaceMeetings(ctx context.Context, sectionIDs []int64, meetings []model.Meeting) (int, error)

	CreateRun(ctx context.Context, run *model.IngestionRun) error
	FinalizeRun(ctx context.Context, run *model.IngestionRun) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db   *gorm.DB
	opts Options
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, opts Options) Store {
	return &gormStore{db: db, opts: opts.withDefaults()}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// EnsureTerm idempotently creates the term row keyed by code.
func (s *gormStore) EnsureTerm(ctx context.Context, term model.Term) error {
	return s.opts.Retry.Do(ctx, "upsert term", func() error {
		return s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "year", "season", "updated_at"}),
		}).Create(&term).Error
	})
}

// UpsertSubjects batch-upserts subjects, conflict target = code.
func (s *gormStore) UpsertSubjects(ctx context.Context, subjects []model.Subject) (int, error) {
	written := 0
	for start := 0; start < len(subjects); start += s.opts.BatchSize {
		batch := subjects[start:min(start+s.opts.BatchSize, len(subjects))]
		err := s.opts.Retry.Do(ctx, "upsert subjects batch", func() error {
			return s.db.WithContext(ctx).Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "code"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "academic_group", "updated_at"}),
			}).Create(&batch).Error
		})
		if err != nil {
			return written, fmt.Errorf("batch upsert subjects failed: %w", err)
		}
		written += len(batch)
	}
	return written, nil
}

// UpsertCourses batch-upserts courses, conflict target = (subject_code, catalog_number).
func (s *gormStore) UpsertCourses(ctx context.Context, courses []model.Course) (int, error) {
	written := 0
	for start := 0; start < len(courses); start += s.opts.BatchSize {
		batch := courses[start:min(start+s.opts.BatchSize, len(courses))]
		err := s.opts.Retry.Do(ctx, "upsert courses batch", func() error {
			return s.db.WithContext(ctx).Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "subject_code"}, {Name: "catalog_number"}},
				DoUpdates: clause.AssignmentColumns([]string{"title", "credits_min", "credits_max", "prerequisites", "updated_at"}),
			}).Create(&batch).Error
		})
		if err != nil {
			return written, fmt.Errorf("batch upsert courses failed: %w", err)
		}
		written += len(batch)
	}
	return written, nil
}

// CourseIDs builds the complete (subject_code, catalog_number) -> id mapping.
// The store caps any single read at PageSize rows, so the table is paged
// through until a short page is returned.
func (s *gormStore) CourseIDs(ctx context.Context) (map[CourseKey]int64, error) {
	ids := make(map[CourseKey]int64)
	for offset := 0; ; offset += s.opts.PageSize {
		var page []model.Course
		if err := s.db.WithContext(ctx).
			Select("id", "subject_code", "catalog_number").
			Order("id").
			Limit(s.opts.PageSize).Offset(offset).
			Find(&page).Error; err != nil {
			return nil, fmt.Errorf("failed to page courses at offset %d: %w", offset, err)
		}
		for _, c := range page {
			ids[CourseKey{SubjectCode: c.SubjectCode, CatalogNumber: c.CatalogNumber}] = c.ID
		}
		if len(page) < s.opts.PageSize {
			break
		}
	}
	return ids, nil
}

// UpsertSections batch-upserts sections, conflict target = (term_code, class_number).
func (s *gormStore) UpsertSections(ctx context.Context, sections []model.Section) (int, error) {
	written := 0
	for start := 0; start < len(sections); start += s.opts.BatchSize {
		batch := sections[start:min(start+s.opts.BatchSize, len(sections))]
		err := s.opts.Retry.Do(ctx, "upsert sections batch", func() error {
			return s.db.WithContext(ctx).Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "term_code"}, {Name: "class_number"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"course_id", "section_number", "component", "instructor",
					"enrollment_cap", "enrollment_total", "waitlist_cap", "waitlist_total",
					"is_open", "updated_at",
				}),
			}).Create(&batch).Error
		})
		if err != nil {
			return written, fmt.Errorf("batch upsert sections failed: %w", err)
		}
		written += len(batch)
	}
	return written, nil
}

// SectionIDs builds the complete (term_code, class_number) -> id mapping for
// one term, using the same paging strategy as CourseIDs.
func (s *gormStore) SectionIDs(ctx context.Context, termCode string) (map[SectionKey]int64, error) {
	ids := make(map[SectionKey]int64)
	for offset := 0; ; offset += s.opts.PageSize {
		var page []model.Section
		if err := s.db.WithContext(ctx).
			Select("id", "term_code", "class_number").
			Where("term_code = ?", termCode).
			Order("id").
			Limit(s.opts.PageSize).Offset(offset).
			Find(&page).Error; err != nil {
			return nil, fmt.Errorf("failed to page sections at offset %d: %w", offset, err)
		}
		for _, sec := range page {
			ids[SectionKey{TermCode: sec.TermCode, ClassNumber: sec.ClassNumber}] = sec.ID
		}
		if len(page) < s.opts.PageSize {
			break
		}
	}
	return ids, nil
}

// ReplaceMeetings deletes all existing meetings for the affected sections and
// inserts the new set. Both halves run in one transaction so a concurrent
// reader never observes a half-replaced section; the retry wraps the whole
// transaction because an aborted transaction cannot be resumed mid-statement.
func (s *gormStore) ReplaceMeetings(ctx context.Context, sectionIDs []int64, meetings []model.Meeting) (int, error) {
	if len(sectionIDs) == 0 {
		return 0, nil
	}

	written := 0
	err := s.opts.Retry.Do(ctx, "replace meetings", func() error {
		written = 0
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for start := 0; start < len(sectionIDs); start += s.opts.MaxFilterIn {
				chunk := sectionIDs[start:min(start+s.opts.MaxFilterIn, len(sectionIDs))]
				if err := tx.Where("section_id IN ?", chunk).Delete(&model.Meeting{}).Error; err != nil {
					return fmt.Errorf("failed to delete stale meetings: %w", err)
				}
			}

			for start := 0; start < len(meetings); start += s.opts.BatchSize {
				batch := meetings[start:min(start+s.opts.BatchSize, len(meetings))]
				if err := tx.Create(&batch).Error; err != nil {
					return fmt.Errorf("batch insert meetings failed: %w", err)
				}
				written += len(batch)
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	log.Printf("Replaced meetings for %d sections (%d rows)", len(sectionIDs), written)
	return written, nil
}

// CreateRun inserts the run record with status started.
func (s *gormStore) CreateRun(ctx context.Context, run *model.IngestionRun) error {
	run.Status = model.RunStatusStarted
	return s.db.WithContext(ctx).Create(run).Error
}

// FinalizeRun writes the run's terminal state. Called exactly once per run.
func (s *gormStore) FinalizeRun(ctx context.Context, run *model.IngestionRun) error {
	return s.db.WithContext(ctx).Save(run).Error
}
