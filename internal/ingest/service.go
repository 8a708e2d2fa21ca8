package ingest

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"schedule-sync-backend/config"
	"schedule-sync-backend/internal/feed"
	"schedule-sync-backend/internal/model"
	"schedule-sync-backend/internal/normalize"
	"schedule-sync-backend/internal/notification"
	"schedule-sync-backend/internal/parse"
	"schedule-sync-backend/internal/store"
)

// Summary is the result of a successful ingestion run, returned to the caller.
type Summary struct {
	TermCode        string `json:"termCode"`
	FileName        string `json:"fileName"`
	RawRows         int    `json:"rawRows"`
	Subjects        int    `json:"subjects"`
	Courses         int    `json:"courses"`
	Sections        int    `json:"sections"`
	Meetings        int    `json:"meetings"`
	SkippedSections int    `json:"skippedSections"`
	SkippedMeetings int    `json:"skippedMeetings"`
	DurationMS      int64  `json:"durationMs"`
}

// Service orchestrates one full-term ingestion: locate file, normalize,
// resolve and upsert, record the run, invalidate the read cache.
type Service struct {
	cfg      *config.Config
	store    store.Store
	cache    *cache.Cache
	pool     *notification.WorkerPool
	mu       sync.Mutex
	inFlight map[string]bool
}

// NewService creates a new ingestion service. cacheStore and pool may be nil
// (the CLI runs without a read cache or push notifications).
func NewService(cfg *config.Config, s store.Store, cacheStore *cache.Cache, pool *notification.WorkerPool) *Service {
	return &Service{
		cfg:      cfg,
		store:    s,
		cache:    cacheStore,
		pool:     pool,
		inFlight: make(map[string]bool),
	}
}

// IngestTerm runs the full reconciliation pipeline for one term. Input errors
// (bad term code, missing file) fail before a run record exists; anything
// after run creation is recorded into the run record before being returned.
func (s *Service) IngestTerm(ctx context.Context, termCode string) (*Summary, error) {
	if !parse.ValidTermCode(termCode) {
		return nil, fmt.Errorf("invalid term code %q, expected (FA|WN|SP|SU)YYYY", termCode)
	}

	if !s.begin(termCode) {
		return nil, fmt.Errorf("an ingestion run for term %s is already in flight", termCode)
	}
	defer s.end(termCode)

	path, err := feed.Locate(s.cfg.Ingest.SourceDir, termCode)
	if err != nil {
		return nil, err
	}
	rows, err := feed.Read(path)
	if err != nil {
		return nil, err
	}

	run := &model.IngestionRun{
		TermCode: termCode,
		Source:   s.cfg.Ingest.Source,
		FileName: filepath.Base(path),
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run record: %w", err)
	}
	log.Printf("Ingestion run %d started for term %s (%s, %d rows)", run.ID, termCode, run.FileName, len(rows))

	started := time.Now()
	summary, err := s.reconcile(ctx, termCode, rows, run)
	run.DurationMS = time.Since(started).Milliseconds()

	if err != nil {
		run.Status = model.RunStatusFailed
		msg := err.Error()
		run.ErrorMessage = &msg
		if ferr := s.store.FinalizeRun(ctx, run); ferr != nil {
			log.Printf("Error finalizing failed run %d: %v", run.ID, ferr)
		}
		return nil, err
	}

	run.Status = model.RunStatusSuccess
	if err := s.store.FinalizeRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to finalize run record: %w", err)
	}

	// A successful run invalidates every cached read result.
	if s.cache != nil {
		s.cache.Flush()
	}
	if s.pool != nil {
		s.pool.Dispatch(termCode)
	}

	summary.DurationMS = run.DurationMS
	log.Printf("Ingestion run %d finished for term %s in %dms", run.ID, termCode, run.DurationMS)
	return summary, nil
}

// reconcile normalizes the raw rows and persists the entity sets in strict
// dependency order: subjects, courses, sections (after course id resolution),
// then a full replace of meetings (after section id resolution).
func (s *Service) reconcile(ctx context.Context, termCode string, rows []feed.Record, run *model.IngestionRun) (*Summary, error) {
	term, err := parse.Term(termCode)
	if err != nil {
		return nil, err
	}
	if err := s.store.EnsureTerm(ctx, term); err != nil {
		return nil, fmt.Errorf("failed to ensure term %s: %w", termCode, err)
	}

	set := normalize.Run(termCode, rows)
	run.RawRows = set.RawRows

	subjects, err := s.store.UpsertSubjects(ctx, set.Subjects)
	if err != nil {
		return nil, err
	}
	run.Subjects = subjects

	courses, err := s.store.UpsertCourses(ctx, set.Courses)
	if err != nil {
		return nil, err
	}
	run.Courses = courses

	courseIDs, err := s.store.CourseIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve course ids: %w", err)
	}

	sections := make([]model.Section, 0, len(set.Sections))
	for _, sec := range set.Sections {
		courseID, ok := courseIDs[store.CourseKey{SubjectCode: sec.SubjectCode, CatalogNumber: sec.CatalogNumber}]
		if !ok {
			run.SkippedSections++
			continue
		}
		row := sec.Section
		row.CourseID = courseID
		sections = append(sections, row)
	}
	written, err := s.store.UpsertSections(ctx, sections)
	if err != nil {
		return nil, err
	}
	run.Sections = written

	sectionIDs, err := s.store.SectionIDs(ctx, termCode)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve section ids: %w", err)
	}

	meetings := make([]model.Meeting, 0, len(set.Meetings))
	touched := make([]int64, 0, len(sections))
	seenSections := make(map[int64]bool)
	for _, m := range set.Meetings {
		sectionID, ok := sectionIDs[store.SectionKey{TermCode: m.TermCode, ClassNumber: m.ClassNumber}]
		if !ok {
			run.SkippedMeetings++
			continue
		}
		row := m.Meeting
		row.SectionID = sectionID
		meetings = append(meetings, row)
		if !seenSections[sectionID] {
			seenSections[sectionID] = true
			touched = append(touched, sectionID)
		}
	}
	inserted, err := s.store.ReplaceMeetings(ctx, touched, meetings)
	if err != nil {
		return nil, err
	}
	run.Meetings = inserted

	return &Summary{
		TermCode:        termCode,
		FileName:        run.FileName,
		RawRows:         run.RawRows,
		Subjects:        run.Subjects,
		Courses:         run.Courses,
		Sections:        run.Sections,
		Meetings:        run.Meetings,
		SkippedSections: run.SkippedSections,
		SkippedMeetings: run.SkippedMeetings,
	}, nil
}

// begin marks a term's run as in flight; it reports false when one already is.
func (s *Service) begin(termCode string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[termCode] {
		return false
	}
	s.inFlight[termCode] = true
	return true
}

func (s *Service) end(termCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, termCode)
}
