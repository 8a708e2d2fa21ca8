package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"schedule-sync-backend/config"
	"schedule-sync-backend/internal/model"
	"schedule-sync-backend/internal/retry"
	"schedule-sync-backend/internal/store"
)

const csvHeader = "Subject,Catalog Nbr,Class Nbr,Course Title,Units,Section,Component,Instructor,Enrollment Cap,Enrollment Total,Wait Cap,Wait Total,Days,Time,Location"

func setupTest(t *testing.T) (*config.Config, store.Store, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = testDB.AutoMigrate(
		&model.Term{}, &model.Subject{}, &model.Course{},
		&model.Section{}, &model.Meeting{}, &model.IngestionRun{},
	)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Ingest.SourceDir = t.TempDir()
	cfg.Ingest.Source = "registrar-export"
	cfg.Ingest.BatchSize = 2
	cfg.Ingest.PageSize = 10
	cfg.Ingest.MaxFilterIn = 2

	appStore := store.NewGormStore(testDB, store.Options{
		PageSize:    cfg.Ingest.PageSize,
		BatchSize:   cfg.Ingest.BatchSize,
		MaxFilterIn: cfg.Ingest.MaxFilterIn,
		Retry:       retry.Policy{MaxRetries: 1, BaseDelay: time.Millisecond},
	})
	return cfg, appStore, testDB
}

func writeSource(t *testing.T, cfg *config.Config, name string, rows ...string) {
	t.Helper()
	content := csvHeader + "\n" + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Ingest.SourceDir, name), []byte(content), 0o644))
}

func TestIngestTermEndToEnd(t *testing.T) {
	cfg, appStore, testDB := setupTest(t)
	writeSource(t, cfg, "FA2025.csv",
		`EECS,281,10001,Data Structures and Algorithms,4.00,001,LEC,Darden,200,180,50,10,MW,10:00AM-11:30AM,STAMPS AUD`,
		`EECS,281,10001,Data Structures and Algorithms,4.00,001,LEC,Darden,200,180,50,10,F,10:00AM-11:30AM,STAMPS AUD`,
		`EECS,281,10002,Data Structures and Algorithms,4.00,002,DIS,,40,40,10,3,TH,1:00PM- 2:30PM,1013 DOW`,
		`MATH,217,10003,Linear Algebra,1.00-4.00,001,LEC,Conger,100,50,0,0,ARR,ARR,`,
	)

	svc := NewService(cfg, appStore, nil, nil)
	summary, err := svc.IngestTerm(context.Background(), "FA2025")
	require.NoError(t, err)

	assert.Equal(t, "FA2025", summary.TermCode)
	assert.Equal(t, "FA2025.csv", summary.FileName)
	assert.Equal(t, 4, summary.RawRows)
	assert.Equal(t, 2, summary.Subjects)
	assert.Equal(t, 2, summary.Courses)
	assert.Equal(t, 3, summary.Sections)
	assert.Equal(t, 4, summary.Meetings)
	assert.Equal(t, 0, summary.SkippedSections)
	assert.Equal(t, 0, summary.SkippedMeetings)

	// Term row derived from the code.
	var term model.Term
	require.NoError(t, testDB.First(&term, "code = ?", "FA2025").Error)
	assert.Equal(t, "Fall 2025", term.Name)

	// The waitlisted discussion is not open; the lecture is.
	var discussion model.Section
	require.NoError(t, testDB.First(&discussion, "class_number = ?", "10002").Error)
	assert.False(t, discussion.IsOpen)
	assert.Equal(t, model.ComponentDiscussion, discussion.Component)

	// The arranged section's single meeting has null day/time fields.
	var arrangedSection model.Section
	require.NoError(t, testDB.First(&arrangedSection, "class_number = ?", "10003").Error)
	var arranged model.Meeting
	require.NoError(t, testDB.First(&arranged, "section_id = ?", arrangedSection.ID).Error)
	assert.True(t, arranged.IsArranged)
	assert.Nil(t, arranged.Days)
	assert.Nil(t, arranged.StartTime)

	// Credits range on the MATH course.
	var course model.Course
	require.NoError(t, testDB.First(&course, "subject_code = ? AND catalog_number = ?", "MATH", "217").Error)
	require.NotNil(t, course.CreditsMin)
	require.NotNil(t, course.CreditsMax)
	assert.Equal(t, 1.0, *course.CreditsMin)
	assert.Equal(t, 4.0, *course.CreditsMax)

	// Run record finalized as success.
	var run model.IngestionRun
	require.NoError(t, testDB.Order("id DESC").First(&run).Error)
	assert.Equal(t, model.RunStatusSuccess, run.Status)
	assert.Equal(t, 4, run.RawRows)
	assert.Nil(t, run.ErrorMessage)
}

func TestIngestTermIdempotent(t *testing.T) {
	cfg, appStore, testDB := setupTest(t)
	writeSource(t, cfg, "FA2025.csv",
		`EECS,281,10001,Data Structures and Algorithms,4.00,001,LEC,Darden,200,180,50,10,MW,10:00AM-11:30AM,STAMPS AUD`,
		`EECS,281,10002,Data Structures and Algorithms,4.00,002,DIS,,40,20,10,3,TH,1:00PM- 2:30PM,1013 DOW`,
	)

	svc := NewService(cfg, appStore, nil, nil)
	_, err := svc.IngestTerm(context.Background(), "FA2025")
	require.NoError(t, err)
	summary, err := svc.IngestTerm(context.Background(), "FA2025")
	require.NoError(t, err)

	counts := map[string]int64{}
	for name, m := range map[string]any{
		"subjects": &model.Subject{}, "courses": &model.Course{},
		"sections": &model.Section{}, "meetings": &model.Meeting{},
	} {
		var c int64
		require.NoError(t, testDB.Model(m).Count(&c).Error)
		counts[name] = c
	}
	assert.Equal(t, int64(1), counts["subjects"])
	assert.Equal(t, int64(1), counts["courses"])
	assert.Equal(t, int64(2), counts["sections"])
	assert.Equal(t, int64(2), counts["meetings"])
	assert.Equal(t, 2, summary.Sections)

	// Both runs are durably recorded.
	var runCount int64
	testDB.Model(&model.IngestionRun{}).Count(&runCount)
	assert.Equal(t, int64(2), runCount)
}

func TestIngestTermReplacesCorrectedMeetings(t *testing.T) {
	cfg, appStore, testDB := setupTest(t)
	writeSource(t, cfg, "FA2025.csv",
		`EECS,281,10001,Data Structures and Algorithms,4.00,001,LEC,Darden,200,180,50,10,MW,10:00AM-11:30AM,STAMPS AUD`,
	)

	svc := NewService(cfg, appStore, nil, nil)
	_, err := svc.IngestTerm(context.Background(), "FA2025")
	require.NoError(t, err)

	// The registrar resubmits the file with a corrected time.
	writeSource(t, cfg, "FA2025.csv",
		`EECS,281,10001,Data Structures and Algorithms,4.00,001,LEC,Darden,200,180,50,10,MW,11:00AM-12:30PM,STAMPS AUD`,
	)
	_, err = svc.IngestTerm(context.Background(), "FA2025")
	require.NoError(t, err)

	var section model.Section
	require.NoError(t, testDB.First(&section, "class_number = ?", "10001").Error)

	var meetings []model.Meeting
	require.NoError(t, testDB.Where("section_id = ?", section.ID).Find(&meetings).Error)
	require.Len(t, meetings, 1, "only the corrected meeting should remain")
	require.NotNil(t, meetings[0].StartTime)
	assert.Equal(t, "11:00:00", *meetings[0].StartTime)
}

func TestIngestTermInvalidTermCode(t *testing.T) {
	cfg, appStore, testDB := setupTest(t)
	svc := NewService(cfg, appStore, nil, nil)

	for _, code := range []string{"fa2025", "FA25", "XX2025", ""} {
		_, err := svc.IngestTerm(context.Background(), code)
		assert.Error(t, err)
	}

	// Input errors fail before any run record exists.
	var runCount int64
	testDB.Model(&model.IngestionRun{}).Count(&runCount)
	assert.Equal(t, int64(0), runCount)
}

func TestIngestTermMissingSourceFile(t *testing.T) {
	cfg, appStore, testDB := setupTest(t)
	svc := NewService(cfg, appStore, nil, nil)

	_, err := svc.IngestTerm(context.Background(), "FA2025")
	assert.Error(t, err)

	var runCount int64
	testDB.Model(&model.IngestionRun{}).Count(&runCount)
	assert.Equal(t, int64(0), runCount)
}

// failingStore wraps a real store and fails every section upsert.
type failingStore struct {
	store.Store
}

func (f *failingStore) UpsertSections(ctx context.Context, sections []model.Section) (int, error) {
	return 0, errors.New("backing store write rejected")
}

func TestIngestTermWriteFailureFinalizesRunAsFailed(t *testing.T) {
	cfg, appStore, testDB := setupTest(t)
	writeSource(t, cfg, "FA2025.csv",
		`EECS,281,10001,Data Structures and Algorithms,4.00,001,LEC,Darden,200,180,50,10,MW,10:00AM-11:30AM,STAMPS AUD`,
	)

	svc := NewService(cfg, &failingStore{Store: appStore}, nil, nil)
	_, err := svc.IngestTerm(context.Background(), "FA2025")
	require.Error(t, err)

	var run model.IngestionRun
	require.NoError(t, testDB.Order("id DESC").First(&run).Error)
	assert.Equal(t, model.RunStatusFailed, run.Status)
	require.NotNil(t, run.ErrorMessage)
	assert.Contains(t, *run.ErrorMessage, "backing store write rejected")
}

// orphanStore wraps a real store and hides all course ids, so every section
// reference is unresolvable.
type orphanStore struct {
	store.Store
}

func (o *orphanStore) CourseIDs(ctx context.Context) (map[store.CourseKey]int64, error) {
	return map[store.CourseKey]int64{}, nil
}

func TestIngestTermSkipAccounting(t *testing.T) {
	cfg, appStore, _ := setupTest(t)
	writeSource(t, cfg, "FA2025.csv",
		`EECS,281,10001,Data Structures and Algorithms,4.00,001,LEC,Darden,200,180,50,10,MW,10:00AM-11:30AM,STAMPS AUD`,
		`EECS,281,10002,Data Structures and Algorithms,4.00,002,DIS,,40,20,10,3,TH,1:00PM- 2:30PM,1013 DOW`,
	)

	svc := NewService(cfg, &orphanStore{Store: appStore}, nil, nil)
	summary, err := svc.IngestTerm(context.Background(), "FA2025")
	require.NoError(t, err, "unresolvable references are skips, not failures")

	assert.Equal(t, 2, summary.SkippedSections)
	assert.Equal(t, 0, summary.Sections)
	assert.Equal(t, 2, summary.SkippedMeetings)
	assert.Equal(t, 0, summary.Meetings)
}

func TestIngestTermFlushesReadCache(t *testing.T) {
	cfg, appStore, _ := setupTest(t)
	writeSource(t, cfg, "FA2025.csv",
		`EECS,281,10001,Data Structures and Algorithms,4.00,001,LEC,Darden,200,180,50,10,MW,10:00AM-11:30AM,STAMPS AUD`,
	)

	cacheStore := cache.New(5*time.Minute, 10*time.Minute)
	cacheStore.Set("/api/terms", "cached", cache.DefaultExpiration)

	svc := NewService(cfg, appStore, cacheStore, nil)
	_, err := svc.IngestTerm(context.Background(), "FA2025")
	require.NoError(t, err)

	assert.Equal(t, 0, cacheStore.ItemCount(), "successful run must flush all cached reads")
}

func TestIngestTermRejectsConcurrentRunForSameTerm(t *testing.T) {
	cfg, appStore, _ := setupTest(t)
	svc := NewService(cfg, appStore, nil, nil)

	require.True(t, svc.begin("FA2025"))
	_, err := svc.IngestTerm(context.Background(), "FA2025")
	assert.ErrorContains(t, err, "already in flight")
	svc.end("FA2025")

	// A different term is not blocked by FA2025's marker.
	require.True(t, svc.begin("WN2026"))
	svc.end("WN2026")
}
