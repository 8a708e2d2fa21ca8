package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"schedule-sync-backend/config"
	"schedule-sync-backend/internal/db"
	"schedule-sync-backend/internal/ingest"
	"schedule-sync-backend/internal/retry"
	"schedule-sync-backend/internal/store"
)

func main() {
	// Load .env file if present; environment may also be set externally.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <TERM_CODE>\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "example: schedctl FA2025")
		os.Exit(2)
	}
	termCode := os.Args[1]

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	appStore := store.NewGormStore(gormDB, store.Options{
		PageSize:    cfg.Ingest.PageSize,
		BatchSize:   cfg.Ingest.BatchSize,
		MaxFilterIn: cfg.Ingest.MaxFilterIn,
		Retry: retry.Policy{
			MaxRetries: cfg.Ingest.MaxRetries,
			BaseDelay:  cfg.Ingest.BaseDelay,
		},
	})

	// The CLI runs without a read cache or push notifications.
	svc := ingest.NewService(cfg, appStore, nil, nil)

	summary, err := svc.IngestTerm(context.Background(), termCode)
	if err != nil {
		color.Red("Ingestion failed for %s: %v", termCode, err)
		os.Exit(1)
	}

	color.Green("Ingestion succeeded for %s (%s)", summary.TermCode, summary.FileName)
	printSummary(summary)
}

func printSummary(summary *ingest.Summary) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Raw rows", strconv.Itoa(summary.RawRows)})
	table.Append([]string{"Subjects upserted", strconv.Itoa(summary.Subjects)})
	table.Append([]string{"Courses upserted", strconv.Itoa(summary.Courses)})
	table.Append([]string{"Sections upserted", strconv.Itoa(summary.Sections)})
	table.Append([]string{"Meetings inserted", strconv.Itoa(summary.Meetings)})
	table.Append([]string{"Sections skipped", strconv.Itoa(summary.SkippedSections)})
	table.Append([]string{"Meetings skipped", strconv.Itoa(summary.SkippedMeetings)})
	table.Append([]string{"Duration (ms)", strconv.FormatInt(summary.DurationMS, 10)})
	table.Render()
}
