package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Record is one loosely-typed row of the registrar export, keyed by header name.
type Record map[string]string

// Locate finds the source file for a term under dir. An exact "<TERM>.csv"
// match is preferred; otherwise the first file whose name contains the term
// code is used.
func Locate(dir, termCode string) (string, error) {
	exact := filepath.Join(dir, termCode+".csv")
	if _, err := os.Stat(exact); err == nil {
		return exact, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read source directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if strings.Contains(name, termCode) {
			return filepath.Join(dir, name), nil
		}
	}
	return "", fmt.Errorf("no source file found for term %s in %s", termCode, dir)
}

// Read materializes the export file into an ordered slice of records. The
// first row is treated as the header; short rows are padded with empty fields.
func Read(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // the export is not strictly rectangular

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(records)+2, err)
		}

		record := make(Record, len(header))
		for i, col := range header {
			if i < len(row) {
				record[col] = row[i]
			} else {
				record[col] = ""
			}
		}
		records = append(records, record)
	}

	return records, nil
}
