// Copyright (c) 2019, Gareth Watts
// All rights reserved.

package export

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gwatts/iosexport/internal/session"
)

const (
	safariHistoryPath = "Library/Safari/History.db"

	// appleEpochOffset is the number of seconds between the Unix epoch and
	// 2001-01-01T00:00:00Z, the reference date Safari stores visit times against.
	appleEpochOffset = 978307200

	VisitTimeFormat = "2006-01-02 15:04:05"
)

// HistoryHeader is the header row of the Safari history CSV.
var HistoryHeader = []string{"Visit Time", "Title", "URL", "Visit Count"}

const historyQuery = `
SELECT v.visit_time, v.title, i.url, i.visit_count
FROM history_items AS i
JOIN history_visits AS v ON v.history_item = i.id
ORDER BY v.visit_time DESC`

// HistoryExporter writes Safari's browsing history to a CSV file.
type HistoryExporter struct {
	// Location visit times are shown in. Nil means time.Local.
	Location *time.Location
}

func (e *HistoryExporter) Export(src Source, workDir, out string) error {
	db := filepath.Join(workDir, "History.db")
	if err := src.ExtractSingleFile(safariHistoryPath, db); err != nil {
		return err
	}
	// Recent visits may still sit in the write-ahead log.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := src.ExtractSingleFile(safariHistoryPath+suffix, db+suffix); err != nil && !errors.Is(err, session.ErrNoMatch) {
			return err
		}
	}
	return e.writeCSV(db, out)
}

func (e *HistoryExporter) writeCSV(dbPath, out string) error {
	loc := e.Location
	if loc == nil {
		loc = time.Local
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Query(historyQuery)
	if err != nil {
		return fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.UseCRLF = true
	if err := w.Write(HistoryHeader); err != nil {
		return err
	}
	for rows.Next() {
		var (
			visitTime float64
			title     sql.NullString
			url       string
			count     sql.NullInt64
		)
		if err := rows.Scan(&visitTime, &title, &url, &count); err != nil {
			return fmt.Errorf("failed to read history row: %w", err)
		}
		record := []string{
			VisitTime(visitTime, loc).Format(VisitTimeFormat),
			title.String,
			url,
			"",
		}
		if count.Valid {
			record[3] = strconv.FormatInt(count.Int64, 10)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// VisitTime converts a Safari visit timestamp to a time in loc.
// The value is rounded to the nearest millisecond first, as SQLite's
// DATETIME does before it drops the fraction.
func VisitTime(stored float64, loc *time.Location) time.Time {
	ms := int64(math.Floor((stored+appleEpochOffset)*1000 + 0.5))
	return time.UnixMilli(ms).In(loc)
}
