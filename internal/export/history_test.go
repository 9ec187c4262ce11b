package export

import (
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const historySchema = `
CREATE TABLE history_items (id INTEGER PRIMARY KEY AUTOINCREMENT, url TEXT NOT NULL UNIQUE, domain_expansion TEXT NULL, visit_count INTEGER NOT NULL);
CREATE TABLE history_visits (id INTEGER PRIMARY KEY AUTOINCREMENT, history_item INTEGER NOT NULL REFERENCES history_items(id), visit_time REAL NOT NULL, title TEXT NULL);
`

// mkHistoryDB builds a minimal Safari History.db and returns its path.
func mkHistoryDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "History.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(historySchema)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO history_items (id, url, visit_count) VALUES
		(1, 'https://example.com/', 2),
		(2, 'https://golang.org/doc/', 1)`)
	require.NoError(t, err)

	// inserted out of order so the query has to sort
	_, err = db.Exec(`INSERT INTO history_visits (history_item, visit_time, title) VALUES
		(1, 700000000.75, 'Example'),
		(2, 700003600.0, NULL),
		(1, 700007200.5, 'Example, again')`)
	require.NoError(t, err)
	return path
}

func TestHistoryExporter(t *testing.T) {
	src := &fakeSource{files: map[string]string{"Library/Safari/History.db": mkHistoryDB(t)}}
	out := filepath.Join(t.TempDir(), "Safari History.csv")

	e := &HistoryExporter{Location: time.UTC}
	require.NoError(t, e.Export(src, t.TempDir(), out))

	assert.Equal(t, []string{
		"file:Library/Safari/History.db",
		"file:Library/Safari/History.db-wal",
		"file:Library/Safari/History.db-shm",
	}, src.calls)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	// 700000000 seconds after 2001-01-01 is 2023-03-08 20:26:40 UTC
	assert.Equal(t, [][]string{
		{"Visit Time", "Title", "URL", "Visit Count"},
		{"2023-03-08 22:26:40", "Example, again", "https://example.com/", "2"},
		{"2023-03-08 21:26:40", "", "https://golang.org/doc/", "1"},
		{"2023-03-08 20:26:40", "Example", "https://example.com/", "2"},
	}, rows)
}

func TestHistoryExporterHeaderLine(t *testing.T) {
	src := &fakeSource{files: map[string]string{"Library/Safari/History.db": mkHistoryDB(t)}}
	out := filepath.Join(t.TempDir(), "Safari History.csv")

	require.NoError(t, (&HistoryExporter{Location: time.UTC}).Export(src, t.TempDir(), out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.SplitAfter(string(data), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Visit Time,Title,URL,Visit Count\r\n", lines[0])
	for _, l := range lines[1:4] {
		assert.True(t, strings.HasSuffix(l, "\r\n"), "line %q", l)
	}
	assert.Empty(t, lines[4])
}

// TestVisitTimeMatchesSQLite checks the conversion against SQLite's own DATETIME.
func TestVisitTimeMatchesSQLite(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	for _, v := range []float64{0, 700000000, 700000000.5, 700000000.0004, 700000000.999, 700000000.9996, 700000000.99951, 731234567.123456} {
		var want string
		require.NoError(t, db.QueryRow(`SELECT DATETIME(? + 978307200, 'unixepoch')`, v).Scan(&want))
		assert.Equal(t, want, VisitTime(v, time.UTC).Format(VisitTimeFormat), "visit_time %v", v)
	}
}

func TestHistoryExporterMissingDB(t *testing.T) {
	src := &fakeSource{files: map[string]string{}}
	err := (&HistoryExporter{}).Export(src, t.TempDir(), filepath.Join(t.TempDir(), "out.csv"))
	require.Error(t, err)
}

func TestHistoryExporterNotADatabase(t *testing.T) {
	bogus := filepath.Join(t.TempDir(), "History.db")
	require.NoError(t, os.WriteFile(bogus, []byte("this is not a sqlite database at all, just text padding it out"), 0644))
	src := &fakeSource{files: map[string]string{"Library/Safari/History.db": bogus}}

	err := (&HistoryExporter{}).Export(src, t.TempDir(), filepath.Join(t.TempDir(), "out.csv"))
	require.Error(t, err)
}

func TestVisitTime(t *testing.T) {
	assert.True(t, time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC).Equal(VisitTime(0, time.UTC)))

	got := VisitTime(700000000.999, time.UTC)
	assert.Equal(t, "2023-03-08 20:26:40", got.Format(VisitTimeFormat))

	// sub-millisecond fractions round up into the next second
	for _, v := range []float64{700000000.9996, 700000000.99951} {
		assert.Equal(t, "2023-03-08 20:26:41", VisitTime(v, time.UTC).Format(VisitTimeFormat), "%v", v)
	}
	assert.Equal(t, "2023-03-08 20:26:40", VisitTime(700000000.0004, time.UTC).Format(VisitTimeFormat))
	assert.Equal(t, "2023-03-08 20:26:40", VisitTime(700000000.5, time.UTC).Format(VisitTimeFormat))

	got = VisitTime(-0.5, time.UTC)
	assert.Equal(t, "2000-12-31 23:59:59", got.Format(VisitTimeFormat))

	tokyo := time.FixedZone("JST", 9*3600)
	assert.Equal(t, "2001-01-01 09:00:00", VisitTime(0, tokyo).Format(VisitTimeFormat))
}
