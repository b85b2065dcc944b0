package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"fairprice/models"
	"fairprice/stats"
)

// CSVWriter exports locality statistics to a CSV file.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write([]string{"state", "locality", "q25", "median", "q75", "density"}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}

	return &CSVWriter{file: f, writer: w}, nil
}

// LocalityRow is one exported line. State is empty for localities that no
// state mapping references.
type LocalityRow struct {
	State   string
	Stats   models.LocalityStatistics
	Density float64
}

// RowsFromStore lists every locality once per state it was observed
// under, ordered by state then locality.
func RowsFromStore(s *stats.Store) []LocalityRow {
	byName := make(map[string]models.LocalityStatistics, s.Len())
	for _, l := range s.Localities() {
		byName[l.Locality] = l
	}

	var rows []LocalityRow
	mapped := make(map[string]bool)
	for _, st := range s.States() {
		for _, name := range s.LocalitiesForState(st) {
			l, ok := byName[name]
			if !ok {
				continue
			}
			mapped[name] = true
			rows = append(rows, LocalityRow{State: st, Stats: l, Density: s.Density(name)})
		}
	}
	for _, l := range s.Localities() {
		if !mapped[l.Locality] {
			rows = append(rows, LocalityRow{Stats: l, Density: s.Density(l.Locality)})
		}
	}
	return rows
}

// WriteRows writes rows and flushes.
func (c *CSVWriter) WriteRows(rows []LocalityRow) error {
	for _, r := range rows {
		row := []string{
			r.State,
			r.Stats.Locality,
			formatFloat(r.Stats.Q25),
			formatFloat(r.Stats.Median),
			formatFloat(r.Stats.Q75),
			formatFloat(r.Density),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
