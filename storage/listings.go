package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fairprice/models"
)

// ListingRecord is one data line of a listings CSV. Err is set when a
// cell could not be read; the other fields hold what could.
type ListingRecord struct {
	Line int
	Form models.RawListingForm
	Err  error
}

// ReadListingForms reads raw listing forms from a CSV file with a header
// row. Only the state, locality and listed_price columns are required.
// Values are kept as typed; cleaning happens when each form is scored. A
// bad cell fails only its own record; a malformed file fails the whole read.
func ReadListingForms(path string) ([]ListingRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("listings: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("listings: read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, req := range []string{"state", "locality", "listed_price"} {
		if _, ok := idx[req]; !ok {
			return nil, fmt.Errorf("listings: missing column %q", req)
		}
	}

	var records []ListingRecord
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listings: line %d: %w", line, err)
		}
		form, err := formFromRecord(rec, idx)
		records = append(records, ListingRecord{Line: line, Form: form, Err: err})
	}
	return records, nil
}

func formFromRecord(rec []string, idx map[string]int) (models.RawListingForm, error) {
	get := func(col string) string {
		if i, ok := idx[col]; ok && i < len(rec) {
			return rec[i]
		}
		return ""
	}
	var firstErr error
	count := func(col string) int {
		v := strings.TrimSpace(get(col))
		if v == "" {
			return 0
		}
		n, err := strconv.Atoi(v)
		if err != nil && firstErr == nil {
			firstErr = &models.InvalidListing{Field: col, Reason: fmt.Sprintf("%q is not a whole number", v)}
		}
		return n
	}
	flag := func(col string) bool {
		switch strings.ToLower(strings.TrimSpace(get(col))) {
		case "1", "true", "yes", "y":
			return true
		}
		return false
	}

	form := models.RawListingForm{
		State:        get("state"),
		Locality:     get("locality"),
		Category:     get("category"),
		PropertyType: get("property_type"),
		SubType:      get("sub_type"),
		Bedrooms:     count("bedrooms"),
		Bathrooms:    count("bathrooms"),
		Toilets:      count("toilets"),
		Parking:      count("parking"),
		Furnished:    flag("furnished"),
		Serviced:     flag("serviced"),
		Shared:       flag("shared"),
		ListedPrice:  get("listed_price"),
	}
	return form, firstErr
}

// ResultWriter writes batch scoring outcomes as CSV, one line per listing.
type ResultWriter struct {
	file   *os.File
	writer *csv.Writer
}

var resultColumns = []string{
	"state", "locality", "listed_price", "label",
	"p_underpriced", "p_fairly_priced", "p_overpriced",
	"position", "summary", "error",
}

func NewResultWriter(path string) (*ResultWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(resultColumns); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	return &ResultWriter{file: f, writer: w}, nil
}

// Write records one outcome. When scoreErr is set the score columns are
// left empty and the error message fills the last column.
func (w *ResultWriter) Write(form models.RawListingForm, res *models.ScoringResult, scoreErr error) error {
	row := make([]string, len(resultColumns))
	row[0] = form.State
	row[1] = form.Locality
	row[2] = form.ListedPrice

	switch {
	case scoreErr != nil:
		row[9] = scoreErr.Error()
	case res != nil:
		row[2] = formatFloat(res.ListedPrice)
		row[3] = res.Label.String()
		for i, p := range res.Probabilities {
			row[4+i] = strconv.FormatFloat(p, 'f', 4, 64)
		}
		if res.Context != nil {
			row[7] = string(res.Context.Position)
			row[8] = res.Context.Summary
		}
	}

	if err := w.writer.Write(row); err != nil {
		return fmt.Errorf("csv: write row: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *ResultWriter) Close() error {
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("csv: flush: %w", err)
	}
	return w.file.Close()
}
