package storage

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairprice/models"
	"fairprice/stats"
)

func density(f float64) *float64 { return &f }

func sampleSnapshot() *models.StatisticsSnapshot {
	return &models.StatisticsSnapshot{
		Global: models.GlobalStatistics{
			BedroomMean:  2.4,
			BathroomMean: 1.9,
			ValidStates:  []string{"Nairobi", "Mombasa"},
		},
		Localities: []models.LocalityStatistics{
			{Locality: "Westlands", Q25: 40000, Median: 60000, Q75: 90000},
			{Locality: "Nyali", Q25: 30000, Median: 45000, Q75: 80000, Density: density(0.05)},
			{Locality: "Runda", Q25: 150000, Median: 250000, Q75: 400000},
		},
		LocationDensity: map[string]float64{"Westlands": 0.4},
		StateLocalities: map[string][]string{
			"Nairobi": {"Westlands"},
			"Mombasa": {"Nyali"},
		},
	}
}

func TestFileSourceLoadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.yaml")
	content := `global:
  bedroom_mean: 2.4
  bathroom_mean: 1.9
  valid_states: [Nairobi]
location_price_stats:
  - locality: Westlands
    loc_q25: 40000
    loc_median: 60000
    loc_q75: 90000
location_density:
  Westlands: 0.4
state_locality_mapping:
  Nairobi: [Westlands]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	snap, err := NewFileSource(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2.4, snap.Global.BedroomMean)
	require.Len(t, snap.Localities, 1)
	assert.Equal(t, 60000.0, snap.Localities[0].Median)
	assert.Equal(t, 0.4, snap.LocationDensity["Westlands"])
	assert.Equal(t, []string{"Westlands"}, snap.StateLocalities["Nairobi"])
}

func TestFileSourceLoadsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	content := `{"global": {"bedroom_mean": 3, "bathroom_mean": 2, "valid_states": ["Kiambu"]},
"location_price_stats": [{"locality": "Ruaka", "loc_q25": 1, "loc_median": 2, "loc_q75": 3}],
"state_locality_mapping": {"Kiambu": ["Ruaka"]}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	snap, err := NewFileSource(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Kiambu"}, snap.Global.ValidStates)
	assert.Equal(t, "Ruaka", snap.Localities[0].Locality)
}

func TestFileSourceErrors(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "nope.yaml")).Load(context.Background())
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("global: [unterminated"), 0o644))
	_, err = NewFileSource(bad).Load(context.Background())
	assert.Error(t, err)
}

func TestWriteSnapshotFileIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "stats.yaml")
	require.NoError(t, WriteSnapshotFile(path, sampleSnapshot()))

	snap, err := NewFileSource(path).Load(context.Background())
	require.NoError(t, err)

	store, err := stats.New(snap)
	require.NoError(t, err)
	assert.Equal(t, 0.05, store.Density("Nyali"))
	assert.Equal(t, 3, store.Len())
}

func TestCSVWriterExportsStore(t *testing.T) {
	store, err := stats.New(sampleSnapshot())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "localities.csv")
	w, err := NewCSVWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteRows(RowsFromStore(store)))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 4)
	assert.Equal(t, []string{"state", "locality", "q25", "median", "q75", "density"}, records[0])
	assert.Equal(t, []string{"Mombasa", "Nyali", "30000", "45000", "80000", "0.05"}, records[1])
	assert.Equal(t, []string{"Nairobi", "Westlands", "40000", "60000", "90000", "0.4"}, records[2])
	// Runda has statistics but no state mapping.
	assert.Equal(t, []string{"", "Runda", "150000", "250000", "400000", "0.01"}, records[3])
}

func TestBundledStatistics(t *testing.T) {
	snap, err := NewFileSource(filepath.Join("..", "data", "training_stats.yaml")).Load(context.Background())
	require.NoError(t, err)

	store, err := stats.New(snap)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kiambu", "Mombasa", "Nairobi"}, store.States())
	assert.Equal(t, 5, store.Len())
}
