package classifier

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairprice/models"
)

func testModel() LinearModel {
	return LinearModel{
		Intercepts: []float64{0, 0.5, 0},
		Numeric: map[string][]float64{
			"price_position": {-4, 0, 4},
			"bedrooms":       {0.1, 0, -0.1},
		},
		Categorical: map[string]map[string][]float64{
			"category": {
				"For Rent": {0, 0, 0},
				"For Sale": {0.2, 0, -0.2},
			},
		},
	}
}

func rowWithPosition(pos float64) models.SchemaRow {
	return models.SchemaRow{
		Bedrooms:      2,
		Category:      "For Rent",
		Type:          "Apartment",
		SubType:       "Flat & Apartment",
		PricePosition: pos,
	}
}

func TestLinearProbabilitiesSumToOne(t *testing.T) {
	l, err := NewLinear(testModel())
	require.NoError(t, err)

	for _, pos := range []float64{-0.9, -0.2, 0, 0.3, 2.5} {
		probs, err := l.PredictProba(context.Background(), rowWithPosition(pos))
		require.NoError(t, err)
		require.Len(t, probs, models.NumLabels)

		sum := 0.0
		for _, p := range probs {
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 1.0)
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestLinearPredictFollowsPricePosition(t *testing.T) {
	l, err := NewLinear(testModel())
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		pos  float64
		want int
	}{
		{-1.0, int(models.Underpriced)},
		{0.0, int(models.FairlyPriced)},
		{1.0, int(models.Overpriced)},
	}
	for _, tt := range tests {
		got, err := l.Predict(ctx, rowWithPosition(tt.pos))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "price_position=%v", tt.pos)
	}
}

func TestLinearUnseenLevel(t *testing.T) {
	l, err := NewLinear(testModel())
	require.NoError(t, err)

	row := rowWithPosition(0)
	row.Category = "For Lease"
	_, err = l.PredictProba(context.Background(), row)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unseen level")
}

func TestLinearRejectsNonFiniteInput(t *testing.T) {
	l, err := NewLinear(testModel())
	require.NoError(t, err)

	_, err = l.PredictProba(context.Background(), rowWithPosition(math.Inf(1)))
	assert.Error(t, err)
}

func TestNewLinearValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*LinearModel)
	}{
		{"missing intercepts", func(m *LinearModel) { m.Intercepts = []float64{1} }},
		{"unknown column", func(m *LinearModel) { m.Numeric["sqft"] = []float64{1, 2, 3} }},
		{"short coefficients", func(m *LinearModel) { m.Numeric["toilets"] = []float64{1} }},
		{"bad level width", func(m *LinearModel) {
			m.Categorical["type"] = map[string][]float64{"House": {1, 2}}
		}},
		{"no coefficients", func(m *LinearModel) {
			m.Numeric = nil
			m.Categorical = nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testModel()
			tt.mutate(&m)
			_, err := NewLinear(m)
			assert.Error(t, err)
		})
	}
}

func TestLoadLinear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	content := `intercepts: [0, 0.5, 0]
numeric:
  price_position: [-4, 0, 4]
categorical:
  sub_type:
    "Flat & Apartment": [0, 0.1, 0]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	l, err := LoadLinear(path)
	require.NoError(t, err)

	got, err := l.Predict(context.Background(), rowWithPosition(2))
	require.NoError(t, err)
	assert.Equal(t, int(models.Overpriced), got)

	_, err = LoadLinear(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBundledModel(t *testing.T) {
	l, err := LoadLinear(filepath.Join("..", "data", "model.yaml"))
	require.NoError(t, err)

	row := rowWithPosition(-0.6)
	got, err := l.Predict(context.Background(), row)
	require.NoError(t, err)
	assert.Equal(t, int(models.Underpriced), got)

	row = rowWithPosition(0.05)
	got, err = l.Predict(context.Background(), row)
	require.NoError(t, err)
	assert.Equal(t, int(models.FairlyPriced), got)
}
