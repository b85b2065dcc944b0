package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairprice/classifier"
	"fairprice/models"
	"fairprice/services"
	"fairprice/utils"
)

type staticSource struct{ snap *models.StatisticsSnapshot }

func (s staticSource) Load(context.Context) (*models.StatisticsSnapshot, error) { return s.snap, nil }

type fixedClassifier struct {
	probs []float64
	err   error
}

func (f fixedClassifier) Predict(context.Context, models.SchemaRow) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	best := 0
	for i, p := range f.probs {
		if p > f.probs[best] {
			best = i
		}
	}
	return best, nil
}

func (f fixedClassifier) PredictProba(context.Context, models.SchemaRow) ([]float64, error) {
	return f.probs, f.err
}

func newTestApp(t *testing.T, clf classifier.Classifier) *fiber.App {
	t.Helper()
	snap := &models.StatisticsSnapshot{
		Global: models.GlobalStatistics{BedroomMean: 2.5, BathroomMean: 2, ValidStates: []string{"Nairobi", "Mombasa"}},
		Localities: []models.LocalityStatistics{
			{Locality: "Westlands", Q25: 40000, Median: 60000, Q75: 90000},
			{Locality: "Kilimani", Q25: 50000, Median: 70000, Q75: 100000},
			{Locality: "Nyali", Q25: 30000, Median: 45000, Q75: 80000},
		},
		StateLocalities: map[string][]string{
			"Nairobi": {"Westlands", "Kilimani"},
			"Mombasa": {"Nyali"},
		},
	}
	loader := services.NewLoader(services.Sources{
		Statistics: staticSource{snap},
		Classifier: func(context.Context) (classifier.Classifier, error) { return clf, nil },
		Logger:     utils.Discard(),
	})
	return New(loader, utils.Discard(), false)
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

const westlandsForm = `{
	"state": "Nairobi",
	"locality": "Westlands",
	"category": "For Rent",
	"property_type": "Apartment",
	"sub_type": "Flat & Apartment",
	"bedrooms": 2,
	"bathrooms": 2,
	"toilets": 3,
	"parking": 1,
	"furnished": true,
	"listed_price": "KES 30,000"
}`

func TestHealth(t *testing.T) {
	h := newTestApp(t, fixedClassifier{probs: []float64{0.2, 0.5, 0.3}})
	code, body := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "statistics", body["mode"])
	assert.EqualValues(t, 3, body["localities"])
}

func TestListStatesAndLocalities(t *testing.T) {
	h := newTestApp(t, fixedClassifier{probs: []float64{0.2, 0.5, 0.3}})

	code, body := do(t, h, http.MethodGet, "/api/v1/states", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"Mombasa", "Nairobi"}, body["data"])

	code, body = do(t, h, http.MethodGet, "/api/v1/states/Nairobi/localities", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"Kilimani", "Westlands"}, body["data"])

	code, body = do(t, h, http.MethodGet, "/api/v1/states/Atlantis/localities", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, true, body["error"])
}

func TestFormOptions(t *testing.T) {
	h := newTestApp(t, fixedClassifier{probs: []float64{0.2, 0.5, 0.3}})
	code, body := do(t, h, http.MethodGet, "/api/v1/options", "")
	require.Equal(t, http.StatusOK, code)

	data := body["data"].(map[string]any)
	assert.Len(t, data["sub_types"], 13)
	assert.EqualValues(t, 10, data["max_rooms"])
}

func TestScore(t *testing.T) {
	h := newTestApp(t, fixedClassifier{probs: []float64{0.7, 0.2, 0.1}})
	code, body := do(t, h, http.MethodPost, "/api/v1/score", westlandsForm)
	require.Equal(t, http.StatusOK, code, "body: %v", body)

	assert.Equal(t, true, body["success"])
	assert.InDelta(t, 0.7, body["confidence"], 1e-12)

	data := body["data"].(map[string]any)
	assert.Equal(t, "underpriced", data["label"])
	assert.Equal(t, []any{0.7, 0.2, 0.1}, data["probabilities"])

	ctx := data["context"].(map[string]any)
	assert.InDelta(t, -50.0, ctx["deviation_pct"], 1e-9)
	assert.Equal(t, "below_q25", ctx["position"])
	assert.Equal(t, "below q25 by 33.3%", ctx["summary"])

	features := data["features"].(map[string]any)
	assert.InDelta(t, 10000.0, features["price_per_bedroom"], 1e-9)
}

func TestScoreErrors(t *testing.T) {
	tests := []struct {
		name string
		clf  fixedClassifier
		body string
		code int
		kind string
	}{
		{
			name: "unknown locality",
			clf:  fixedClassifier{probs: []float64{0.2, 0.5, 0.3}},
			body: strings.Replace(westlandsForm, "Westlands", "Karen", 1),
			code: http.StatusNotFound,
			kind: "locality_not_found",
		},
		{
			name: "locality of another state",
			clf:  fixedClassifier{probs: []float64{0.2, 0.5, 0.3}},
			body: strings.Replace(westlandsForm, "Westlands", "Nyali", 1),
			code: http.StatusNotFound,
			kind: "locality_not_found",
		},
		{
			name: "unknown state",
			clf:  fixedClassifier{probs: []float64{0.2, 0.5, 0.3}},
			body: strings.Replace(westlandsForm, `"Nairobi"`, `"Atlantis"`, 1),
			code: http.StatusNotFound,
			kind: "locality_not_found",
		},
		{
			name: "bad price",
			clf:  fixedClassifier{probs: []float64{0.2, 0.5, 0.3}},
			body: strings.Replace(westlandsForm, "KES 30,000", "call agent", 1),
			code: http.StatusBadRequest,
			kind: "invalid_listing",
		},
		{
			name: "malformed body",
			clf:  fixedClassifier{probs: []float64{0.2, 0.5, 0.3}},
			body: `{"state": `,
			code: http.StatusBadRequest,
			kind: "invalid_listing",
		},
		{
			name: "classifier error",
			clf:  fixedClassifier{err: errors.New("unseen level")},
			body: westlandsForm,
			code: http.StatusBadGateway,
			kind: "scoring_failed",
		},
		{
			name: "probabilities do not sum to one",
			clf:  fixedClassifier{probs: []float64{0.6, 0.6, 0.6}},
			body: westlandsForm,
			code: http.StatusBadGateway,
			kind: "scoring_failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestApp(t, tt.clf)
			code, body := do(t, h, http.MethodPost, "/api/v1/score", tt.body)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, true, body["error"])
			assert.Equal(t, tt.kind, body["kind"])
			assert.True(t, strings.HasPrefix(body["message"].(string), "cannot classify: "), body["message"])
			assert.NotContains(t, body, "data")
		})
	}
}

func TestRuntimeInitFailure(t *testing.T) {
	loader := services.NewLoader(services.Sources{
		Statistics: staticSource{&models.StatisticsSnapshot{}},
		Classifier: func(context.Context) (classifier.Classifier, error) { return fixedClassifier{}, nil },
	})
	h := New(loader, utils.Discard(), false)

	code, body := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "init_error", body["kind"])
}
