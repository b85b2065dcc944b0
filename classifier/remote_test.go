package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairprice/models"
)

func newModelServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		var req remoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Rows) != 1 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if len(req.Columns) != len(models.SchemaColumns) || len(req.Rows[0]) != len(req.Columns) {
			http.Error(w, "schema mismatch", http.StatusUnprocessableEntity)
			return
		}
		if status != http.StatusOK {
			http.Error(w, "model crashed", status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"predictions": []int{2}})
	})
	mux.HandleFunc("/predict_proba", func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			http.Error(w, "model crashed", status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"probabilities": [][]float64{{0.1, 0.2, 0.7}}})
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRemotePredict(t *testing.T) {
	srv := newModelServer(t, http.StatusOK)
	r := NewRemote(srv.URL+"/", time.Second)
	ctx := context.Background()

	got, err := r.Predict(ctx, rowWithPosition(0.4))
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	probs, err := r.PredictProba(ctx, rowWithPosition(0.4))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.7}, probs)

	assert.NoError(t, r.Health(ctx))
}

func TestRemoteNon200IsError(t *testing.T) {
	srv := newModelServer(t, http.StatusInternalServerError)
	r := NewRemote(srv.URL, time.Second)
	ctx := context.Background()

	_, err := r.Predict(ctx, rowWithPosition(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")

	_, err = r.PredictProba(ctx, rowWithPosition(0))
	assert.Error(t, err)
	assert.Error(t, r.Health(ctx))
}

func TestRemoteBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"predictions": "soon"`))
	}))
	defer srv.Close()

	_, err := NewRemote(srv.URL, time.Second).Predict(context.Background(), rowWithPosition(0))
	assert.Error(t, err)
}

func TestRemoteUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewRemote(url, 200*time.Millisecond).PredictProba(context.Background(), rowWithPosition(0))
	assert.Error(t, err)
}
