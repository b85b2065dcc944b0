package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fairprice/models"
)

// Remote calls an external model server over HTTP. Errors are always
// returned to the caller; there is no fallback prediction.
type Remote struct {
	baseURL    string
	httpClient *http.Client
}

// NewRemote creates a Remote client. A zero timeout means 30s.
func NewRemote(baseURL string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Remote{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type remoteRequest struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

type predictResponse struct {
	Predictions []int `json:"predictions"`
}

type probaResponse struct {
	Probabilities [][]float64 `json:"probabilities"`
}

// Predict calls {base}/predict.
func (r *Remote) Predict(ctx context.Context, row models.SchemaRow) (int, error) {
	var resp predictResponse
	if err := r.post(ctx, "/predict", row, &resp); err != nil {
		return 0, err
	}
	if len(resp.Predictions) != 1 {
		return 0, fmt.Errorf("classifier: remote predict returned %d predictions for 1 row", len(resp.Predictions))
	}
	return resp.Predictions[0], nil
}

// PredictProba calls {base}/predict_proba.
func (r *Remote) PredictProba(ctx context.Context, row models.SchemaRow) ([]float64, error) {
	var resp probaResponse
	if err := r.post(ctx, "/predict_proba", row, &resp); err != nil {
		return nil, err
	}
	if len(resp.Probabilities) != 1 {
		return nil, fmt.Errorf("classifier: remote predict_proba returned %d rows for 1 row", len(resp.Probabilities))
	}
	return resp.Probabilities[0], nil
}

// Health checks model server connectivity.
func (r *Remote) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("classifier: create health request: %w", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("classifier: health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("classifier: health check returned status %d", resp.StatusCode)
	}
	return nil
}

func (r *Remote) post(ctx context.Context, path string, row models.SchemaRow, out any) error {
	body, err := json.Marshal(remoteRequest{
		Columns: row.Columns(),
		Rows:    [][]any{row.Values()},
	})
	if err != nil {
		return fmt.Errorf("classifier: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("classifier: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("classifier: call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("classifier: %s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("classifier: decode %s response: %w", path, err)
	}
	return nil
}
