// Package classifier holds the price-class predictors the scoring engine
// can call. A predictor sees only schema rows, never listings.
package classifier

import (
	"context"

	"fairprice/models"
)

// Classifier is a trained three-class predictor over the fixed schema row.
// Implementations must be deterministic for identical rows.
type Classifier interface {
	// Predict returns the ordinal class 0, 1 or 2.
	Predict(ctx context.Context, row models.SchemaRow) (int, error)
	// PredictProba returns one probability per class, in ordinal order.
	PredictProba(ctx context.Context, row models.SchemaRow) ([]float64, error)
}
