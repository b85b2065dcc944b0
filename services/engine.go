package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"fairprice/classifier"
	"fairprice/models"
	"fairprice/stats"
	"fairprice/utils"
)

// probabilityTolerance bounds how far predict_proba may drift from summing to 1.
const probabilityTolerance = 1e-6

// Engine scores listings against locality statistics. Each Score call is a
// pure function of its input and the store; the engine keeps no state
// between calls and is safe for concurrent use.
type Engine struct {
	store  *stats.Store
	clf    classifier.Classifier
	mode   models.Mode
	logger *utils.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMode selects statistics-derived or placeholder features.
func WithMode(m models.Mode) Option {
	return func(e *Engine) { e.mode = m }
}

// WithLogger sets the engine logger.
func WithLogger(l *utils.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine builds an Engine in ModeStatistics unless told otherwise.
func NewEngine(store *stats.Store, clf classifier.Classifier, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("engine: nil statistics store")
	}
	if clf == nil {
		return nil, errors.New("engine: nil classifier")
	}
	e := &Engine{store: store, clf: clf, mode: models.ModeStatistics, logger: utils.Discard()}
	for _, opt := range opts {
		opt(e)
	}
	switch e.mode {
	case models.ModeStatistics, models.ModePlaceholder:
	default:
		return nil, fmt.Errorf("engine: unknown scoring mode %q", e.mode)
	}
	return e, nil
}

// Mode reports the configured scoring mode.
func (e *Engine) Mode() models.Mode { return e.mode }

// Store returns the statistics store the engine reads from.
func (e *Engine) Store() *stats.Store { return e.store }

// Score classifies one listing. Failures are typed: *models.InvalidListing,
// *models.LocalityNotFound, *models.InvalidStatistics or
// *models.ScoringFailed. No result is ever returned alongside an error.
func (e *Engine) Score(ctx context.Context, in models.ListingInput) (*models.ScoringResult, error) {
	if err := validateListing(in); err != nil {
		return nil, err
	}

	loc, err := e.store.LookupLocality(in.State, in.Locality)
	if err != nil {
		e.logger.Debug("[engine] %v", err)
		return nil, err
	}

	var (
		fv models.FeatureVector
		pc *models.PriceContext
	)
	if e.mode == models.ModePlaceholder {
		fv = placeholderFeatures(in)
	} else {
		fv, err = DeriveFeatures(in, loc, e.store.Global(), e.store.Density(in.Locality))
		if err != nil {
			e.logger.Error("[engine] %v", err)
			return nil, err
		}
		pc = PriceContextFor(in.ListedPrice, loc)
	}

	label, probs, err := e.classify(ctx, Adapt(fv))
	if err != nil {
		e.logger.Warn("[engine] %s/%s: %v", in.State, in.Locality, err)
		return nil, err
	}

	e.logger.Debug("[engine] %s/%s @ %.2f -> %s (%.3f)", in.State, in.Locality, in.ListedPrice, label, probs[label])

	return &models.ScoringResult{
		State:         in.State,
		Locality:      in.Locality,
		ListedPrice:   in.ListedPrice,
		Label:         label,
		Probabilities: probs,
		Context:       pc,
		Features:      fv,
		Mode:          e.mode,
	}, nil
}

// classify calls the predictor once for the label and once for the
// probabilities, and checks both outputs.
func (e *Engine) classify(ctx context.Context, row models.SchemaRow) (models.Label, [models.NumLabels]float64, error) {
	var probs [models.NumLabels]float64

	ordinal, err := e.clf.Predict(ctx, row)
	if err != nil {
		return 0, probs, &models.ScoringFailed{Cause: err}
	}
	label := models.Label(ordinal)
	if !label.Valid() {
		return 0, probs, &models.ScoringFailed{Cause: fmt.Errorf("predict returned ordinal %d", ordinal)}
	}

	raw, err := e.clf.PredictProba(ctx, row)
	if err != nil {
		return 0, probs, &models.ScoringFailed{Cause: err}
	}
	if len(raw) != models.NumLabels {
		return 0, probs, &models.ScoringFailed{Cause: fmt.Errorf("predict_proba returned %d probabilities", len(raw))}
	}

	sum := 0.0
	for i, p := range raw {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return 0, probs, &models.ScoringFailed{Cause: fmt.Errorf("probability %d out of range: %v", i, p)}
		}
		probs[i] = p
		sum += p
	}
	if math.Abs(sum-1) > probabilityTolerance {
		return 0, probs, &models.ScoringFailed{Cause: fmt.Errorf("probabilities sum to %v", sum)}
	}
	return label, probs, nil
}

// validateListing checks what the engine itself needs. Form-level policy
// bounds are enforced by ParseListing.
func validateListing(in models.ListingInput) error {
	switch {
	case in.State == "":
		return &models.InvalidListing{Field: "state", Reason: "required"}
	case in.Locality == "":
		return &models.InvalidListing{Field: "locality", Reason: "required"}
	case !in.Category.Valid():
		return &models.InvalidListing{Field: "category", Reason: fmt.Sprintf("unknown value %q", in.Category)}
	case !in.PropertyType.Valid():
		return &models.InvalidListing{Field: "property_type", Reason: fmt.Sprintf("unknown value %q", in.PropertyType)}
	case !in.SubType.Valid():
		return &models.InvalidListing{Field: "sub_type", Reason: fmt.Sprintf("unknown value %q", in.SubType)}
	case in.Bedrooms < 0:
		return &models.InvalidListing{Field: "bedrooms", Reason: "must not be negative"}
	case in.Bathrooms < 0:
		return &models.InvalidListing{Field: "bathrooms", Reason: "must not be negative"}
	case in.Toilets < 0:
		return &models.InvalidListing{Field: "toilets", Reason: "must not be negative"}
	case in.Parking < 0:
		return &models.InvalidListing{Field: "parking", Reason: "must not be negative"}
	case math.IsNaN(in.ListedPrice) || math.IsInf(in.ListedPrice, 0) || in.ListedPrice <= 0:
		return &models.InvalidListing{Field: "listed_price", Reason: "must be a positive number"}
	}
	return nil
}
