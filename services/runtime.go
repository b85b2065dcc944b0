package services

import (
	"context"
	"errors"
	"sync"

	"fairprice/classifier"
	"fairprice/models"
	"fairprice/stats"
	"fairprice/storage"
	"fairprice/utils"
)

// ClassifierFactory opens the trained classifier.
type ClassifierFactory func(ctx context.Context) (classifier.Classifier, error)

// Sources names where the runtime's statistics and classifier come from.
type Sources struct {
	Statistics storage.StatisticsSource
	Classifier ClassifierFactory
	Mode       models.Mode
	Logger     *utils.Logger
}

// Runtime is everything a scoring call needs, built once per process.
type Runtime struct {
	Store      *stats.Store
	Classifier classifier.Classifier
	Engine     *Engine
}

// Loader builds a Runtime on first use and caches it, or the error, for
// every later call. After the first call Load takes no locks.
type Loader struct {
	src  Sources
	once sync.Once
	rt   *Runtime
	err  error
}

func NewLoader(src Sources) *Loader {
	return &Loader{src: src}
}

func (l *Loader) Load(ctx context.Context) (*Runtime, error) {
	l.once.Do(func() {
		l.rt, l.err = LoadRuntime(ctx, l.src)
	})
	return l.rt, l.err
}

// LoadRuntime builds a Runtime without caching. Every failure is an
// *models.InitError.
func LoadRuntime(ctx context.Context, src Sources) (*Runtime, error) {
	logger := src.Logger
	if logger == nil {
		logger = utils.Discard()
	}
	if src.Statistics == nil {
		return nil, &models.InitError{Source: "statistics", Err: errors.New("no source configured")}
	}
	if src.Classifier == nil {
		return nil, &models.InitError{Source: "classifier", Err: errors.New("no source configured")}
	}

	snap, err := src.Statistics.Load(ctx)
	if err != nil {
		return nil, &models.InitError{Source: "statistics", Err: err}
	}
	store, err := stats.New(snap)
	if err != nil {
		return nil, &models.InitError{Source: "statistics", Err: err}
	}
	logger.Info("[runtime] Loaded statistics for %d localities in %d states", store.Len(), len(store.States()))

	clf, err := src.Classifier(ctx)
	if err != nil {
		return nil, &models.InitError{Source: "classifier", Err: err}
	}

	mode := src.Mode
	if mode == "" {
		mode = models.ModeStatistics
	}
	engine, err := NewEngine(store, clf, WithMode(mode), WithLogger(logger))
	if err != nil {
		return nil, &models.InitError{Source: "engine", Err: err}
	}
	logger.Info("[runtime] Scoring engine ready (mode=%s)", mode)

	return &Runtime{Store: store, Classifier: clf, Engine: engine}, nil
}
