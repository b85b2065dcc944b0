package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"fairprice/models"
)

// LinearModel is the on-disk form of a multinomial logistic predictor.
// Every coefficient slice has one entry per class.
type LinearModel struct {
	Intercepts  []float64                       `yaml:"intercepts" json:"intercepts"`
	Numeric     map[string][]float64            `yaml:"numeric" json:"numeric"`
	Categorical map[string]map[string][]float64 `yaml:"categorical" json:"categorical"`
}

type numericTerm struct {
	col int
	idx int
}

type categoricalTerm struct {
	col    int
	name   string
	levels map[string]int
}

// Linear evaluates a LinearModel. It is immutable and safe for concurrent use.
type Linear struct {
	weights    *mat.Dense
	intercepts []float64
	numeric    []numericTerm
	category   []categoricalTerm
	width      int
}

// LoadLinear reads a YAML (or JSON) model file.
func LoadLinear(path string) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("classifier: read model: %w", err)
	}
	var m LinearModel
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("classifier: decode model %s: %w", path, err)
	}
	return NewLinear(m)
}

// NewLinear validates m against the schema columns and lays its
// coefficients out as a class-by-feature matrix.
func NewLinear(m LinearModel) (*Linear, error) {
	if len(m.Intercepts) != models.NumLabels {
		return nil, fmt.Errorf("classifier: want %d intercepts, got %d", models.NumLabels, len(m.Intercepts))
	}

	colIndex := make(map[string]int, len(models.SchemaColumns))
	for i, c := range models.SchemaColumns {
		colIndex[c] = i
	}

	l := &Linear{intercepts: append([]float64(nil), m.Intercepts...)}
	var coefs [][]float64

	// Sorted so that the matrix layout does not depend on map order.
	for _, name := range sortedKeys(m.Numeric) {
		col, ok := colIndex[name]
		if !ok {
			return nil, fmt.Errorf("classifier: numeric coefficient for unknown column %q", name)
		}
		w := m.Numeric[name]
		if len(w) != models.NumLabels {
			return nil, fmt.Errorf("classifier: column %q has %d coefficients, want %d", name, len(w), models.NumLabels)
		}
		l.numeric = append(l.numeric, numericTerm{col: col, idx: len(coefs)})
		coefs = append(coefs, w)
	}

	for _, name := range sortedKeys(m.Categorical) {
		col, ok := colIndex[name]
		if !ok {
			return nil, fmt.Errorf("classifier: categorical coefficients for unknown column %q", name)
		}
		term := categoricalTerm{col: col, name: name, levels: make(map[string]int)}
		levels := m.Categorical[name]
		for _, level := range sortedKeys(levels) {
			w := levels[level]
			if len(w) != models.NumLabels {
				return nil, fmt.Errorf("classifier: level %q of %q has %d coefficients, want %d",
					level, name, len(w), models.NumLabels)
			}
			term.levels[level] = len(coefs)
			coefs = append(coefs, w)
		}
		l.category = append(l.category, term)
	}

	if len(coefs) == 0 {
		return nil, errors.New("classifier: model has no coefficients")
	}

	l.width = len(coefs)
	l.weights = mat.NewDense(models.NumLabels, l.width, nil)
	for j, w := range coefs {
		for k := 0; k < models.NumLabels; k++ {
			l.weights.Set(k, j, w[k])
		}
	}
	return l, nil
}

// Predict returns the class with the highest probability.
func (l *Linear) Predict(ctx context.Context, row models.SchemaRow) (int, error) {
	probs, err := l.PredictProba(ctx, row)
	if err != nil {
		return 0, err
	}
	return floats.MaxIdx(probs), nil
}

// PredictProba returns the softmax of the class scores.
func (l *Linear) PredictProba(_ context.Context, row models.SchemaRow) ([]float64, error) {
	x, err := l.design(row)
	if err != nil {
		return nil, err
	}

	var z mat.VecDense
	z.MulVec(l.weights, x)
	logits := make([]float64, models.NumLabels)
	for k := range logits {
		logits[k] = z.AtVec(k) + l.intercepts[k]
	}
	if floats.HasNaN(logits) {
		return nil, errors.New("classifier: class scores are NaN")
	}

	norm := floats.LogSumExp(logits)
	if math.IsInf(norm, 0) {
		return nil, errors.New("classifier: class scores overflow")
	}
	probs := make([]float64, models.NumLabels)
	for k, v := range logits {
		probs[k] = math.Exp(v - norm)
	}
	return probs, nil
}

// design builds the one-hot/numeric input vector for row.
func (l *Linear) design(row models.SchemaRow) (*mat.VecDense, error) {
	values := row.Values()
	x := mat.NewVecDense(l.width, nil)

	for _, t := range l.numeric {
		v, err := toFloat(values[t.col])
		if err != nil {
			return nil, fmt.Errorf("classifier: column %q: %w", models.SchemaColumns[t.col], err)
		}
		x.SetVec(t.idx, v)
	}

	for _, t := range l.category {
		s, ok := values[t.col].(string)
		if !ok {
			return nil, fmt.Errorf("classifier: column %q is not categorical", t.name)
		}
		idx, ok := t.levels[s]
		if !ok {
			return nil, fmt.Errorf("classifier: unseen level %q for column %q", s, t.name)
		}
		x.SetVec(idx, 1)
	}
	return x, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("non-finite value %v", n)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("not numeric: %T", v)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
