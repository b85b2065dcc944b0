package models

// Label is the ordinal price class produced by the classifier.
type Label int

const (
	Underpriced  Label = 0
	FairlyPriced Label = 1
	Overpriced   Label = 2
)

// NumLabels is the number of classes the classifier must score.
const NumLabels = 3

var labelNames = [NumLabels]string{"underpriced", "fairly_priced", "overpriced"}

func (l Label) String() string {
	if !l.Valid() {
		return "unknown"
	}
	return labelNames[l]
}

func (l Label) Valid() bool { return l >= 0 && int(l) < NumLabels }

// MarshalText renders the label by name in JSON/YAML output.
func (l Label) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// Mode selects whether engineered features come from the statistics store
// or from fixed placeholders.
type Mode string

const (
	ModeStatistics  Mode = "statistics"
	ModePlaceholder Mode = "placeholder"
)

// FeatureVector holds the raw listing attributes plus the engineered
// features, before they are shaped for the classifier.
type FeatureVector struct {
	Listing ListingInput `json:"-"`

	PricePosition     float64 `json:"price_position"`
	PricePerBedroom   float64 `json:"price_per_bedroom"`
	PricePerBathroom  float64 `json:"price_per_bathroom"`
	BedroomDeviation  float64 `json:"bedroom_deviation"`
	BathroomDeviation float64 `json:"bathroom_deviation"`
	LocationDensity   float64 `json:"location_density"`
}

// QuartilePosition describes where the listed price sits relative to the
// locality's interquartile range.
type QuartilePosition string

const (
	BelowQ25    QuartilePosition = "below_q25"
	WithinRange QuartilePosition = "within_range"
	AboveQ75    QuartilePosition = "above_q75"
)

// PriceContext compares the listed price with locality quartiles.
type PriceContext struct {
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`

	// DeviationPct is the signed percentage distance from the median.
	DeviationPct float64          `json:"deviation_pct"`
	Position     QuartilePosition `json:"position"`
	// PositionPct is the distance below q25 or above q75; zero within range.
	PositionPct float64 `json:"position_pct"`
	Summary     string  `json:"summary"`
}

// ScoringResult is returned by a successful scoring call.
type ScoringResult struct {
	State         string             `json:"state"`
	Locality      string             `json:"locality"`
	ListedPrice   float64            `json:"listed_price"`
	Label         Label              `json:"label"`
	Probabilities [NumLabels]float64 `json:"probabilities"`
	Context       *PriceContext      `json:"context,omitempty"`
	Features      FeatureVector      `json:"features"`
	Mode          Mode               `json:"mode"`
}

// Confidence returns the probability of the predicted label.
func (r *ScoringResult) Confidence() float64 {
	if !r.Label.Valid() {
		return 0
	}
	return r.Probabilities[r.Label]
}
