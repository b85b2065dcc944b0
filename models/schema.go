package models

// Placeholder values the predictor's training schema requires but never
// learned anything from.
const (
	PlaceholderID        = 0
	PlaceholderListDate  = "2020-01-01"
	PlaceholderQualifier = ""
	PlaceholderSubLoc    = ""
)

// SchemaColumns is the column order the predictor was fit with.
var SchemaColumns = []string{
	"id",
	"price_qualifier",
	"bedrooms",
	"bathrooms",
	"toilets",
	"furnished",
	"serviced",
	"shared",
	"parking",
	"category",
	"type",
	"sub_type",
	"state",
	"sub_locality",
	"listdate",
	"bedrooms_raw",
	"bathrooms_raw",
	"parking_raw",
	"price_position",
	"price_per_bedroom",
	"price_per_bathroom",
	"bedroom_deviation",
	"bathroom_deviation",
	"location_density",
}

// SchemaRow is one predictor-shaped record. Counts and flags are ints,
// categoricals are strings, engineered features are floats.
type SchemaRow struct {
	ID             int    `json:"id"`
	PriceQualifier string `json:"price_qualifier"`
	Bedrooms       int    `json:"bedrooms"`
	Bathrooms      int    `json:"bathrooms"`
	Toilets        int    `json:"toilets"`
	Furnished      int    `json:"furnished"`
	Serviced       int    `json:"serviced"`
	Shared         int    `json:"shared"`
	Parking        int    `json:"parking"`
	Category       string `json:"category"`
	Type           string `json:"type"`
	SubType        string `json:"sub_type"`
	State          string `json:"state"`
	SubLocality    string `json:"sub_locality"`
	ListDate       string `json:"listdate"`
	BedroomsRaw    int    `json:"bedrooms_raw"`
	BathroomsRaw   int    `json:"bathrooms_raw"`
	ParkingRaw     int    `json:"parking_raw"`

	PricePosition     float64 `json:"price_position"`
	PricePerBedroom   float64 `json:"price_per_bedroom"`
	PricePerBathroom  float64 `json:"price_per_bathroom"`
	BedroomDeviation  float64 `json:"bedroom_deviation"`
	BathroomDeviation float64 `json:"bathroom_deviation"`
	LocationDensity   float64 `json:"location_density"`
}

// Columns returns a copy of SchemaColumns.
func (r SchemaRow) Columns() []string {
	return append([]string(nil), SchemaColumns...)
}

// Values returns the row's values in Columns order.
func (r SchemaRow) Values() []any {
	return []any{
		r.ID,
		r.PriceQualifier,
		r.Bedrooms,
		r.Bathrooms,
		r.Toilets,
		r.Furnished,
		r.Serviced,
		r.Shared,
		r.Parking,
		r.Category,
		r.Type,
		r.SubType,
		r.State,
		r.SubLocality,
		r.ListDate,
		r.BedroomsRaw,
		r.BathroomsRaw,
		r.ParkingRaw,
		r.PricePosition,
		r.PricePerBedroom,
		r.PricePerBathroom,
		r.BedroomDeviation,
		r.BathroomDeviation,
		r.LocationDensity,
	}
}
