package models

// DefaultDensity is used when a locality has price statistics but no
// recorded density weight.
const DefaultDensity = 0.01

// LocalityStatistics holds the price quartiles of one locality.
type LocalityStatistics struct {
	Locality string   `json:"locality" yaml:"locality"`
	Q25      float64  `json:"loc_q25" yaml:"loc_q25"`
	Median   float64  `json:"loc_median" yaml:"loc_median"`
	Q75      float64  `json:"loc_q75" yaml:"loc_q75"`
	Density  *float64 `json:"density,omitempty" yaml:"density,omitempty"`
}

// GlobalStatistics is shared by every scoring call.
type GlobalStatistics struct {
	BedroomMean  float64  `json:"bedroom_mean" yaml:"bedroom_mean"`
	BathroomMean float64  `json:"bathroom_mean" yaml:"bathroom_mean"`
	ValidStates  []string `json:"valid_states" yaml:"valid_states"`
}

// StatisticsSnapshot is the precomputed upstream data a Store is built from.
// Densities may be given either inline on each locality or in the
// LocationDensity map; the map wins when both are present.
type StatisticsSnapshot struct {
	Global          GlobalStatistics     `json:"global" yaml:"global"`
	Localities      []LocalityStatistics `json:"location_price_stats" yaml:"location_price_stats"`
	LocationDensity map[string]float64   `json:"location_density,omitempty" yaml:"location_density,omitempty"`
	StateLocalities map[string][]string  `json:"state_locality_mapping" yaml:"state_locality_mapping"`
}
