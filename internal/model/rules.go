package model

// SqmMethod selects how the area adjustment is applied.
type SqmMethod string

const (
	SqmLinear SqmMethod = "LINEAR"
	SqmSqrt   SqmMethod = "SQRT"
)

// NormalizeRules configures the price adjustment pipeline. A rules
// value is immutable for the duration of one normalization call; steps
// whose fields are nil (or zero for maps) are skipped.
type NormalizeRules struct {
	SqmMethod           SqmMethod          `json:"sqm_method" yaml:"sqm_method"`
	ConditionFactors    map[string]float64 `json:"condition_factors,omitempty" yaml:"condition_factors"`
	FloorBonus          *float64           `json:"floor_bonus,omitempty" yaml:"floor_bonus"`
	ElevatorFactor      *float64           `json:"elevator_factor,omitempty" yaml:"elevator_factor"`
	TerracePpsqm        *float64           `json:"terrace_ppsqm,omitempty" yaml:"terrace_ppsqm"`
	ParkingValue        *float64           `json:"parking_value,omitempty" yaml:"parking_value"`
	DepreciationPctYear *float64           `json:"depreciation_pct_year,omitempty" yaml:"depreciation_pct_year"`
	LocationBonusM      *float64           `json:"location_bonus_m,omitempty" yaml:"location_bonus_m"`

	// MinPrice is the floor the running total is clamped to when an
	// adjustment would drive it to zero or below. Zero keeps only the
	// final non-negative guarantee.
	MinPrice float64 `json:"min_price" yaml:"min_price"`
}

// ScoreMethod selects the similarity scoring method.
type ScoreMethod string

const (
	ScoreCosine ScoreMethod = "COSINE"
	ScoreKNN    ScoreMethod = "KNN"
)

// Feature weight keys accepted by ScoreParams.Weights.
const (
	FeatureDistance  = "distance"
	FeatureArea      = "area"
	FeatureRooms     = "rooms"
	FeatureBaths     = "baths"
	FeatureCondition = "condition"
)

// ScoreParams configures the similarity scorer. Weights may be partial;
// defaults are supplied for unset features. Each weight must be >= 0
// but the set need not sum to 1.
type ScoreParams struct {
	Method   ScoreMethod        `json:"method"`
	K        *int               `json:"k,omitempty"`
	DistCapM *float64           `json:"dist_cap_m,omitempty"`
	Weights  map[string]float64 `json:"weights,omitempty"`
}

// DedupStrategy selects how the deduplicator keys comparables.
type DedupStrategy string

const (
	DedupHash      DedupStrategy = "HASH"
	DedupPortalRef DedupStrategy = "PORTAL_REF"
	DedupCadastre  DedupStrategy = "CADASTRE"
)
