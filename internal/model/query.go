package model

import "time"

// SearchFilters represents the structured filters for a comparable
// search. Nil fields are simply not applied.
type SearchFilters struct {
	CenterLat *float64   `json:"center_lat,omitempty"`
	CenterLng *float64   `json:"center_lng,omitempty"`
	RadiusKm  *float64   `json:"radius_km,omitempty"`
	DateFrom  *time.Time `json:"date_from,omitempty"`
	DateTo    *time.Time `json:"date_to,omitempty"`
	PriceMin  *float64   `json:"price_min,omitempty"`
	PriceMax  *float64   `json:"price_max,omitempty"`
	SqmMin    *float64   `json:"sqm_min,omitempty"`
	SqmMax    *float64   `json:"sqm_max,omitempty"`
	RoomsMin  *int       `json:"rooms_min,omitempty"`
	BathsMin  *int       `json:"baths_min,omitempty"`
	FloorMin  *int       `json:"floor_min,omitempty"`
	FloorMax  *int       `json:"floor_max,omitempty"`
	Elevator  *bool      `json:"elevator,omitempty"`
	Terrace   *bool      `json:"terrace,omitempty"`
	Parking   *bool      `json:"parking,omitempty"`
	Condition *string    `json:"condition,omitempty"`
	Source    *Source    `json:"source,omitempty"`

	// Sort is "field-asc" or "field-desc" over an enumerated set of
	// orderable fields; empty means "distance-asc".
	Sort string `json:"sort,omitempty"`
	// Page is 0-indexed. Size defaults to 25 when 0.
	Page int `json:"page"`
	Size int `json:"size"`
}

// SearchRequest represents a full search invocation: filters plus the
// optional subject and stage configurations.
type SearchRequest struct {
	Filters SearchFilters   `json:"filters"`
	Subject *SubjectRef     `json:"subject,omitempty"`
	Rules   *NormalizeRules `json:"rules,omitempty"`
	Score   *ScoreParams    `json:"score,omitempty"`
}

// SearchResponse represents a ranked, paginated search result. Total
// and Density always describe the pre-pagination filtered set.
type SearchResponse struct {
	Items   []Comparable `json:"items"`
	Total   int          `json:"total"`
	Density float64      `json:"density"`
	Page    int          `json:"page"`
	Size    int          `json:"size"`
	Took    int64        `json:"took_ms"`
}

// CompSet is a named, persisted selection of comparable identifiers.
// At most one set carries the AVM default flag at a time.
type CompSet struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Client        *string   `json:"client,omitempty" db:"client"`
	Notes         *string   `json:"notes,omitempty" db:"notes"`
	ComparableIDs []int64   `json:"comparable_ids" db:"-"`
	IsAVMDefault  bool      `json:"is_avm_default" db:"is_avm_default"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// ImportRow is one loosely typed row of an import batch. Date, Lat,
// Lng, Price and Sqm are required; everything else is optional.
type ImportRow struct {
	ExternalRef *string  `json:"external_ref,omitempty"`
	Date        *string  `json:"date,omitempty"`
	Source      *string  `json:"source,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
	Address     *string  `json:"address,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Sqm         *float64 `json:"sqm,omitempty"`
	Rooms       *int     `json:"rooms,omitempty"`
	Baths       *int     `json:"baths,omitempty"`
	Floor       *int     `json:"floor,omitempty"`
	Elevator    *bool    `json:"elevator,omitempty"`
	TerraceSqm  *float64 `json:"terrace_sqm,omitempty"`
	Parking     *bool    `json:"parking,omitempty"`
	Condition   *string  `json:"condition,omitempty"`
	Photos      []string `json:"photos,omitempty"`
}

// ImportError reports one rejected row with its 1-based index.
type ImportError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportReport summarizes a partially successful import batch.
type ImportReport struct {
	BatchID string        `json:"batch_id"`
	Success int           `json:"success"`
	Failed  int           `json:"failed"`
	Errors  []ImportError `json:"errors,omitempty"`
}
