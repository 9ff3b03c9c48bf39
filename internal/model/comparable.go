package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pgvector/pgvector-go"
)

// Source identifies where a comparable transaction was observed.
type Source string

const (
	SourcePortal   Source = "PORTAL"
	SourceRegistro Source = "REGISTRO"
	SourceNotaria  Source = "NOTARIA"
	SourceInterno  Source = "INTERNO"
)

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	switch s {
	case SourcePortal, SourceRegistro, SourceNotaria, SourceInterno:
		return true
	}
	return false
}

// Quality is the coarse reliability tier of a comparable.
type Quality string

const (
	QualityA Quality = "A"
	QualityB Quality = "B"
	QualityC Quality = "C"
)

// Comparable represents an observed past transaction used as a market
// reference point. Optional attributes are pointers: nil means unknown,
// which is never the same as zero. The derived fields are populated by
// the engine per request and are idempotent to recompute.
type Comparable struct {
	ID          int64      `json:"id" db:"id"`
	ExternalRef *string    `json:"external_ref,omitempty" db:"external_ref"`
	Date        time.Time  `json:"date" db:"date"`
	Source      Source     `json:"source" db:"source"`
	Lat         float64    `json:"lat" db:"lat"`
	Lng         float64    `json:"lng" db:"lng"`
	Address     *string    `json:"address,omitempty" db:"address"`
	Price       float64    `json:"price" db:"price"`
	Sqm         float64    `json:"sqm" db:"sqm"`
	Rooms       *int       `json:"rooms,omitempty" db:"rooms"`
	Baths       *int       `json:"baths,omitempty" db:"baths"`
	Floor       *int       `json:"floor,omitempty" db:"floor"`
	Elevator    *bool      `json:"elevator,omitempty" db:"elevator"`
	TerraceSqm  *float64   `json:"terrace_sqm,omitempty" db:"terrace_sqm"`
	Parking     *bool      `json:"parking,omitempty" db:"parking"`
	Condition   *string    `json:"condition,omitempty" db:"condition"`
	Photos      JSONArray  `json:"photos,omitempty" db:"photos"`

	// Derived fields, recomputed by the engine on each request.
	DistanceM     *float64 `json:"distance_m,omitempty" db:"-"`
	PricePerSqm   *float64 `json:"price_per_sqm,omitempty" db:"-"`
	AdjustedPrice *float64 `json:"adjusted_price,omitempty" db:"-"`
	Similarity    *float64 `json:"similarity,omitempty" db:"-"`
	KNNWeight     *float64 `json:"knn_weight,omitempty" db:"-"`
	Quality       *Quality `json:"quality,omitempty" db:"-"`

	Embedding pgvector.Vector `json:"-" db:"embedding"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// Ppsqm returns price per square meter, or 0 when sqm is degenerate.
// The value is advisory, so a zero fallback beats an error.
func (c *Comparable) Ppsqm() float64 {
	if c.Sqm <= 0 {
		return 0
	}
	return c.Price / c.Sqm
}

// SubjectRef describes the property being valued. Every field is
// optional; stages that need an absent field skip silently.
type SubjectRef struct {
	Address   *string  `json:"address,omitempty"`
	Lat       *float64 `json:"lat,omitempty"`
	Lng       *float64 `json:"lng,omitempty"`
	Type      *string  `json:"type,omitempty"`
	Sqm       *float64 `json:"sqm,omitempty"`
	Rooms     *int     `json:"rooms,omitempty"`
	Baths     *int     `json:"baths,omitempty"`
	Floor     *int     `json:"floor,omitempty"`
	Elevator  *bool    `json:"elevator,omitempty"`
	Condition *string  `json:"condition,omitempty"`
}

// HasCoords reports whether the subject carries a usable location.
func (s *SubjectRef) HasCoords() bool {
	return s != nil && s.Lat != nil && s.Lng != nil
}

// JSONArray represents a JSON array field (photo URLs).
type JSONArray []string

// Value implements driver.Valuer interface
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), j)
	}
	return json.Unmarshal(bytes, j)
}
