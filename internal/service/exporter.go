package service

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"compcore/internal/model"
)

// csvHeader fixes the delimited export field order.
var csvHeader = []string{
	"id", "external_ref", "date", "lat", "lng", "address", "price", "sqm",
	"price_per_sqm", "rooms", "baths", "floor", "elevator", "terrace_sqm",
	"parking", "condition", "source", "quality", "distance_m", "knn_weight",
	"similarity", "adjusted_price",
}

// Exporter serializes comparable sets. The JSON form is lossless for
// raw (non-derived) fields: re-importing an export reconstructs
// equivalent comparables modulo recomputed fields.
type Exporter struct{}

// NewExporter creates a new exporter
func NewExporter() *Exporter {
	return &Exporter{}
}

// CSV renders the comparables as delimited text with a header row.
func (e *Exporter) CSV(comps []model.Comparable) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range comps {
		if err := w.Write(csvRecord(&comps[i])); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func csvRecord(c *model.Comparable) []string {
	return []string{
		strconv.FormatInt(c.ID, 10),
		strPtr(c.ExternalRef),
		c.Date.Format(time.RFC3339),
		formatFloat(c.Lat),
		formatFloat(c.Lng),
		strPtr(c.Address),
		formatFloat(c.Price),
		formatFloat(c.Sqm),
		floatPtr(c.PricePerSqm),
		intPtr(c.Rooms),
		intPtr(c.Baths),
		intPtr(c.Floor),
		boolPtr(c.Elevator),
		floatPtr(c.TerraceSqm),
		boolPtr(c.Parking),
		strPtr(c.Condition),
		string(c.Source),
		qualityPtr(c.Quality),
		floatPtr(c.DistanceM),
		floatPtr(c.KNNWeight),
		floatPtr(c.Similarity),
		floatPtr(c.AdjustedPrice),
	}
}

// JSON renders the comparables as a structured serialization suitable
// for round-tripping through ParseJSON.
func (e *Exporter) JSON(comps []model.Comparable) ([]byte, error) {
	data, err := json.MarshalIndent(comps, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal comparables: %w", err)
	}
	return data, nil
}

// ParseJSON reconstructs comparables from a JSON export.
func (e *Exporter) ParseJSON(data []byte) ([]model.Comparable, error) {
	var comps []model.Comparable
	if err := json.Unmarshal(data, &comps); err != nil {
		return nil, fmt.Errorf("failed to parse comparables: %w", err)
	}
	return comps, nil
}

// GeoJSON types for the feature-collection export form.
type GeoJSONGeometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"` // [lng, lat]
}

type GeoJSONFeature struct {
	Type       string           `json:"type"`
	Geometry   GeoJSONGeometry  `json:"geometry"`
	Properties model.Comparable `json:"properties"`
}

type GeoJSONFeatureCollection struct {
	Type     string           `json:"type"`
	Features []GeoJSONFeature `json:"features"`
}

// GeoJSON renders the comparables as a FeatureCollection of point
// features, each carrying the full comparable as its properties.
func (e *Exporter) GeoJSON(comps []model.Comparable) ([]byte, error) {
	fc := GeoJSONFeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]GeoJSONFeature, 0, len(comps)),
	}
	for i := range comps {
		fc.Features = append(fc.Features, GeoJSONFeature{
			Type: "Feature",
			Geometry: GeoJSONGeometry{
				Type:        "Point",
				Coordinates: [2]float64{comps[i].Lng, comps[i].Lat},
			},
			Properties: comps[i],
		})
	}
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal feature collection: %w", err)
	}
	return data, nil
}

func strPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func boolPtr(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

func qualityPtr(q *model.Quality) string {
	if q == nil {
		return ""
	}
	return string(*q)
}

func formatFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(strconv.FormatFloat(v, 'f', 6, 64), "0"), ".")
}
