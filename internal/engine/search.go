package engine

import (
	"math"
	"sort"
	"strings"
	"time"

	"compcore/internal/model"
	"compcore/internal/utils"
)

const defaultPageSize = 25

// sortAccessor extracts an orderable value from a comparable. The bool
// reports presence; comparables missing the value sort after all
// present ones regardless of direction.
type sortAccessor func(c *model.Comparable) (float64, bool)

// sortFields is the closed set of orderable fields. Field access is
// never dynamic: a sort key outside this enumeration is rejected at
// validation time.
var sortFields = map[string]sortAccessor{
	"distance": func(c *model.Comparable) (float64, bool) {
		if c.DistanceM == nil {
			return 0, false
		}
		return *c.DistanceM, true
	},
	"price": func(c *model.Comparable) (float64, bool) {
		return c.Price, true
	},
	"price_per_sqm": func(c *model.Comparable) (float64, bool) {
		if c.PricePerSqm == nil {
			return 0, false
		}
		return *c.PricePerSqm, true
	},
	"sqm": func(c *model.Comparable) (float64, bool) {
		return c.Sqm, true
	},
	"date": func(c *model.Comparable) (float64, bool) {
		if c.Date.IsZero() {
			return 0, false
		}
		return float64(c.Date.Unix()), true
	},
	"similarity": func(c *model.Comparable) (float64, bool) {
		if c.Similarity == nil {
			return 0, false
		}
		return *c.Similarity, true
	},
	"adjusted_price": func(c *model.Comparable) (float64, bool) {
		if c.AdjustedPrice == nil {
			return 0, false
		}
		return *c.AdjustedPrice, true
	},
	"quality": func(c *model.Comparable) (float64, bool) {
		if c.Quality == nil {
			return 0, false
		}
		switch *c.Quality {
		case model.QualityA:
			return 0, true
		case model.QualityB:
			return 1, true
		default:
			return 2, true
		}
	},
}

// Orchestrator composes filtering, distance computation, optional
// normalization and scoring, quality annotation, sorting and
// pagination into one ranked result. Every invocation is pure and
// synchronous; Clock is injectable so age-dependent stages stay
// deterministic under test.
type Orchestrator struct {
	Clock func() time.Time
}

func NewOrchestrator() *Orchestrator {
	return &Orchestrator{Clock: time.Now}
}

// Search runs the full pipeline over an already materialized
// comparable collection. Total and Density always reflect the filtered
// set before pagination.
func (o *Orchestrator) Search(comps []model.Comparable, req model.SearchRequest) (*model.SearchResponse, error) {
	if err := validateFilters(&req.Filters); err != nil {
		return nil, err
	}
	if req.Score != nil {
		if err := ValidateScoreParams(*req.Score); err != nil {
			return nil, err
		}
	}
	now := time.Now()
	if o.Clock != nil {
		now = o.Clock()
	}

	filtered := applyPredicates(comps, &req.Filters)
	filtered = o.applyGeo(filtered, &req)

	total := len(filtered)
	density := float64(total)
	if req.Filters.RadiusKm != nil && *req.Filters.RadiusKm > 0 {
		r := *req.Filters.RadiusKm
		density = float64(total) / (math.Pi * r * r)
	}

	o.annotate(filtered, &req, now)

	if err := sortComparables(filtered, req.Filters.Sort); err != nil {
		return nil, err
	}

	size := req.Filters.Size
	if size == 0 {
		size = defaultPageSize
	}
	items := paginate(filtered, req.Filters.Page, size)

	return &model.SearchResponse{
		Items:   items,
		Total:   total,
		Density: density,
		Page:    req.Filters.Page,
		Size:    size,
	}, nil
}

func validateFilters(f *model.SearchFilters) error {
	if (f.CenterLat == nil) != (f.CenterLng == nil) {
		return configErrorf("center_lat and center_lng must be set together")
	}
	if f.RadiusKm != nil && *f.RadiusKm < 0 {
		return configErrorf("radius_km must be >= 0, got %g", *f.RadiusKm)
	}
	if f.RadiusKm != nil && f.CenterLat == nil {
		return configErrorf("radius_km requires center_lat and center_lng")
	}
	if f.Page < 0 {
		return configErrorf("page must be >= 0, got %d", f.Page)
	}
	if f.Size < 0 {
		return configErrorf("size must be >= 0, got %d", f.Size)
	}
	if f.Source != nil && !f.Source.Valid() {
		return configErrorf("unknown source %q", *f.Source)
	}
	if f.Sort != "" {
		if _, _, err := parseSort(f.Sort); err != nil {
			return err
		}
	}
	return nil
}

// applyPredicates keeps comparables passing every provided filter.
// A comparable missing an attribute fails a predicate over it.
func applyPredicates(comps []model.Comparable, f *model.SearchFilters) []model.Comparable {
	out := make([]model.Comparable, 0, len(comps))
	for _, c := range comps {
		if !matchesPredicates(&c, f) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func matchesPredicates(c *model.Comparable, f *model.SearchFilters) bool {
	if f.DateFrom != nil && c.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && c.Date.After(*f.DateTo) {
		return false
	}
	if f.PriceMin != nil && c.Price < *f.PriceMin {
		return false
	}
	if f.PriceMax != nil && c.Price > *f.PriceMax {
		return false
	}
	if f.SqmMin != nil && c.Sqm < *f.SqmMin {
		return false
	}
	if f.SqmMax != nil && c.Sqm > *f.SqmMax {
		return false
	}
	if f.RoomsMin != nil && (c.Rooms == nil || *c.Rooms < *f.RoomsMin) {
		return false
	}
	if f.BathsMin != nil && (c.Baths == nil || *c.Baths < *f.BathsMin) {
		return false
	}
	if f.FloorMin != nil && (c.Floor == nil || *c.Floor < *f.FloorMin) {
		return false
	}
	if f.FloorMax != nil && (c.Floor == nil || *c.Floor > *f.FloorMax) {
		return false
	}
	if f.Elevator != nil && (c.Elevator == nil || *c.Elevator != *f.Elevator) {
		return false
	}
	if f.Terrace != nil && *f.Terrace && (c.TerraceSqm == nil || *c.TerraceSqm <= 0) {
		return false
	}
	if f.Parking != nil && (c.Parking == nil || *c.Parking != *f.Parking) {
		return false
	}
	if f.Condition != nil && (c.Condition == nil ||
		utils.NormalizeCondition(*c.Condition) != utils.NormalizeCondition(*f.Condition)) {
		return false
	}
	if f.Source != nil && c.Source != *f.Source {
		return false
	}
	return true
}

// applyGeo annotates distances from the search center (or, absent one,
// the subject's coordinates) and drops candidates outside the radius.
func (o *Orchestrator) applyGeo(comps []model.Comparable, req *model.SearchRequest) []model.Comparable {
	f := &req.Filters
	refLat, refLng := f.CenterLat, f.CenterLng
	if refLat == nil && req.Subject.HasCoords() {
		refLat, refLng = req.Subject.Lat, req.Subject.Lng
	}
	if refLat == nil {
		return comps
	}

	out := make([]model.Comparable, 0, len(comps))
	for _, c := range comps {
		d := Haversine(*refLat, *refLng, c.Lat, c.Lng)
		c.DistanceM = &d
		if f.RadiusKm != nil && d > *f.RadiusKm*1000 {
			continue
		}
		out = append(out, c)
	}
	return out
}

// annotate populates the derived fields: price per sqm, adjusted price
// and similarity when the stages are configured, and the quality tier
// always.
func (o *Orchestrator) annotate(comps []model.Comparable, req *model.SearchRequest, now time.Time) {
	var knn map[int64]float64
	if req.Score != nil && req.Score.Method == model.ScoreKNN && req.Subject != nil {
		// Params were validated up front; a failure here is impossible.
		knn, _ = KNNWeights(comps, *req.Subject, *req.Score)
	}

	for i := range comps {
		c := &comps[i]
		ppsqm := c.Ppsqm()
		c.PricePerSqm = &ppsqm

		if req.Rules != nil && req.Subject != nil {
			adjusted := Normalize(*c, *req.Rules, *req.Subject, now)
			c.AdjustedPrice = &adjusted
		}
		if req.Score != nil && req.Subject != nil {
			sim := Cosine(*c, *req.Subject, req.Score.Weights)
			c.Similarity = &sim
			if w, ok := knn[c.ID]; ok {
				weight := w
				c.KNNWeight = &weight
			}
		}

		q := Classify(*c, now)
		c.Quality = &q
	}
}

func parseSort(key string) (string, bool, error) {
	field, dir := key, "asc"
	if idx := strings.LastIndex(key, "-"); idx >= 0 {
		field, dir = key[:idx], key[idx+1:]
	}
	if dir != "asc" && dir != "desc" {
		return "", false, configErrorf("unknown sort direction %q", dir)
	}
	if _, ok := sortFields[field]; !ok {
		return "", false, configErrorf("unknown sort field %q", field)
	}
	return field, dir == "asc", nil
}

// sortComparables orders the slice by the requested key. The sort is
// stable: equal keys keep their original relative order.
func sortComparables(comps []model.Comparable, key string) error {
	if key == "" {
		key = "distance-asc"
	}
	field, asc, err := parseSort(key)
	if err != nil {
		return err
	}
	accessor := sortFields[field]
	sort.SliceStable(comps, func(i, j int) bool {
		vi, oki := accessor(&comps[i])
		vj, okj := accessor(&comps[j])
		if oki != okj {
			return oki // present values first
		}
		if !oki {
			return false
		}
		if asc {
			return vi < vj
		}
		return vi > vj
	})
	return nil
}

func paginate(comps []model.Comparable, page, size int) []model.Comparable {
	start := page * size
	if start >= len(comps) {
		return []model.Comparable{}
	}
	end := start + size
	if end > len(comps) {
		end = len(comps)
	}
	return comps[start:end]
}
