package engine

import (
	"math"
	"sort"

	"compcore/internal/model"
	"compcore/internal/utils"
)

const (
	// distanceDecayM is where the distance contribution reaches zero.
	distanceDecayM = 5000.0
	// defaultDistCapM bounds KNN candidate selection.
	defaultDistCapM = 2000.0
	// defaultK is used when the caller leaves k unset.
	defaultK = 5
)

// defaultWeights are applied for any feature the caller leaves unset.
func defaultWeights() map[string]float64 {
	return map[string]float64{
		model.FeatureDistance:  0.30,
		model.FeatureArea:      0.30,
		model.FeatureRooms:     0.15,
		model.FeatureBaths:     0.10,
		model.FeatureCondition: 0.15,
	}
}

// featureOrder fixes the vector layout across calls.
var featureOrder = []string{
	model.FeatureDistance,
	model.FeatureArea,
	model.FeatureRooms,
	model.FeatureBaths,
	model.FeatureCondition,
}

// ValidateScoreParams rejects structurally invalid scoring
// configuration. Partial weights are fine; negative ones are not.
func ValidateScoreParams(p model.ScoreParams) error {
	switch p.Method {
	case model.ScoreCosine, model.ScoreKNN:
	default:
		return configErrorf("unknown score method %q", p.Method)
	}
	if p.K != nil && *p.K <= 0 {
		return configErrorf("k must be > 0, got %d", *p.K)
	}
	if p.DistCapM != nil && *p.DistCapM <= 0 {
		return configErrorf("dist_cap_m must be > 0, got %g", *p.DistCapM)
	}
	for name, w := range p.Weights {
		if w < 0 {
			return configErrorf("weight %q must be >= 0, got %g", name, w)
		}
		if _, ok := defaultWeights()[name]; !ok {
			return configErrorf("unknown feature weight %q", name)
		}
	}
	return nil
}

func mergedWeights(overrides map[string]float64) map[string]float64 {
	w := defaultWeights()
	for name, v := range overrides {
		w[name] = v
	}
	return w
}

// featureTerms returns the per-feature closeness terms in [0,1] and a
// presence flag per feature. A feature missing on either side is
// absent: it contributes zero to both vectors, neither penalty nor
// bonus.
func featureTerms(c *model.Comparable, s *model.SubjectRef) ([]float64, []bool) {
	terms := make([]float64, len(featureOrder))
	present := make([]bool, len(featureOrder))

	for i, name := range featureOrder {
		switch name {
		case model.FeatureDistance:
			if d := distanceTo(c, s); d != nil {
				terms[i] = math.Max(0, 1-*d/distanceDecayM)
				present[i] = true
			}
		case model.FeatureArea:
			if s.Sqm != nil && c.Sqm > 0 && *s.Sqm > 0 {
				terms[i] = 1 - math.Abs(*s.Sqm-c.Sqm)/math.Max(*s.Sqm, c.Sqm)
				present[i] = true
			}
		case model.FeatureRooms:
			if s.Rooms != nil && c.Rooms != nil {
				if *s.Rooms == *c.Rooms {
					terms[i] = 1
				}
				present[i] = true
			}
		case model.FeatureBaths:
			if s.Baths != nil && c.Baths != nil {
				if *s.Baths == *c.Baths {
					terms[i] = 1
				}
				present[i] = true
			}
		case model.FeatureCondition:
			if s.Condition != nil && c.Condition != nil {
				if utils.NormalizeCondition(*s.Condition) == utils.NormalizeCondition(*c.Condition) {
					terms[i] = 1
				}
				present[i] = true
			}
		}
	}
	return terms, present
}

func distanceTo(c *model.Comparable, s *model.SubjectRef) *float64 {
	if c.DistanceM != nil {
		return c.DistanceM
	}
	if s.HasCoords() {
		d := Haversine(*s.Lat, *s.Lng, c.Lat, c.Lng)
		return &d
	}
	return nil
}

// Cosine computes the similarity between the subject's and the
// comparable's feature contribution vectors. Each term is squared and
// weighted; the subject side holds the ideal contribution for every
// feature present on both sides. The practical output range is [0,1].
func Cosine(c model.Comparable, s model.SubjectRef, weights map[string]float64) float64 {
	w := mergedWeights(weights)
	terms, present := featureTerms(&c, &s)

	subjVec := make([]float64, len(featureOrder))
	compVec := make([]float64, len(featureOrder))
	for i, name := range featureOrder {
		if !present[i] {
			continue
		}
		subjVec[i] = w[name]
		compVec[i] = w[name] * terms[i] * terms[i]
	}
	return cosineOf(subjVec, compVec)
}

// cosineOf returns the cosine similarity of two equal-length vectors,
// or 0 when either norm is zero.
func cosineOf(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// KNNWeights computes cosine similarity for every candidate, drops
// those beyond the distance cap, keeps the top k by similarity and
// normalizes their similarities to weights summing to 1. Candidates
// excluded by the cap or outside the top k have no entry in the result:
// absent means "not considered", which is not the same as zero.
// k is a ceiling, not a guarantee.
func KNNWeights(comps []model.Comparable, s model.SubjectRef, p model.ScoreParams) (map[int64]float64, error) {
	if err := ValidateScoreParams(p); err != nil {
		return nil, err
	}
	distCap := defaultDistCapM
	if p.DistCapM != nil {
		distCap = *p.DistCapM
	}
	k := defaultK
	if p.K != nil {
		k = *p.K
	}

	type candidate struct {
		id  int64
		sim float64
	}
	candidates := make([]candidate, 0, len(comps))
	for i := range comps {
		// An unknown distance cannot exceed the cap.
		if d := distanceTo(&comps[i], &s); d != nil && *d > distCap {
			continue
		}
		candidates = append(candidates, candidate{
			id:  comps[i].ID,
			sim: Cosine(comps[i], s, p.Weights),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].sim > candidates[j].sim
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	var sum float64
	for _, c := range candidates {
		sum += c.sim
	}
	weights := make(map[int64]float64, len(candidates))
	if sum <= 0 {
		return weights, nil
	}
	for _, c := range candidates {
		weights[c.id] = c.sim / sum
	}
	return weights, nil
}

// FeatureVector flattens a comparable's weighted contribution vector to
// float32 for persistence as an embedding column.
func FeatureVector(c model.Comparable, s model.SubjectRef) []float32 {
	w := defaultWeights()
	terms, present := featureTerms(&c, &s)
	vec := make([]float32, len(featureOrder))
	for i, name := range featureOrder {
		if present[i] {
			vec[i] = float32(w[name] * terms[i] * terms[i])
		}
	}
	return vec
}
