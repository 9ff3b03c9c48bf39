package engine

import (
	"testing"
	"time"

	"compcore/internal/model"

	"github.com/stretchr/testify/assert"
)

var qualityNow = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func qualityComp(ageMonths int, distanceM float64) model.Comparable {
	d := distanceM
	return model.Comparable{
		ID:        1,
		Date:      qualityNow.AddDate(0, -ageMonths, 0),
		Source:    model.SourceRegistro,
		Price:     200000,
		Sqm:       85,
		Rooms:     iptr(3),
		Baths:     iptr(1),
		Floor:     iptr(2),
		Condition: sptr("bueno"),
		DistanceM: &d,
	}
}

func TestClassify_TierA(t *testing.T) {
	c := qualityComp(3, 200)
	assert.Equal(t, model.QualityA, Classify(c, qualityNow))
}

func TestClassify_MissingConditionFallsToB(t *testing.T) {
	// Age and distance satisfy A, but incomplete attributes drop the
	// comparable to B's looser evaluation, never straight to C.
	c := qualityComp(3, 200)
	c.Condition = nil
	assert.Equal(t, model.QualityB, Classify(c, qualityNow))
}

func TestClassify_TierB(t *testing.T) {
	c := qualityComp(9, 800)
	assert.Equal(t, model.QualityB, Classify(c, qualityNow))
}

func TestClassify_TierC(t *testing.T) {
	tests := []struct {
		name string
		comp model.Comparable
	}{
		{"too old", qualityComp(18, 200)},
		{"too far", qualityComp(3, 5000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.comp.Condition = nil // keep A out of reach
			assert.Equal(t, model.QualityC, Classify(tt.comp, qualityNow))
		})
	}
}

func TestClassify_MissingDistanceFailsDistanceConditions(t *testing.T) {
	c := qualityComp(3, 0)
	c.DistanceM = nil
	assert.Equal(t, model.QualityC, Classify(c, qualityNow))
}

func TestClassify_MonotonicInAge(t *testing.T) {
	rank := map[model.Quality]int{model.QualityA: 0, model.QualityB: 1, model.QualityC: 2}
	prev := -1
	for _, months := range []int{1, 5, 7, 11, 13, 24} {
		q := Classify(qualityComp(months, 200), qualityNow)
		assert.GreaterOrEqual(t, rank[q], prev, "age %d months regressed the tier", months)
		prev = rank[q]
	}
}

func TestClassify_MonotonicInDistance(t *testing.T) {
	rank := map[model.Quality]int{model.QualityA: 0, model.QualityB: 1, model.QualityC: 2}
	prev := -1
	for _, dist := range []float64{100, 400, 600, 900, 1100, 3000} {
		q := Classify(qualityComp(3, dist), qualityNow)
		assert.GreaterOrEqual(t, rank[q], prev, "distance %g regressed the tier", dist)
		prev = rank[q]
	}
}
