package engine

import (
	"time"

	"compcore/internal/model"
)

// Tier thresholds. Ages are calendar months back from "now".
const (
	tierAMaxAgeMonths = 6
	tierADistanceM    = 500.0
	tierBMaxAgeMonths = 12
	tierBDistanceM    = 1000.0
)

// Classify assigns the coarse reliability tier of a comparable. Tier A
// needs recency, proximity and full attribute completeness; tier B only
// the looser recency and proximity bounds. A comparable failing A's
// completeness check still gets B's evaluation rather than dropping
// straight to C. The distance must already be computed: an unknown
// distance fails both distance conditions.
func Classify(c model.Comparable, now time.Time) model.Quality {
	if withinMonths(c.Date, now, tierAMaxAgeMonths) &&
		withinDistance(c.DistanceM, tierADistanceM) &&
		complete(&c) {
		return model.QualityA
	}
	if withinMonths(c.Date, now, tierBMaxAgeMonths) &&
		withinDistance(c.DistanceM, tierBDistanceM) {
		return model.QualityB
	}
	return model.QualityC
}

func withinMonths(date, now time.Time, months int) bool {
	if date.IsZero() {
		return false
	}
	return !date.Before(now.AddDate(0, -months, 0))
}

func withinDistance(distanceM *float64, maxM float64) bool {
	return distanceM != nil && *distanceM <= maxM
}

func complete(c *model.Comparable) bool {
	return c.Sqm > 0 &&
		c.Rooms != nil &&
		c.Baths != nil &&
		c.Condition != nil &&
		c.Floor != nil
}
