package engine

import (
	"fmt"
	"math"
	"strings"

	"compcore/internal/model"
	"compcore/internal/utils"
)

const (
	// defaultSqmMargin is the bucket size comparables' areas are
	// rounded down to before keying.
	defaultSqmMargin = 5
	// defaultDateWindowDays is the date bucket width.
	defaultDateWindowDays = 30
)

// DedupOptions tunes the HASH key construction. Zero values fall back
// to the defaults.
type DedupOptions struct {
	SqmMargin      int `json:"sqm_margin,omitempty"`
	DateWindowDays int `json:"date_window_days,omitempty"`
}

// DedupResult groups comparables likely to represent the same
// underlying transaction. Groups preserve input order; within each
// group of size > 1 every entry but the first is reported in
// Duplicates.
type DedupResult struct {
	Groups     [][]int64 `json:"groups"`
	Duplicates []int64   `json:"duplicates"`
}

// Dedup groups a comparable set by canonical key under the given
// strategy. Grouping is a pure function of input order: ties for
// "first" are broken by position, never by value comparison.
func Dedup(comps []model.Comparable, strategy model.DedupStrategy, opts DedupOptions) (DedupResult, error) {
	switch strategy {
	case model.DedupHash, model.DedupPortalRef, model.DedupCadastre:
	default:
		return DedupResult{}, configErrorf("unknown dedup strategy %q", strategy)
	}
	if opts.SqmMargin < 0 {
		return DedupResult{}, configErrorf("sqm_margin must be >= 0, got %d", opts.SqmMargin)
	}
	if opts.DateWindowDays < 0 {
		return DedupResult{}, configErrorf("date_window_days must be >= 0, got %d", opts.DateWindowDays)
	}
	if opts.SqmMargin == 0 {
		opts.SqmMargin = defaultSqmMargin
	}
	if opts.DateWindowDays == 0 {
		opts.DateWindowDays = defaultDateWindowDays
	}

	result := DedupResult{Groups: [][]int64{}, Duplicates: []int64{}}
	groupByKey := make(map[string]int)
	for i := range comps {
		key := dedupKey(&comps[i], strategy, opts)
		if idx, ok := groupByKey[key]; ok {
			result.Groups[idx] = append(result.Groups[idx], comps[i].ID)
			result.Duplicates = append(result.Duplicates, comps[i].ID)
			continue
		}
		groupByKey[key] = len(result.Groups)
		result.Groups = append(result.Groups, []int64{comps[i].ID})
	}
	return result, nil
}

func dedupKey(c *model.Comparable, strategy model.DedupStrategy, opts DedupOptions) string {
	// Reference-based strategies use the external reference directly
	// and fall back to the hash key when it is absent.
	if strategy != model.DedupHash && c.ExternalRef != nil && *c.ExternalRef != "" {
		return string(strategy) + ":" + *c.ExternalRef
	}
	return hashKey(c, opts)
}

func hashKey(c *model.Comparable, opts DedupOptions) string {
	// Without identifying data the comparable keys on its own ID: it
	// can never collide, so it is never flagged as a duplicate.
	if c.Address == nil || strings.TrimSpace(*c.Address) == "" {
		return fmt.Sprintf("self:%d", c.ID)
	}

	floor := "null"
	if c.Floor != nil {
		floor = fmt.Sprintf("%d", *c.Floor)
	}
	sqmBucket := int(math.Floor(c.Sqm/float64(opts.SqmMargin))) * opts.SqmMargin
	dateBucket := int64(0)
	if !c.Date.IsZero() {
		days := c.Date.Unix() / (24 * 60 * 60)
		dateBucket = days / int64(opts.DateWindowDays)
	}

	parts := []string{
		utils.StreetToken(*c.Address),
		utils.StreetNumber(*c.Address),
		floor,
		fmt.Sprintf("%d", sqmBucket),
		fmt.Sprintf("%d", dateBucket),
	}
	return strings.Join(parts, "|")
}
