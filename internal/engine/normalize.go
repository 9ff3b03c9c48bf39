package engine

import (
	"math"
	"time"

	"compcore/internal/model"
	"compcore/internal/utils"
)

// maxLocationBonus caps the micro-location bonus at 5%.
const maxLocationBonus = 0.05

// hoursPerYear converts transaction age to fractional years.
const hoursPerYear = 24 * 365.25

type normalizeInput struct {
	comp    *model.Comparable
	subject *model.SubjectRef
	rules   *model.NormalizeRules
	now     time.Time
}

// adjustment is one step of the normalization pipeline. Each step
// returns the price unchanged when its preconditions are unmet.
type adjustment func(price float64, in normalizeInput) float64

// The fixed adjustment order. Reordering changes results; the sequence
// is part of the contract.
var adjustments = []adjustment{
	adjustArea,
	adjustCondition,
	adjustFloor,
	adjustElevator,
	adjustTerrace,
	adjustParking,
	adjustAge,
	adjustLocation,
}

// Normalize derives the adjusted price of a comparable relative to the
// subject by applying the rule set step by step. Normalization is
// best-effort: steps with missing inputs are skipped silently, and the
// result is deterministic for a given (comparable, rules, subject, now)
// tuple. The running total never drops below the configured floor.
func Normalize(comp model.Comparable, rules model.NormalizeRules, subject model.SubjectRef, now time.Time) float64 {
	in := normalizeInput{comp: &comp, subject: &subject, rules: &rules, now: now}
	price := comp.Price
	for _, adjust := range adjustments {
		price = clampPrice(adjust(price, in), rules.MinPrice)
	}
	return price
}

func clampPrice(price, floor float64) float64 {
	if floor < 0 {
		floor = 0
	}
	if price <= 0 {
		return floor
	}
	return price
}

func adjustArea(price float64, in normalizeInput) float64 {
	if in.subject.Sqm == nil || in.comp.Sqm <= 0 {
		return price
	}
	switch in.rules.SqmMethod {
	case model.SqmSqrt:
		return price * math.Sqrt(*in.subject.Sqm/in.comp.Sqm)
	default: // LINEAR
		return price + (*in.subject.Sqm-in.comp.Sqm)*in.comp.Ppsqm()
	}
}

func adjustCondition(price float64, in normalizeInput) float64 {
	if in.comp.Condition == nil || len(in.rules.ConditionFactors) == 0 {
		return price
	}
	if factor, ok := in.rules.ConditionFactors[utils.NormalizeCondition(*in.comp.Condition)]; ok {
		return price * factor
	}
	return price
}

func adjustFloor(price float64, in normalizeInput) float64 {
	if in.comp.Floor == nil || in.rules.FloorBonus == nil {
		return price
	}
	return price + float64(*in.comp.Floor)*(*in.rules.FloorBonus)
}

func adjustElevator(price float64, in normalizeInput) float64 {
	if in.rules.ElevatorFactor == nil || in.comp.Elevator == nil || !*in.comp.Elevator {
		return price
	}
	return price * *in.rules.ElevatorFactor
}

func adjustTerrace(price float64, in normalizeInput) float64 {
	if in.comp.TerraceSqm == nil || in.rules.TerracePpsqm == nil {
		return price
	}
	return price + *in.comp.TerraceSqm*(*in.rules.TerracePpsqm)
}

func adjustParking(price float64, in normalizeInput) float64 {
	if in.rules.ParkingValue == nil || in.comp.Parking == nil || !*in.comp.Parking {
		return price
	}
	return price + *in.rules.ParkingValue
}

func adjustAge(price float64, in normalizeInput) float64 {
	if in.rules.DepreciationPctYear == nil || in.comp.Date.IsZero() {
		return price
	}
	ageYears := in.now.Sub(in.comp.Date).Hours() / hoursPerYear
	if ageYears <= 0 {
		return price
	}
	return price * (1 - (*in.rules.DepreciationPctYear/100)*ageYears)
}

func adjustLocation(price float64, in normalizeInput) float64 {
	if in.rules.LocationBonusM == nil || *in.rules.LocationBonusM <= 0 || !in.subject.HasCoords() {
		return price
	}
	dist := in.comp.DistanceM
	if dist == nil {
		d := Haversine(*in.subject.Lat, *in.subject.Lng, in.comp.Lat, in.comp.Lng)
		dist = &d
	}
	radius := *in.rules.LocationBonusM
	if *dist >= radius {
		return price
	}
	// Bonus decays linearly from the cap at distance 0 to zero at the
	// radius boundary.
	bonus := maxLocationBonus * (1 - *dist/radius)
	return price * (1 + bonus)
}
