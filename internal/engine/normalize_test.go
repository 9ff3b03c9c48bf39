package engine

import (
	"testing"
	"time"

	"compcore/internal/model"

	"github.com/stretchr/testify/assert"
)

var normNow = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func bptr(v bool) *bool       { return &v }
func sptr(v string) *string   { return &v }

func baseComp() model.Comparable {
	return model.Comparable{
		ID:     1,
		Date:   normNow.AddDate(0, -2, 0),
		Source: model.SourcePortal,
		Lat:    40.4168,
		Lng:    -3.7038,
		Price:  300000,
		Sqm:    100,
	}
}

func TestNormalize_NoOpRulesReturnPriceUnchanged(t *testing.T) {
	comp := baseComp()
	rules := model.NormalizeRules{SqmMethod: model.SqmLinear}
	subject := model.SubjectRef{Sqm: fptr(100)}

	got := Normalize(comp, rules, subject, normNow)
	assert.Equal(t, 300000.0, got)
}

func TestNormalize_LinearAreaAdjustment(t *testing.T) {
	// subject 80 sqm, comp 100 sqm at 3000/sqm: 300000 + (80-100)*3000.
	comp := baseComp()
	rules := model.NormalizeRules{SqmMethod: model.SqmLinear}
	subject := model.SubjectRef{Sqm: fptr(80)}

	got := Normalize(comp, rules, subject, normNow)
	assert.Equal(t, 240000.0, got)
}

func TestNormalize_SqrtAreaAdjustment(t *testing.T) {
	comp := baseComp()
	rules := model.NormalizeRules{SqmMethod: model.SqmSqrt}
	subject := model.SubjectRef{Sqm: fptr(81)}

	got := Normalize(comp, rules, subject, normNow)
	assert.InDelta(t, 300000*0.9, got, 1e-6) // sqrt(81/100) = 0.9
}

func TestNormalize_SkipsAreaWhenSubjectSqmUnknown(t *testing.T) {
	comp := baseComp()
	rules := model.NormalizeRules{SqmMethod: model.SqmLinear}

	got := Normalize(comp, rules, model.SubjectRef{}, normNow)
	assert.Equal(t, 300000.0, got)
}

func TestNormalize_ConditionFactor(t *testing.T) {
	comp := baseComp()
	comp.Condition = sptr("Reformado")
	rules := model.NormalizeRules{
		SqmMethod:        model.SqmLinear,
		ConditionFactors: map[string]float64{"reformado": 1.1},
	}

	got := Normalize(comp, rules, model.SubjectRef{}, normNow)
	assert.InDelta(t, 330000, got, 1e-9)
}

func TestNormalize_ConditionWithoutMappingIsSkipped(t *testing.T) {
	comp := baseComp()
	comp.Condition = sptr("a estrenar")
	rules := model.NormalizeRules{
		SqmMethod:        model.SqmLinear,
		ConditionFactors: map[string]float64{"reformado": 1.1},
	}

	got := Normalize(comp, rules, model.SubjectRef{}, normNow)
	assert.Equal(t, 300000.0, got)
}

func TestNormalize_FloorElevatorTerraceParking(t *testing.T) {
	comp := baseComp()
	comp.Floor = iptr(4)
	comp.Elevator = bptr(true)
	comp.TerraceSqm = fptr(10)
	comp.Parking = bptr(true)
	rules := model.NormalizeRules{
		SqmMethod:      model.SqmLinear,
		FloorBonus:     fptr(1000),
		ElevatorFactor: fptr(1.02),
		TerracePpsqm:   fptr(500),
		ParkingValue:   fptr(15000),
	}

	// (300000 + 4*1000) * 1.02 + 10*500 + 15000
	got := Normalize(comp, rules, model.SubjectRef{}, normNow)
	assert.InDelta(t, 304000*1.02+5000+15000, got, 1e-9)
}

func TestNormalize_ElevatorAbsenceSkipsMultiplier(t *testing.T) {
	comp := baseComp()
	comp.Elevator = bptr(false)
	rules := model.NormalizeRules{
		SqmMethod:      model.SqmLinear,
		ElevatorFactor: fptr(1.05),
	}

	got := Normalize(comp, rules, model.SubjectRef{}, normNow)
	assert.Equal(t, 300000.0, got)
}

func TestNormalize_AgeDepreciation(t *testing.T) {
	comp := baseComp()
	comp.Date = normNow.AddDate(-2, 0, 0)
	rules := model.NormalizeRules{
		SqmMethod:           model.SqmLinear,
		DepreciationPctYear: fptr(1.0),
	}

	got := Normalize(comp, rules, model.SubjectRef{}, normNow)
	// Two calendar years back; allow leap-day slack around 2% depreciation.
	assert.InDelta(t, 300000*0.98, got, 100)
}

func TestNormalize_MicroLocationBonus(t *testing.T) {
	comp := baseComp()
	subject := model.SubjectRef{Lat: fptr(comp.Lat), Lng: fptr(comp.Lng)}
	rules := model.NormalizeRules{
		SqmMethod:      model.SqmLinear,
		LocationBonusM: fptr(500.0),
	}

	// Distance 0: full 5% bonus.
	got := Normalize(comp, rules, subject, normNow)
	assert.InDelta(t, 315000, got, 1e-6)

	// Halfway to the radius boundary: 2.5% bonus.
	d := 250.0
	comp.DistanceM = &d
	got = Normalize(comp, rules, subject, normNow)
	assert.InDelta(t, 300000*1.025, got, 1e-6)

	// At the boundary: no bonus.
	d = 500.0
	got = Normalize(comp, rules, subject, normNow)
	assert.Equal(t, 300000.0, got)
}

func TestNormalize_ClampsToFloor(t *testing.T) {
	comp := baseComp()
	comp.Date = normNow.AddDate(-3, 0, 0)
	// 1 - 0.5*3 = -0.5: depreciation drives the total below zero.
	rules := model.NormalizeRules{
		SqmMethod:           model.SqmLinear,
		DepreciationPctYear: fptr(50),
		MinPrice:            1,
	}

	got := Normalize(comp, rules, model.SubjectRef{}, normNow)
	assert.Equal(t, 1.0, got)
}

func TestNormalize_ClampWithZeroFloorStaysNonNegative(t *testing.T) {
	comp := baseComp()
	comp.Date = normNow.AddDate(-3, 0, 0)
	rules := model.NormalizeRules{
		SqmMethod:           model.SqmLinear,
		DepreciationPctYear: fptr(50),
	}

	got := Normalize(comp, rules, model.SubjectRef{}, normNow)
	assert.Equal(t, 0.0, got)
}

func TestNormalize_DeterministicForSameInput(t *testing.T) {
	comp := baseComp()
	comp.Condition = sptr("bueno")
	comp.Floor = iptr(2)
	rules := model.NormalizeRules{
		SqmMethod:        model.SqmSqrt,
		ConditionFactors: map[string]float64{"bueno": 1.05},
		FloorBonus:       fptr(500),
	}
	subject := model.SubjectRef{Sqm: fptr(90)}

	first := Normalize(comp, rules, subject, normNow)
	second := Normalize(comp, rules, subject, normNow)
	assert.Equal(t, first, second)
}
