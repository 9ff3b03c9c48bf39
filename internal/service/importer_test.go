package service

import (
	"context"
	"fmt"
	"testing"

	"compcore/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeImportStore records inserts and fails the rows listed in failAt
// (1-based positions within the batch it receives).
type fakeImportStore struct {
	inserted []model.Comparable
	failAt   map[int]bool
}

func (f *fakeImportStore) InsertComparables(_ context.Context, comps []model.Comparable) (int, []string) {
	var errs []string
	success := 0
	for i := range comps {
		if f.failAt[i+1] {
			errs = append(errs, fmt.Sprintf("row %d: duplicate external_ref", i+1))
			continue
		}
		f.inserted = append(f.inserted, comps[i])
		success++
	}
	return success, errs
}

func validImportRow() model.ImportRow {
	return model.ImportRow{
		Date:  sptr("2026-03-15"),
		Lat:   fptr(40.4168),
		Lng:   fptr(-3.7038),
		Price: fptr(250000),
		Sqm:   fptr(80),
	}
}

func TestImportAllValid(t *testing.T) {
	store := &fakeImportStore{}
	im := NewImporter(store, nil)

	rows := []model.ImportRow{validImportRow(), validImportRow()}
	rows[1].Source = sptr("registro")
	rows[1].Date = sptr("2026-01-10T12:30:00Z")

	report := im.Import(context.Background(), rows)
	assert.NotEmpty(t, report.BatchID)
	assert.Equal(t, 2, report.Success)
	assert.Equal(t, 0, report.Failed)
	assert.Empty(t, report.Errors)

	require.Len(t, store.inserted, 2)
	assert.Equal(t, model.SourceInterno, store.inserted[0].Source)
	assert.Equal(t, model.SourceRegistro, store.inserted[1].Source)
}

func TestImportRejectsInvalidRows(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.ImportRow)
		reason string
	}{
		{"missing date", func(r *model.ImportRow) { r.Date = nil }, "missing required field: date"},
		{"blank date", func(r *model.ImportRow) { r.Date = sptr("  ") }, "missing required field: date"},
		{"missing lat", func(r *model.ImportRow) { r.Lat = nil }, "missing required field: lat"},
		{"missing lng", func(r *model.ImportRow) { r.Lng = nil }, "missing required field: lng"},
		{"missing price", func(r *model.ImportRow) { r.Price = nil }, "missing required field: price"},
		{"missing sqm", func(r *model.ImportRow) { r.Sqm = nil }, "missing required field: sqm"},
		{"zero price", func(r *model.ImportRow) { r.Price = fptr(0) }, "price must be > 0, got 0"},
		{"negative sqm", func(r *model.ImportRow) { r.Sqm = fptr(-4) }, "sqm must be > 0, got -4"},
		{"bad date", func(r *model.ImportRow) { r.Date = sptr("15/03/2026") }, `unparseable date "15/03/2026"`},
		{"bad source", func(r *model.ImportRow) { r.Source = sptr("zillow") }, `unknown source "zillow"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeImportStore{}
			im := NewImporter(store, nil)

			row := validImportRow()
			tt.mutate(&row)
			report := im.Import(context.Background(), []model.ImportRow{row})

			assert.Equal(t, 0, report.Success)
			assert.Equal(t, 1, report.Failed)
			require.Len(t, report.Errors, 1)
			assert.Equal(t, 1, report.Errors[0].Row)
			assert.Equal(t, tt.reason, report.Errors[0].Reason)
			assert.Empty(t, store.inserted)
		})
	}
}

func TestImportPartialSuccess(t *testing.T) {
	store := &fakeImportStore{}
	im := NewImporter(store, nil)

	rows := []model.ImportRow{validImportRow(), validImportRow(), validImportRow()}
	rows[1].Price = nil

	report := im.Import(context.Background(), rows)
	assert.Equal(t, 2, report.Success)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 2, report.Errors[0].Row)
	assert.Len(t, store.inserted, 2)
}

func TestImportMapsInsertErrorsToOriginalRows(t *testing.T) {
	// Row 2 fails validation; the store then rejects the second valid
	// row, which is row 3 in the original batch.
	store := &fakeImportStore{failAt: map[int]bool{2: true}}
	im := NewImporter(store, nil)

	rows := []model.ImportRow{validImportRow(), validImportRow(), validImportRow()}
	rows[1].Sqm = nil

	report := im.Import(context.Background(), rows)
	assert.Equal(t, 1, report.Success)
	assert.Equal(t, 2, report.Failed)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, 2, report.Errors[0].Row)
	assert.Equal(t, 3, report.Errors[1].Row)
	assert.Contains(t, report.Errors[1].Reason, "duplicate external_ref")
}

func TestImportEmptyBatch(t *testing.T) {
	store := &fakeImportStore{}
	im := NewImporter(store, nil)

	report := im.Import(context.Background(), nil)
	assert.Equal(t, 0, report.Success)
	assert.Equal(t, 0, report.Failed)
	assert.Empty(t, report.Errors)
	assert.NotEmpty(t, report.BatchID)
}
