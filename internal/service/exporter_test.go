package service

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"compcore/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func bptr(v bool) *bool       { return &v }
func sptr(v string) *string   { return &v }

func exportFixture() []model.Comparable {
	q := model.QualityA
	return []model.Comparable{
		{
			ID:          101,
			ExternalRef: sptr("idealista-9981"),
			Date:        time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
			Source:      model.SourcePortal,
			Lat:         40.4168,
			Lng:         -3.7038,
			Address:     sptr("Calle Mayor 12, Madrid"),
			Price:       315000,
			Sqm:         92,
			Rooms:       iptr(3),
			Baths:       iptr(2),
			Floor:       iptr(4),
			Elevator:    bptr(true),
			TerraceSqm:  fptr(8),
			Parking:     bptr(false),
			Condition:   sptr("GOOD"),
			Photos:      []string{"https://img.example.com/101-1.jpg"},

			PricePerSqm:   fptr(3423.913043),
			DistanceM:     fptr(412.5),
			AdjustedPrice: fptr(298000),
			Similarity:    fptr(0.91),
			Quality:       &q,
		},
		{
			ID:     102,
			Date:   time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC),
			Source: model.SourceRegistro,
			Lat:    40.4201,
			Lng:    -3.7110,
			Price:  189000,
			Sqm:    58,
		},
	}
}

func TestExporterJSONRoundTrip(t *testing.T) {
	e := NewExporter()
	comps := exportFixture()

	data, err := e.JSON(comps)
	require.NoError(t, err)

	parsed, err := e.ParseJSON(data)
	require.NoError(t, err)
	require.Len(t, parsed, 2)

	// Raw fields must survive the round trip untouched.
	for i := range comps {
		assert.Equal(t, comps[i].ID, parsed[i].ID)
		assert.Equal(t, comps[i].ExternalRef, parsed[i].ExternalRef)
		assert.True(t, comps[i].Date.Equal(parsed[i].Date))
		assert.Equal(t, comps[i].Source, parsed[i].Source)
		assert.Equal(t, comps[i].Lat, parsed[i].Lat)
		assert.Equal(t, comps[i].Lng, parsed[i].Lng)
		assert.Equal(t, comps[i].Address, parsed[i].Address)
		assert.Equal(t, comps[i].Price, parsed[i].Price)
		assert.Equal(t, comps[i].Sqm, parsed[i].Sqm)
		assert.Equal(t, comps[i].Rooms, parsed[i].Rooms)
		assert.Equal(t, comps[i].Baths, parsed[i].Baths)
		assert.Equal(t, comps[i].Floor, parsed[i].Floor)
		assert.Equal(t, comps[i].Elevator, parsed[i].Elevator)
		assert.Equal(t, comps[i].TerraceSqm, parsed[i].TerraceSqm)
		assert.Equal(t, comps[i].Parking, parsed[i].Parking)
		assert.Equal(t, comps[i].Condition, parsed[i].Condition)
		assert.Equal(t, comps[i].Photos, parsed[i].Photos)
	}
}

func TestExporterCSV(t *testing.T) {
	e := NewExporter()
	data, err := e.CSV(exportFixture())
	require.NoError(t, err)

	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // header + 2 rows

	assert.Equal(t, csvHeader, records[0])
	require.Len(t, records[1], len(csvHeader))

	row := records[1]
	assert.Equal(t, "101", row[0])
	assert.Equal(t, "idealista-9981", row[1])
	assert.Equal(t, "2026-03-15T00:00:00Z", row[2])
	assert.Equal(t, "40.4168", row[3])
	assert.Equal(t, "-3.7038", row[4])
	assert.Equal(t, "315000", row[6])
	assert.Equal(t, "PORTAL", row[16])
	assert.Equal(t, "A", row[17])

	// The sparse comparable renders missing optionals as empty cells.
	row = records[2]
	assert.Equal(t, "102", row[0])
	assert.Equal(t, "", row[1])
	assert.Equal(t, "", row[9])  // rooms
	assert.Equal(t, "", row[17]) // quality
}

func TestExporterCSVEmpty(t *testing.T) {
	e := NewExporter()
	data, err := e.CSV(nil)
	require.NoError(t, err)

	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, csvHeader, records[0])
}

func TestExporterGeoJSON(t *testing.T) {
	e := NewExporter()
	data, err := e.GeoJSON(exportFixture())
	require.NoError(t, err)

	var fc GeoJSONFeatureCollection
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)

	f := fc.Features[0]
	assert.Equal(t, "Feature", f.Type)
	assert.Equal(t, "Point", f.Geometry.Type)
	assert.Equal(t, [2]float64{-3.7038, 40.4168}, f.Geometry.Coordinates)
	assert.Equal(t, int64(101), f.Properties.ID)
	assert.Equal(t, model.SourcePortal, f.Properties.Source)
}
