package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"compcore/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Accepted date layouts for import rows.
var importDateLayouts = []string{time.RFC3339, "2006-01-02"}

// ImportStore persists validated import rows.
type ImportStore interface {
	InsertComparables(ctx context.Context, comps []model.Comparable) (int, []string)
}

// Importer validates loosely typed rows and inserts the valid ones.
// Partial success is the expected outcome: one bad row never aborts
// the batch.
type Importer struct {
	store  ImportStore
	logger *zap.Logger
}

// NewImporter creates a new importer
func NewImporter(store ImportStore, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{store: store, logger: logger}
}

// Import validates every row, inserts the valid ones and reports
// per-row failures with their 1-based index.
func (im *Importer) Import(ctx context.Context, rows []model.ImportRow) model.ImportReport {
	report := model.ImportReport{BatchID: uuid.NewString()}

	valid := make([]model.Comparable, 0, len(rows))
	validRowIdx := make([]int, 0, len(rows))
	for i, row := range rows {
		comp, err := comparableFromRow(&row)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, model.ImportError{Row: i + 1, Reason: err.Error()})
			continue
		}
		valid = append(valid, *comp)
		validRowIdx = append(validRowIdx, i+1)
	}

	if len(valid) > 0 {
		success, insertErrs := im.store.InsertComparables(ctx, valid)
		report.Success = success
		failedInserts := len(valid) - success
		report.Failed += failedInserts
		for _, msg := range insertErrs {
			// Insert errors are positioned within the valid subset;
			// surface them against the original row numbering when the
			// batch position is recoverable, verbatim otherwise.
			report.Errors = append(report.Errors, model.ImportError{Row: rowForInsertError(msg, validRowIdx), Reason: msg})
		}
	}

	im.logger.Info("import batch processed",
		zap.String("batch_id", report.BatchID),
		zap.Int("rows", len(rows)),
		zap.Int("success", report.Success),
		zap.Int("failed", report.Failed),
	)
	return report
}

func rowForInsertError(msg string, validRowIdx []int) int {
	var pos int
	if _, err := fmt.Sscanf(msg, "row %d:", &pos); err == nil && pos >= 1 && pos <= len(validRowIdx) {
		return validRowIdx[pos-1]
	}
	return 0
}

func comparableFromRow(row *model.ImportRow) (*model.Comparable, error) {
	if row.Date == nil || strings.TrimSpace(*row.Date) == "" {
		return nil, fmt.Errorf("missing required field: date")
	}
	if row.Lat == nil {
		return nil, fmt.Errorf("missing required field: lat")
	}
	if row.Lng == nil {
		return nil, fmt.Errorf("missing required field: lng")
	}
	if row.Price == nil {
		return nil, fmt.Errorf("missing required field: price")
	}
	if row.Sqm == nil {
		return nil, fmt.Errorf("missing required field: sqm")
	}
	if *row.Price <= 0 {
		return nil, fmt.Errorf("price must be > 0, got %g", *row.Price)
	}
	if *row.Sqm <= 0 {
		return nil, fmt.Errorf("sqm must be > 0, got %g", *row.Sqm)
	}

	date, err := parseImportDate(*row.Date)
	if err != nil {
		return nil, err
	}

	source := model.SourceInterno
	if row.Source != nil && *row.Source != "" {
		source = model.Source(strings.ToUpper(strings.TrimSpace(*row.Source)))
		if !source.Valid() {
			return nil, fmt.Errorf("unknown source %q", *row.Source)
		}
	}

	return &model.Comparable{
		ExternalRef: row.ExternalRef,
		Date:        date,
		Source:      source,
		Lat:         *row.Lat,
		Lng:         *row.Lng,
		Address:     row.Address,
		Price:       *row.Price,
		Sqm:         *row.Sqm,
		Rooms:       row.Rooms,
		Baths:       row.Baths,
		Floor:       row.Floor,
		Elevator:    row.Elevator,
		TerraceSqm:  row.TerraceSqm,
		Parking:     row.Parking,
		Condition:   row.Condition,
		Photos:      row.Photos,
	}, nil
}

func parseImportDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}
