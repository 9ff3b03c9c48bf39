package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"compcore/internal/model"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// PostgresRepository handles database operations
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	// Disable prepared statement caching to avoid "unnamed prepared statement does not exist" errors
	if !strings.Contains(dsn, "?") {
		dsn += "?prefer_simple_protocol=true"
	} else {
		dsn += "&prefer_simple_protocol=true"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

const comparableColumns = `
	id, external_ref, date, source, lat, lng, address, price, sqm,
	rooms, baths, floor, elevator, terrace_sqm, parking, condition,
	photos, created_at, updated_at`

// FetchComparables returns the comparable collection for a search.
// Only the cheap scalar predicates (source, date, price, sqm) are
// pushed into SQL; geometry and every derived field stay with the
// engine so the pipeline remains the single source of truth.
func (r *PostgresRepository) FetchComparables(ctx context.Context, f *model.SearchFilters) ([]model.Comparable, error) {
	whereClauses := []string{"1=1"}
	args := []interface{}{}
	argIndex := 1

	if f != nil {
		if f.Source != nil {
			whereClauses = append(whereClauses, fmt.Sprintf("source = $%d", argIndex))
			args = append(args, string(*f.Source))
			argIndex++
		}
		if f.DateFrom != nil {
			whereClauses = append(whereClauses, fmt.Sprintf("date >= $%d", argIndex))
			args = append(args, *f.DateFrom)
			argIndex++
		}
		if f.DateTo != nil {
			whereClauses = append(whereClauses, fmt.Sprintf("date <= $%d", argIndex))
			args = append(args, *f.DateTo)
			argIndex++
		}
		if f.PriceMin != nil {
			whereClauses = append(whereClauses, fmt.Sprintf("price >= $%d", argIndex))
			args = append(args, *f.PriceMin)
			argIndex++
		}
		if f.PriceMax != nil {
			whereClauses = append(whereClauses, fmt.Sprintf("price <= $%d", argIndex))
			args = append(args, *f.PriceMax)
			argIndex++
		}
		if f.SqmMin != nil {
			whereClauses = append(whereClauses, fmt.Sprintf("sqm >= $%d", argIndex))
			args = append(args, *f.SqmMin)
			argIndex++
		}
		if f.SqmMax != nil {
			whereClauses = append(whereClauses, fmt.Sprintf("sqm <= $%d", argIndex))
			args = append(args, *f.SqmMax)
			argIndex++
		}
	}

	query := fmt.Sprintf(`SELECT %s FROM comparables WHERE %s ORDER BY id`,
		comparableColumns, strings.Join(whereClauses, " AND "))

	var comps []model.Comparable
	if err := r.db.SelectContext(ctx, &comps, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch comparables: %w", err)
	}
	return comps, nil
}

// GetComparables fetches specific comparables by ID, preserving the
// requested order.
func (r *PostgresRepository) GetComparables(ctx context.Context, ids []int64) ([]model.Comparable, error) {
	if len(ids) == 0 {
		return []model.Comparable{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM comparables WHERE id = ANY($1)`, comparableColumns)

	var comps []model.Comparable
	if err := r.db.SelectContext(ctx, &comps, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to fetch comparables by id: %w", err)
	}

	byID := make(map[int64]model.Comparable, len(comps))
	for _, c := range comps {
		byID[c.ID] = c
	}
	ordered := make([]model.Comparable, 0, len(comps))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}

// InsertComparables inserts a batch inside one transaction, reporting
// per-row failures without aborting the rest of the batch.
func (r *PostgresRepository) InsertComparables(ctx context.Context, comps []model.Comparable) (int, []string) {
	success := 0
	var errors []string

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		errors = append(errors, fmt.Sprintf("failed to start transaction: %v", err))
		return success, errors
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO comparables (
			external_ref, date, source, lat, lng, address, price, sqm,
			rooms, baths, floor, elevator, terrace_sqm, parking, condition, photos
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`)
	if err != nil {
		errors = append(errors, fmt.Sprintf("failed to prepare statement: %v", err))
		return success, errors
	}
	defer stmt.Close()

	for i, c := range comps {
		_, err := stmt.ExecContext(ctx,
			c.ExternalRef, c.Date, string(c.Source), c.Lat, c.Lng, c.Address,
			c.Price, c.Sqm, c.Rooms, c.Baths, c.Floor, c.Elevator,
			c.TerraceSqm, c.Parking, c.Condition, c.Photos,
		)
		if err != nil {
			errors = append(errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		success++
	}

	if err := tx.Commit(); err != nil {
		errors = append(errors, fmt.Sprintf("failed to commit transaction: %v", err))
		return 0, errors
	}

	return success, errors
}

// UpdateEmbedding stores the feature vector for a comparable
func (r *PostgresRepository) UpdateEmbedding(ctx context.Context, id int64, embedding []float32) error {
	vec := pgvector.NewVector(embedding)
	query := `UPDATE comparables SET embedding = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, vec, id); err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	return nil
}

// NearestByEmbedding returns the comparables closest to the given
// feature vector, nearest first.
func (r *PostgresRepository) NearestByEmbedding(ctx context.Context, embedding []float32, limit int) ([]model.Comparable, error) {
	vec := pgvector.NewVector(embedding)
	query := fmt.Sprintf(`
		SELECT %s FROM comparables
		WHERE embedding IS NOT NULL
		ORDER BY embedding <-> $1
		LIMIT $2
	`, comparableColumns)

	var comps []model.Comparable
	if err := r.db.SelectContext(ctx, &comps, query, vec, limit); err != nil {
		return nil, fmt.Errorf("failed to fetch nearest comparables: %w", err)
	}
	return comps, nil
}

// SaveCompSet inserts a comp set. When the set claims the AVM default
// flag, every other set loses it inside the same transaction so at
// most one default exists at a time.
func (r *PostgresRepository) SaveCompSet(ctx context.Context, set *model.CompSet) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if set.IsAVMDefault {
		if _, err := tx.ExecContext(ctx, `UPDATE comp_sets SET is_avm_default = false WHERE is_avm_default`); err != nil {
			return fmt.Errorf("failed to clear default flag: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO comp_sets (id, name, client, notes, comparable_ids, is_avm_default)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, set.ID, set.Name, set.Client, set.Notes, pq.Array(set.ComparableIDs), set.IsAVMDefault)
	if err != nil {
		return fmt.Errorf("failed to insert comp set: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateCompSet updates name, client, notes, members and default flag,
// preserving the single-default invariant.
func (r *PostgresRepository) UpdateCompSet(ctx context.Context, set *model.CompSet) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if set.IsAVMDefault {
		if _, err := tx.ExecContext(ctx, `UPDATE comp_sets SET is_avm_default = false WHERE is_avm_default AND id <> $1`, set.ID); err != nil {
			return fmt.Errorf("failed to clear default flag: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE comp_sets
		SET name = $2, client = $3, notes = $4, comparable_ids = $5,
		    is_avm_default = $6, updated_at = NOW()
		WHERE id = $1
	`, set.ID, set.Name, set.Client, set.Notes, pq.Array(set.ComparableIDs), set.IsAVMDefault)
	if err != nil {
		return fmt.Errorf("failed to update comp set: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type compSetRow struct {
	ID            string        `db:"id"`
	Name          string        `db:"name"`
	Client        *string       `db:"client"`
	Notes         *string       `db:"notes"`
	ComparableIDs pq.Int64Array `db:"comparable_ids"`
	IsAVMDefault  bool          `db:"is_avm_default"`
	CreatedAt     time.Time     `db:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
}

func (row *compSetRow) toModel() model.CompSet {
	return model.CompSet{
		ID:            row.ID,
		Name:          row.Name,
		Client:        row.Client,
		Notes:         row.Notes,
		ComparableIDs: []int64(row.ComparableIDs),
		IsAVMDefault:  row.IsAVMDefault,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

// ListCompSets returns all saved comp sets, newest first.
func (r *PostgresRepository) ListCompSets(ctx context.Context) ([]model.CompSet, error) {
	var rows []compSetRow
	query := `
		SELECT id, name, client, notes, comparable_ids, is_avm_default, created_at, updated_at
		FROM comp_sets
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list comp sets: %w", err)
	}
	sets := make([]model.CompSet, 0, len(rows))
	for i := range rows {
		sets = append(sets, rows[i].toModel())
	}
	return sets, nil
}

// GetCompSet retrieves a single comp set by ID, nil when absent.
func (r *PostgresRepository) GetCompSet(ctx context.Context, id string) (*model.CompSet, error) {
	var row compSetRow
	query := `
		SELECT id, name, client, notes, comparable_ids, is_avm_default, created_at, updated_at
		FROM comp_sets
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get comp set: %w", err)
	}
	set := row.toModel()
	return &set, nil
}
