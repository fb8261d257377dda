package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/larasormani21/db-SemTUI/pkg/apperrors"
	"github.com/larasormani21/db-SemTUI/pkg/database"
	"github.com/larasormani21/db-SemTUI/pkg/models"
)

// TableRepository defines the interface for table data access.
// Counters and completion are computed from the table's columns and cells on every read.
type TableRepository interface {
	Create(ctx context.Context, datasetID int64, name string, rdf *string) (*models.Table, error)
	GetByID(ctx context.Context, id int64) (*models.Table, error)
	// GetByNameAndDataset looks the name up case-insensitively.
	GetByNameAndDataset(ctx context.Context, name string, datasetID int64) (*models.Table, error)
	ListByDataset(ctx context.Context, datasetID int64, opts ListOptions) ([]*models.Table, error)
	ListAll(ctx context.Context, opts ListOptions) ([]*models.Table, error)
	UpdateName(ctx context.Context, id int64, name string) error
	UpdateRDF(ctx context.Context, id int64, rdf *string) error
	// Touch sets last_modified_date to now.
	Touch(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	// PrintTableByTableID pivots the table's cells into rows keyed by row index.
	PrintTableByTableID(ctx context.Context, id int64) (*models.TableView, error)
}

type tableRepository struct{}

// NewTableRepository creates a new table repository.
func NewTableRepository() TableRepository {
	return &tableRepository{}
}

var _ TableRepository = (*tableRepository)(nil)

var tableSortColumns = map[string]string{
	"name":               "name",
	"last_modified_date": "last_modified_date",
	"id":                 "id",
	"num_rows":           "num_rows",
}

// tableSelect reads a table together with counters derived from live data.
const tableSelect = `
	SELECT t.id, t.dataset_id, t.name,
	       s.num_col, s.num_rows, s.num_cells, s.num_cells_reconciliated,
	       t.last_modified_date, t.rdf
	FROM tables t
	CROSS JOIN LATERAL (
		SELECT
			(SELECT count(*) FROM columns c WHERE c.table_id = t.id) AS num_col,
			count(DISTINCT ce.row_index) AS num_rows,
			count(ce.id) AS num_cells,
			count(ce.id) FILTER (WHERE ce.match_id IS NOT NULL AND ce.match_id <> '') AS num_cells_reconciliated
		FROM columns c
		JOIN cells ce ON ce.column_id = c.id
		WHERE c.table_id = t.id
	) s`

func (r *tableRepository) Create(ctx context.Context, datasetID int64, name string, rdf *string) (*models.Table, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		INSERT INTO tables (dataset_id, name, rdf)
		VALUES ($1, $2, $3)
		RETURNING id, dataset_id, name, last_modified_date, rdf`

	var t models.Table
	err := scope.Conn.QueryRow(ctx, query, datasetID, strings.TrimSpace(name), rdf).
		Scan(&t.ID, &t.DatasetID, &t.Name, &t.LastModifiedDate, &t.RDF)
	if err != nil {
		return nil, fmt.Errorf("failed to create table: %w", database.TranslateError(err))
	}
	t.FillCompletion()
	return &t, nil
}

func (r *tableRepository) GetByID(ctx context.Context, id int64) (*models.Table, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	t, err := scanTable(scope.Conn.QueryRow(ctx, tableSelect+` WHERE t.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get table %d: %w", id, database.TranslateError(err))
	}
	return t, nil
}

func (r *tableRepository) GetByNameAndDataset(ctx context.Context, name string, datasetID int64) (*models.Table, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := tableSelect + ` WHERE t.dataset_id = $1 AND lower(t.name) = lower($2)`

	t, err := scanTable(scope.Conn.QueryRow(ctx, query, datasetID, strings.TrimSpace(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to get table %q: %w", name, database.TranslateError(err))
	}
	return t, nil
}

func (r *tableRepository) ListByDataset(ctx context.Context, datasetID int64, opts ListOptions) ([]*models.Table, error) {
	return r.list(ctx, &datasetID, opts)
}

func (r *tableRepository) ListAll(ctx context.Context, opts ListOptions) ([]*models.Table, error) {
	return r.list(ctx, nil, opts)
}

func (r *tableRepository) list(ctx context.Context, datasetID *int64, opts ListOptions) ([]*models.Table, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	order, err := orderBy(opts, tableSortColumns, "name")
	if err != nil {
		return nil, err
	}

	var conditions []string
	var args []any
	argIdx := 1

	if datasetID != nil {
		conditions = append(conditions, fmt.Sprintf("t.dataset_id = $%d", argIdx))
		args = append(args, *datasetID)
		argIdx++
	}
	if opts.Search != "" {
		conditions = append(conditions, fmt.Sprintf("t.name ILIKE $%d", argIdx))
		args = append(args, "%"+escapeLike(opts.Search)+"%")
		argIdx++
	}

	query := tableSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " " + order

	rows, err := scope.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	tables := make([]*models.Table, 0)
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

func (r *tableRepository) UpdateName(ctx context.Context, id int64, name string) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `UPDATE tables SET name = $2, last_modified_date = now() WHERE id = $1`

	tag, err := scope.Conn.Exec(ctx, query, id, strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("failed to rename table: %w", database.TranslateError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *tableRepository) UpdateRDF(ctx context.Context, id int64, rdf *string) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	tag, err := scope.Conn.Exec(ctx, `UPDATE tables SET rdf = $2 WHERE id = $1`, id, rdf)
	if err != nil {
		return fmt.Errorf("failed to update table rdf: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *tableRepository) Touch(ctx context.Context, id int64) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	tag, err := scope.Conn.Exec(ctx, `UPDATE tables SET last_modified_date = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to touch table: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *tableRepository) Delete(ctx context.Context, id int64) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	tag, err := scope.Conn.Exec(ctx, `DELETE FROM tables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *tableRepository) PrintTableByTableID(ctx context.Context, id int64) (*models.TableView, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	var exists bool
	if err := scope.Conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tables WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check table: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("table %d: %w", id, apperrors.ErrNotFound)
	}

	colRows, err := scope.Conn.Query(ctx, `SELECT name FROM columns WHERE table_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	columns, err := pgx.CollectRows(colRows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan column name: %w", err)
	}

	query := `
		SELECT c.name, ce.row_index, ce.cell_value
		FROM cells ce
		JOIN columns c ON c.id = ce.column_id
		WHERE c.table_id = $1
		ORDER BY ce.row_index, c.id`

	rows, err := scope.Conn.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read table cells: %w", err)
	}
	defer rows.Close()

	var cells []models.ViewCell
	for rows.Next() {
		var vc models.ViewCell
		if err := rows.Scan(&vc.ColumnName, &vc.RowIndex, &vc.Value); err != nil {
			return nil, fmt.Errorf("failed to scan cell: %w", err)
		}
		cells = append(cells, vc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cells: %w", err)
	}

	return models.PivotCells(id, columns, cells), nil
}

func scanTable(row pgx.Row) (*models.Table, error) {
	var t models.Table
	err := row.Scan(
		&t.ID, &t.DatasetID, &t.Name,
		&t.NumCols, &t.NumRows, &t.NumCells, &t.NumCellsReconciliated,
		&t.LastModifiedDate, &t.RDF,
	)
	if err != nil {
		return nil, err
	}
	t.FillCompletion()
	return &t, nil
}
