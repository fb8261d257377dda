package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/larasormani21/db-SemTUI/pkg/database"
	"github.com/larasormani21/db-SemTUI/pkg/models"
)

// ExtensionRepository stores the side data of table extension: per-row
// selection flags and the property values fetched for reconciled cells.
// Extension columns themselves are ordinary columns.
type ExtensionRepository interface {
	// SetRowSelection inserts or updates the selection flag of one row.
	SetRowSelection(ctx context.Context, tableID int64, rowIndex int, selected bool) (*models.RowSelection, error)
	ListRowSelections(ctx context.Context, tableID int64) ([]*models.RowSelection, error)
	// ClearRowSelections removes every flag of the table and returns how many were removed.
	ClearRowSelections(ctx context.Context, tableID int64) (int64, error)

	CreateValue(ctx context.Context, value *models.ExtensionValue) error
	GetValueByID(ctx context.Context, id int64) (*models.ExtensionValue, error)
	ListValuesByCell(ctx context.Context, cellID int64) ([]*models.ExtensionValue, error)
}

type extensionRepository struct{}

// NewExtensionRepository creates a new extension repository.
func NewExtensionRepository() ExtensionRepository {
	return &extensionRepository{}
}

var _ ExtensionRepository = (*extensionRepository)(nil)

const extensionValueColumns = `id, cell_id, property, value, value_kind, context, created_at`

func (r *extensionRepository) SetRowSelection(ctx context.Context, tableID int64, rowIndex int, selected bool) (*models.RowSelection, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		INSERT INTO row_selections (table_id, row_index, selected)
		VALUES ($1, $2, $3)
		ON CONFLICT (table_id, row_index) DO UPDATE
		SET selected = EXCLUDED.selected
		RETURNING id, table_id, row_index, selected`

	var rs models.RowSelection
	err := scope.Conn.QueryRow(ctx, query, tableID, rowIndex, selected).
		Scan(&rs.ID, &rs.TableID, &rs.RowIndex, &rs.Selected)
	if err != nil {
		return nil, fmt.Errorf("failed to set row selection: %w", database.TranslateError(err))
	}
	return &rs, nil
}

func (r *extensionRepository) ListRowSelections(ctx context.Context, tableID int64) ([]*models.RowSelection, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, table_id, row_index, selected
		FROM row_selections
		WHERE table_id = $1
		ORDER BY row_index`

	rows, err := scope.Conn.Query(ctx, query, tableID)
	if err != nil {
		return nil, fmt.Errorf("failed to list row selections: %w", err)
	}
	defer rows.Close()

	selections := make([]*models.RowSelection, 0)
	for rows.Next() {
		var rs models.RowSelection
		if err := rows.Scan(&rs.ID, &rs.TableID, &rs.RowIndex, &rs.Selected); err != nil {
			return nil, fmt.Errorf("failed to scan row selection: %w", err)
		}
		selections = append(selections, &rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating row selections: %w", err)
	}
	return selections, nil
}

func (r *extensionRepository) ClearRowSelections(ctx context.Context, tableID int64) (int64, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no database scope in context")
	}

	tag, err := scope.Conn.Exec(ctx, `DELETE FROM row_selections WHERE table_id = $1`, tableID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear row selections: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *extensionRepository) CreateValue(ctx context.Context, value *models.ExtensionValue) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	if err := value.Validate(); err != nil {
		return err
	}

	// nil context is stored as SQL NULL rather than JSON null
	var doc any
	if len(value.Context) > 0 {
		doc = []byte(value.Context)
	}

	query := `
		INSERT INTO extension_values (cell_id, property, value, value_kind, context)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := scope.Conn.QueryRow(ctx, query,
		value.CellID,
		value.Property,
		value.Value,
		value.ValueKind,
		doc,
	).Scan(&value.ID, &value.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create extension value: %w", database.TranslateError(err))
	}
	return nil
}

func (r *extensionRepository) GetValueByID(ctx context.Context, id int64) (*models.ExtensionValue, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + extensionValueColumns + ` FROM extension_values WHERE id = $1`

	v, err := scanExtensionValue(scope.Conn.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get extension value %d: %w", id, database.TranslateError(err))
	}
	return v, nil
}

func (r *extensionRepository) ListValuesByCell(ctx context.Context, cellID int64) ([]*models.ExtensionValue, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + extensionValueColumns + ` FROM extension_values WHERE cell_id = $1 ORDER BY id`

	rows, err := scope.Conn.Query(ctx, query, cellID)
	if err != nil {
		return nil, fmt.Errorf("failed to list extension values: %w", err)
	}
	defer rows.Close()

	values := make([]*models.ExtensionValue, 0)
	for rows.Next() {
		v, err := scanExtensionValue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan extension value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating extension values: %w", err)
	}
	return values, nil
}

func scanExtensionValue(row pgx.Row) (*models.ExtensionValue, error) {
	var v models.ExtensionValue
	var doc []byte
	if err := row.Scan(&v.ID, &v.CellID, &v.Property, &v.Value, &v.ValueKind, &doc, &v.CreatedAt); err != nil {
		return nil, err
	}
	if len(doc) > 0 {
		v.Context = doc
	}
	return &v, nil
}
