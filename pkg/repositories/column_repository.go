package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/larasormani21/db-SemTUI/pkg/apperrors"
	"github.com/larasormani21/db-SemTUI/pkg/database"
	"github.com/larasormani21/db-SemTUI/pkg/models"
)

// ColumnRepository defines the interface for column data access.
type ColumnRepository interface {
	Create(ctx context.Context, col *models.Column) error
	GetByID(ctx context.Context, id int64) (*models.Column, error)
	// GetByName looks the name up case-insensitively within a table.
	GetByName(ctx context.Context, tableID int64, name string) (*models.Column, error)
	ListByTable(ctx context.Context, tableID int64) ([]*models.Column, error)
	ListAll(ctx context.Context) ([]*models.Column, error)
	UpdateName(ctx context.Context, id int64, name string) error
	// UpdateReconciliation writes status, context, is_entity, metadata and
	// annotation meta of col in one statement.
	UpdateReconciliation(ctx context.Context, col *models.Column) error

	// AddProperty appends p to metadata[0].property, replacing an entry with the same id.
	AddProperty(ctx context.Context, columnID int64, p models.Property) error
	// UpdateProperty replaces the entry whose id equals p.ID.
	UpdateProperty(ctx context.Context, columnID int64, p models.Property) error
	DeleteProperty(ctx context.Context, columnID int64, propertyID string) error

	// Delete removes the column and, in the same transaction, every property
	// entry of sibling columns whose obj names it.
	Delete(ctx context.Context, id int64) error
}

type columnRepository struct{}

// NewColumnRepository creates a new column repository.
func NewColumnRepository() ColumnRepository {
	return &columnRepository{}
}

var _ ColumnRepository = (*columnRepository)(nil)

const columnColumns = `id, table_id, name, status, context, is_entity, metadata, annotation_meta, doc_version`

// propertyList evaluates to metadata[0].property, or an empty array when the
// column has no property list yet.
const propertyList = `(CASE WHEN jsonb_typeof(metadata->0->'property') = 'array'
	THEN metadata->0->'property' ELSE '[]'::jsonb END)`

func (r *columnRepository) Create(ctx context.Context, col *models.Column) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	col.Name = strings.TrimSpace(col.Name)
	if err := col.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO columns (table_id, name, status, context, is_entity, metadata, annotation_meta, doc_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, doc_version`

	err := scope.Conn.QueryRow(ctx, query,
		col.TableID,
		col.Name,
		col.Status,
		col.Context,
		col.IsEntity,
		col.Metadata,
		col.AnnotationMeta,
		models.DocSchemaVersion,
	).Scan(&col.ID, &col.DocVersion)
	if err != nil {
		return fmt.Errorf("failed to create column %q: %w", col.Name, database.TranslateError(err))
	}
	return nil
}

func (r *columnRepository) GetByID(ctx context.Context, id int64) (*models.Column, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + columnColumns + ` FROM columns WHERE id = $1`

	col, err := scanColumn(scope.Conn.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get column %d: %w", id, database.TranslateError(err))
	}
	return col, nil
}

func (r *columnRepository) GetByName(ctx context.Context, tableID int64, name string) (*models.Column, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + columnColumns + ` FROM columns WHERE table_id = $1 AND lower(name) = lower($2)`

	col, err := scanColumn(scope.Conn.QueryRow(ctx, query, tableID, strings.TrimSpace(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to get column %q: %w", name, database.TranslateError(err))
	}
	return col, nil
}

func (r *columnRepository) ListByTable(ctx context.Context, tableID int64) ([]*models.Column, error) {
	return r.list(ctx, `SELECT `+columnColumns+` FROM columns WHERE table_id = $1 ORDER BY id`, tableID)
}

func (r *columnRepository) ListAll(ctx context.Context) ([]*models.Column, error) {
	return r.list(ctx, `SELECT `+columnColumns+` FROM columns ORDER BY table_id, id`)
}

func (r *columnRepository) list(ctx context.Context, query string, args ...any) ([]*models.Column, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	rows, err := scope.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	defer rows.Close()

	columns := make([]*models.Column, 0)
	for rows.Next() {
		col, err := scanColumn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}
	return columns, nil
}

func (r *columnRepository) UpdateName(ctx context.Context, id int64, name string) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: column name is required", apperrors.ErrInvalidDocument)
	}

	tag, err := scope.Conn.Exec(ctx, `UPDATE columns SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("failed to rename column: %w", database.TranslateError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *columnRepository) UpdateReconciliation(ctx context.Context, col *models.Column) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	if err := col.Metadata.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE columns
		SET status = $2, context = $3, is_entity = $4, metadata = $5, annotation_meta = $6, doc_version = $7
		WHERE id = $1`

	tag, err := scope.Conn.Exec(ctx, query,
		col.ID,
		col.Status,
		col.Context,
		col.IsEntity,
		col.Metadata,
		col.AnnotationMeta,
		models.DocSchemaVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update column reconciliation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	col.DocVersion = models.DocSchemaVersion
	return nil
}

func (r *columnRepository) AddProperty(ctx context.Context, columnID int64, p models.Property) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	raw, err := marshalProperty(p)
	if err != nil {
		return err
	}

	query := `
		UPDATE columns
		SET metadata = CASE
			WHEN jsonb_array_length(metadata) = 0
				THEN jsonb_build_array(jsonb_build_object('property', jsonb_build_array($3::jsonb)))
			ELSE jsonb_set(metadata, '{0,property}', (
				SELECT COALESCE(jsonb_agg(e.p ORDER BY e.ord), '[]'::jsonb)
				FROM jsonb_array_elements(` + propertyList + `) WITH ORDINALITY AS e(p, ord)
				WHERE e.p->>'id' IS DISTINCT FROM $2
			) || jsonb_build_array($3::jsonb), true)
		END
		WHERE id = $1`

	tag, err := scope.Conn.Exec(ctx, query, columnID, p.ID, raw)
	if err != nil {
		return fmt.Errorf("failed to add property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *columnRepository) UpdateProperty(ctx context.Context, columnID int64, p models.Property) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	raw, err := marshalProperty(p)
	if err != nil {
		return err
	}

	query := `
		UPDATE columns
		SET metadata = jsonb_set(metadata, '{0,property}', (
			SELECT jsonb_agg(CASE WHEN e.p->>'id' = $2 THEN $3::jsonb ELSE e.p END ORDER BY e.ord)
			FROM jsonb_array_elements(` + propertyList + `) WITH ORDINALITY AS e(p, ord)
		))
		WHERE id = $1
		AND EXISTS (
			SELECT 1 FROM jsonb_array_elements(` + propertyList + `) AS e(p)
			WHERE e.p->>'id' = $2
		)`

	tag, err := scope.Conn.Exec(ctx, query, columnID, p.ID, raw)
	if err != nil {
		return fmt.Errorf("failed to update property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("property %q on column %d: %w", p.ID, columnID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *columnRepository) DeleteProperty(ctx context.Context, columnID int64, propertyID string) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		UPDATE columns
		SET metadata = jsonb_set(metadata, '{0,property}', (
			SELECT COALESCE(jsonb_agg(e.p ORDER BY e.ord), '[]'::jsonb)
			FROM jsonb_array_elements(` + propertyList + `) WITH ORDINALITY AS e(p, ord)
			WHERE e.p->>'id' IS DISTINCT FROM $2
		))
		WHERE id = $1
		AND EXISTS (
			SELECT 1 FROM jsonb_array_elements(` + propertyList + `) AS e(p)
			WHERE e.p->>'id' = $2
		)`

	tag, err := scope.Conn.Exec(ctx, query, columnID, propertyID)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("property %q on column %d: %w", propertyID, columnID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *columnRepository) Delete(ctx context.Context, id int64) error {
	return database.RunInTx(ctx, func(ctx context.Context) error {
		scope, _ := database.GetScope(ctx)

		var tableID int64
		var name string
		err := scope.Conn.QueryRow(ctx,
			`DELETE FROM columns WHERE id = $1 RETURNING table_id, name`, id).
			Scan(&tableID, &name)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to delete column: %w", err)
		}

		query := `
			UPDATE columns
			SET metadata = jsonb_set(metadata, '{0,property}', (
				SELECT COALESCE(jsonb_agg(e.p ORDER BY e.ord), '[]'::jsonb)
				FROM jsonb_array_elements(` + propertyList + `) WITH ORDINALITY AS e(p, ord)
				WHERE lower(e.p->>'obj') IS DISTINCT FROM lower($2)
			))
			WHERE table_id = $1
			AND EXISTS (
				SELECT 1 FROM jsonb_array_elements(` + propertyList + `) AS e(p)
				WHERE lower(e.p->>'obj') = lower($2)
			)`

		if _, err := scope.Conn.Exec(ctx, query, tableID, name); err != nil {
			return fmt.Errorf("failed to remove properties referencing %q: %w", name, err)
		}
		return nil
	})
}

func marshalProperty(p models.Property) ([]byte, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("%w: property id is required", apperrors.ErrInvalidDocument)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal property: %w", err)
	}
	return raw, nil
}

func scanColumn(row pgx.Row) (*models.Column, error) {
	var c models.Column
	err := row.Scan(
		&c.ID,
		&c.TableID,
		&c.Name,
		&c.Status,
		&c.Context,
		&c.IsEntity,
		&c.Metadata,
		&c.AnnotationMeta,
		&c.DocVersion,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
