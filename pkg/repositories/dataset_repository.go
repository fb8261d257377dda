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

// DatasetRepository defines the interface for dataset data access.
type DatasetRepository interface {
	Create(ctx context.Context, userID int64, name string, description *string) (*models.Dataset, error)
	GetByID(ctx context.Context, id int64) (*models.Dataset, error)
	// GetByNameAndUser looks the name up case-insensitively.
	GetByNameAndUser(ctx context.Context, name string, userID int64) (*models.Dataset, error)
	ListByUser(ctx context.Context, userID int64, opts ListOptions) ([]*models.Dataset, error)
	ListAll(ctx context.Context, opts ListOptions) ([]*models.Dataset, error)
	Update(ctx context.Context, id int64, name string, description *string) (*models.Dataset, error)
	Delete(ctx context.Context, id int64) error
}

type datasetRepository struct{}

// NewDatasetRepository creates a new dataset repository.
func NewDatasetRepository() DatasetRepository {
	return &datasetRepository{}
}

var _ DatasetRepository = (*datasetRepository)(nil)

var datasetSortColumns = map[string]string{
	"name":       "name",
	"created_at": "created_at",
	"id":         "id",
}

const datasetColumns = `id, user_id, name, description, created_at`

func (r *datasetRepository) Create(ctx context.Context, userID int64, name string, description *string) (*models.Dataset, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		INSERT INTO datasets (user_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING ` + datasetColumns

	ds, err := scanDataset(scope.Conn.QueryRow(ctx, query, userID, strings.TrimSpace(name), description))
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset: %w", database.TranslateError(err))
	}
	return ds, nil
}

func (r *datasetRepository) GetByID(ctx context.Context, id int64) (*models.Dataset, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + datasetColumns + ` FROM datasets WHERE id = $1`

	ds, err := scanDataset(scope.Conn.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset %d: %w", id, database.TranslateError(err))
	}
	return ds, nil
}

func (r *datasetRepository) GetByNameAndUser(ctx context.Context, name string, userID int64) (*models.Dataset, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT ` + datasetColumns + `
		FROM datasets
		WHERE user_id = $1 AND lower(name) = lower($2)`

	ds, err := scanDataset(scope.Conn.QueryRow(ctx, query, userID, strings.TrimSpace(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset %q: %w", name, database.TranslateError(err))
	}
	return ds, nil
}

func (r *datasetRepository) ListByUser(ctx context.Context, userID int64, opts ListOptions) ([]*models.Dataset, error) {
	return r.list(ctx, &userID, opts)
}

func (r *datasetRepository) ListAll(ctx context.Context, opts ListOptions) ([]*models.Dataset, error) {
	return r.list(ctx, nil, opts)
}

func (r *datasetRepository) list(ctx context.Context, userID *int64, opts ListOptions) ([]*models.Dataset, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	order, err := orderBy(opts, datasetSortColumns, "name")
	if err != nil {
		return nil, err
	}

	var conditions []string
	var args []any
	argIdx := 1

	if userID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIdx))
		args = append(args, *userID)
		argIdx++
	}
	if opts.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argIdx))
		args = append(args, "%"+escapeLike(opts.Search)+"%")
		argIdx++
	}

	query := `SELECT ` + datasetColumns + ` FROM datasets`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " " + order

	rows, err := scope.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	datasets := make([]*models.Dataset, 0)
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets = append(datasets, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating datasets: %w", err)
	}
	return datasets, nil
}

func (r *datasetRepository) Update(ctx context.Context, id int64, name string, description *string) (*models.Dataset, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		UPDATE datasets
		SET name = $2, description = $3
		WHERE id = $1
		RETURNING ` + datasetColumns

	ds, err := scanDataset(scope.Conn.QueryRow(ctx, query, id, strings.TrimSpace(name), description))
	if err != nil {
		return nil, fmt.Errorf("failed to update dataset: %w", database.TranslateError(err))
	}
	return ds, nil
}

func (r *datasetRepository) Delete(ctx context.Context, id int64) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	tag, err := scope.Conn.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanDataset(row pgx.Row) (*models.Dataset, error) {
	var ds models.Dataset
	if err := row.Scan(&ds.ID, &ds.UserID, &ds.Name, &ds.Description, &ds.CreatedAt); err != nil {
		return nil, err
	}
	return &ds, nil
}
