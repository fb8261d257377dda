package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/larasormani21/db-SemTUI/pkg/apperrors"
	"github.com/larasormani21/db-SemTUI/pkg/database"
	"github.com/larasormani21/db-SemTUI/pkg/models"
	"github.com/larasormani21/db-SemTUI/pkg/retry"
)

// CellRepository defines the interface for cell and reconciliation result data access.
type CellRepository interface {
	Create(ctx context.Context, cell *models.Cell) error
	// CreateBatch inserts all cells in one round trip and fills in their ids.
	CreateBatch(ctx context.Context, cells []*models.Cell) error

	GetByID(ctx context.Context, id int64) (*models.Cell, error)
	GetIDByColumnAndRow(ctx context.Context, columnID int64, rowIndex int) (int64, error)
	ListAll(ctx context.Context) ([]*models.Cell, error)
	ListByColumn(ctx context.Context, columnID int64) ([]*models.Cell, error)
	ListByTable(ctx context.Context, tableID int64) ([]*models.Cell, error)
	// GetMatchInfo returns the candidate whose id equals the cell's match id.
	GetMatchInfo(ctx context.Context, cellID int64) (*models.Candidate, error)

	UpdateLabel(ctx context.Context, id int64, value string) error
	UpdateResultByID(ctx context.Context, id int64, result models.CellResult) (*models.Cell, error)
	UpdateResultByColumnAndRow(ctx context.Context, columnID int64, rowIndex int, result models.CellResult) (*models.Cell, error)
	// UpdateMatchByID marks the candidate identified by matchURI as the cell's
	// match, moves it to the front of the candidate list and mirrors it into
	// match_id and score. The read-modify-write runs under a row lock.
	UpdateMatchByID(ctx context.Context, id int64, matchURI string, score float64) (*models.Cell, error)
	Delete(ctx context.Context, id int64) error

	CountByColumn(ctx context.Context, columnID int64) (int, error)
	CountByTable(ctx context.Context, tableID int64) (int, error)
	ListWithMinScore(ctx context.Context, minScore float64) ([]*models.Cell, error)
	ListWithMinScoreByColumn(ctx context.Context, columnID int64, minScore float64) ([]*models.Cell, error)

	// Candidate projections flatten the candidate arrays into one row per candidate.
	CandidatesByCell(ctx context.Context, cellID int64) ([]models.CandidateRow, error)
	CandidatesWithMinScore(ctx context.Context, minScore float64) ([]models.CandidateRow, error)
	CandidatesWithMinScoreByColumn(ctx context.Context, columnID int64, minScore float64) ([]models.CandidateRow, error)

	// SearchByValuePrefix matches cell values starting with prefix, ignoring case.
	SearchByValuePrefix(ctx context.Context, prefix string, columnID *int64) ([]models.CellSearchRow, error)
	// SearchCandidatesByLabel matches candidate labels containing substring, ignoring case.
	SearchCandidatesByLabel(ctx context.Context, substring string, columnID *int64) ([]models.CandidateRow, error)
}

type cellRepository struct {
	retryConfig *retry.Config
}

// NewCellRepository creates a new cell repository.
func NewCellRepository() CellRepository {
	return &cellRepository{retryConfig: retry.DefaultConfig()}
}

var _ CellRepository = (*cellRepository)(nil)

const cellColumns = `id, column_id, row_index, cell_value, match_id, score, candidates, annotation_meta, doc_version`

// candidateSelect flattens cells.candidates; alias ce is the cell, cand one candidate.
const candidateSelect = `
	SELECT ce.id, ce.column_id, ce.row_index, ce.cell_value,
	       COALESCE(NULLIF(cand->'name'->>'uri', ''), cand->>'id', '') AS candidate_uri,
	       COALESCE(cand->'name'->>'value', '') AS candidate_label,
	       COALESCE((cand->>'score')::double precision, 0) AS candidate_score
	FROM cells ce
	CROSS JOIN LATERAL jsonb_array_elements(ce.candidates) WITH ORDINALITY AS c(cand, ord)`

const candidateOrder = ` ORDER BY ce.id, c.ord`

const insertCell = `
	INSERT INTO cells (column_id, row_index, cell_value, match_id, score, candidates, annotation_meta, doc_version)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id, doc_version`

func insertCellArgs(cell *models.Cell) []any {
	return []any{
		cell.ColumnID,
		cell.RowIndex,
		cell.CellValue,
		cell.MatchID,
		cell.Score,
		cell.Candidates,
		cell.AnnotationMeta,
		models.DocSchemaVersion,
	}
}

func (r *cellRepository) Create(ctx context.Context, cell *models.Cell) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	if err := cell.Validate(); err != nil {
		return err
	}

	err := scope.Conn.QueryRow(ctx, insertCell, insertCellArgs(cell)...).Scan(&cell.ID, &cell.DocVersion)
	if err != nil {
		return fmt.Errorf("failed to create cell (column %d, row %d): %w", cell.ColumnID, cell.RowIndex, database.TranslateError(err))
	}
	return nil
}

func (r *cellRepository) CreateBatch(ctx context.Context, cells []*models.Cell) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}
	if len(cells) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, cell := range cells {
		if err := cell.Validate(); err != nil {
			return fmt.Errorf("cell (column %d, row %d): %w", cell.ColumnID, cell.RowIndex, err)
		}
		cell := cell
		batch.Queue(insertCell, insertCellArgs(cell)...).QueryRow(func(row pgx.Row) error {
			return row.Scan(&cell.ID, &cell.DocVersion)
		})
	}

	if err := scope.Conn.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to create cells: %w", database.TranslateError(err))
	}
	return nil
}

func (r *cellRepository) GetByID(ctx context.Context, id int64) (*models.Cell, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + cellColumns + ` FROM cells WHERE id = $1`

	cell, err := scanCell(scope.Conn.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get cell %d: %w", id, database.TranslateError(err))
	}
	return cell, nil
}

func (r *cellRepository) GetIDByColumnAndRow(ctx context.Context, columnID int64, rowIndex int) (int64, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no database scope in context")
	}

	var id int64
	err := scope.Conn.QueryRow(ctx,
		`SELECT id FROM cells WHERE column_id = $1 AND row_index = $2`, columnID, rowIndex).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to get cell (column %d, row %d): %w", columnID, rowIndex, database.TranslateError(err))
	}
	return id, nil
}

func (r *cellRepository) ListAll(ctx context.Context) ([]*models.Cell, error) {
	return r.list(ctx, `SELECT `+cellColumns+` FROM cells ORDER BY column_id, row_index`)
}

func (r *cellRepository) ListByColumn(ctx context.Context, columnID int64) ([]*models.Cell, error) {
	return r.list(ctx, `SELECT `+cellColumns+` FROM cells WHERE column_id = $1 ORDER BY row_index`, columnID)
}

func (r *cellRepository) ListByTable(ctx context.Context, tableID int64) ([]*models.Cell, error) {
	query := `
		SELECT ce.id, ce.column_id, ce.row_index, ce.cell_value, ce.match_id, ce.score,
		       ce.candidates, ce.annotation_meta, ce.doc_version
		FROM cells ce
		JOIN columns c ON c.id = ce.column_id
		WHERE c.table_id = $1
		ORDER BY ce.row_index, ce.column_id`
	return r.list(ctx, query, tableID)
}

func (r *cellRepository) ListWithMinScore(ctx context.Context, minScore float64) ([]*models.Cell, error) {
	return r.list(ctx, `SELECT `+cellColumns+` FROM cells WHERE score >= $1 ORDER BY id`, minScore)
}

func (r *cellRepository) ListWithMinScoreByColumn(ctx context.Context, columnID int64, minScore float64) ([]*models.Cell, error) {
	return r.list(ctx,
		`SELECT `+cellColumns+` FROM cells WHERE column_id = $1 AND score >= $2 ORDER BY row_index`,
		columnID, minScore)
}

func (r *cellRepository) list(ctx context.Context, query string, args ...any) ([]*models.Cell, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	rows, err := scope.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cells: %w", err)
	}
	defer rows.Close()

	cells := make([]*models.Cell, 0)
	for rows.Next() {
		cell, err := scanCell(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cell: %w", err)
		}
		cells = append(cells, cell)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cells: %w", err)
	}
	return cells, nil
}

func (r *cellRepository) GetMatchInfo(ctx context.Context, cellID int64) (*models.Candidate, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT c.cand
		FROM cells ce
		CROSS JOIN LATERAL jsonb_array_elements(ce.candidates) WITH ORDINALITY AS c(cand, ord)
		WHERE ce.id = $1 AND c.cand->>'id' = ce.match_id
		ORDER BY c.ord
		LIMIT 1`

	var cand models.Candidate
	if err := scope.Conn.QueryRow(ctx, query, cellID).Scan(&cand); err != nil {
		return nil, fmt.Errorf("failed to get match of cell %d: %w", cellID, database.TranslateError(err))
	}
	return &cand, nil
}

func (r *cellRepository) UpdateLabel(ctx context.Context, id int64, value string) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	tag, err := scope.Conn.Exec(ctx, `UPDATE cells SET cell_value = $2 WHERE id = $1`, id, value)
	if err != nil {
		return fmt.Errorf("failed to update cell label: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *cellRepository) UpdateResultByID(ctx context.Context, id int64, result models.CellResult) (*models.Cell, error) {
	return r.updateResult(ctx, `id = $1`, result, id)
}

func (r *cellRepository) UpdateResultByColumnAndRow(ctx context.Context, columnID int64, rowIndex int, result models.CellResult) (*models.Cell, error) {
	return r.updateResult(ctx, `column_id = $1 AND row_index = $2`, result, columnID, rowIndex)
}

// updateResult writes result to the cell selected by where, whose placeholders
// are numbered from $1 and bound to keys.
func (r *cellRepository) updateResult(ctx context.Context, where string, result models.CellResult, keys ...any) (*models.Cell, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	if err := result.Validate(); err != nil {
		return nil, err
	}

	n := len(keys)
	query := fmt.Sprintf(`
		UPDATE cells
		SET match_id = $%d, score = $%d, candidates = $%d, annotation_meta = $%d, doc_version = $%d
		WHERE %s
		RETURNING %s`, n+1, n+2, n+3, n+4, n+5, where, cellColumns)

	args := append(keys, result.MatchID, result.Score, result.Candidates, result.AnnotationMeta, models.DocSchemaVersion)

	cell, err := scanCell(scope.Conn.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to update cell result: %w", database.TranslateError(err))
	}
	return cell, nil
}

func (r *cellRepository) UpdateMatchByID(ctx context.Context, id int64, matchURI string, score float64) (*models.Cell, error) {
	if matchURI == "" {
		return nil, fmt.Errorf("%w: match uri is required", apperrors.ErrInvalidDocument)
	}

	var updated *models.Cell
	err := retry.DoIf(ctx, r.retryConfig, database.IsRetryable, func() error {
		return database.RunInTx(ctx, func(ctx context.Context) error {
			scope, _ := database.GetScope(ctx)

			var current models.Candidates
			err := scope.Conn.QueryRow(ctx,
				`SELECT candidates FROM cells WHERE id = $1 FOR UPDATE`, id).Scan(&current)
			if err != nil {
				return database.TranslateError(err)
			}

			promoted := models.PromoteMatch(current, matchURI, score)

			query := `
				UPDATE cells
				SET candidates = $2, match_id = $3, score = $4, doc_version = $5
				WHERE id = $1
				RETURNING ` + cellColumns

			cell, err := scanCell(scope.Conn.QueryRow(ctx, query, id, promoted, matchURI, score, models.DocSchemaVersion))
			if err != nil {
				return err
			}
			updated = cell
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("cell %d: %w", id, err)
		}
		return nil, fmt.Errorf("failed to update match of cell %d: %w", id, err)
	}
	return updated, nil
}

func (r *cellRepository) Delete(ctx context.Context, id int64) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	tag, err := scope.Conn.Exec(ctx, `DELETE FROM cells WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete cell: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *cellRepository) CountByColumn(ctx context.Context, columnID int64) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM cells WHERE column_id = $1`, columnID)
}

func (r *cellRepository) CountByTable(ctx context.Context, tableID int64) (int, error) {
	query := `
		SELECT count(*)
		FROM cells ce
		JOIN columns c ON c.id = ce.column_id
		WHERE c.table_id = $1`
	return r.count(ctx, query, tableID)
}

func (r *cellRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no database scope in context")
	}

	var n int
	if err := scope.Conn.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cells: %w", err)
	}
	return n, nil
}

func (r *cellRepository) CandidatesByCell(ctx context.Context, cellID int64) ([]models.CandidateRow, error) {
	return r.candidates(ctx, candidateSelect+` WHERE ce.id = $1`+candidateOrder, cellID)
}

func (r *cellRepository) CandidatesWithMinScore(ctx context.Context, minScore float64) ([]models.CandidateRow, error) {
	return r.candidates(ctx,
		candidateSelect+` WHERE (cand->>'score')::double precision >= $1`+candidateOrder, minScore)
}

func (r *cellRepository) CandidatesWithMinScoreByColumn(ctx context.Context, columnID int64, minScore float64) ([]models.CandidateRow, error) {
	return r.candidates(ctx,
		candidateSelect+` WHERE ce.column_id = $1 AND (cand->>'score')::double precision >= $2`+candidateOrder,
		columnID, minScore)
}

func (r *cellRepository) SearchCandidatesByLabel(ctx context.Context, substring string, columnID *int64) ([]models.CandidateRow, error) {
	query := candidateSelect + ` WHERE cand->'name'->>'value' ILIKE $1`
	args := []any{"%" + escapeLike(substring) + "%"}
	if columnID != nil {
		query += ` AND ce.column_id = $2`
		args = append(args, *columnID)
	}
	return r.candidates(ctx, query+candidateOrder, args...)
}

func (r *cellRepository) candidates(ctx context.Context, query string, args ...any) ([]models.CandidateRow, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	rows, err := scope.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	result := make([]models.CandidateRow, 0)
	for rows.Next() {
		var cr models.CandidateRow
		err := rows.Scan(
			&cr.CellID,
			&cr.ColumnID,
			&cr.RowIndex,
			&cr.CellValue,
			&cr.CandidateURI,
			&cr.CandidateLabel,
			&cr.CandidateScore,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		result = append(result, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}
	return result, nil
}

func (r *cellRepository) SearchByValuePrefix(ctx context.Context, prefix string, columnID *int64) ([]models.CellSearchRow, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT id, column_id, row_index, cell_value FROM cells WHERE cell_value ILIKE $1`
	args := []any{escapeLike(prefix) + "%"}
	if columnID != nil {
		query += ` AND column_id = $2`
		args = append(args, *columnID)
	}
	query += ` ORDER BY column_id, row_index`

	rows, err := scope.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search cells: %w", err)
	}
	defer rows.Close()

	result := make([]models.CellSearchRow, 0)
	for rows.Next() {
		var sr models.CellSearchRow
		if err := rows.Scan(&sr.CellID, &sr.ColumnID, &sr.RowIndex, &sr.CellValue); err != nil {
			return nil, fmt.Errorf("failed to scan cell: %w", err)
		}
		result = append(result, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cells: %w", err)
	}
	return result, nil
}

func scanCell(row pgx.Row) (*models.Cell, error) {
	var c models.Cell
	err := row.Scan(
		&c.ID,
		&c.ColumnID,
		&c.RowIndex,
		&c.CellValue,
		&c.MatchID,
		&c.Score,
		&c.Candidates,
		&c.AnnotationMeta,
		&c.DocVersion,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
