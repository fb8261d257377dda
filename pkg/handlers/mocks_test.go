package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/larasormani21/db-SemTUI/pkg/apperrors"
	"github.com/larasormani21/db-SemTUI/pkg/models"
	"github.com/larasormani21/db-SemTUI/pkg/repositories"
)

// noScope stands in for database.WithScopeContext; the fakes need no connection.
func noScope(next http.HandlerFunc) http.HandlerFunc { return next }

func serve(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

type mockUserService struct {
	user *models.User
	err  error
}

func (m *mockUserService) Signup(ctx context.Context, username, password string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.User{ID: 1, Username: username}, nil
}

func (m *mockUserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *mockUserService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	return m.err
}

func (m *mockUserService) List(ctx context.Context) ([]*models.User, error) {
	return []*models.User{m.user}, m.err
}

func (m *mockUserService) Delete(ctx context.Context, userID int64) error {
	return m.err
}

type mockDatasetRepository struct {
	repositories.DatasetRepository
	datasets []*models.Dataset
	lastOpts repositories.ListOptions
	err      error
}

func (m *mockDatasetRepository) ListByUser(ctx context.Context, userID int64, opts repositories.ListOptions) ([]*models.Dataset, error) {
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.datasets, nil
}

type mockTableRepository struct {
	repositories.TableRepository
	tables map[int64]*models.Table
	views  map[int64]*models.TableView
}

func (m *mockTableRepository) GetByID(ctx context.Context, id int64) (*models.Table, error) {
	t, ok := m.tables[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return t, nil
}

func (m *mockTableRepository) ListByDataset(ctx context.Context, datasetID int64, opts repositories.ListOptions) ([]*models.Table, error) {
	out := make([]*models.Table, 0)
	for _, t := range m.tables {
		if t.DatasetID == datasetID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTableRepository) PrintTableByTableID(ctx context.Context, id int64) (*models.TableView, error) {
	v, ok := m.views[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return v, nil
}

type mockColumnRepository struct {
	repositories.ColumnRepository
	columns []*models.Column
	deleted []int64
}

func (m *mockColumnRepository) ListByTable(ctx context.Context, tableID int64) ([]*models.Column, error) {
	out := make([]*models.Column, 0)
	for _, c := range m.columns {
		if c.TableID == tableID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockColumnRepository) Delete(ctx context.Context, id int64) error {
	for _, c := range m.columns {
		if c.ID == id {
			m.deleted = append(m.deleted, id)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

type mockCellRepository struct {
	repositories.CellRepository
	cells map[int64]*models.Cell

	searchCalls int
	lastColumn  *int64
	lastScore   float64
	lastMode    string
}

func (m *mockCellRepository) GetByID(ctx context.Context, id int64) (*models.Cell, error) {
	c, ok := m.cells[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return c, nil
}

func (m *mockCellRepository) ListByColumn(ctx context.Context, columnID int64) ([]*models.Cell, error) {
	out := make([]*models.Cell, 0)
	for _, c := range m.cells {
		if c.ColumnID == columnID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCellRepository) UpdateMatchByID(ctx context.Context, id int64, matchURI string, score float64) (*models.Cell, error) {
	c, ok := m.cells[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c.Candidates = models.PromoteMatch(c.Candidates, matchURI, score)
	c.MatchID = &matchURI
	c.Score = &score
	return c, nil
}

func (m *mockCellRepository) SearchByValuePrefix(ctx context.Context, prefix string, columnID *int64) ([]models.CellSearchRow, error) {
	m.searchCalls++
	m.lastColumn = columnID
	out := make([]models.CellSearchRow, 0)
	for _, c := range m.cells {
		if strings.HasPrefix(strings.ToLower(c.CellValue), strings.ToLower(prefix)) {
			out = append(out, models.CellSearchRow{CellID: c.ID, ColumnID: c.ColumnID, RowIndex: c.RowIndex, CellValue: c.CellValue})
		}
	}
	return out, nil
}

func (m *mockCellRepository) CandidatesByCell(ctx context.Context, cellID int64) ([]models.CandidateRow, error) {
	m.lastMode = "cell"
	return []models.CandidateRow{{CellID: cellID}}, nil
}

func (m *mockCellRepository) SearchCandidatesByLabel(ctx context.Context, substring string, columnID *int64) ([]models.CandidateRow, error) {
	m.searchCalls++
	m.lastMode = "label"
	m.lastColumn = columnID
	return []models.CandidateRow{}, nil
}

func (m *mockCellRepository) CandidatesWithMinScore(ctx context.Context, minScore float64) ([]models.CandidateRow, error) {
	m.lastMode = "min_score"
	m.lastScore = minScore
	return []models.CandidateRow{}, nil
}

func (m *mockCellRepository) CandidatesWithMinScoreByColumn(ctx context.Context, columnID int64, minScore float64) ([]models.CandidateRow, error) {
	m.lastMode = "min_score_column"
	m.lastColumn = &columnID
	m.lastScore = minScore
	return []models.CandidateRow{}, nil
}
