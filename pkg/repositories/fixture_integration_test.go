//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/larasormani21/db-SemTUI/pkg/database"
	"github.com/larasormani21/db-SemTUI/pkg/models"
	"github.com/larasormani21/db-SemTUI/pkg/testhelpers"
)

// storeTestContext holds the repositories and a scoped context for one test.
type storeTestContext struct {
	t          *testing.T
	db         *database.DB
	ctx        context.Context
	users      UserRepository
	datasets   DatasetRepository
	tables     TableRepository
	columns    ColumnRepository
	cells      CellRepository
	extensions ExtensionRepository
}

// setupStoreTest empties the shared database and returns a fresh test context.
func setupStoreTest(t *testing.T) *storeTestContext {
	t.Helper()

	testDB := testhelpers.GetTestDB(t)
	testhelpers.Truncate(t, testDB.DB)

	return &storeTestContext{
		t:          t,
		db:         testDB.DB,
		ctx:        testhelpers.ScopedContext(t, testDB.DB),
		users:      NewUserRepository(),
		datasets:   NewDatasetRepository(),
		tables:     NewTableRepository(),
		columns:    NewColumnRepository(),
		cells:      NewCellRepository(),
		extensions: NewExtensionRepository(),
	}
}

func (tc *storeTestContext) createUser(username string) *models.User {
	tc.t.Helper()
	user, err := tc.users.Create(tc.ctx, username, []byte("$2a$10$not-a-real-hash"))
	require.NoError(tc.t, err)
	return user
}

func (tc *storeTestContext) createDataset(userID int64, name string) *models.Dataset {
	tc.t.Helper()
	ds, err := tc.datasets.Create(tc.ctx, userID, name, nil)
	require.NoError(tc.t, err)
	return ds
}

func (tc *storeTestContext) createTable(datasetID int64, name string) *models.Table {
	tc.t.Helper()
	table, err := tc.tables.Create(tc.ctx, datasetID, name, nil)
	require.NoError(tc.t, err)
	return table
}

func (tc *storeTestContext) createColumn(tableID int64, name string, isEntity bool, props ...models.Property) *models.Column {
	tc.t.Helper()
	col := &models.Column{TableID: tableID, Name: name, IsEntity: isEntity}
	if len(props) > 0 {
		col.Metadata = models.ColumnMetadata{{Property: props}}
	}
	require.NoError(tc.t, tc.columns.Create(tc.ctx, col))
	return col
}

func (tc *storeTestContext) createCell(columnID int64, row int, value string, candidates models.Candidates) *models.Cell {
	tc.t.Helper()
	cell := &models.Cell{ColumnID: columnID, RowIndex: row, CellValue: value, Candidates: candidates}
	if m, ok := candidates.Matched(); ok {
		cell.MatchID = &m.ID
		score := m.Score
		cell.Score = &score
	}
	require.NoError(tc.t, tc.cells.Create(tc.ctx, cell))
	return cell
}

// newTable creates a user, dataset and table in one call.
func (tc *storeTestContext) newTable() *models.Table {
	tc.t.Helper()
	user := tc.createUser("alice")
	ds := tc.createDataset(user.ID, "D")
	return tc.createTable(ds.ID, "T")
}

func candidate(id, label string, score float64, match bool) models.Candidate {
	return models.Candidate{
		ID:    id,
		Name:  models.CandidateName{URI: id, Value: label},
		Score: score,
		Match: match,
	}
}
