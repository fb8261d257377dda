//go:build integration

package migrations

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larasormani21/db-SemTUI/pkg/testhelpers"
)

func Test_001_InitialSchema_JSONBDefaults(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	ctx := context.Background()

	tests := []struct {
		table, column, def string
	}{
		{"columns", "context", "'{}'::jsonb"},
		{"columns", "metadata", "'[]'::jsonb"},
		{"columns", "annotation_meta", "'{}'::jsonb"},
		{"cells", "candidates", "'[]'::jsonb"},
		{"cells", "annotation_meta", "'{}'::jsonb"},
	}

	for _, tt := range tests {
		t.Run(tt.table+"."+tt.column, func(t *testing.T) {
			var dataType, columnDefault string
			err := testDB.DB.Pool.QueryRow(ctx, `
				SELECT data_type, column_default
				FROM information_schema.columns
				WHERE table_name = $1 AND column_name = $2
			`, tt.table, tt.column).Scan(&dataType, &columnDefault)
			require.NoError(t, err)
			assert.Equal(t, "jsonb", dataType)
			assert.Contains(t, columnDefault, tt.def)
		})
	}
}

func Test_001_InitialSchema_Indexes(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	ctx := context.Background()

	for _, name := range []string{
		"datasets_user_lower_name_key",
		"tables_dataset_lower_name_key",
		"columns_table_lower_name_key",
		"cells_column_row_key",
		"idx_cells_value_prefix",
		"idx_cells_score",
		"row_selections_table_row_key",
		"idx_extension_values_cell",
	} {
		var exists bool
		err := testDB.DB.Pool.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE schemaname = 'public' AND indexname = $1)
		`, name).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "index %s should exist", name)
	}
}

func Test_001_InitialSchema_Constraints(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.Truncate(t, testDB.DB)
	ctx := context.Background()
	pool := testDB.DB.Pool

	var tableID, columnID int64
	require.NoError(t, pool.QueryRow(ctx, `
		WITH u AS (INSERT INTO users (username, password_hash) VALUES ('schema', '\x00') RETURNING id),
		     d AS (INSERT INTO datasets (user_id, name) SELECT id, 'ds' FROM u RETURNING id)
		INSERT INTO tables (dataset_id, name) SELECT id, 't' FROM d RETURNING id
	`).Scan(&tableID))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO columns (table_id, name) VALUES ($1, 'City') RETURNING id`, tableID).Scan(&columnID))

	tests := []struct {
		name string
		sql  string
		args []any
		code string
	}{
		{
			name: "column names unique ignoring case",
			sql:  `INSERT INTO columns (table_id, name) VALUES ($1, 'city')`,
			args: []any{tableID},
			code: "23505",
		},
		{
			name: "metadata must be an array",
			sql:  `INSERT INTO columns (table_id, name, metadata) VALUES ($1, 'X', '{}')`,
			args: []any{tableID},
			code: "23514",
		},
		{
			name: "negative row index",
			sql:  `INSERT INTO cells (column_id, row_index) VALUES ($1, -1)`,
			args: []any{columnID},
			code: "23514",
		},
		{
			name: "candidates must be an array",
			sql:  `INSERT INTO cells (column_id, row_index, candidates) VALUES ($1, 0, 'null')`,
			args: []any{columnID},
			code: "23514",
		},
		{
			name: "unknown column",
			sql:  `INSERT INTO cells (column_id, row_index) VALUES ($1, 0)`,
			args: []any{int64(999999)},
			code: "23503",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pool.Exec(ctx, tt.sql, tt.args...)
			var pgErr *pgconn.PgError
			require.ErrorAs(t, err, &pgErr)
			assert.Equal(t, tt.code, pgErr.Code)
		})
	}
}

func Test_001_InitialSchema_Cascade(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.Truncate(t, testDB.DB)
	ctx := context.Background()
	pool := testDB.DB.Pool

	var userID int64
	require.NoError(t, pool.QueryRow(ctx, `
		WITH u AS (INSERT INTO users (username, password_hash) VALUES ('cascade', '\x00') RETURNING id),
		     d AS (INSERT INTO datasets (user_id, name) SELECT id, 'ds' FROM u RETURNING id),
		     t AS (INSERT INTO tables (dataset_id, name) SELECT id, 't' FROM d RETURNING id),
		     c AS (INSERT INTO columns (table_id, name) SELECT id, 'A' FROM t RETURNING id)
		INSERT INTO cells (column_id, row_index, cell_value) SELECT id, 0, 'a' FROM c
		RETURNING (SELECT id FROM u)
	`).Scan(&userID))

	_, err := pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	require.NoError(t, err)

	var cells int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM cells`).Scan(&cells))
	assert.Zero(t, cells)
}
