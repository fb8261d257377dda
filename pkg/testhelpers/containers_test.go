//go:build integration

package testhelpers

import (
	"context"
	"testing"

	"github.com/larasormani21/db-SemTUI/pkg/database"
)

func TestTestDB_MigrationsApplied(t *testing.T) {
	testDB := GetTestDB(t)

	ctx := context.Background()

	var tableCount int
	err := testDB.DB.QueryRow(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = 'public'
		AND table_name IN ('users', 'datasets', 'tables', 'columns', 'cells', 'row_selections', 'extension_values')`).
		Scan(&tableCount)
	if err != nil {
		t.Fatalf("failed to count tables: %v", err)
	}

	if tableCount != 7 {
		t.Errorf("expected 7 application tables, got %d", tableCount)
	}
}

func TestScopedContext(t *testing.T) {
	testDB := GetTestDB(t)
	ctx := ScopedContext(t, testDB.DB)

	scope, ok := database.GetScope(ctx)
	if !ok {
		t.Fatal("expected a scope in context")
	}

	var one int
	if err := scope.Conn.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if one != 1 {
		t.Errorf("expected 1, got %d", one)
	}
}
