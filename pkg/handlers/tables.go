package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/larasormani21/db-SemTUI/pkg/repositories"
)

// TablesHandler serves table summaries, the pivoted table view and column lists.
type TablesHandler struct {
	tables  repositories.TableRepository
	columns repositories.ColumnRepository
	logger  *zap.Logger
}

// NewTablesHandler creates a new tables handler.
func NewTablesHandler(tables repositories.TableRepository, columns repositories.ColumnRepository, logger *zap.Logger) *TablesHandler {
	return &TablesHandler{tables: tables, columns: columns, logger: logger}
}

// RegisterRoutes registers the tables handler's routes on the given mux.
func (h *TablesHandler) RegisterRoutes(mux *http.ServeMux, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/tables/{tid}", scope(h.Get))
	mux.HandleFunc("GET /api/tables/{tid}/view", scope(h.View))
	mux.HandleFunc("GET /api/tables/{tid}/columns", scope(h.ListColumns))
}

// Get handles GET /api/tables/{tid}
func (h *TablesHandler) Get(w http.ResponseWriter, r *http.Request) {
	defer observe("get_table")()

	tableID, ok := pathID(r, "tid")
	if !ok {
		writeBadRequest(w, h.logger, "invalid_table_id", "Invalid table ID")
		return
	}

	table, err := h.tables.GetByID(r.Context(), tableID)
	if err != nil {
		writeError(w, h.logger, err, "get table")
		return
	}
	writeResult(w, h.logger, http.StatusOK, table)
}

// View handles GET /api/tables/{tid}/view
// ?format=tsv renders tab separated text instead of JSON.
func (h *TablesHandler) View(w http.ResponseWriter, r *http.Request) {
	defer observe("view_table")()

	tableID, ok := pathID(r, "tid")
	if !ok {
		writeBadRequest(w, h.logger, "invalid_table_id", "Invalid table ID")
		return
	}

	view, err := h.tables.PrintTableByTableID(r.Context(), tableID)
	if err != nil {
		writeError(w, h.logger, err, "build table view")
		return
	}

	if r.URL.Query().Get("format") == "tsv" {
		w.Header().Set("Content-Type", "text/tab-separated-values; charset=utf-8")
		if err := view.Render(w); err != nil {
			h.logger.Error("Failed to render table view", zap.Int64("table_id", tableID), zap.Error(err))
		}
		return
	}
	writeResult(w, h.logger, http.StatusOK, view)
}

// ListColumns handles GET /api/tables/{tid}/columns
func (h *TablesHandler) ListColumns(w http.ResponseWriter, r *http.Request) {
	defer observe("list_columns")()

	tableID, ok := pathID(r, "tid")
	if !ok {
		writeBadRequest(w, h.logger, "invalid_table_id", "Invalid table ID")
		return
	}

	columns, err := h.columns.ListByTable(r.Context(), tableID)
	if err != nil {
		writeError(w, h.logger, err, "list columns")
		return
	}
	writeResult(w, h.logger, http.StatusOK, columns)
}
