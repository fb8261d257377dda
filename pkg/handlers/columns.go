package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/larasormani21/db-SemTUI/pkg/repositories"
)

// ColumnsHandler deletes columns and lists their cells.
type ColumnsHandler struct {
	columns repositories.ColumnRepository
	cells   repositories.CellRepository
	logger  *zap.Logger
}

// NewColumnsHandler creates a new columns handler.
func NewColumnsHandler(columns repositories.ColumnRepository, cells repositories.CellRepository, logger *zap.Logger) *ColumnsHandler {
	return &ColumnsHandler{columns: columns, cells: cells, logger: logger}
}

// RegisterRoutes registers the columns handler's routes on the given mux.
func (h *ColumnsHandler) RegisterRoutes(mux *http.ServeMux, scope ScopeMiddleware) {
	mux.HandleFunc("DELETE /api/columns/{cid}", scope(h.Delete))
	mux.HandleFunc("GET /api/columns/{cid}/cells", scope(h.ListCells))
}

// Delete handles DELETE /api/columns/{cid}
// Properties of sibling columns that point at the deleted column are removed too.
func (h *ColumnsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	defer observe("delete_column")()

	columnID, ok := pathID(r, "cid")
	if !ok {
		writeBadRequest(w, h.logger, "invalid_column_id", "Invalid column ID")
		return
	}

	if err := h.columns.Delete(r.Context(), columnID); err != nil {
		writeError(w, h.logger, err, "delete column")
		return
	}
	h.logger.Info("Column deleted", zap.Int64("column_id", columnID))
	w.WriteHeader(http.StatusNoContent)
}

// ListCells handles GET /api/columns/{cid}/cells
func (h *ColumnsHandler) ListCells(w http.ResponseWriter, r *http.Request) {
	defer observe("list_cells")()

	columnID, ok := pathID(r, "cid")
	if !ok {
		writeBadRequest(w, h.logger, "invalid_column_id", "Invalid column ID")
		return
	}

	cells, err := h.cells.ListByColumn(r.Context(), columnID)
	if err != nil {
		writeError(w, h.logger, err, "list cells")
		return
	}
	writeResult(w, h.logger, http.StatusOK, cells)
}
