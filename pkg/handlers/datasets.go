package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/larasormani21/db-SemTUI/pkg/repositories"
)

// DatasetsHandler lists datasets and their tables.
type DatasetsHandler struct {
	datasets repositories.DatasetRepository
	tables   repositories.TableRepository
	logger   *zap.Logger
}

// NewDatasetsHandler creates a new datasets handler.
func NewDatasetsHandler(datasets repositories.DatasetRepository, tables repositories.TableRepository, logger *zap.Logger) *DatasetsHandler {
	return &DatasetsHandler{datasets: datasets, tables: tables, logger: logger}
}

// RegisterRoutes registers the datasets handler's routes on the given mux.
func (h *DatasetsHandler) RegisterRoutes(mux *http.ServeMux, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/users/{uid}/datasets", scope(h.ListByUser))
	mux.HandleFunc("GET /api/datasets/{did}/tables", scope(h.ListTables))
}

// listOptions reads ?search=&sort=&dir=. Sort keys are validated by the repository.
func listOptions(r *http.Request) repositories.ListOptions {
	q := r.URL.Query()
	return repositories.ListOptions{
		Search:  q.Get("search"),
		SortBy:  q.Get("sort"),
		SortDir: q.Get("dir"),
	}
}

// ListByUser handles GET /api/users/{uid}/datasets
func (h *DatasetsHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	defer observe("list_datasets")()

	userID, ok := pathID(r, "uid")
	if !ok {
		writeBadRequest(w, h.logger, "invalid_user_id", "Invalid user ID")
		return
	}

	datasets, err := h.datasets.ListByUser(r.Context(), userID, listOptions(r))
	if err != nil {
		writeError(w, h.logger, err, "list datasets")
		return
	}
	writeResult(w, h.logger, http.StatusOK, datasets)
}

// ListTables handles GET /api/datasets/{did}/tables
func (h *DatasetsHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	defer observe("list_tables")()

	datasetID, ok := pathID(r, "did")
	if !ok {
		writeBadRequest(w, h.logger, "invalid_dataset_id", "Invalid dataset ID")
		return
	}

	tables, err := h.tables.ListByDataset(r.Context(), datasetID, listOptions(r))
	if err != nil {
		writeError(w, h.logger, err, "list tables")
		return
	}
	writeResult(w, h.logger, http.StatusOK, tables)
}
