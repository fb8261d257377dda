package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/larasormani21/db-SemTUI/pkg/logging"
	"github.com/larasormani21/db-SemTUI/pkg/models"
	"github.com/larasormani21/db-SemTUI/pkg/repositories"
	"github.com/larasormani21/db-SemTUI/pkg/sql"
)

// maxLoggedSearch bounds search terms written to the log.
const maxLoggedSearch = 64

// SetMatchRequest is the request body for PUT /api/cells/{id}/match.
type SetMatchRequest struct {
	URI   string   `json:"uri"`
	Score *float64 `json:"score"`
}

// CellsHandler handles cell matching, cell search and candidate queries.
type CellsHandler struct {
	cells  repositories.CellRepository
	logger *zap.Logger
}

// NewCellsHandler creates a new cells handler.
func NewCellsHandler(cells repositories.CellRepository, logger *zap.Logger) *CellsHandler {
	return &CellsHandler{cells: cells, logger: logger}
}

// RegisterRoutes registers the cells handler's routes on the given mux.
func (h *CellsHandler) RegisterRoutes(mux *http.ServeMux, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/cells/{id}", scope(h.Get))
	mux.HandleFunc("PUT /api/cells/{id}/match", scope(h.SetMatch))
	mux.HandleFunc("GET /api/cells/search", scope(h.Search))
	mux.HandleFunc("GET /api/candidates", scope(h.Candidates))
}

// Get handles GET /api/cells/{id}
func (h *CellsHandler) Get(w http.ResponseWriter, r *http.Request) {
	defer observe("get_cell")()

	cellID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, h.logger, "invalid_cell_id", "Invalid cell ID")
		return
	}

	cell, err := h.cells.GetByID(r.Context(), cellID)
	if err != nil {
		writeError(w, h.logger, err, "get cell")
		return
	}
	writeResult(w, h.logger, http.StatusOK, cell)
}

// SetMatch handles PUT /api/cells/{id}/match
// The candidate identified by uri becomes the cell's match and moves to the
// front of its candidate list.
func (h *CellsHandler) SetMatch(w http.ResponseWriter, r *http.Request) {
	defer observe("set_match")()

	cellID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, h.logger, "invalid_cell_id", "Invalid cell ID")
		return
	}

	var req SetMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, h.logger, "invalid_body", "Invalid request body")
		return
	}
	req.URI = strings.TrimSpace(req.URI)
	if req.URI == "" || req.Score == nil {
		writeBadRequest(w, h.logger, "invalid_body", "uri and score are required")
		return
	}

	cell, err := h.cells.UpdateMatchByID(r.Context(), cellID, req.URI, *req.Score)
	if err != nil {
		writeError(w, h.logger, err, "set match")
		return
	}
	matchPromotions.Inc()
	writeResult(w, h.logger, http.StatusOK, cell)
}

// screen rejects search terms that look like SQL injection.
func (h *CellsHandler) screen(w http.ResponseWriter, r *http.Request, params ...string) bool {
	terms := make(map[string]string, len(params))
	for _, p := range params {
		if v := r.URL.Query().Get(p); v != "" {
			terms[p] = v
		}
	}
	failures := sql.CheckSearchTerms(terms, params...)
	if len(failures) == 0 {
		return true
	}

	rejectedSearches.Inc()
	h.logger.Warn("Rejected search term",
		zap.String("param", failures[0].Param),
		zap.String("value", logging.TruncateString(failures[0].Value, maxLoggedSearch)),
		zap.String("fingerprint", failures[0].Fingerprint),
		zap.String("remote_addr", r.RemoteAddr))
	writeBadRequest(w, h.logger, "invalid_search", "Search term rejected")
	return false
}

// Search handles GET /api/cells/search?prefix=&column=
func (h *CellsHandler) Search(w http.ResponseWriter, r *http.Request) {
	defer observe("search_cells")()

	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		writeBadRequest(w, h.logger, "missing_prefix", "prefix is required")
		return
	}
	columnID, ok := queryID(r, "column")
	if !ok {
		writeBadRequest(w, h.logger, "invalid_column_id", "Invalid column ID")
		return
	}
	if !h.screen(w, r, "prefix") {
		return
	}

	rows, err := h.cells.SearchByValuePrefix(r.Context(), prefix, columnID)
	if err != nil {
		writeError(w, h.logger, err, "search cells")
		return
	}
	writeResult(w, h.logger, http.StatusOK, rows)
}

// Candidates handles GET /api/candidates. Exactly one selector is used:
//
//	?cell=ID                     candidates of one cell
//	?label=TEXT[&column=ID]      candidates whose label contains TEXT
//	?min_score=S[&column=ID]     candidates scoring at least S
func (h *CellsHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	defer observe("list_candidates")()

	q := r.URL.Query()
	columnID, ok := queryID(r, "column")
	if !ok {
		writeBadRequest(w, h.logger, "invalid_column_id", "Invalid column ID")
		return
	}
	cellID, ok := queryID(r, "cell")
	if !ok {
		writeBadRequest(w, h.logger, "invalid_cell_id", "Invalid cell ID")
		return
	}

	var (
		rows []models.CandidateRow
		err  error
	)
	switch {
	case cellID != nil:
		rows, err = h.cells.CandidatesByCell(r.Context(), *cellID)
	case q.Get("label") != "":
		if !h.screen(w, r, "label") {
			return
		}
		rows, err = h.cells.SearchCandidatesByLabel(r.Context(), q.Get("label"), columnID)
	case q.Get("min_score") != "":
		minScore, perr := strconv.ParseFloat(q.Get("min_score"), 64)
		if perr != nil || math.IsNaN(minScore) || math.IsInf(minScore, 0) {
			writeBadRequest(w, h.logger, "invalid_min_score", "min_score must be a number")
			return
		}
		if columnID != nil {
			rows, err = h.cells.CandidatesWithMinScoreByColumn(r.Context(), *columnID, minScore)
		} else {
			rows, err = h.cells.CandidatesWithMinScore(r.Context(), minScore)
		}
	default:
		writeBadRequest(w, h.logger, "missing_selector", "one of cell, label or min_score is required")
		return
	}
	if err != nil {
		writeError(w, h.logger, err, "list candidates")
		return
	}
	writeResult(w, h.logger, http.StatusOK, rows)
}
