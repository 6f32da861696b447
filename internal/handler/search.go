package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/teamtalks/knowledgebase/internal/apperror"
	"github.com/teamtalks/knowledgebase/internal/index"
	"github.com/teamtalks/knowledgebase/internal/service"
)

// SearchHandler exposes semantic search over the vector index.
type SearchHandler struct {
	svc    *service.SearchService
	logger *slog.Logger
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(svc *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{svc: svc, logger: logger}
}

// searchResponse wraps the matches so the shape can grow (timings, paging)
// without breaking clients.
type searchResponse struct {
	Query   string        `json:"query"`
	Matches []index.Match `json:"matches"`
}

// HandleSearch embeds the query text and returns the closest records.
//
// HTTP: GET /api/search?q=how+do+i+center+a+div&topK=5
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	topK := 0
	if raw := r.URL.Query().Get("topK"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, apperror.ValidationFailed("topK", "topK must be a positive integer"))
			return
		}
		topK = n
	}

	matches, err := h.svc.Search(r.Context(), query, topK)
	if err != nil {
		writeError(w, err)
		return
	}
	if matches == nil {
		matches = []index.Match{}
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:   query,
		Matches: matches,
	})
}
