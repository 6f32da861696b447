package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/teamtalks/knowledgebase/internal/apperror"
	"github.com/teamtalks/knowledgebase/internal/mutation"
	"github.com/teamtalks/knowledgebase/internal/service"
)

// QuestionHandler exposes the question record store over HTTP. It owns
// request parsing and response shaping; everything else lives in the service.
type QuestionHandler struct {
	svc    *service.QuestionService
	logger *slog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(svc *service.QuestionService, logger *slog.Logger) *QuestionHandler {
	return &QuestionHandler{svc: svc, logger: logger}
}

// createRequest is the POST body. The answer and author are optional; a
// non-empty answer seeds the record with one initial answer.
type createRequest struct {
	Title  string `json:"title"`
	Answer string `json:"answer"`
	Author string `json:"author"`
}

// appendAnswerRequest is the PUT body (the legacy "contribute an answer"
// route shape).
type appendAnswerRequest struct {
	Answer string `json:"answer"`
	User   string `json:"user"`
	Date   string `json:"date"`
}

// patchRequest carries one typed mutation. Value stays untyped here; the
// mutation engine validates it against the target field.
type patchRequest struct {
	Operation string      `json:"operation"`
	AnswerID  int         `json:"answerId"`
	Field     string      `json:"field"`
	Value     interface{} `json:"value"`
	Text      string      `json:"text"`
	User      string      `json:"user"`
	Date      string      `json:"date"`
}

// HandleList returns every question in the store.
//
// HTTP: GET /api/questions (also mounted at GET /api/knowledgedata for
// clients written against the original API).
func (h *QuestionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	questions, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

// HandleGet returns one question by ID.
//
// HTTP: GET /api/questions/{id}
func (h *QuestionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	q, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// HandleCreate saves a new question.
//
// HTTP: POST /api/questions
// REQUEST BODY: {"title": "...", "answer": "...", "author": "..."}
func (h *QuestionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid create JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	q, err := h.svc.Create(r.Context(), req.Title, req.Answer, req.Author)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("question created",
		slog.Int("id", q.ID),
		slog.String("author", q.Author),
	)
	writeJSON(w, http.StatusCreated, q)
}

// HandleAppendAnswer adds one answer to an existing question.
//
// HTTP: PUT /api/questions/{id}
func (h *QuestionHandler) HandleAppendAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req appendAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid answer JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	q, err := h.svc.AppendAnswer(r.Context(), id, req.Answer, req.User, req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// HandlePatch applies one typed mutation to a question.
//
// HTTP: PATCH /api/questions/{id}
// REQUEST BODY: {"operation": "update_field", "field": "title", "value": "..."}
func (h *QuestionHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid patch JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	q, err := h.svc.Patch(r.Context(), id, mutation.Operation{
		Kind:     mutation.Kind(req.Operation),
		AnswerID: req.AnswerID,
		Field:    req.Field,
		Value:    req.Value,
		Text:     req.Text,
		User:     req.User,
		Date:     req.Date,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// HandleUpvoteAnswer increments one answer's vote count.
//
// HTTP: PATCH /api/questions/{id}/answers/{answerId}/upvote
func (h *QuestionHandler) HandleUpvoteAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	answerID, ok := h.pathID(w, r, "answerId")
	if !ok {
		return
	}

	q, err := h.svc.UpvoteAnswer(r.Context(), id, answerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// HandleTopContributors returns the answer leaderboard.
//
// HTTP: GET /api/contributors/top?limit=10
func (h *QuestionHandler) HandleTopContributors(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, apperror.ValidationFailed("limit", "limit must be a positive integer"))
			return
		}
		limit = n
	}

	contributors, err := h.svc.TopContributors(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contributors)
}

// HandleReindex re-embeds and re-upserts the entire corpus.
//
// HTTP: POST /api/reindex
func (h *QuestionHandler) HandleReindex(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ReindexAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("reindex completed", slog.Int("indexed", n))
	writeJSON(w, http.StatusOK, map[string]int{"indexed": n})
}

// pathID parses one positive-integer URL parameter, writing a 400 on failure.
func (h *QuestionHandler) pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.PathValue(name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		writeError(w, apperror.ValidationFailed(name, name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}
