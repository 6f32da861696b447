package repository

import (
	"context"

	"github.com/teamtalks/knowledgebase/internal/model"
	"github.com/teamtalks/knowledgebase/internal/mutation"
)

// QuestionRepository is the persistence contract for question records.
//
// The production implementation (repository/file) keeps one JSON file per
// question; tests and future backends only need to satisfy this interface.
type QuestionRepository interface {
	// Create allocates a unique ID for q, persists it, and fills q.ID.
	Create(ctx context.Context, q *model.Question) error

	// GetByID returns the question with the given ID, or apperror.ErrNotFound.
	GetByID(ctx context.Context, id int) (*model.Question, error)

	// List returns every decodable question in the store. Corrupt files are
	// skipped, not fatal.
	List(ctx context.Context) ([]model.Question, error)

	// Mutate applies op to the question's current persisted state and writes
	// the result back as one whole-file rewrite. Either the full new state
	// lands or the file is left exactly as it was.
	Mutate(ctx context.Context, id int, op mutation.Operation) (*model.Question, error)
}
