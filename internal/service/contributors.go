package service

import (
	"context"
	"sort"
	"strings"

	"github.com/teamtalks/knowledgebase/internal/model"
)

// DefaultContributorLimit caps the leaderboard size when the caller does not
// ask for a specific count.
const DefaultContributorLimit = 10

// Contributor is one row of the answer leaderboard, aggregated across every
// question in the store.
type Contributor struct {
	User              string `json:"user"`
	TotalUpvotes      int    `json:"totalUpvotes"`
	AnswerCount       int    `json:"answerCount"`
	QuestionsAnswered int    `json:"questionsAnswered"`
}

// TopContributors aggregates answer authorship across the whole store and
// returns up to limit contributors ordered by total upvotes received, then by
// answer count, then alphabetically for a stable order. Anonymous answers are
// excluded.
func (s *QuestionService) TopContributors(ctx context.Context, limit int) ([]Contributor, error) {
	if limit <= 0 {
		limit = DefaultContributorLimit
	}

	questions, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	type tally struct {
		upvotes   int
		answers   int
		questions map[int]struct{}
	}
	byUser := make(map[string]*tally)

	for _, q := range questions {
		for _, a := range q.Answers {
			user := strings.TrimSpace(a.User)
			if user == "" || user == model.AnonymousAuthor {
				continue
			}
			t := byUser[user]
			if t == nil {
				t = &tally{questions: make(map[int]struct{})}
				byUser[user] = t
			}
			t.upvotes += a.Upvotes
			t.answers++
			t.questions[q.ID] = struct{}{}
		}
	}

	contributors := make([]Contributor, 0, len(byUser))
	for user, t := range byUser {
		contributors = append(contributors, Contributor{
			User:              user,
			TotalUpvotes:      t.upvotes,
			AnswerCount:       t.answers,
			QuestionsAnswered: len(t.questions),
		})
	}

	sort.Slice(contributors, func(i, j int) bool {
		a, b := contributors[i], contributors[j]
		if a.TotalUpvotes != b.TotalUpvotes {
			return a.TotalUpvotes > b.TotalUpvotes
		}
		if a.AnswerCount != b.AnswerCount {
			return a.AnswerCount > b.AnswerCount
		}
		return a.User < b.User
	})

	if len(contributors) > limit {
		contributors = contributors[:limit]
	}
	return contributors, nil
}
