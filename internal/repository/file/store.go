package file

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/teamtalks/knowledgebase/internal/apperror"
	"github.com/teamtalks/knowledgebase/internal/model"
	"github.com/teamtalks/knowledgebase/internal/mutation"
	"github.com/teamtalks/knowledgebase/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// Verifies that *Store implements repository.QuestionRepository. If a method
// goes missing the compiler errors here, not at some distant call site.
var _ repository.QuestionRepository = (*Store)(nil)

// Store is the file-per-question repository.
//
// CONCURRENCY MODEL:
// The HTTP server runs requests concurrently, and every file read/write is a
// point where goroutines interleave. Two locks keep that safe:
//
//   - locks: a per-question mutex serializing each load-modify-store cycle,
//     so concurrent mutations of one question are applied in sequence
//     instead of last-writer-wins.
//   - createMu: a store-wide mutex making "scan for the next free ID" and
//     "write the new file" one critical section, so concurrent creates can
//     never allocate the same ID.
//
// Neither lock protects against other processes writing the directory; that
// stays out of scope.
type Store struct {
	dir      string
	logger   *slog.Logger
	locks    *keyedMutex
	createMu chan struct{} // buffered-1 channel used as a ctx-aware mutex
}

// New creates a Store over dir, creating the directory if needed.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperror.StoreIO("create data directory", dir, err)
	}
	s := &Store{
		dir:      dir,
		logger:   logger,
		locks:    newKeyedMutex(),
		createMu: make(chan struct{}, 1),
	}
	return s, nil
}

// Create allocates a globally unique ID for q, writes question_<id>.json,
// and fills q.ID.
//
// The allocated value is max(highest record ID, highest file number) + 1.
// Taking the maximum over both keeps the ID monotonic across every record in
// the store AND guarantees the deterministic file name is free — a legacy
// file can occupy a higher file number than any ID it contains.
func (s *Store) Create(ctx context.Context, q *model.Question) error {
	select {
	case s.createMu <- struct{}{}:
		defer func() { <-s.createMu }()
	case <-ctx.Done():
		return ctx.Err()
	}

	nextID, err := nextQuestionID(s.dir)
	if err != nil {
		return apperror.StoreIO("scan", s.dir, err)
	}
	nextFile, err := nextFileNumber(s.dir)
	if err != nil {
		return apperror.StoreIO("scan", s.dir, err)
	}
	if nextFile > nextID {
		nextID = nextFile
	}

	q.ID = nextID
	if q.Author == "" {
		q.Author = model.AnonymousAuthor
	}
	if q.Answers == nil {
		q.Answers = model.AnswerList{}
	}

	name := questionFileName(q.ID)
	data, err := encodeQuestions([]model.Question{*q})
	if err != nil {
		return apperror.StoreIO("encode", name, err)
	}
	if err := s.writeFileAtomic(name, data); err != nil {
		return err
	}

	s.logger.Info("question created",
		slog.Int("id", q.ID),
		slog.String("file", name),
	)
	return nil
}

// GetByID locates and decodes one question. The deterministic file name is
// tried first; when that misses (legacy files don't encode the ID in their
// name) every file is scanned and matched on the id field.
func (s *Store) GetByID(ctx context.Context, id int) (*model.Question, error) {
	_, q, _, err := s.locate(ctx, id)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// List decodes every .json file in the directory and concatenates the
// results, legacy bulk files included. Corrupt files are skipped with a
// logged warning — one bad file must not take down the whole listing.
func (s *Store) List(ctx context.Context) ([]model.Question, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apperror.StoreIO("list", s.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	all := make([]model.Question, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Warn("skipping unreadable record file",
				slog.String("file", name),
				slog.String("error", err.Error()),
			)
			continue
		}
		questions, err := decodeFile(name, raw)
		if err != nil {
			s.logger.Warn("skipping malformed record file",
				slog.String("file", name),
				slog.String("error", err.Error()),
			)
			continue
		}
		all = append(all, questions...)
	}
	return all, nil
}

// Mutate loads the question's file, applies op to the decoded state, and
// rewrites the file. The whole cycle holds the question's mutex, so
// concurrent mutations of the same question serialize instead of losing
// writes. On any error before the write the file is untouched.
//
// Only single-record files are mutation targets. A question that exists
// solely inside a legacy bulk file is readable but not patchable.
func (s *Store) Mutate(ctx context.Context, id int, op mutation.Operation) (*model.Question, error) {
	defer s.locks.lock(id)()

	name, q, single, err := s.locate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !single {
		s.logger.Warn("mutation refused for question in legacy bulk file",
			slog.Int("id", id),
			slog.String("file", name),
		)
		return nil, apperror.ValidationFailed("id",
			"question "+strconv.Itoa(id)+" lives in a legacy bulk file and cannot be modified")
	}

	updated, err := mutation.Apply(*q, op)
	if err != nil {
		return nil, err
	}

	data, err := encodeQuestions([]model.Question{updated})
	if err != nil {
		return nil, apperror.StoreIO("encode", name, err)
	}
	if err := s.writeFileAtomic(name, data); err != nil {
		return nil, err
	}

	s.logger.Info("question mutated",
		slog.Int("id", id),
		slog.String("operation", string(op.Kind)),
		slog.String("file", name),
	)
	return &updated, nil
}

// locate finds the file owning id and the decoded question. single reports
// whether the file holds exactly that one record (a valid mutation target).
func (s *Store) locate(ctx context.Context, id int) (name string, q *model.Question, single bool, err error) {
	// Fast path: the deterministic name.
	direct := questionFileName(id)
	if raw, readErr := os.ReadFile(filepath.Join(s.dir, direct)); readErr == nil {
		questions, decErr := decodeFile(direct, raw)
		if decErr != nil {
			return "", nil, false, decErr
		}
		for i := range questions {
			if questions[i].ID == id {
				return direct, &questions[i], len(questions) == 1, nil
			}
		}
		// File exists but holds a different ID (renumbered legacy data);
		// fall through to the full scan.
	}

	entries, readErr := os.ReadDir(s.dir)
	if readErr != nil {
		return "", nil, false, apperror.StoreIO("list", s.dir, readErr)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") || entry.Name() == direct {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", nil, false, ctxErr
		}
		raw, readErr := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if readErr != nil {
			continue
		}
		questions, decErr := decodeFile(entry.Name(), raw)
		if decErr != nil {
			continue
		}
		for i := range questions {
			if questions[i].ID == id {
				return entry.Name(), &questions[i], len(questions) == 1, nil
			}
		}
	}
	return "", nil, false, apperror.NotFound("question", strconv.Itoa(id))
}

// writeFileAtomic writes data to name via a temp file + rename, so a reader
// never observes a half-written record and a failed write leaves the old
// file exactly as it was.
func (s *Store) writeFileAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, "."+name+".tmp-*")
	if err != nil {
		return apperror.StoreIO("write", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperror.StoreIO("write", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperror.StoreIO("write", name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return apperror.StoreIO("write", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return apperror.StoreIO("write", name, err)
	}
	return nil
}
