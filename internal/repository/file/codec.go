// Package file implements QuestionRepository with one JSON file per question.
//
// WHY FILES INSTEAD OF A DATABASE?
// The data directory predates this server and is shared with other tooling:
// each question lives in its own question_<n>.json file holding a one-element
// JSON array, plus a handful of legacy bulk files holding many questions at
// once. Keeping the layout means every existing file stays readable and every
// file we write stays readable by the old tooling.
package file

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/teamtalks/knowledgebase/internal/apperror"
	"github.com/teamtalks/knowledgebase/internal/model"
)

// decodeFile parses one record file. Accepted shapes:
//
//   - a JSON array of questions (the canonical one-element form, or a
//     legacy bulk file with many)
//   - an object with a "questions" array (another legacy bulk form)
//   - a bare question object
//
// name is only used for error reporting. Malformed payloads return
// apperror.Decode so aggregation callers can skip-and-continue.
func decodeFile(name string, raw []byte) ([]model.Question, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, apperror.Decode(name, errors.New("empty file"))
	}

	if trimmed[0] == '[' {
		var qs []model.Question
		if err := json.Unmarshal(trimmed, &qs); err != nil {
			return nil, apperror.Decode(name, err)
		}
		return qs, nil
	}

	// Object form. Probe the keys first so we can tell a {"questions": [...]}
	// wrapper apart from a bare question object.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, apperror.Decode(name, err)
	}

	if wrapped, ok := probe["questions"]; ok {
		var qs []model.Question
		if err := json.Unmarshal(wrapped, &qs); err != nil {
			return nil, apperror.Decode(name, err)
		}
		return qs, nil
	}

	var q model.Question
	if err := json.Unmarshal(trimmed, &q); err != nil {
		return nil, apperror.Decode(name, err)
	}
	return []model.Question{q}, nil
}

// encodeQuestions produces the canonical on-disk form: a two-space-indented
// JSON array. Single-record files always contain a one-element array.
func encodeQuestions(qs []model.Question) ([]byte, error) {
	data, err := json.MarshalIndent(qs, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
