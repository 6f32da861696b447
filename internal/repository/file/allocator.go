package file

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Question IDs and file numbers both started at 1001 when the data directory
// was first reorganized, so an empty store allocates 1001.
const idBase = 1000

var questionFilePattern = regexp.MustCompile(`^question_(\d+)\.json$`)

// nextQuestionID scans every .json file in dir and returns one greater than
// the highest question ID found, or idBase+1 if none exist.
//
// The file name cannot be trusted to encode the ID — legacy bulk files hold
// many questions and some old single files were renumbered — so every file is
// decoded and every record inspected. Corrupt files are skipped: the
// allocator only needs a forward-safe lower bound, and a file it cannot read
// cannot yield an ID either. Duplicate IDs (corruption) resolve to the
// higher value; no repair is attempted.
//
// This is an O(files) scan on every create. That is a deliberate
// correctness-over-performance choice: a persisted counter can drift from
// the directory, the directory itself cannot.
func nextQuestionID(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	maxID := idBase
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		questions, err := decodeFile(entry.Name(), raw)
		if err != nil {
			continue
		}
		for _, q := range questions {
			if q.ID > maxID {
				maxID = q.ID
			}
		}
	}
	return maxID + 1, nil
}

// nextFileNumber returns one greater than the highest question_<n>.json
// number in dir, or idBase+1 if there are none. Files not matching the
// pattern (bulk files, unrelated .json) are ignored.
func nextFileNumber(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	maxNum := idBase
	for _, entry := range entries {
		m := questionFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > maxNum {
			maxNum = n
		}
	}
	return maxNum + 1, nil
}

// questionFileName returns the deterministic file name for a question ID.
func questionFileName(id int) string {
	return "question_" + strconv.Itoa(id) + ".json"
}
