// Package sqlitevec implements index.VectorIndex on an embedded SQLite
// database — no external vector service needed.
//
// WHY AN EMBEDDED BACKEND?
// Development and self-hosted deployments shouldn't require a Pinecone
// account. Vectors are stored as little-endian float32 BLOBs and queried by
// a brute-force cosine-similarity scan, which is plenty for a corpus of a
// few thousand questions. The driver is modernc.org/sqlite: pure Go, no C
// compiler, works everywhere Go works.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/teamtalks/knowledgebase/internal/index"
)

var _ index.VectorIndex = (*Index)(nil)

// Index stores vectors in a single SQLite table.
type Index struct {
	conn *sql.DB
}

// New opens (or creates) the index database at dbPath. Use ":memory:" for
// an in-memory index in tests.
func New(dbPath string) (*Index, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlitevec: opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlitevec: pinging database: %w", err)
	}

	// WAL lets reads proceed while an upsert batch is writing.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlitevec: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS vectors (
			id        TEXT PRIMARY KEY,
			embedding BLOB NOT NULL,
			metadata  TEXT NOT NULL DEFAULT '{}'
		);
	`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlitevec: creating schema: %w", err)
	}

	return &Index{conn: conn}, nil
}

// Close closes the underlying database.
func (x *Index) Close() error {
	return x.conn.Close()
}

// Upsert inserts or replaces items. The whole batch lands in one
// transaction: either every vector in the batch is visible or none is.
func (x *Index) Upsert(ctx context.Context, items []index.Item) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := x.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlitevec: beginning upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO vectors (id, embedding, metadata) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlitevec: preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		meta, err := json.Marshal(item.Metadata)
		if err != nil {
			return fmt.Errorf("sqlitevec: encoding metadata for %s: %w", item.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, item.ID, encodeVector(item.Values), meta); err != nil {
			return fmt.Errorf("sqlitevec: upserting %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlitevec: committing upsert: %w", err)
	}
	return nil
}

// Query scans every stored vector, scores it against the query vector by
// cosine similarity, and returns the topK best matches, best first.
func (x *Index) Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]index.Match, error) {
	if topK <= 0 {
		return nil, nil
	}

	rows, err := x.conn.QueryContext(ctx, `SELECT id, embedding, metadata FROM vectors`)
	if err != nil {
		return nil, fmt.Errorf("sqlitevec: querying vectors: %w", err)
	}
	defer rows.Close()

	var matches []index.Match
	for rows.Next() {
		var id string
		var blob []byte
		var metaJSON string
		if err := rows.Scan(&id, &blob, &metaJSON); err != nil {
			return nil, fmt.Errorf("sqlitevec: scanning row: %w", err)
		}

		stored, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("sqlitevec: vector %s: %w", id, err)
		}
		score, err := cosineSimilarity(vector, stored)
		if err != nil {
			// Dimension drift (e.g. the embedding model changed) — skip
			// the stale vector rather than failing the whole query.
			continue
		}

		m := index.Match{ID: id, Score: score}
		if includeMetadata {
			var meta map[string]any
			if err := json.Unmarshal([]byte(metaJSON), &meta); err == nil {
				m.Metadata = meta
			}
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitevec: iterating vectors: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}
