package knowledge

// #region imports
import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pepper-tutor/go-brain/internal/embedding"
)

// #endregion

// #region schema

const indexSchema = `
CREATE TABLE IF NOT EXISTS index_meta (
	id             INTEGER PRIMARY KEY CHECK (id = 1),
	build_id       TEXT NOT NULL,
	embedder_model TEXT NOT NULL,
	embedder_dim   INTEGER NOT NULL,
	built_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS passages (
	ordinal    INTEGER PRIMARY KEY,
	passage_id TEXT NOT NULL,
	text       TEXT NOT NULL,
	source     TEXT NOT NULL,
	vector     BLOB NOT NULL
);
`

// #endregion

// #region store-struct

// Store persists the index in SQLite so subsequent process starts can load
// it without re-embedding.
type Store struct {
	db *sql.DB
}

// NewStore opens the index database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(indexSchema); err != nil {
		return nil, fmt.Errorf("migrate index db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// #endregion

// #region save

// Save replaces the persisted index wholesale inside one transaction.
func (s *Store) Save(ctx context.Context, ix *Index) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM passages`); err != nil {
		return fmt.Errorf("clear passages: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM index_meta`); err != nil {
		return fmt.Errorf("clear meta: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO index_meta (id, build_id, embedder_model, embedder_dim, built_at)
		 VALUES (1, ?, ?, ?, ?)`,
		uuid.New().String(), ix.Embedder.Model, ix.Embedder.Dim,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert meta: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO passages (ordinal, passage_id, text, source, vector) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range ix.Passages {
		if _, err := stmt.Exec(p.Ordinal, p.ID, p.Text, p.Source, encodeVector(p.Vector)); err != nil {
			return fmt.Errorf("insert passage %d: %w", p.Ordinal, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// #endregion

// #region load

// Load reads the persisted index. A store that has never been written to, or
// one whose rows cannot be decoded, surfaces as IndexUnavailableError; an
// index with zero passages is a valid (empty) index.
func (s *Store) Load(ctx context.Context) (*Index, error) {
	var model string
	var dim int
	err := s.db.QueryRowContext(ctx,
		`SELECT embedder_model, embedder_dim FROM index_meta WHERE id = 1`,
	).Scan(&model, &dim)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &IndexUnavailableError{Cause: fmt.Errorf("no index has been ingested")}
	}
	if err != nil {
		return nil, &IndexUnavailableError{Cause: fmt.Errorf("read meta: %w", err)}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ordinal, passage_id, text, source, vector FROM passages ORDER BY ordinal`)
	if err != nil {
		return nil, &IndexUnavailableError{Cause: fmt.Errorf("read passages: %w", err)}
	}
	defer rows.Close()

	ix := &Index{Embedder: embedding.Identity{Model: model, Dim: dim}}
	for rows.Next() {
		var p Passage
		var blob []byte
		if err := rows.Scan(&p.Ordinal, &p.ID, &p.Text, &p.Source, &blob); err != nil {
			return nil, &IndexUnavailableError{Cause: fmt.Errorf("scan passage: %w", err)}
		}
		if len(blob)%4 != 0 || len(blob)/4 != dim {
			return nil, &IndexUnavailableError{
				Cause: fmt.Errorf("passage %d vector has %d bytes, want %d", p.Ordinal, len(blob), dim*4),
			}
		}
		p.Vector = decodeVector(blob)
		ix.Passages = append(ix.Passages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &IndexUnavailableError{Cause: fmt.Errorf("iterate passages: %w", err)}
	}
	return ix, nil
}

// #endregion

// #region vector-encoding

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

// #endregion
