// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"
)

// writeIndex creates a fresh SQLite index at path holding chunks.
// Embeddings are stored as little-endian float32 blobs alongside their
// dimension.
func writeIndex(path string, chunks []Chunk) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE chunks (
		id TEXT PRIMARY KEY,
		paper_id TEXT NOT NULL,
		field TEXT NOT NULL,
		content TEXT NOT NULL,
		embedding BLOB NOT NULL,
		dim INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO chunks (id, paper_id, field, content, embedding, dim) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.Exec(c.ID, c.PaperID, c.Field, c.Content,
			encodeEmbedding(c.Embedding), len(c.Embedding)); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// readIndex loads every chunk from the SQLite index at path.
func readIndex(path string) ([]Chunk, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT id, paper_id, field, content, embedding, dim FROM chunks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var blob []byte
		var dim int
		if err := rows.Scan(&c.ID, &c.PaperID, &c.Field, &c.Content, &blob, &dim); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Embedding, err = decodeEmbedding(blob, dim)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// encodeEmbedding packs a vector as little-endian float32 bytes.
func encodeEmbedding(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

// decodeEmbedding unpacks a little-endian float32 blob, checking its
// length against the recorded dimension.
func decodeEmbedding(b []byte, dim int) ([]float32, error) {
	if len(b) != 4*dim {
		return nil, fmt.Errorf("embedding blob is %d bytes, want %d for dim %d", len(b), 4*dim, dim)
	}
	v := make([]float32, dim)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
