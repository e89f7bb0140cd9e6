// Package cache persists built noise fields in SQLite so restarts reuse
// them instead of regenerating.
package cache

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/danmuck/planetctl/internal/noise"
	_ "modernc.org/sqlite"
)

var ErrCorruptField = errors.New("cache: corrupt noise field")

const schema = `
CREATE TABLE IF NOT EXISTS noise_fields(
	namespace TEXT PRIMARY KEY,
	method TEXT NOT NULL,
	width INTEGER NOT NULL,
	height INTEGER NOT NULL,
	seed INTEGER NOT NULL,
	built_at REAL NOT NULL,
	data BLOB NOT NULL
)`

type Cache struct {
	db *sql.DB
}

func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache open failed (%s): %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache init failed (%s): %w", path, err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Load returns every cached field. Rows whose blob does not match their
// recorded size are rejected.
func (c *Cache) Load(ctx context.Context) ([]*noise.Field, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT namespace, method, width, height, seed, data FROM noise_fields ORDER BY namespace")
	if err != nil {
		return nil, fmt.Errorf("cache load failed: %w", err)
	}
	defer rows.Close()

	var out []*noise.Field
	for rows.Next() {
		var (
			f    noise.Field
			blob []byte
		)
		if err := rows.Scan(&f.Namespace, &f.Method, &f.Width, &f.Height, &f.Seed, &blob); err != nil {
			return nil, fmt.Errorf("cache load failed: %w", err)
		}
		data, err := decodeSamples(blob, f.Width*f.Height)
		if err != nil {
			return nil, fmt.Errorf("%w: namespace %q: %v", ErrCorruptField, f.Namespace, err)
		}
		f.Data = data
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cache load failed: %w", err)
	}
	return out, nil
}

// Save upserts fields in a single transaction.
func (c *Cache) Save(ctx context.Context, fields ...*noise.Field) error {
	if len(fields) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cache save failed: %w", err)
	}
	defer tx.Rollback()

	now := float64(time.Now().UnixMilli()) / 1000.0
	for _, f := range fields {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO noise_fields(namespace, method, width, height, seed, built_at, data)
			VALUES(?,?,?,?,?,?,?)
			ON CONFLICT(namespace) DO UPDATE SET
				method=excluded.method,
				width=excluded.width,
				height=excluded.height,
				seed=excluded.seed,
				built_at=excluded.built_at,
				data=excluded.data`,
			f.Namespace, f.Method, f.Width, f.Height, f.Seed, now, encodeSamples(f.Data))
		if err != nil {
			return fmt.Errorf("cache save failed (%s): %w", f.Namespace, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cache save failed: %w", err)
	}
	return nil
}

func (c *Cache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM noise_fields"); err != nil {
		return fmt.Errorf("cache clear failed: %w", err)
	}
	return nil
}

func encodeSamples(data []float64) []byte {
	buf := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func decodeSamples(buf []byte, n int) ([]float64, error) {
	if n <= 0 || len(buf) != 8*n {
		return nil, fmt.Errorf("blob length %d for %d samples", len(buf), n)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return out, nil
}
