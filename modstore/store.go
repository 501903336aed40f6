// Package modstore is a dependency-module repository: it fetches the raw
// bytes of candidate dependency modules so a caller can decode and hand
// them to link.VerifyModule. It never verifies anything itself, and it
// never remembers a verification verdict — only the module bytes a caller
// would otherwise have to fetch from somewhere.
//
// The multi-backend connection setup mirrors the teacher's own
// ffi.SqlCreateConnection: sniff the connection string's shape and open the
// matching database/sql driver.
package modstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/glyphlang/glyph/bytecode"
)

// Decoder turns the raw stored bytes of one module into a CompiledModule.
// Decoding is explicitly out of scope for the verifier core (see §1 of the
// spec this package supports); Store only plumbs bytes, and the caller
// supplies whatever decoder the rest of the toolchain uses.
type Decoder func(raw []byte) (*bytecode.CompiledModule, error)

// Store is a dependency-module repository backed by a SQL database. The
// schema is a single table: modules(address BLOB, name TEXT, bytes BLOB),
// with no declared key; Put keeps one row per (address, name) by deleting
// before it inserts.
type Store struct {
	db     *sql.DB
	driver string

	decoder Decoder
}

// Open detects the driver implied by connStr (the same three shapes
// ffi.detectDriver recognizes: a sqlite file path/URI, a mysql DSN
// containing "@tcp(" or "@unix(", or a postgres:// URL) and opens it.
func Open(connStr string, decoder Decoder) (*Store, error) {
	driver := detectDriver(connStr)

	db, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("modstore: open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("modstore: ping %s: %w", driver, err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS modules (
		address BLOB NOT NULL,
		name    TEXT NOT NULL,
		bytes   BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("modstore: create schema: %w", err)
	}

	return &Store{db: db, driver: driver, decoder: decoder}, nil
}

// placeholders returns n positional parameter markers in the dialect the
// store's driver expects: pgx wants $1, $2, ...; sqlite3 and mysql both
// accept the "?" marker ffi's own queries use.
func (s *Store) placeholders(n int) []string {
	out := make([]string, n)
	for i := range out {
		if s.driver == "pgx" {
			out[i] = fmt.Sprintf("$%d", i+1)
		} else {
			out[i] = "?"
		}
	}
	return out
}

func detectDriver(connStr string) string {
	trimmed := strings.TrimSpace(connStr)
	switch {
	case strings.HasPrefix(trimmed, "postgres://"), strings.HasPrefix(trimmed, "postgresql://"):
		return "pgx"
	case strings.Contains(trimmed, "@tcp("), strings.Contains(trimmed, "@unix("):
		return "mysql"
	default:
		return "sqlite3"
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores (or replaces) the raw bytes for a module. It deletes any
// existing row for id first rather than relying on an upsert, since the
// three backends this store supports don't agree on upsert syntax.
func (s *Store) Put(ctx context.Context, id bytecode.ModuleId, raw []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("modstore: put %s: %w", id, err)
	}
	defer tx.Rollback()

	del := s.placeholders(2)
	deleteQuery := fmt.Sprintf(`DELETE FROM modules WHERE address = %s AND name = %s`, del[0], del[1])
	if _, err := tx.ExecContext(ctx, deleteQuery, id.Address[:], string(id.Name)); err != nil {
		return fmt.Errorf("modstore: put %s: %w", id, err)
	}

	ins := s.placeholders(3)
	insertQuery := fmt.Sprintf(`INSERT INTO modules (address, name, bytes) VALUES (%s, %s, %s)`, ins[0], ins[1], ins[2])
	if _, err := tx.ExecContext(ctx, insertQuery, id.Address[:], string(id.Name), raw); err != nil {
		return fmt.Errorf("modstore: put %s: %w", id, err)
	}
	return tx.Commit()
}

// Dependencies loads and decodes every module named in ids, in the order
// given. A missing id is not an error here — an absent dependency is
// exactly what link.VerifyModule's MISSING_DEPENDENCY status code exists to
// report, so Dependencies simply omits it from the result.
func (s *Store) Dependencies(ctx context.Context, ids []bytecode.ModuleId) ([]*bytecode.CompiledModule, error) {
	ph := s.placeholders(2)
	query := fmt.Sprintf(`SELECT bytes FROM modules WHERE address = %s AND name = %s`, ph[0], ph[1])

	out := make([]*bytecode.CompiledModule, 0, len(ids))
	for _, id := range ids {
		row := s.db.QueryRowContext(ctx, query, id.Address[:], string(id.Name))

		var raw []byte
		if err := row.Scan(&raw); err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return nil, fmt.Errorf("modstore: load %s: %w", id, err)
		}

		module, err := s.decoder(raw)
		if err != nil {
			return nil, fmt.Errorf("modstore: decode %s: %w", id, err)
		}
		out = append(out, module)
	}
	return out, nil
}
