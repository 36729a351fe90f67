package registry

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sensefold/sensefold/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS semantic_constants (
	constant_id     TEXT PRIMARY KEY,
	canonical_label TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	domains         TEXT NOT NULL DEFAULT '[]',
	status          TEXT NOT NULL,
	created_from    TEXT NOT NULL DEFAULT '[]',
	superseded_by   TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMP NOT NULL,
	updated_at      TIMESTAMP NOT NULL
)`

// SQLiteStore keeps the registry in a single SQLite table. The upsert is
// one INSERT ... ON CONFLICT statement, so a record is written atomically.
type SQLiteStore struct {
	conn *sql.DB
}

// OpenSQLiteStore opens (and if needed initializes) a SQLite registry.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open registry db: %w", err)
	}
	if _, err := conn.Exec(sqliteSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("init registry schema: %w", err)
	}
	return &SQLiteStore{conn: conn}, nil
}

// Load reads the whole collection.
func (s *SQLiteStore) Load() (map[string]*model.SemanticConstant, error) {
	rows, err := s.conn.Query(`SELECT constant_id, canonical_label, description, domains,
		status, created_from, superseded_by, created_at, updated_at
		FROM semantic_constants`)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	defer rows.Close()

	constants := make(map[string]*model.SemanticConstant)
	for rows.Next() {
		var c model.SemanticConstant
		var domains, createdFrom, status string
		if err := rows.Scan(&c.ConstantID, &c.CanonicalLabel, &c.Description, &domains,
			&status, &createdFrom, &c.SupersededBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan registry row: %w", err)
		}
		c.Status = model.ConstantStatus(status)
		if err := json.Unmarshal([]byte(domains), &c.Domains); err != nil {
			return nil, fmt.Errorf("decode domains for %s: %w", c.ConstantID, err)
		}
		if err := json.Unmarshal([]byte(createdFrom), &c.CreatedFrom); err != nil {
			return nil, fmt.Errorf("decode created_from for %s: %w", c.ConstantID, err)
		}
		constants[c.ConstantID] = &c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	return constants, nil
}

// Upsert inserts or replaces one constant.
func (s *SQLiteStore) Upsert(c *model.SemanticConstant) error {
	domains, err := json.Marshal(c.Domains)
	if err != nil {
		return fmt.Errorf("encode domains: %w", err)
	}
	createdFrom, err := json.Marshal(c.CreatedFrom)
	if err != nil {
		return fmt.Errorf("encode created_from: %w", err)
	}

	_, err = s.conn.Exec(`INSERT INTO semantic_constants
		(constant_id, canonical_label, description, domains, status, created_from, superseded_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(constant_id) DO UPDATE SET
			canonical_label = excluded.canonical_label,
			description     = excluded.description,
			domains         = excluded.domains,
			status          = excluded.status,
			created_from    = excluded.created_from,
			superseded_by   = excluded.superseded_by,
			updated_at      = excluded.updated_at`,
		c.ConstantID, c.CanonicalLabel, c.Description, string(domains),
		string(c.Status), string(createdFrom), c.SupersededBy, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert constant %s: %w", c.ConstantID, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
