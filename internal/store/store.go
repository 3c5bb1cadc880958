// Package store keeps versioned chains in SQLite so a trained chain can be
// reloaded and produce without retraining.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/markov/internal/persist"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS chains (
	chain_id         TEXT PRIMARY KEY,
	parent_id        TEXT,
	name             TEXT NOT NULL,
	domain           TEXT NOT NULL,
	chain_order      INTEGER NOT NULL,
	precision_places INTEGER NOT NULL,
	created_at       TEXT NOT NULL,
	stats_json       TEXT,
	FOREIGN KEY (parent_id) REFERENCES chains(chain_id)
);

CREATE INDEX IF NOT EXISTS idx_chains_name ON chains(name, created_at);

CREATE TABLE IF NOT EXISTS transitions (
	chain_id    TEXT NOT NULL,
	key_text    TEXT NOT NULL,
	next_text   TEXT NOT NULL,
	count       INTEGER NOT NULL DEFAULT 0,
	probability REAL NOT NULL,
	PRIMARY KEY (chain_id, key_text, next_text),
	FOREIGN KEY (chain_id) REFERENCES chains(chain_id)
);

CREATE TABLE IF NOT EXISTS active_chain (
	name     TEXT PRIMARY KEY,
	chain_id TEXT NOT NULL,
	FOREIGN KEY (chain_id) REFERENCES chains(chain_id)
);

CREATE TABLE IF NOT EXISTS run_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	chain_id    TEXT NOT NULL,
	domain      TEXT NOT NULL,
	rand_seed   INTEGER NOT NULL,
	seed_text   TEXT,
	config_json TEXT NOT NULL,
	output_json TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (chain_id) REFERENCES chains(chain_id)
);
`
// #endregion schema

// #region store-struct
// Store manages versioned chains in SQLite.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion db-accessor

// #region save-chain
// SaveChain stores a new version of rec.Name with its transitions and makes
// it active, all in one transaction. The previous active version of the
// same name becomes the parent. ChainID and CreatedAt are assigned here.
func (s *Store) SaveChain(rec ChainRecord, rows []persist.Row) (ChainRecord, error) {
	if rec.Name == "" {
		return ChainRecord{}, errors.New("save chain: empty name")
	}
	rec.ChainID = uuid.New().String()
	rec.CreatedAt = time.Now().UTC()
	rec.Rows = len(rows)

	tx, err := s.db.Begin()
	if err != nil {
		return ChainRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var parent sql.NullString
	err = tx.QueryRow(`SELECT chain_id FROM active_chain WHERE name = ?`, rec.Name).Scan(&parent)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return ChainRecord{}, fmt.Errorf("get parent: %w", err)
	}
	rec.ParentID = parent.String

	_, err = tx.Exec(
		`INSERT INTO chains (chain_id, parent_id, name, domain, chain_order, precision_places, created_at, stats_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ChainID, nullIfEmpty(rec.ParentID), rec.Name, rec.Domain, rec.Order, rec.Precision,
		rec.CreatedAt.Format(time.RFC3339Nano), nullIfEmpty(rec.StatsJSON),
	)
	if err != nil {
		return ChainRecord{}, fmt.Errorf("insert chain: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO transitions (chain_id, key_text, next_text, count, probability) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return ChainRecord{}, fmt.Errorf("prepare transitions: %w", err)
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.Exec(rec.ChainID, r.Key, r.Next, r.Count, r.Probability); err != nil {
			return ChainRecord{}, fmt.Errorf("insert transition %q -> %q: %w", r.Key, r.Next, err)
		}
	}

	_, err = tx.Exec(
		`INSERT INTO active_chain (name, chain_id) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET chain_id = excluded.chain_id`,
		rec.Name, rec.ChainID,
	)
	if err != nil {
		return ChainRecord{}, fmt.Errorf("set active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ChainRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}
// #endregion save-chain

// #region get-active
// GetActive reads the active version of name.
func (s *Store) GetActive(name string) (ChainRecord, error) {
	var id string
	err := s.db.QueryRow(`SELECT chain_id FROM active_chain WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ChainRecord{}, fmt.Errorf("get active %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return ChainRecord{}, fmt.Errorf("get active %s: %w", name, err)
	}
	return s.GetChain(id)
}
// #endregion get-active

// #region get-chain
const selectChain = `SELECT c.chain_id, c.parent_id, c.name, c.domain, c.chain_order, c.precision_places,
	c.created_at, c.stats_json, (SELECT COUNT(*) FROM transitions t WHERE t.chain_id = c.chain_id)
	FROM chains c`

type scanner interface {
	Scan(dest ...any) error
}

func scanChain(row scanner) (ChainRecord, error) {
	var rec ChainRecord
	var parentID, statsJSON sql.NullString
	var createdStr string
	if err := row.Scan(&rec.ChainID, &parentID, &rec.Name, &rec.Domain, &rec.Order, &rec.Precision,
		&createdStr, &statsJSON, &rec.Rows); err != nil {
		return ChainRecord{}, err
	}
	rec.ParentID = parentID.String
	rec.StatsJSON = statsJSON.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

// GetChain retrieves a chain version by ID.
func (s *Store) GetChain(id string) (ChainRecord, error) {
	rec, err := scanChain(s.db.QueryRow(selectChain+` WHERE c.chain_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ChainRecord{}, fmt.Errorf("get chain %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return ChainRecord{}, fmt.Errorf("get chain %s: %w", id, err)
	}
	return rec, nil
}
// #endregion get-chain

// #region load-rows
// LoadRows returns the transitions of a chain version ordered by key and
// next symbol text.
func (s *Store) LoadRows(chainID string) ([]persist.Row, error) {
	rows, err := s.db.Query(
		`SELECT key_text, next_text, count, probability FROM transitions
		 WHERE chain_id = ? ORDER BY key_text, next_text`, chainID,
	)
	if err != nil {
		return nil, fmt.Errorf("load rows: %w", err)
	}
	defer rows.Close()

	var out []persist.Row
	for rows.Next() {
		var r persist.Row
		if err := rows.Scan(&r.Key, &r.Next, &r.Count, &r.Probability); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
// #endregion load-rows

// #region activate
// Activate points name at an earlier version, the rollback path.
func (s *Store) Activate(name, chainID string) error {
	var owner string
	err := s.db.QueryRow(`SELECT name FROM chains WHERE chain_id = ?`, chainID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("activate %s: %w", chainID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check chain: %w", err)
	}
	if owner != name {
		return fmt.Errorf("activate: chain %s belongs to %q, not %q", chainID, owner, name)
	}

	_, err = s.db.Exec(
		`INSERT INTO active_chain (name, chain_id) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET chain_id = excluded.chain_id`,
		name, chainID,
	)
	if err != nil {
		return fmt.Errorf("activate: %w", err)
	}
	return nil
}
// #endregion activate

// #region list-chains
// ListChains returns the most recent chain versions across all names.
func (s *Store) ListChains(limit int) ([]ChainRecord, error) {
	rows, err := s.db.Query(selectChain+` ORDER BY c.created_at DESC, c.rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list chains: %w", err)
	}
	defer rows.Close()

	var records []ChainRecord
	for rows.Next() {
		rec, err := scanChain(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ActiveNames maps every chain name to its active chain ID.
func (s *Store) ActiveNames() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT name, chain_id FROM active_chain ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list active: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, id string
		if err := rows.Scan(&name, &id); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out[name] = id
	}
	return out, rows.Err()
}
// #endregion list-chains

// #region helpers
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
