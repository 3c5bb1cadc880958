package logging

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// #region log-run
// LogRun writes a production run to the run_log table and returns its id.
func LogRun(db *sql.DB, entry RunEntry) (int64, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	res, err := db.Exec(
		`INSERT INTO run_log (chain_id, domain, rand_seed, seed_text, config_json, output_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ChainID,
		entry.Domain,
		entry.RandSeed,
		nullIfEmpty(entry.SeedText),
		entry.ConfigJSON,
		entry.OutputJSON,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("log run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("log run id: %w", err)
	}
	return id, nil
}

// NewRunEntry marshals cfg and outputs into an entry ready for LogRun.
func NewRunEntry(chainID, domain string, randSeed int64, seedText string, cfg RunConfig, outputs []string) (RunEntry, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return RunEntry{}, fmt.Errorf("marshal run config: %w", err)
	}
	if outputs == nil {
		outputs = []string{}
	}
	outJSON, err := json.Marshal(outputs)
	if err != nil {
		return RunEntry{}, fmt.Errorf("marshal outputs: %w", err)
	}
	return RunEntry{
		ChainID:    chainID,
		Domain:     domain,
		RandSeed:   randSeed,
		SeedText:   seedText,
		ConfigJSON: string(cfgJSON),
		OutputJSON: string(outJSON),
	}, nil
}
// #endregion log-run

// #region read-runs
const selectRun = `SELECT id, chain_id, domain, rand_seed, seed_text, config_json, output_json, created_at FROM run_log`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunEntry, error) {
	var e RunEntry
	var seedText sql.NullString
	var createdStr string
	if err := row.Scan(&e.ID, &e.ChainID, &e.Domain, &e.RandSeed, &seedText, &e.ConfigJSON, &e.OutputJSON, &createdStr); err != nil {
		return RunEntry{}, err
	}
	e.SeedText = seedText.String
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return e, nil
}

// GetRun reads one logged run.
func GetRun(db *sql.DB, id int64) (RunEntry, error) {
	e, err := scanRun(db.QueryRow(selectRun+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return RunEntry{}, fmt.Errorf("get run %d: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return RunEntry{}, fmt.Errorf("get run %d: %w", id, err)
	}
	return e, nil
}

// ListRuns returns up to limit runs, newest first. An empty chainID lists
// runs of every chain.
func ListRuns(db *sql.DB, chainID string, limit int) ([]RunEntry, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if chainID == "" {
		rows, err = db.Query(selectRun+` ORDER BY id DESC LIMIT ?`, limit)
	} else {
		rows, err = db.Query(selectRun+` WHERE chain_id = ? ORDER BY id DESC LIMIT ?`, chainID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunEntry
	for rows.Next() {
		e, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Decode unmarshals the stored config and outputs of e.
func (e RunEntry) Decode() (RunConfig, []string, error) {
	var cfg RunConfig
	if err := json.Unmarshal([]byte(e.ConfigJSON), &cfg); err != nil {
		return RunConfig{}, nil, fmt.Errorf("decode run %d config: %w", e.ID, err)
	}
	var outputs []string
	if err := json.Unmarshal([]byte(e.OutputJSON), &outputs); err != nil {
		return RunConfig{}, nil, fmt.Errorf("decode run %d outputs: %w", e.ID, err)
	}
	return cfg, outputs, nil
}
// #endregion read-runs

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
