package logging

import "time"

// #region run-entry
// RunEntry is a single row in the run_log table.
type RunEntry struct {
	ID         int64
	ChainID    string
	Domain     string
	RandSeed   int64
	SeedText   string // explicit seed key, empty when drawn
	ConfigJSON string
	OutputJSON string
	CreatedAt  time.Time
}
// #endregion run-entry

// #region run-config
// RunConfig captures the production knobs active for one run. Serialized as
// JSON into run_log.config_json so the run can be reproduced.
type RunConfig struct {
	Order            int      `json:"order"`
	MaxLength        int      `json:"max_length"`
	MinLength        int      `json:"min_length"`
	Count            int      `json:"count"`
	RecycleThreshold int      `json:"recycle_threshold"`
	InitialOnly      bool     `json:"initial_only"`
	MaxAttempts      int      `json:"max_attempts"`
	Unique           bool     `json:"unique,omitempty"`
	PostProcess      string   `json:"post_process,omitempty"`
	Parts            []string `json:"parts,omitempty"`
	Transpose        int      `json:"transpose,omitempty"`
}
// #endregion run-config
