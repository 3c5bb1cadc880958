package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a chain or active pointer does not exist.
var ErrNotFound = errors.New("not found")

// #region chain-record
// ChainRecord is the metadata of one stored chain version. Versions of the
// same name form a parent chain; active_chain points at the current one.
type ChainRecord struct {
	ChainID   string
	ParentID  string
	Name      string
	Domain    string
	Order     int
	Precision int
	CreatedAt time.Time
	StatsJSON string
	Rows      int // transitions stored, filled by reads
}
// #endregion chain-record
