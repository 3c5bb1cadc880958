// Package persist encodes chains and count tables at the format boundary:
// tabular CSV and nested JSON or YAML, keyed by the domain codec's string
// encoding of window keys.
package persist

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/danielpatrickdp/markov/internal/errs"
)

// Format is a persisted chain format.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	YAML Format = "yaml"
)

// Formats lists the supported formats.
func Formats() []Format { return []Format{CSV, JSON, YAML} }

// ParseFormat resolves a format name. "yml" is accepted for YAML.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", errs.Format("parse format", fmt.Errorf("%w: %q", errs.ErrUnsupportedFormat, name))
	}
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", errs.Format("format from path", fmt.Errorf("%w: %s has no extension", errs.ErrUnsupportedFormat, path))
	}
	return ParseFormat(ext)
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }
