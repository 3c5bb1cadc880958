package persist

import (
	"cmp"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/markov/internal/chain"
	"github.com/danielpatrickdp/markov/internal/errs"
	"github.com/danielpatrickdp/markov/internal/tokens"
)

// keyHeader labels the key column of the tabular format.
const keyHeader = "KEY"

// #region table

// table is the string-encoded form shared by every format. keys and cols
// keep the chain's ascending order; cells are sparse.
type table struct {
	keys  []string
	cols  []string
	cells map[string]map[string]float64
}

func chainTable[T cmp.Ordered](c *chain.Chain[T], codec tokens.Codec[T]) table {
	t := table{cells: make(map[string]map[string]float64, c.Len())}
	for _, s := range c.Columns() {
		t.cols = append(t.cols, codec.FormatSymbol(s))
	}
	for _, k := range c.Keys() {
		ks := codec.FormatKey(k)
		d, _ := c.Probabilities(k)
		row := make(map[string]float64, len(d))
		for _, o := range d {
			row[codec.FormatSymbol(o.Symbol)] = o.P
		}
		t.keys = append(t.keys, ks)
		t.cells[ks] = row
	}
	return t
}

func countTable[T cmp.Ordered](counts *chain.Counts[T], codec tokens.Codec[T]) table {
	t := table{cells: make(map[string]map[string]float64, counts.Len())}
	for _, s := range counts.Columns() {
		t.cols = append(t.cols, codec.FormatSymbol(s))
	}
	for _, k := range counts.Keys() {
		ks := codec.FormatKey(k)
		row := make(map[string]float64)
		for _, s := range counts.Next(k) {
			row[codec.FormatSymbol(s)] = float64(counts.Count(k, s))
		}
		t.keys = append(t.keys, ks)
		t.cells[ks] = row
	}
	return t
}

// #endregion table

// #region encode

func formatCell(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (t table) write(w io.Writer, f Format) error {
	switch f {
	case CSV:
		return t.writeCSV(w)
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(t.cells)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(t.cells); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errs.Format("encode", fmt.Errorf("%w: %q", errs.ErrUnsupportedFormat, f))
	}
}

func (t table) writeCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{keyHeader}, t.cols...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, k := range t.keys {
		rec := make([]string, 0, len(header))
		rec = append(rec, k)
		for _, col := range t.cols {
			rec = append(rec, formatCell(t.cells[k][col]))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// #endregion encode

// #region decode

// readCells decodes any format into key -> next -> value.
func readCells(r io.Reader, f Format) (map[string]map[string]float64, error) {
	switch f {
	case CSV:
		return readCSV(r)
	case JSON:
		var cells map[string]map[string]float64
		if err := json.NewDecoder(r).Decode(&cells); err != nil {
			return nil, errs.Format("decode json", fmt.Errorf("%w: %w", errs.ErrMalformed, err))
		}
		return cells, nil
	case YAML:
		var cells map[string]map[string]float64
		if err := yaml.NewDecoder(r).Decode(&cells); err != nil && !errors.Is(err, io.EOF) {
			return nil, errs.Format("decode yaml", fmt.Errorf("%w: %w", errs.ErrMalformed, err))
		}
		return cells, nil
	default:
		return nil, errs.Format("decode", fmt.Errorf("%w: %q", errs.ErrUnsupportedFormat, f))
	}
}

func readCSV(r io.Reader) (map[string]map[string]float64, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errs.Format("decode csv", fmt.Errorf("%w: %w", errs.ErrMalformed, err))
	}
	if len(records) == 0 {
		return nil, errs.Format("decode csv", fmt.Errorf("%w: missing header", errs.ErrMalformed))
	}
	header := records[0]
	if header[0] != keyHeader {
		return nil, errs.Format("decode csv", fmt.Errorf("%w: first column is %q, want %q", errs.ErrMalformed, header[0], keyHeader))
	}
	cells := make(map[string]map[string]float64, len(records)-1)
	for i, rec := range records[1:] {
		key := rec[0]
		if _, dup := cells[key]; dup {
			return nil, errs.Format("decode csv", fmt.Errorf("%w: duplicate key %q on row %d", errs.ErrMalformed, key, i+2))
		}
		row := make(map[string]float64)
		for j, cell := range rec[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, errs.Format("decode csv", fmt.Errorf("%w: row %d column %q: %w", errs.ErrMalformed, i+2, header[j+1], err))
			}
			if v != 0 {
				row[header[j+1]] = v
			}
		}
		cells[key] = row
	}
	return cells, nil
}

// decodeChain rebuilds a chain from decoded cells. An order of 0 is
// inferred from the first key.
func decodeChain[T cmp.Ordered](cells map[string]map[string]float64, order, precision int, codec tokens.Codec[T]) (*chain.Chain[T], error) {
	if order == 0 {
		order = inferOrder(cells, codec)
	}
	rows := make(map[chain.Key[T]]map[chain.Symbol[T]]float64, len(cells))
	for ks, row := range cells {
		k, err := codec.ParseKey(ks, order)
		if err != nil {
			return nil, errs.Format("decode chain", fmt.Errorf("%w: %w", errs.ErrMalformed, err))
		}
		out := make(map[chain.Symbol[T]]float64, len(row))
		for ns, p := range row {
			if math.IsNaN(p) || p < 0 {
				return nil, errs.Format("decode chain", fmt.Errorf("%w: key %q next %q has probability %v", errs.ErrMalformed, ks, ns, p))
			}
			s, err := codec.ParseSymbol(ns)
			if err != nil {
				return nil, errs.Format("decode chain", fmt.Errorf("%w: %w", errs.ErrMalformed, err))
			}
			if s.IsInitial() {
				return nil, errs.Format("decode chain", fmt.Errorf("%w: key %q has the initial glyph as a next symbol", errs.ErrMalformed, ks))
			}
			out[s] = p
		}
		rows[k] = out
	}
	return chain.FromProbabilities(order, precision, rows)
}

// inferPrecision returns the most decimal places any cell needs, between 1
// and 15. Cells that round to zero places count as 1.
func inferPrecision(cells map[string]map[string]float64) int {
	places := 1
	for _, row := range cells {
		for _, p := range row {
			for d := places; d <= 15; d++ {
				scale := math.Pow10(d)
				if math.Round(p*scale)/scale == p {
					places = d
					break
				}
				if d == 15 {
					places = 15
				}
			}
		}
	}
	return places
}

func inferOrder[T cmp.Ordered](cells map[string]map[string]float64, codec tokens.Codec[T]) int {
	for ks := range cells {
		if codec.Sep == "" {
			return len([]rune(ks))
		}
		return strings.Count(ks, codec.Sep) + 1
	}
	return 1
}

// #endregion decode
