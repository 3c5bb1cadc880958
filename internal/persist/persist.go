package persist

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/danielpatrickdp/markov/internal/chain"
	"github.com/danielpatrickdp/markov/internal/errs"
	"github.com/danielpatrickdp/markov/internal/tokens"
)

// #region encode-decode

// Encode writes c in format f.
func Encode[T cmp.Ordered](w io.Writer, f Format, c *chain.Chain[T], codec tokens.Codec[T]) error {
	return chainTable(c, codec).write(w, f)
}

// EncodeCounts writes a raw count table in format f.
func EncodeCounts[T cmp.Ordered](w io.Writer, f Format, counts *chain.Counts[T], codec tokens.Codec[T]) error {
	return countTable(counts, codec).write(w, f)
}

// Decode reads a chain of the given order and precision. An order of 0 is
// inferred from the keys; a precision of 0 from the decimal places of the
// cells.
func Decode[T cmp.Ordered](r io.Reader, f Format, order, precision int, codec tokens.Codec[T]) (*chain.Chain[T], error) {
	cells, err := readCells(r, f)
	if err != nil {
		return nil, err
	}
	if precision <= 0 {
		precision = inferPrecision(cells)
	}
	return decodeChain(cells, order, precision, codec)
}

// #endregion encode-decode

// #region files

// Save writes c to path in the format implied by the extension. The file
// is written to a temp sibling and renamed, so a failed save never leaves a
// partial chain behind.
func Save[T cmp.Ordered](path string, c *chain.Chain[T], codec tokens.Codec[T]) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	return writeAtomic(path, func(w io.Writer) error { return Encode(w, f, c, codec) })
}

// SaveCounts writes the raw count table to path.
func SaveCounts[T cmp.Ordered](path string, counts *chain.Counts[T], codec tokens.Codec[T]) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	return writeAtomic(path, func(w io.Writer) error { return EncodeCounts(w, f, counts, codec) })
}

// Load reads a chain file. Unsupported extensions and corrupt content are
// serialization format errors; a missing file is an input error.
func Load[T cmp.Ordered](path string, order, precision int, codec tokens.Codec[T]) (*chain.Chain[T], error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, errs.Input("load chain", err)
	}
	defer file.Close()
	c, err := Decode(file, f, order, precision, codec)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return c, nil
}

// CountsPath derives the counts file name that sits next to a chain file:
// "words.json" becomes "words_counts.json".
func CountsPath(chainPath string) string {
	ext := filepath.Ext(chainPath)
	return strings.TrimSuffix(chainPath, ext) + "_counts" + ext
}

func writeAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// #endregion files

// #region rows

// Row is one transition in format-boundary encoding, the unit the chain
// store persists.
type Row struct {
	Key         string
	Next        string
	Count       int
	Probability float64
}

// Rows flattens c into rows ordered by key then next symbol. Counts are
// filled in when c was built rather than rehydrated.
func Rows[T cmp.Ordered](c *chain.Chain[T], codec tokens.Codec[T]) []Row {
	counts := c.Counts()
	var rows []Row
	for _, k := range c.Keys() {
		d, _ := c.Probabilities(k)
		ks := codec.FormatKey(k)
		for _, o := range d {
			r := Row{Key: ks, Next: codec.FormatSymbol(o.Symbol), Probability: o.P}
			if counts != nil {
				r.Count = counts.Count(k, o.Symbol)
			}
			rows = append(rows, r)
		}
	}
	return rows
}

// FromRows rehydrates a chain from stored rows.
func FromRows[T cmp.Ordered](rows []Row, order, precision int, codec tokens.Codec[T]) (*chain.Chain[T], error) {
	cells := make(map[string]map[string]float64)
	for _, r := range rows {
		row, ok := cells[r.Key]
		if !ok {
			row = make(map[string]float64)
			cells[r.Key] = row
		}
		row[r.Next] = r.Probability
	}
	if precision <= 0 {
		precision = chain.DefaultPrecision
	}
	return decodeChain(cells, order, precision, codec)
}

// #endregion rows
