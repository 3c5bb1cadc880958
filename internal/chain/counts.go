package chain

import (
	"cmp"
	"slices"
)

// #region counts

// Counts is the transition count table: window -> next symbol -> count.
// Rows are created lazily on the first Add, so no stored row is empty.
type Counts[T cmp.Ordered] struct {
	order int
	rows  map[Key[T]]map[Symbol[T]]int
}

// NewCounts returns an empty table for windows of the given order.
func NewCounts[T cmp.Ordered](order int) *Counts[T] {
	return &Counts[T]{order: order, rows: make(map[Key[T]]map[Symbol[T]]int)}
}

func (c *Counts[T]) Order() int { return c.order }

// Len returns the number of distinct windows.
func (c *Counts[T]) Len() int { return len(c.rows) }

// Clone returns a deep copy of the table.
func (c *Counts[T]) Clone() *Counts[T] {
	out := &Counts[T]{order: c.order, rows: make(map[Key[T]]map[Symbol[T]]int, len(c.rows))}
	for k, row := range c.rows {
		cp := make(map[Symbol[T]]int, len(row))
		for s, n := range row {
			cp[s] = n
		}
		out.rows[k] = cp
	}
	return out
}

// Add records one observation of next following key.
func (c *Counts[T]) Add(key Key[T], next Symbol[T]) {
	row, ok := c.rows[key]
	if !ok {
		row = make(map[Symbol[T]]int)
		c.rows[key] = row
	}
	row[next]++
}

// Set stores an explicit count. Non-positive counts are ignored.
func (c *Counts[T]) Set(key Key[T], next Symbol[T], n int) {
	if n <= 0 {
		return
	}
	row, ok := c.rows[key]
	if !ok {
		row = make(map[Symbol[T]]int)
		c.rows[key] = row
	}
	row[next] = n
}

// Count returns the observations of next after key.
func (c *Counts[T]) Count(key Key[T], next Symbol[T]) int {
	return c.rows[key][next]
}

// Total returns the sum of all counts in key's row.
func (c *Counts[T]) Total(key Key[T]) int {
	total := 0
	for _, n := range c.rows[key] {
		total += n
	}
	return total
}

// Keys returns all windows in ascending order.
func (c *Counts[T]) Keys() []Key[T] {
	keys := make([]Key[T], 0, len(c.rows))
	for k := range c.rows {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, Key[T].Compare)
	return keys
}

// Next returns the symbols observed after key in ascending order.
func (c *Counts[T]) Next(key Key[T]) []Symbol[T] {
	row := c.rows[key]
	out := make([]Symbol[T], 0, len(row))
	for s := range row {
		out = append(out, s)
	}
	slices.SortFunc(out, Symbol[T].Compare)
	return out
}

// Columns returns every next symbol observed anywhere, ascending.
func (c *Counts[T]) Columns() []Symbol[T] {
	seen := make(map[Symbol[T]]struct{})
	for _, row := range c.rows {
		for s := range row {
			seen[s] = struct{}{}
		}
	}
	out := make([]Symbol[T], 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	slices.SortFunc(out, Symbol[T].Compare)
	return out
}

// #endregion counts
