package chain

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes a chain's shape.
type Stats struct {
	Order       int     `json:"order" yaml:"order"`
	Keys        int     `json:"keys" yaml:"keys"`
	InitialKeys int     `json:"initial_keys" yaml:"initial_keys"`
	Columns     int     `json:"columns" yaml:"columns"`
	Transitions int     `json:"transitions" yaml:"transitions"`
	MeanEntropy float64 `json:"mean_entropy_bits" yaml:"mean_entropy_bits"`
	MaxEntropy  float64 `json:"max_entropy_bits" yaml:"max_entropy_bits"`
	MaxRowError float64 `json:"max_row_error" yaml:"max_row_error"`
}

// Stats computes row entropy in bits and the largest deviation of a row
// sum from 1.
func (c *Chain[T]) Stats() Stats {
	s := Stats{
		Order:       c.order,
		Keys:        len(c.rows),
		InitialKeys: len(c.initial),
		Columns:     len(c.Columns()),
	}
	if len(c.rows) == 0 {
		return s
	}
	entropies := make([]float64, 0, len(c.rows))
	for _, k := range c.keys {
		p := c.rows[k].Probs()
		s.Transitions += len(p)
		entropies = append(entropies, stat.Entropy(p)/math.Ln2)
		if e := math.Abs(floats.Sum(p) - 1); e > s.MaxRowError {
			s.MaxRowError = e
		}
	}
	s.MeanEntropy = stat.Mean(entropies, nil)
	s.MaxEntropy = floats.Max(entropies)
	return s
}
