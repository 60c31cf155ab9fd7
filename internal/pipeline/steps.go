package pipeline

import (
	"fmt"
	"math"
)

// StandardScaler standardizes named numeric columns to the mean and
// standard deviation captured at fit time.
type StandardScaler struct {
	Mean map[string]float64
	Std  map[string]float64
}

func (s *StandardScaler) Transform(m *Matrix) (*Matrix, error) {
	out := &Matrix{Cols: make([]Column, len(m.Cols))}
	for j, c := range m.Cols {
		mean, ok := s.Mean[c.Name]
		if !ok || c.IsCategorical() {
			out.Cols[j] = c
			continue
		}
		std := s.Std[c.Name]
		if std == 0 {
			std = 1
		}
		nums := make([]float64, len(c.Nums))
		for i, v := range c.Nums {
			nums[i] = (v - mean) / std
		}
		out.Cols[j] = Column{Name: c.Name, Nums: nums}
	}
	return out, nil
}

// MinMaxScaler rescales named numeric columns to [0, 1] using the ranges
// captured at fit time.
type MinMaxScaler struct {
	Min map[string]float64
	Max map[string]float64
}

func (s *MinMaxScaler) Transform(m *Matrix) (*Matrix, error) {
	out := &Matrix{Cols: make([]Column, len(m.Cols))}
	for j, c := range m.Cols {
		lo, ok := s.Min[c.Name]
		if !ok || c.IsCategorical() {
			out.Cols[j] = c
			continue
		}
		span := s.Max[c.Name] - lo
		nums := make([]float64, len(c.Nums))
		for i, v := range c.Nums {
			if span != 0 {
				nums[i] = (v - lo) / span
			}
		}
		out.Cols[j] = Column{Name: c.Name, Nums: nums}
	}
	return out, nil
}

// OneHotEncoder replaces a categorical column with one indicator column per
// category seen at fit time. Unseen categories yield all-zero indicators.
type OneHotEncoder struct {
	Column     string
	Categories []string
}

func (e *OneHotEncoder) Transform(m *Matrix) (*Matrix, error) {
	out := &Matrix{}
	replaced := false
	for _, c := range m.Cols {
		if c.Name != e.Column {
			out.Cols = append(out.Cols, c)
			continue
		}
		if !c.IsCategorical() {
			return nil, fmt.Errorf("one-hot encoder expects categorical column %q", e.Column)
		}
		replaced = true
		index := make(map[string]int, len(e.Categories))
		for i, cat := range e.Categories {
			index[cat] = i
		}
		cols := make([]Column, len(e.Categories))
		for i, cat := range e.Categories {
			cols[i] = Column{Name: c.Name + "=" + cat, Nums: make([]float64, len(c.Cats))}
		}
		for row, v := range c.Cats {
			if i, ok := index[v]; ok {
				cols[i].Nums[row] = 1
			}
		}
		out.Cols = append(out.Cols, cols...)
	}
	if !replaced {
		return nil, fmt.Errorf("one-hot encoder: column %q not found", e.Column)
	}
	return out, nil
}

// OrdinalEncoder maps a categorical column to the category's index at fit
// time. Unseen categories map to NaN so downstream failures are loud.
type OrdinalEncoder struct {
	Column     string
	Categories []string
}

func (e *OrdinalEncoder) Transform(m *Matrix) (*Matrix, error) {
	out := &Matrix{Cols: make([]Column, len(m.Cols))}
	replaced := false
	for j, c := range m.Cols {
		if c.Name != e.Column {
			out.Cols[j] = c
			continue
		}
		if !c.IsCategorical() {
			return nil, fmt.Errorf("ordinal encoder expects categorical column %q", e.Column)
		}
		replaced = true
		index := make(map[string]int, len(e.Categories))
		for i, cat := range e.Categories {
			index[cat] = i
		}
		nums := make([]float64, len(c.Cats))
		for i, v := range c.Cats {
			if k, ok := index[v]; ok {
				nums[i] = float64(k)
			} else {
				nums[i] = math.NaN()
			}
		}
		out.Cols[j] = Column{Name: c.Name, Nums: nums}
	}
	if !replaced {
		return nil, fmt.Errorf("ordinal encoder: column %q not found", e.Column)
	}
	return out, nil
}
