// Package pipeline implements the classical model artifact: an ordered list
// of fitted transformer steps followed by an optional estimator, serialized
// with gob. Preprocessor artifacts are pipelines without an estimator.
package pipeline

import (
	"encoding/gob"
	"fmt"
	"io"
)

// Matrix is a named-column feature matrix. A column is either numeric or
// categorical; transformer steps rewrite categorical columns into numeric
// ones until an estimator can consume the matrix.
type Matrix struct {
	Cols []Column
}

type Column struct {
	Name string
	Nums []float64 // set for numeric columns
	Cats []string  // set for categorical columns
}

func (c Column) IsCategorical() bool { return c.Cats != nil }

func (m *Matrix) NumRows() int {
	if len(m.Cols) == 0 {
		return 0
	}
	if c := m.Cols[0]; c.IsCategorical() {
		return len(c.Cats)
	}
	return len(m.Cols[0].Nums)
}

// Numeric returns the row-major numeric matrix. Any categorical column left
// at this point means the pipeline is missing an encoder for it.
func (m *Matrix) Numeric() ([][]float64, error) {
	for _, c := range m.Cols {
		if c.IsCategorical() {
			return nil, fmt.Errorf("column %q is categorical and no encoder was applied", c.Name)
		}
	}
	rows := m.NumRows()
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		row := make([]float64, len(m.Cols))
		for j, c := range m.Cols {
			row[j] = c.Nums[i]
		}
		out[i] = row
	}
	return out, nil
}

// Step is a fitted transformation applied during inference.
type Step interface {
	Transform(m *Matrix) (*Matrix, error)
}

// Estimator produces predictions from a fully numeric matrix.
type Estimator interface {
	Predict(X [][]float64) ([][]float64, error)
	PredictProba(X [][]float64) ([][]float64, error)
}

// Pipeline chains fitted steps and a final estimator. Estimator is nil for
// pure preprocessing pipelines.
type Pipeline struct {
	Steps     []Step
	Estimator Estimator
}

// Transform runs all steps over the matrix.
func (p *Pipeline) Transform(m *Matrix) (*Matrix, error) {
	var err error
	for _, s := range p.Steps {
		if m, err = s.Transform(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Invoke dispatches a named prediction method over the transformed matrix.
func (p *Pipeline) Invoke(method string, m *Matrix) ([][]float64, error) {
	if p.Estimator == nil {
		return nil, fmt.Errorf("pipeline has no estimator, cannot call %q", method)
	}
	m, err := p.Transform(m)
	if err != nil {
		return nil, err
	}
	X, err := m.Numeric()
	if err != nil {
		return nil, err
	}
	switch method {
	case "predict":
		return p.Estimator.Predict(X)
	case "predict_proba":
		return p.Estimator.PredictProba(X)
	default:
		return nil, fmt.Errorf("estimator does not support method %q", method)
	}
}

// Encode writes the pipeline as a gob artifact.
func (p *Pipeline) Encode(w io.Writer) error {
	return gob.NewEncoder(w).Encode(p)
}

// Decode reads a gob pipeline artifact.
func Decode(r io.Reader) (*Pipeline, error) {
	var p Pipeline
	if err := gob.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding pipeline artifact: %w", err)
	}
	return &p, nil
}

func init() {
	// Concrete step and estimator types crossing the gob boundary.
	gob.Register(&StandardScaler{})
	gob.Register(&MinMaxScaler{})
	gob.Register(&OneHotEncoder{})
	gob.Register(&OrdinalEncoder{})
	gob.Register(&LinearRegression{})
	gob.Register(&LogisticRegression{})
}
