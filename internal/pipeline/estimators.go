package pipeline

import (
	"fmt"
	"math"
)

// LinearRegression is a fitted linear model: y = X*W + B.
type LinearRegression struct {
	W []float64
	B float64
}

func (m *LinearRegression) Predict(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != len(m.W) {
			return nil, fmt.Errorf("linear model expects %d features, got %d", len(m.W), len(row))
		}
		sum := m.B
		for j, v := range row {
			sum += m.W[j] * v
		}
		out[i] = []float64{sum}
	}
	return out, nil
}

func (m *LinearRegression) PredictProba(X [][]float64) ([][]float64, error) {
	return nil, fmt.Errorf("linear regression does not support predict_proba")
}

// LogisticRegression is a fitted binary classifier. Predict returns the
// 0/1 class; PredictProba returns [p(0), p(1)] per row.
type LogisticRegression struct {
	W         []float64
	B         float64
	Threshold float64 // 0 means 0.5
}

func (m *LogisticRegression) proba(row []float64) (float64, error) {
	if len(row) != len(m.W) {
		return 0, fmt.Errorf("logistic model expects %d features, got %d", len(m.W), len(row))
	}
	sum := m.B
	for j, v := range row {
		sum += m.W[j] * v
	}
	return 1.0 / (1.0 + math.Exp(-sum)), nil
}

func (m *LogisticRegression) Predict(X [][]float64) ([][]float64, error) {
	threshold := m.Threshold
	if threshold == 0 {
		threshold = 0.5
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		p, err := m.proba(row)
		if err != nil {
			return nil, err
		}
		label := 0.0
		if p >= threshold {
			label = 1.0
		}
		out[i] = []float64{label}
	}
	return out, nil
}

func (m *LogisticRegression) PredictProba(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		p, err := m.proba(row)
		if err != nil {
			return nil, err
		}
		out[i] = []float64{1 - p, p}
	}
	return out, nil
}
