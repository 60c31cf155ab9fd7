package pipeline

import (
	"bytes"
	"math"
	"reflect"
	"testing"
)

func sampleMatrix() *Matrix {
	return &Matrix{Cols: []Column{
		{Name: "age", Nums: []float64{30, 50}},
		{Name: "department", Cats: []string{"sales", "engineering"}},
	}}
}

func TestOneHotEncoder(t *testing.T) {
	enc := &OneHotEncoder{Column: "department", Categories: []string{"engineering", "sales"}}
	out, err := enc.Transform(sampleMatrix())
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	X, err := out.Numeric()
	if err != nil {
		t.Fatalf("Numeric failed: %v", err)
	}
	want := [][]float64{{30, 0, 1}, {50, 1, 0}}
	if !reflect.DeepEqual(X, want) {
		t.Errorf("got %v, want %v", X, want)
	}
}

func TestOrdinalEncoderUnseenCategory(t *testing.T) {
	enc := &OrdinalEncoder{Column: "department", Categories: []string{"engineering"}}
	out, err := enc.Transform(sampleMatrix())
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	col := out.Cols[1]
	if !math.IsNaN(col.Nums[0]) {
		t.Errorf("unseen category should map to NaN, got %v", col.Nums[0])
	}
	if col.Nums[1] != 0 {
		t.Errorf("engineering should map to 0, got %v", col.Nums[1])
	}
}

func TestNumericRejectsCategorical(t *testing.T) {
	if _, err := sampleMatrix().Numeric(); err == nil {
		t.Fatal("Numeric should fail while a categorical column remains")
	}
}

func TestPipelineInvokeMethods(t *testing.T) {
	p := &Pipeline{
		Steps: []Step{
			&OrdinalEncoder{Column: "department", Categories: []string{"sales", "engineering"}},
			&StandardScaler{Mean: map[string]float64{"age": 40}, Std: map[string]float64{"age": 10}},
		},
		Estimator: &LogisticRegression{W: []float64{1.0, 0.5}, B: 0},
	}

	out, err := p.Invoke("predict", sampleMatrix())
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	// row 0: age scaled to -1, sales -> 0; z=-1, p<0.5 -> class 0
	// row 1: age scaled to +1, engineering -> 1; z=1.5, p>0.5 -> class 1
	if out[0][0] != 0 || out[1][0] != 1 {
		t.Errorf("predict = %v", out)
	}

	proba, err := p.Invoke("predict_proba", sampleMatrix())
	if err != nil {
		t.Fatalf("predict_proba failed: %v", err)
	}
	if len(proba[0]) != 2 {
		t.Fatalf("predict_proba should return two columns, got %d", len(proba[0]))
	}
	if diff := math.Abs(proba[0][0] + proba[0][1] - 1); diff > 1e-12 {
		t.Errorf("probabilities should sum to 1, off by %v", diff)
	}

	if _, err := p.Invoke("decision_function", sampleMatrix()); err == nil {
		t.Error("unknown method should fail")
	}
}

func TestPipelineGobRoundTrip(t *testing.T) {
	p := &Pipeline{
		Steps: []Step{
			&OneHotEncoder{Column: "department", Categories: []string{"sales", "engineering"}},
			&MinMaxScaler{Min: map[string]float64{"age": 20}, Max: map[string]float64{"age": 60}},
		},
		Estimator: &LinearRegression{W: []float64{2, 1, -1}, B: 0.5},
	}

	var buf bytes.Buffer
	if err := p.Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	loaded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	want, err := p.Invoke("predict", sampleMatrix())
	if err != nil {
		t.Fatalf("original predict failed: %v", err)
	}
	got, err := loaded.Invoke("predict", sampleMatrix())
	if err != nil {
		t.Fatalf("loaded predict failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round-tripped pipeline predicts %v, original %v", got, want)
	}
}

func TestEncodeEstimatorOnlyPipeline(t *testing.T) {
	// Minimal artifact: no steps, one estimator. Encode must terminate
	// and yield a decodable stream.
	p := &Pipeline{Estimator: &LinearRegression{W: []float64{1, 1}}}

	var buf bytes.Buffer
	if err := p.Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	loaded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	out, err := loaded.Invoke("predict", &Matrix{Cols: []Column{
		{Name: "a", Nums: []float64{2}},
		{Name: "b", Nums: []float64{3}},
	}})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if out[0][0] != 5 {
		t.Errorf("predict = %v, want 5", out[0][0])
	}
}

func TestPreprocessorPipelineHasNoEstimator(t *testing.T) {
	p := &Pipeline{Steps: []Step{
		&OrdinalEncoder{Column: "department", Categories: []string{"sales", "engineering"}},
	}}
	if _, err := p.Invoke("predict", sampleMatrix()); err == nil {
		t.Error("invoking an estimator-less pipeline should fail")
	}
	out, err := p.Transform(sampleMatrix())
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if _, err := out.Numeric(); err != nil {
		t.Errorf("transformed matrix should be numeric: %v", err)
	}
}
