package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dsxlab/analytics-extension/internal/neural"
	"github.com/dsxlab/analytics-extension/internal/pipeline"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func writePipeline(t *testing.T, path string, p *pipeline.Pipeline) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer f.Close()
	if err := p.Encode(f); err != nil {
		t.Fatalf("encoding pipeline: %v", err)
	}
}

func writeNetwork(t *testing.T, path string, n *neural.Network) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer f.Close()
	if err := n.Encode(f); err != nil {
		t.Fatalf("encoding network: %v", err)
	}
}

func scoringDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writePipeline(t, filepath.Join(dir, "churn-v2.gob"), &pipeline.Pipeline{
		Estimator: &pipeline.LogisticRegression{W: []float64{1, -1}, B: 0},
	})
	writePipeline(t, filepath.Join(dir, "churn-prep.gob"), &pipeline.Pipeline{
		Steps: []pipeline.Step{
			&pipeline.OrdinalEncoder{Column: "plan", Categories: []string{"basic", "premium"}},
		},
	})
	writeFile(t, filepath.Join(dir, "churn-v2.yaml"), `
path: churn-v2.gob
type: Pipeline
preprocessor: churn-prep.gob
features:
  plan: str
  tenure: float
`)

	writeNetwork(t, filepath.Join(dir, "scorer-nn.gob"), &neural.Network{
		Layers: []neural.Layer{
			{Weights: [][]float64{{1, 1}}, Biases: []float64{0}, Activation: "sigmoid"},
		},
	})
	writeFile(t, filepath.Join(dir, "scorer-nn.yaml"), `
path: scorer-nn.gob
type: neural
features:
  x1: float
  x2: float
`)
	return dir
}

func TestLoadClassicalWithPreprocessor(t *testing.T) {
	reg := New(scoringDir(t))
	loaded, err := reg.Load("churn-v2")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Backend != "classical" {
		t.Errorf("backend = %q, want classical", loaded.Backend)
	}
	if loaded.Prep == nil {
		t.Fatal("preprocessor should be loaded")
	}

	// Feature order must follow the descriptor exactly
	if len(loaded.Schema) != 2 || loaded.Schema[0].Name != "plan" || loaded.Schema[1].Name != "tenure" {
		t.Fatalf("schema out of order: %+v", loaded.Schema)
	}
	if loaded.Schema[0].Type != "str" || loaded.Schema[0].Role != "feature" {
		t.Errorf("unexpected first feature: %+v", loaded.Schema[0])
	}

	m := &pipeline.Matrix{Cols: []pipeline.Column{
		{Name: "plan", Cats: []string{"premium"}},
		{Name: "tenure", Nums: []float64{0.5}},
	}}
	m, err = loaded.Prep.Transform(m)
	if err != nil {
		t.Fatalf("preprocessor failed: %v", err)
	}
	out, err := loaded.Model.Invoke("predict", m)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	// z = 1*1 + (-1)*0.5 = 0.5 > 0 -> class 1
	if out[0][0] != 1 {
		t.Errorf("predict = %v, want 1", out[0][0])
	}
}

func TestLoadNeural(t *testing.T) {
	reg := New(scoringDir(t))
	loaded, err := reg.Load("scorer-nn")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Backend != "neural" {
		t.Errorf("backend = %q, want neural", loaded.Backend)
	}
	if loaded.Prep != nil {
		t.Error("no preprocessor was declared")
	}
}

func TestLoadTwiceYieldsDistinctEqualHandles(t *testing.T) {
	reg := New(scoringDir(t))
	a, err := reg.Load("scorer-nn")
	if err != nil {
		t.Fatalf("first Load failed: %v", err)
	}
	b, err := reg.Load("scorer-nn")
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if a.Model == b.Model {
		t.Fatal("loads must not share handles")
	}
	m := &pipeline.Matrix{Cols: []pipeline.Column{
		{Name: "x1", Nums: []float64{0.3}},
		{Name: "x2", Nums: []float64{0.7}},
	}}
	ra, _ := a.Model.Invoke("predict", m)
	rb, _ := b.Model.Invoke("predict", m)
	if ra[0][0] != rb[0][0] {
		t.Errorf("handles disagree: %v vs %v", ra[0][0], rb[0][0])
	}
}

func TestLoadMissingDescriptor(t *testing.T) {
	reg := New(t.TempDir())
	_, err := reg.Load("nope")
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

func TestLoadUnsupportedBackend(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "weird.yaml"), `
path: weird.bin
type: xgboost
features:
  a: float
`)
	_, err := New(dir).Load("weird")
	if !errors.Is(err, ErrUnsupportedBackend) {
		t.Fatalf("expected ErrUnsupportedBackend, got %v", err)
	}
}

func TestLoadUnknownFeatureType(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.yaml"), `
path: bad.gob
type: pipeline
features:
  a: decimal
`)
	if _, err := New(dir).Load("bad"); err == nil {
		t.Fatal("unknown feature type should fail the load")
	}
}

func TestList(t *testing.T) {
	reg := New(scoringDir(t))
	infos, err := reg.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 models, got %d", len(infos))
	}
	if infos[0].Name != "churn-v2" || infos[1].Name != "scorer-nn" {
		t.Errorf("catalog out of order: %+v", infos)
	}
	if infos[0].Features != 2 {
		t.Errorf("churn-v2 features = %d, want 2", infos[0].Features)
	}
}
