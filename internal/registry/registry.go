// Package registry resolves model names to loaded, invokable model handles.
// A model is described by a YAML side-car in the registry directory; its
// artifact (and optional preprocessor) is deserialized fresh on every load,
// so handles are call-scoped and never shared.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dsxlab/analytics-extension/internal/neural"
	"github.com/dsxlab/analytics-extension/internal/pipeline"
)

var (
	ErrModelNotFound      = errors.New("model descriptor not found")
	ErrUnsupportedBackend = errors.New("unsupported model backend")
)

// Invoker is the one capability every backend exposes to the executor.
type Invoker interface {
	Invoke(method string, m *pipeline.Matrix) ([][]float64, error)
}

// Loaded is a freshly loaded model handle with its feature schema.
type Loaded struct {
	Name    string
	Backend string // classical or neural, normalized
	Model   Invoker
	Prep    *pipeline.Pipeline // nil when the descriptor has no preprocessor
	Schema  Schema
}

// Info is one catalog entry for the listing surface.
type Info struct {
	Name     string    `json:"name"`
	Backend  string    `json:"backend"`
	Features int       `json:"features"`
	Modified time.Time `json:"modified"`
}

type Registry struct {
	dir string
}

func New(dir string) *Registry {
	return &Registry{dir: dir}
}

// Load reads <dir>/<name>.yaml and deserializes the model it names.
// Artifact paths in the descriptor resolve relative to the descriptor's
// directory; no process-global search path is touched.
func (r *Registry) Load(name string) (*Loaded, error) {
	descPath := filepath.Join(r.dir, name+".yaml")
	desc, err := readDescriptor(descPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: place %s.yaml with the model path, type and features under %s", ErrModelNotFound, name, r.dir)
		}
		return nil, err
	}

	backend, err := normalizeBackend(desc.Type)
	if err != nil {
		return nil, err
	}

	loaded := &Loaded{Name: name, Backend: backend, Schema: desc.Features}

	// Preprocessors are always classical-pipeline artifacts, whatever the
	// model backend is.
	if desc.Preprocessor != "" {
		prep, err := r.loadPipeline(desc.Preprocessor)
		if err != nil {
			return nil, fmt.Errorf("loading preprocessor for model %q: %w", name, err)
		}
		loaded.Prep = prep
	}

	switch backend {
	case "classical":
		model, err := r.loadPipeline(desc.Path)
		if err != nil {
			return nil, fmt.Errorf("loading model %q: %w", name, err)
		}
		loaded.Model = model
	case "neural":
		f, err := r.open(desc.Path)
		if err != nil {
			return nil, fmt.Errorf("loading model %q: %w", name, err)
		}
		defer f.Close()
		net, err := neural.Load(f)
		if err != nil {
			return nil, fmt.Errorf("loading model %q: %w", name, err)
		}
		loaded.Model = net
	}

	slog.Info("Model loaded", "model", name, "backend", backend, "features", len(desc.Features), "preprocessor", desc.Preprocessor != "")
	return loaded, nil
}

// List scans the registry directory for descriptors and returns the
// catalog sorted by model name.
func (r *Registry) List() ([]Info, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("reading model registry %s: %w", r.dir, err)
	}
	var out []Info
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".yaml")
		desc, err := readDescriptor(filepath.Join(r.dir, e.Name()))
		if err != nil {
			slog.Warn("Skipping unreadable descriptor", "file", e.Name(), "error", err)
			continue
		}
		backend, err := normalizeBackend(desc.Type)
		if err != nil {
			slog.Warn("Skipping descriptor with unsupported backend", "file", e.Name(), "type", desc.Type)
			continue
		}
		info := Info{Name: name, Backend: backend, Features: len(desc.Features)}
		if fi, err := e.Info(); err == nil {
			info.Modified = fi.ModTime()
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Registry) loadPipeline(artifact string) (*pipeline.Pipeline, error) {
	f, err := r.open(artifact)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return pipeline.Decode(f)
}

// open resolves an artifact path against the registry directory unless it
// is absolute already.
func (r *Registry) open(artifact string) (*os.File, error) {
	if !filepath.IsAbs(artifact) {
		artifact = filepath.Join(r.dir, artifact)
	}
	return os.Open(artifact)
}

func normalizeBackend(typ string) (string, error) {
	switch strings.ToLower(typ) {
	case "pipeline", "classical":
		return "classical", nil
	case "network", "neural":
		return "neural", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedBackend, typ)
	}
}
