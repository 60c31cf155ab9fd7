// Package infer executes a loaded model over a decoded request table:
// unpacking delimiter-packed feature strings, casting them to the declared
// feature types, applying the optional preprocessor and reshaping the
// model output into a response aligned to the caller's keys.
package infer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dsxlab/analytics-extension/internal/pipeline"
	"github.com/dsxlab/analytics-extension/internal/registry"
	"github.com/dsxlab/analytics-extension/internal/table"
)

const (
	// FeatureColumn holds the pipe-packed feature values per row.
	FeatureColumn = "n_features"
	// KeyColumn aligns keyed responses to request rows.
	KeyColumn = "key"
	// ModelColumn names the model to resolve.
	ModelColumn = "model_name"
	// FeatureSep packs feature values and multi-output predictions.
	FeatureSep = "|"
)

var (
	ErrFeatureArity = errors.New("feature count does not match the model's feature definitions")
	ErrTypeCoercion = errors.New("feature value cannot be cast to its declared type")
	ErrOutputShape  = errors.New("unsupported model output shape")
)

// Run invokes the loaded model's named method over the request table and
// returns response rows. Keyed calls return model_name/key/prediction rows
// joined by the key column; unkeyed calls return bare prediction rows.
func Run(tbl *table.Table, loaded *registry.Loaded, method string, keyed bool) ([][]any, error) {
	if method == "" {
		method = "predict"
	}

	m, err := buildMatrix(tbl, loaded.Schema)
	if err != nil {
		return nil, err
	}

	if loaded.Prep != nil {
		if m, err = loaded.Prep.Transform(m); err != nil {
			return nil, fmt.Errorf("preprocessing features for model %q: %w", loaded.Name, err)
		}
	}

	out, err := loaded.Model.Invoke(method, m)
	if err != nil {
		return nil, err
	}
	results, err := reshape(out)
	if err != nil {
		return nil, err
	}
	if len(results) != tbl.NumRows() {
		return nil, fmt.Errorf("model %q returned %d predictions for %d rows", loaded.Name, len(results), tbl.NumRows())
	}

	if !keyed {
		rows := make([][]any, len(results))
		for i, r := range results {
			rows[i] = []any{r}
		}
		return rows, nil
	}

	// Each response row carries its caller key so the host can join on the
	// key field whatever order the rows arrived in. Result i belongs to
	// request row i; duplicate keys keep their own row's prediction.
	rows := make([][]any, 0, tbl.NumRows())
	for i := 0; i < tbl.NumRows(); i++ {
		key, ok := tbl.Cell(i, KeyColumn)
		if !ok {
			return nil, fmt.Errorf("keyed call is missing the %q column", KeyColumn)
		}
		name, _ := tbl.Cell(i, ModelColumn)
		rows = append(rows, []any{name.Text(), key.Text(), results[i]})
	}
	return rows, nil
}

// buildMatrix splits each row's packed feature string and casts every
// column to its declared type.
func buildMatrix(tbl *table.Table, schema registry.Schema) (*pipeline.Matrix, error) {
	rows := tbl.NumRows()
	split := make([][]string, rows)
	for i := 0; i < rows; i++ {
		cell, ok := tbl.Cell(i, FeatureColumn)
		if !ok {
			return nil, fmt.Errorf("request is missing the %q column", FeatureColumn)
		}
		parts := strings.Split(cell.Str, FeatureSep)
		if len(parts) != len(schema) {
			return nil, fmt.Errorf("%w: row %d has %d values for %d features; check that you are using the %q delimiter and that the target is not included in the input",
				ErrFeatureArity, i, len(parts), len(schema), FeatureSep)
		}
		split[i] = parts
	}

	m := &pipeline.Matrix{Cols: make([]pipeline.Column, len(schema))}
	for j, feat := range schema {
		switch feat.Type {
		case "str":
			cats := make([]string, rows)
			for i := range split {
				cats[i] = split[i][j]
			}
			m.Cols[j] = pipeline.Column{Name: feat.Name, Cats: cats}
		case "int", "float":
			nums := make([]float64, rows)
			for i := range split {
				v, err := castNumeric(split[i][j], feat.Type)
				if err != nil {
					return nil, fmt.Errorf("%w: column %q value %q is not %s", ErrTypeCoercion, feat.Name, split[i][j], feat.Type)
				}
				nums[i] = v
			}
			m.Cols[j] = pipeline.Column{Name: feat.Name, Nums: nums}
		default:
			return nil, fmt.Errorf("feature %q has unknown type %q", feat.Name, feat.Type)
		}
	}
	return m, nil
}

func castNumeric(value, typ string) (float64, error) {
	value = strings.TrimSpace(value)
	if typ == "int" {
		n, err := strconv.Atoi(value)
		return float64(n), err
	}
	return strconv.ParseFloat(value, 64)
}

// reshape turns raw model output into one string result per row. Exactly
// two output columns are joined with the pipe delimiter (the multi-output
// convention fixed with the caller); wider outputs are unsupported.
func reshape(out [][]float64) ([]string, error) {
	results := make([]string, len(out))
	for i, row := range out {
		switch len(row) {
		case 1:
			results[i] = formatFloat(row[0])
		case 2:
			results[i] = formatFloat(row[0]) + FeatureSep + formatFloat(row[1])
		default:
			return nil, fmt.Errorf("%w: %d output columns per row; only 1 or 2 are defined", ErrOutputShape, len(row))
		}
	}
	return results, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
