package models

import "fmt"

// Field data types understood by the host.
const (
	TypeString = "string"
	TypeFloat  = "float"
)

type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TableDescription is the response schema sent to the host as metadata
// before any row data.
type TableDescription struct {
	Name         string  `json:"name"`
	NumberOfRows int     `json:"number_of_rows"`
	Fields       []Field `json:"fields"`
}

// Response variants with fixed field names and order.
const (
	VariantApriori    = "apriori"
	VariantPredict    = "predict"
	VariantPrediction = "prediction"
)

// Describe builds the response schema for an operation variant.
func Describe(variant string, rows int) (*TableDescription, error) {
	d := &TableDescription{Name: "Extension-Response", NumberOfRows: rows}
	switch variant {
	case VariantApriori:
		d.Fields = []Field{
			{Name: "rule", Type: TypeString},
			{Name: "rule_lhs", Type: TypeString},
			{Name: "rule_rhs", Type: TypeString},
			{Name: "support", Type: TypeFloat},
			{Name: "confidence", Type: TypeFloat},
			{Name: "lift", Type: TypeFloat},
		}
	case VariantPredict:
		d.Fields = []Field{
			{Name: "model_name", Type: TypeString},
			{Name: "key", Type: TypeString},
			{Name: "prediction", Type: TypeString},
		}
	case VariantPrediction:
		d.Fields = []Field{
			{Name: "prediction", Type: TypeString},
		}
	default:
		return nil, fmt.Errorf("unknown response variant %q", variant)
	}
	return d, nil
}
