package models

import "testing"

func TestDescribeApriori(t *testing.T) {
	d, err := Describe(VariantApriori, 7)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if d.NumberOfRows != 7 {
		t.Errorf("NumberOfRows = %d, want 7", d.NumberOfRows)
	}
	want := []Field{
		{Name: "rule", Type: TypeString},
		{Name: "rule_lhs", Type: TypeString},
		{Name: "rule_rhs", Type: TypeString},
		{Name: "support", Type: TypeFloat},
		{Name: "confidence", Type: TypeFloat},
		{Name: "lift", Type: TypeFloat},
	}
	if len(d.Fields) != len(want) {
		t.Fatalf("got %d fields, want %d", len(d.Fields), len(want))
	}
	for i := range want {
		if d.Fields[i] != want[i] {
			t.Errorf("field %d = %+v, want %+v", i, d.Fields[i], want[i])
		}
	}
}

func TestDescribePredict(t *testing.T) {
	d, err := Describe(VariantPredict, 2)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	want := []Field{
		{Name: "model_name", Type: TypeString},
		{Name: "key", Type: TypeString},
		{Name: "prediction", Type: TypeString},
	}
	if len(d.Fields) != len(want) {
		t.Fatalf("got %d fields, want %d", len(d.Fields), len(want))
	}
	for i := range want {
		if d.Fields[i] != want[i] {
			t.Errorf("field %d = %+v, want %+v", i, d.Fields[i], want[i])
		}
	}
}

func TestDescribePredictionBare(t *testing.T) {
	d, err := Describe(VariantPrediction, 4)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if len(d.Fields) != 1 || d.Fields[0].Name != "prediction" || d.Fields[0].Type != TypeString {
		t.Errorf("unexpected fields: %+v", d.Fields)
	}
}

func TestDescribeUnknownVariant(t *testing.T) {
	if _, err := Describe("summary", 0); err == nil {
		t.Fatal("unknown variant should fail")
	}
}
