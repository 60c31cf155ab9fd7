package apriori

import (
	"strings"
	"testing"
)

var groceries = [][]string{
	{"milk", "bread", "butter"},
	{"milk", "bread"},
	{"milk", "eggs"},
	{"bread", "butter"},
	{"milk", "bread", "butter", "eggs"},
}

func ruleKey(r Rule) string {
	return strings.Join(r.LHS, ",") + "->" + strings.Join(r.RHS, ",")
}

func TestMineFindsKnownRule(t *testing.T) {
	rules := Mine(groceries, Options{MinSupport: 0.4, MinConfidence: 0.6, MaxLength: 3})
	if len(rules) == 0 {
		t.Fatal("expected rules, got none")
	}

	// butter appears in 3 of 5 transactions, always with bread:
	// butter -> bread must surface with confidence 1.0
	found := false
	for _, r := range rules {
		if ruleKey(r) == "butter->bread" {
			found = true
			if r.Confidence != 1.0 {
				t.Errorf("butter->bread confidence = %v, want 1.0", r.Confidence)
			}
			if r.Support != 0.6 {
				t.Errorf("butter->bread support = %v, want 0.6", r.Support)
			}
			// bread support is 0.8, lift = 1.0/0.8
			if r.Lift != 1.25 {
				t.Errorf("butter->bread lift = %v, want 1.25", r.Lift)
			}
		}
	}
	if !found {
		t.Errorf("butter->bread not found in %d rules", len(rules))
	}
}

func TestMineHighSupportYieldsNothing(t *testing.T) {
	rules := Mine(groceries, Options{MinSupport: 0.9, MinConfidence: 0.5, MaxLength: 3})
	if len(rules) != 0 {
		t.Errorf("expected no rules at min_support=0.9, got %d", len(rules))
	}
}

func TestMineDeterministicEmission(t *testing.T) {
	opts := Options{MinSupport: 0.2, MinConfidence: 0.3, MaxLength: 3}
	first := Mine(groceries, opts)
	for run := 0; run < 5; run++ {
		again := Mine(groceries, opts)
		if len(again) != len(first) {
			t.Fatalf("run %d: %d rules, first run had %d", run, len(again), len(first))
		}
		for i := range again {
			if ruleKey(again[i]) != ruleKey(first[i]) {
				t.Fatalf("run %d: rule %d is %s, first run had %s", run, i, ruleKey(again[i]), ruleKey(first[i]))
			}
		}
	}
}

func TestMineEmptyTransactions(t *testing.T) {
	if rules := Mine(nil, DefaultOptions()); len(rules) != 0 {
		t.Errorf("expected no rules for empty input, got %d", len(rules))
	}
}
