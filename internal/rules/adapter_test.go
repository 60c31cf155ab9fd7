package rules

import (
	"errors"
	"strings"
	"testing"

	"github.com/dsxlab/analytics-extension/internal/params"
	"github.com/dsxlab/analytics-extension/internal/table"
)

func basketTable(t *testing.T) *table.Table {
	t.Helper()
	rows := [][]any{
		{"t1", "milk", ""},
		{"t1", "bread", ""},
		{"t1", "butter", ""},
		{"t2", "milk", ""},
		{"t2", "bread", ""},
		{"t3", "milk", ""},
		{"t3", "eggs", ""},
		{"t4", "bread", ""},
		{"t4", "butter", ""},
		{"t5", "milk", ""},
		{"t5", "bread", ""},
		{"t5", "butter", ""},
		{"t5", "eggs", ""},
	}
	tbl, err := table.Decode(rows,
		[]table.Kind{table.KindString, table.KindString, table.KindString},
		[]string{"group", "item", "kwargs"})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	tbl.DropColumn("kwargs")
	return tbl
}

func parse(t *testing.T, raw string) *params.Set {
	t.Helper()
	_, ps, err := params.Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", raw, err)
	}
	return ps
}

func TestRunRanksByLiftDescending(t *testing.T) {
	rows, err := Run(basketTable(t), parse(t, "min_support=0.01|float, min_confidence=0.3|float"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(rows) == 0 {
		t.Fatal("expected rules")
	}
	for i := 1; i < len(rows); i++ {
		prev := rows[i-1][5].(float64)
		cur := rows[i][5].(float64)
		if cur > prev {
			t.Fatalf("row %d lift %v exceeds previous %v", i, cur, prev)
		}
	}
	// rule text is "lhs -> rhs" with the split parts alongside
	first := rows[0]
	if got := first[0].(string); got != first[1].(string)+" -> "+first[2].(string) {
		t.Errorf("rule text %q does not match lhs %q / rhs %q", first[0], first[1], first[2])
	}
}

func TestRunHighThresholdFails(t *testing.T) {
	_, err := Run(basketTable(t), parse(t, "min_support=0.9|float"))
	if !errors.Is(err, ErrNoRules) {
		t.Fatalf("expected ErrNoRules, got %v", err)
	}
	if !strings.Contains(err.Error(), "min_support") {
		t.Errorf("error should suggest lowering thresholds: %v", err)
	}
}

func TestTransactionsFirstSeenOrder(t *testing.T) {
	rows := [][]any{
		{"z", "a", ""},
		{"a", "b", ""},
		{"z", "c", ""},
	}
	tbl, err := table.Decode(rows,
		[]table.Kind{table.KindString, table.KindString, table.KindString},
		[]string{"group", "item", "kwargs"})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	tx, err := transactionsOf(tbl)
	if err != nil {
		t.Fatalf("transactionsOf failed: %v", err)
	}
	if len(tx) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(tx))
	}
	// group z was seen first even though a sorts before it
	if tx[0][0] != "a" || tx[0][1] != "c" {
		t.Errorf("first transaction = %v, want [a c]", tx[0])
	}
	if tx[1][0] != "b" {
		t.Errorf("second transaction = %v, want [b]", tx[1])
	}
}
