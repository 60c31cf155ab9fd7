// Package rules adapts a decoded request table to the association-rule
// miner: rows are grouped into transactions, the miner runs with the
// caller's parameters, and the result is ranked and formatted.
package rules

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dsxlab/analytics-extension/internal/apriori"
	"github.com/dsxlab/analytics-extension/internal/params"
	"github.com/dsxlab/analytics-extension/internal/table"
)

const (
	GroupColumn = "group"
	ItemColumn  = "item"
)

// ErrNoRules is deliberate: an empty mining result is an error for this
// operation, never a silent empty table.
var ErrNoRules = errors.New("no association rules could be found")

// Run groups the request rows into transactions, mines them and returns
// response rows ordered by descending lift. Equal-lift ties keep the
// miner's emission order.
func Run(tbl *table.Table, ps *params.Set) ([][]any, error) {
	transactions, err := transactionsOf(tbl)
	if err != nil {
		return nil, err
	}

	opts := apriori.DefaultOptions()
	opts.MinSupport = ps.GetFloat("min_support", opts.MinSupport)
	opts.MinConfidence = ps.GetFloat("min_confidence", opts.MinConfidence)
	opts.MaxLength = ps.GetInt("max_length", opts.MaxLength)

	mined := apriori.Mine(transactions, opts)
	if len(mined) == 0 {
		return nil, fmt.Errorf("%w; you may get results by lowering the min_support and min_confidence limits, e.g. by passing min_support=0.2|float in the arguments", ErrNoRules)
	}

	sort.SliceStable(mined, func(i, j int) bool { return mined[i].Lift > mined[j].Lift })

	rows := make([][]any, len(mined))
	for i, r := range mined {
		lhs := strings.Join(r.LHS, ", ")
		rhs := strings.Join(r.RHS, ", ")
		rows[i] = []any{lhs + " -> " + rhs, lhs, rhs, r.Support, r.Confidence, r.Lift}
	}
	return rows, nil
}

// transactionsOf collects the items of each group, in first-seen group
// order, as one transaction per group.
func transactionsOf(tbl *table.Table) ([][]string, error) {
	groups, ok := tbl.Column(GroupColumn)
	if !ok {
		return nil, fmt.Errorf("request is missing the %q column", GroupColumn)
	}
	items, ok := tbl.Column(ItemColumn)
	if !ok {
		return nil, fmt.Errorf("request is missing the %q column", ItemColumn)
	}

	index := make(map[string]int)
	var transactions [][]string
	for i, g := range groups {
		k, seen := index[g.Text()]
		if !seen {
			k = len(transactions)
			index[g.Text()] = k
			transactions = append(transactions, nil)
		}
		transactions[k] = append(transactions[k], items[i].Text())
	}
	return transactions, nil
}
