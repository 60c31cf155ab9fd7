// Package apriori mines frequent itemsets and association rules from
// transaction lists. It is consumed as an opaque algorithm by the rules
// adapter; emission order is deterministic for identical input.
package apriori

import (
	"sort"
	"strings"
)

const itemSep = "\x1f"

// Options configure the mining run.
type Options struct {
	MinSupport    float64 // minimum itemset support, fraction of transactions
	MinConfidence float64 // minimum rule confidence
	MaxLength     int     // largest itemset size considered
}

// DefaultOptions mirror the usual apriori defaults.
func DefaultOptions() Options {
	return Options{MinSupport: 0.5, MinConfidence: 0.5, MaxLength: 8}
}

// Rule is one association rule LHS -> RHS with its quality measures.
type Rule struct {
	LHS        []string
	RHS        []string
	Support    float64
	Confidence float64
	Lift       float64
}

// Mine returns all rules meeting the thresholds in Options. Returns an
// empty slice when nothing qualifies; interpreting that as an error is the
// caller's concern.
func Mine(transactions [][]string, opts Options) []Rule {
	if len(transactions) == 0 {
		return nil
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultOptions().MaxLength
	}

	n := float64(len(transactions))
	sets := make([]map[string]bool, len(transactions))
	for i, tx := range transactions {
		set := make(map[string]bool, len(tx))
		for _, item := range tx {
			set[item] = true
		}
		sets[i] = set
	}

	// support for every frequent itemset, keyed by the sorted item list
	support := make(map[string]float64)

	// L1
	counts := make(map[string]int)
	for _, set := range sets {
		for item := range set {
			counts[item]++
		}
	}
	var frequent [][]string
	for item, c := range counts {
		if s := float64(c) / n; s >= opts.MinSupport {
			support[item] = s
			frequent = append(frequent, []string{item})
		}
	}
	sort.Slice(frequent, func(i, j int) bool { return frequent[i][0] < frequent[j][0] })

	var all [][]string
	all = append(all, frequent...)

	// Lk from L(k-1) by join + prune + count
	for k := 2; k <= opts.MaxLength && len(frequent) > 1; k++ {
		candidates := join(frequent)
		frequent = frequent[:0]
		for _, cand := range candidates {
			c := 0
			for _, set := range sets {
				if contains(set, cand) {
					c++
				}
			}
			if s := float64(c) / n; s >= opts.MinSupport {
				support[key(cand)] = s
				frequent = append(frequent, cand)
				all = append(all, cand)
			}
		}
	}

	var rules []Rule
	for _, itemset := range all {
		if len(itemset) < 2 {
			continue
		}
		rules = append(rules, derive(itemset, support, opts.MinConfidence)...)
	}
	return rules
}

func key(items []string) string { return strings.Join(items, itemSep) }

func contains(set map[string]bool, items []string) bool {
	for _, item := range items {
		if !set[item] {
			return false
		}
	}
	return true
}

// join merges sorted (k-1)-itemsets sharing a (k-2)-prefix into k-candidates.
func join(level [][]string) [][]string {
	var out [][]string
	for i := 0; i < len(level); i++ {
		for j := i + 1; j < len(level); j++ {
			a, b := level[i], level[j]
			k := len(a)
			if key(a[:k-1]) != key(b[:k-1]) {
				continue
			}
			cand := make([]string, k+1)
			copy(cand, a)
			cand[k] = b[k-1]
			if cand[k-1] > cand[k] {
				cand[k-1], cand[k] = cand[k], cand[k-1]
			}
			out = append(out, cand)
		}
	}
	return out
}

// derive emits every rule lhs -> rhs over the non-empty proper subsets of
// itemset, in subset-mask order, keeping those above minConfidence.
func derive(itemset []string, support map[string]float64, minConfidence float64) []Rule {
	full := support[key(itemset)]
	var rules []Rule
	for mask := 1; mask < (1<<len(itemset))-1; mask++ {
		var lhs, rhs []string
		for i, item := range itemset {
			if mask&(1<<i) != 0 {
				lhs = append(lhs, item)
			} else {
				rhs = append(rhs, item)
			}
		}
		lhsSup, ok := support[key(lhs)]
		if !ok || lhsSup == 0 {
			continue
		}
		conf := full / lhsSup
		if conf < minConfidence {
			continue
		}
		rhsSup := support[key(rhs)]
		if rhsSup == 0 {
			continue
		}
		rules = append(rules, Rule{
			LHS:        lhs,
			RHS:        rhs,
			Support:    full,
			Confidence: conf,
			Lift:       conf / rhsSup,
		})
	}
	return rules
}
