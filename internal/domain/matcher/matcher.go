// Package matcher pairs rows from a source table (system export) with
// rows from a target table (supplier document).
//
// Matching runs in two tiers. Tier 1 pairs rows on exact trimmed article
// code. Tier 2 runs over the leftovers and pairs on normalized article
// name. Both tiers are greedy in row order: each source row takes the
// first unmatched target candidate, and a matched row never rematches.
package matcher

import (
	"strings"

	"github.com/bkooistra/factuurcheck/internal/domain/canonical"
)

// Pair links a source row index to the target row index it matched.
type Pair struct {
	Source int
	Target int
}

// Result holds matched pairs plus the leftover row indices on both
// sides, all in original row order.
type Result struct {
	Pairs           []Pair
	SourceUnmatched []int
	TargetUnmatched []int
}

// Match pairs source rows with target rows, first on article code, then
// on normalized article name.
func Match(source, target canonical.Table) Result {
	matchedSource := make(map[int]bool)
	matchedTarget := make(map[int]bool)
	var pairs []Pair

	// Tier 1: exact match on trimmed article code.
	for si, srec := range source {
		code := trimmedCode(srec)
		if code == "" {
			continue
		}
		for ti, trec := range target {
			if matchedTarget[ti] {
				continue
			}
			if trimmedCode(trec) == code {
				pairs = append(pairs, Pair{Source: si, Target: ti})
				matchedSource[si] = true
				matchedTarget[ti] = true
				break
			}
		}
	}

	// Tier 2: normalized article name over the leftovers.
	for si, srec := range source {
		if matchedSource[si] {
			continue
		}
		name := normalizedName(srec)
		if name == "" {
			continue
		}
		for ti, trec := range target {
			if matchedTarget[ti] {
				continue
			}
			if normalizedName(trec) == name {
				pairs = append(pairs, Pair{Source: si, Target: ti})
				matchedSource[si] = true
				matchedTarget[ti] = true
				break
			}
		}
	}

	result := Result{Pairs: pairs}
	for si := range source {
		if !matchedSource[si] {
			result.SourceUnmatched = append(result.SourceUnmatched, si)
		}
	}
	for ti := range target {
		if !matchedTarget[ti] {
			result.TargetUnmatched = append(result.TargetUnmatched, ti)
		}
	}
	return result
}

func trimmedCode(rec canonical.Record) string {
	if rec.ArticleCode == nil {
		return ""
	}
	return strings.TrimSpace(*rec.ArticleCode)
}

func normalizedName(rec canonical.Record) string {
	if rec.ArticleName == nil {
		return ""
	}
	return canonical.NormalizeName(*rec.ArticleName)
}
