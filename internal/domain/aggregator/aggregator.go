// Package aggregator consolidates multiple normalized documents
// (delivery notes, invoices) into a single per-article view.
//
// Articles sharing the same (article_code, normalized name) key are
// merged: quantities and line totals sum, the unit price becomes the
// weighted average (total / quantity), the first original-cased name and
// first code win, and the most frequent tax rate is kept. Cross-document
// unit-price differences beyond the price tolerance produce non-blocking
// warnings before merging.
package aggregator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bkooistra/factuurcheck/internal/domain/canonical"
	"github.com/bkooistra/factuurcheck/internal/infrastructure/config"
)

// ErrNoDocuments is returned when the input document list is empty.
var ErrNoDocuments = errors.New("no documents to aggregate")

// ErrAllDocumentsEmpty is returned when every input table has zero rows.
var ErrAllDocumentsEmpty = errors.New("all documents are empty, nothing to aggregate")

// Metadata describes what the aggregator processed.
type Metadata struct {
	DocumentCount  int              `json:"document_count"`
	ProcessedCount int              `json:"processed_count"`
	Labels         []string         `json:"labels"`
	Roles          []canonical.Role `json:"roles"`
	InputRows      int              `json:"input_rows"`
	OutputRows     int              `json:"output_rows"`
	SkippedEmpty   []int            `json:"skipped_empty"`
}

// Result is the outcome of a multi-document aggregation.
type Result struct {
	Table    canonical.Table
	Metadata Metadata
	Warnings []string
}

// Aggregator merges N normalized tables into one consolidated article list.
type Aggregator struct {
	tolerances config.Tolerances
}

// New creates an aggregator with the given tolerances. Only the price
// tolerance is used, for the pre-aggregation consistency check.
func New(tolerances config.Tolerances) *Aggregator {
	return &Aggregator{tolerances: tolerances}
}

// Aggregate consolidates the given tables into one per-article table.
// Empty input tables are skipped with a warning; records without a
// positive quantity are filtered out before grouping. The input lists
// must be non-empty and of equal length.
func (a *Aggregator) Aggregate(tables []canonical.Table, labels []string, roles []canonical.Role) (*Result, error) {
	if len(tables) == 0 {
		return nil, ErrNoDocuments
	}
	if len(tables) != len(labels) || len(tables) != len(roles) {
		return nil, fmt.Errorf("length mismatch: tables=%d, labels=%d, roles=%d",
			len(tables), len(labels), len(roles))
	}

	var warnings []string
	var skippedEmpty []int
	var validTables []canonical.Table
	var validLabels []string
	var validRoles []canonical.Role
	inputRows := 0

	for i, t := range tables {
		if len(t) == 0 {
			warnings = append(warnings, fmt.Sprintf("document '%s' is empty and will be skipped", labels[i]))
			skippedEmpty = append(skippedEmpty, i)
			continue
		}
		inputRows += len(t)
		validTables = append(validTables, t)
		validLabels = append(validLabels, labels[i])
		validRoles = append(validRoles, roles[i])
	}

	if len(validTables) == 0 {
		return nil, ErrAllDocumentsEmpty
	}

	// Concatenate in document order, then drop records without a
	// positive quantity.
	var combined canonical.Table
	for _, t := range validTables {
		combined = append(combined, t...)
	}
	filtered := make(canonical.Table, 0, len(combined))
	for _, rec := range combined {
		if rec.Quantity != nil && *rec.Quantity > 0 {
			filtered = append(filtered, rec)
		}
	}
	if removed := len(combined) - len(filtered); removed > 0 {
		warnings = append(warnings, fmt.Sprintf("%d records with quantity=0 skipped", removed))
	}

	// Single surviving document: identity pass, the filter above is the
	// only transformation.
	if len(validTables) == 1 {
		return &Result{
			Table: filtered,
			Metadata: Metadata{
				DocumentCount:  len(tables),
				ProcessedCount: 1,
				Labels:         validLabels,
				Roles:          validRoles,
				InputRows:      inputRows,
				OutputRows:     len(filtered),
				SkippedEmpty:   skippedEmpty,
			},
			Warnings: warnings,
		}, nil
	}

	warnings = append(warnings, a.priceInconsistencies(filtered)...)

	merged := mergeGroups(filtered)

	return &Result{
		Table: merged,
		Metadata: Metadata{
			DocumentCount:  len(tables),
			ProcessedCount: len(validTables),
			Labels:         validLabels,
			Roles:          validRoles,
			InputRows:      inputRows,
			OutputRows:     len(merged),
			SkippedEmpty:   skippedEmpty,
		},
		Warnings: warnings,
	}, nil
}

// groupKey identifies an aggregation group: article code (empty when
// absent) plus the normalized article name.
type groupKey struct {
	code     string
	nameNorm string
}

func keyFor(rec canonical.Record) groupKey {
	k := groupKey{}
	if rec.ArticleCode != nil {
		k.code = *rec.ArticleCode
	}
	if rec.ArticleName != nil {
		k.nameNorm = canonical.NormalizeName(*rec.ArticleName)
	}
	return k
}

// mergeGroups reduces the filtered records group by group, preserving
// first-seen group order. Output rows are not resorted by (code, name):
// downstream matching is greedy and order-dependent, so aggregation
// keeps document order stable.
func mergeGroups(records canonical.Table) canonical.Table {
	groups := make(map[groupKey][]canonical.Record)
	var order []groupKey

	for _, rec := range records {
		k := keyFor(rec)
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], rec)
	}

	out := make(canonical.Table, 0, len(order))
	for _, k := range order {
		out = append(out, reduceGroup(groups[k]))
	}
	return out
}

// reduceGroup collapses one aggregation group into a single record:
// quantity and line_total sum, unit_price is re-derived as the weighted
// average line_total/quantity, first non-absent name (original casing)
// and code win, tax_rate takes the most frequent non-absent value.
func reduceGroup(group []canonical.Record) canonical.Record {
	var out canonical.Record

	qtySum := 0.0
	totalSum := 0.0
	hasQty := false
	hasTotal := false

	for _, rec := range group {
		if rec.Quantity != nil {
			qtySum += *rec.Quantity
			hasQty = true
		}
		if rec.LineTotal != nil {
			totalSum += *rec.LineTotal
			hasTotal = true
		}
		if out.ArticleName == nil && rec.ArticleName != nil {
			out.ArticleName = rec.ArticleName
		}
		if out.ArticleCode == nil && rec.ArticleCode != nil {
			out.ArticleCode = rec.ArticleCode
		}
	}

	if hasQty {
		out.Quantity = canonical.Float(qtySum)
	}
	if hasTotal {
		out.LineTotal = canonical.Float(totalSum)
	}
	if hasQty && hasTotal && qtySum > 0 {
		out.UnitPrice = canonical.Float(totalSum / qtySum)
	}
	out.TaxRate = modalTaxRate(group)

	return out
}

// modalTaxRate returns the most frequent non-absent tax rate, breaking
// ties on the smaller value; nil when every record lacks one.
func modalTaxRate(group []canonical.Record) *float64 {
	counts := make(map[float64]int)
	for _, rec := range group {
		if rec.TaxRate != nil {
			counts[*rec.TaxRate]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	best := 0.0
	bestCount := -1
	for rate, count := range counts {
		if count > bestCount || (count == bestCount && rate < best) {
			best = rate
			bestCount = count
		}
	}
	return canonical.Float(best)
}

// priceInconsistencies warns about articles that appear across documents
// with unit prices differing by more than the price tolerance. The check
// runs before merging and never blocks aggregation.
func (a *Aggregator) priceInconsistencies(records canonical.Table) []string {
	groups := make(map[groupKey][]canonical.Record)
	var order []groupKey
	for _, rec := range records {
		k := keyFor(rec)
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], rec)
	}

	var warnings []string
	for _, k := range order {
		group := groups[k]
		if len(group) <= 1 {
			continue
		}

		distinct := make(map[float64]bool)
		var prices []float64
		for _, rec := range group {
			if rec.UnitPrice != nil && !distinct[*rec.UnitPrice] {
				distinct[*rec.UnitPrice] = true
				prices = append(prices, *rec.UnitPrice)
			}
		}
		if len(prices) <= 1 {
			continue
		}

		sort.Float64s(prices)
		if prices[len(prices)-1]-prices[0] <= a.tolerances.Price {
			continue
		}

		name := ""
		code := "without code"
		for _, rec := range group {
			if rec.ArticleName != nil {
				name = *rec.ArticleName
				break
			}
		}
		if k.code != "" {
			code = k.code
		}

		formatted := make([]string, len(prices))
		for i, p := range prices {
			formatted[i] = fmt.Sprintf("€%.2f", p)
		}
		warnings = append(warnings, fmt.Sprintf(
			"article %s (%s) has differing unit prices across documents (%s); averaged price will be used",
			code, name, strings.Join(formatted, ", ")))
	}
	return warnings
}
