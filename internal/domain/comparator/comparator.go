// Package comparator applies the reconciliation rules to matched line
// pairs and produces the per-line result table.
//
// The rule set is net-amount leading: quantity must match exactly, the
// effective net amount (line_total, falling back to unit_price×quantity)
// must match within tolerance. Discounts derived from the gap between
// gross and net are detected for explanation text only and never decide
// a status.
package comparator

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/bkooistra/factuurcheck/internal/domain/canonical"
	"github.com/bkooistra/factuurcheck/internal/domain/matcher"
	"github.com/bkooistra/factuurcheck/internal/infrastructure/config"
)

// Status is the reconciliation outcome of a single result row. The
// labels are part of the report contract and stay in Dutch.
type Status string

const (
	StatusOK               Status = "OK"
	StatusDeviation        Status = "AFWIJKING"
	StatusMissingOnInvoice Status = "ONTBREEKT OP FACTUUR"
	StatusMissingInSystem  Status = "ONTBREEKT IN SYSTEEM"
	StatusPartial          Status = "GEDEELTELIJK"
)

// statusPriority orders result rows most actionable first.
var statusPriority = map[Status]int{
	StatusDeviation:        0,
	StatusMissingOnInvoice: 1,
	StatusMissingInSystem:  2,
	StatusPartial:          3,
	StatusOK:               4,
}

// ResultRow is one line of the comparison report, carrying both sides
// of the pair. Fields of the absent side stay nil for synthesized
// missing rows.
type ResultRow struct {
	Status          Status   `json:"status"`
	ArticleCode     *string  `json:"article_code"`
	ArticleName     *string  `json:"article_name"`
	QuantitySource  *float64 `json:"quantity_source"`
	QuantityTarget  *float64 `json:"quantity_target"`
	UnitPriceSource *float64 `json:"unit_price_source"`
	UnitPriceTarget *float64 `json:"unit_price_target"`
	LineTotalSource *float64 `json:"line_total_source"`
	LineTotalTarget *float64 `json:"line_total_target"`
	TaxSource       *float64 `json:"tax_source"`
	TaxTarget       *float64 `json:"tax_target"`
	Explanation     string   `json:"explanation"`
}

// Comparator evaluates matched pairs against the configured tolerances.
type Comparator struct {
	tolerances config.Tolerances
}

func New(tolerances config.Tolerances) *Comparator {
	return &Comparator{tolerances: tolerances}
}

// Compare matches the source table (system export) against the target
// table (supplier document) and returns one result row per source row,
// target-only row included. Rows are sorted by status priority, stable
// within each status.
func (c *Comparator) Compare(source, target canonical.Table) []ResultRow {
	match := matcher.Match(source, target)

	rows := make([]ResultRow, 0, len(match.Pairs)+len(match.SourceUnmatched)+len(match.TargetUnmatched))
	for _, pair := range match.Pairs {
		rows = append(rows, c.comparePair(source[pair.Source], target[pair.Target]))
	}
	for _, si := range match.SourceUnmatched {
		rows = append(rows, missingOnInvoiceRow(source[si]))
	}
	for _, ti := range match.TargetUnmatched {
		rows = append(rows, missingInSystemRow(target[ti]))
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return statusPriority[rows[i].Status] < statusPriority[rows[j].Status]
	})
	return rows
}

// EffectiveNetAmount returns the authoritative payable amount for a
// record: line_total when present, otherwise unit_price×quantity,
// otherwise nil (financially non-comparable).
func EffectiveNetAmount(rec canonical.Record) *float64 {
	if rec.LineTotal != nil {
		return rec.LineTotal
	}
	if rec.UnitPrice != nil && rec.Quantity != nil {
		return canonical.Float(*rec.UnitPrice * *rec.Quantity)
	}
	return nil
}

func (c *Comparator) comparePair(src, tgt canonical.Record) ResultRow {
	row := pairRow(src, tgt)

	srcNet := EffectiveNetAmount(src)
	tgtNet := EffectiveNetAmount(tgt)

	var mismatches []string
	var partials []string

	switch {
	case src.Quantity == nil || tgt.Quantity == nil:
		partials = append(partials, "quantity could not be compared (missing data)")
	case math.Abs(*src.Quantity-*tgt.Quantity) > c.tolerances.Quantity:
		mismatches = append(mismatches, fmt.Sprintf("quantity differs (source %s, target %s)",
			formatQty(*src.Quantity), formatQty(*tgt.Quantity)))
	}

	switch {
	case srcNet == nil || tgtNet == nil:
		partials = append(partials, "amount could not be determined (missing data)")
	case math.Abs(*srcNet-*tgtNet) > c.tolerances.NetAmount:
		mismatches = append(mismatches, fmt.Sprintf("amount differs (source €%.2f, target €%.2f)",
			*srcNet, *tgtNet))
	}

	switch {
	case len(mismatches) > 0:
		row.Status = StatusDeviation
		row.Explanation = joinSegments(mismatches)
	case len(partials) > 0:
		row.Status = StatusPartial
		row.Explanation = joinSegments(partials)
	default:
		row.Status = StatusOK
		row.Explanation = "quantity and amount match"
		if note := c.discountNote(src, tgt); note != "" {
			row.Explanation += " (" + note + ")"
		}
	}
	return row
}

// discountNote reports detected discounts on either side. Informational
// only, and suppressed entirely when a mismatch already decided the row.
func (c *Comparator) discountNote(src, tgt canonical.Record) string {
	var parts []string
	if pct, ok := c.detectDiscount(src); ok {
		parts = append(parts, fmt.Sprintf("source %d%%", pct))
	}
	if pct, ok := c.detectDiscount(tgt); ok {
		parts = append(parts, fmt.Sprintf("target %d%%", pct))
	}
	if len(parts) == 0 {
		return ""
	}
	return "discount applied: " + joinSegments(parts)
}

// detectDiscount computes the discount percentage implied by the gap
// between gross (unit_price×quantity) and net (line_total). Nothing is
// reported when the gap is within tolerance or when net exceeds gross.
func (c *Comparator) detectDiscount(rec canonical.Record) (int, bool) {
	if rec.UnitPrice == nil || rec.Quantity == nil || rec.LineTotal == nil {
		return 0, false
	}
	if *rec.UnitPrice <= 0 || *rec.Quantity <= 0 {
		return 0, false
	}
	gross := *rec.UnitPrice * *rec.Quantity
	net := *rec.LineTotal
	if math.Abs(gross-net) <= c.tolerances.NetAmount {
		return 0, false
	}
	if net > gross {
		return 0, false
	}
	return int(math.Round((1 - net/gross) * 100)), true
}

func pairRow(src, tgt canonical.Record) ResultRow {
	row := ResultRow{
		ArticleCode:     src.ArticleCode,
		ArticleName:     src.ArticleName,
		QuantitySource:  src.Quantity,
		QuantityTarget:  tgt.Quantity,
		UnitPriceSource: src.UnitPrice,
		UnitPriceTarget: tgt.UnitPrice,
		LineTotalSource: src.LineTotal,
		LineTotalTarget: tgt.LineTotal,
		TaxSource:       src.TaxRate,
		TaxTarget:       tgt.TaxRate,
	}
	if row.ArticleCode == nil {
		row.ArticleCode = tgt.ArticleCode
	}
	if row.ArticleName == nil {
		row.ArticleName = tgt.ArticleName
	}
	return row
}

func missingOnInvoiceRow(src canonical.Record) ResultRow {
	return ResultRow{
		Status:          StatusMissingOnInvoice,
		ArticleCode:     src.ArticleCode,
		ArticleName:     src.ArticleName,
		QuantitySource:  src.Quantity,
		UnitPriceSource: src.UnitPrice,
		LineTotalSource: src.LineTotal,
		TaxSource:       src.TaxRate,
		Explanation:     "line appears in the system export but not in the supplier document",
	}
}

func missingInSystemRow(tgt canonical.Record) ResultRow {
	return ResultRow{
		Status:          StatusMissingInSystem,
		ArticleCode:     tgt.ArticleCode,
		ArticleName:     tgt.ArticleName,
		QuantityTarget:  tgt.Quantity,
		UnitPriceTarget: tgt.UnitPrice,
		LineTotalTarget: tgt.LineTotal,
		TaxTarget:       tgt.TaxRate,
		Explanation:     "line appears in the supplier document but not in the system export",
	}
}

func joinSegments(segments []string) string {
	out := ""
	for i, s := range segments {
		if i > 0 {
			out += "; "
		}
		out += s
	}
	return out
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
