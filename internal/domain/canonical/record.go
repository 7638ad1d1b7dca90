// Package canonical defines the shared line-item schema that every input
// document is normalized into.
//
// All pipeline stages (normalizer, validator, aggregator, matcher,
// comparator) exchange data in this shape. The column name constants are
// the interchange contract with the reporting collaborator and must not
// be renamed.
package canonical

import (
	"strconv"
	"strings"
)

// Canonical column names, in fixed output order.
const (
	ColArticleCode = "article_code"
	ColArticleName = "article_name"
	ColQuantity    = "quantity"
	ColUnitPrice   = "unit_price"
	ColLineTotal   = "line_total"
	ColTaxRate     = "tax_rate"
)

// Columns returns the canonical column list in fixed order.
func Columns() []string {
	return []string{
		ColArticleCode,
		ColArticleName,
		ColQuantity,
		ColUnitPrice,
		ColLineTotal,
		ColTaxRate,
	}
}

// RequiredColumns are the columns required for a full comparison.
// article_code and tax_rate are optional.
func RequiredColumns() []string {
	return []string{ColArticleName, ColQuantity, ColUnitPrice, ColLineTotal}
}

// NumericColumns are the columns coerced to float64 during normalization.
func NumericColumns() []string {
	return []string{ColQuantity, ColUnitPrice, ColLineTotal, ColTaxRate}
}

// Record is one article line in canonical shape. Missing data is an
// explicit nil, never a zero value: a nil Quantity means "unknown",
// a *float64 pointing at 0 means "zero".
type Record struct {
	ArticleCode *string  `json:"article_code"`
	ArticleName *string  `json:"article_name"`
	Quantity    *float64 `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price"`
	LineTotal   *float64 `json:"line_total"`
	TaxRate     *float64 `json:"tax_rate"`
}

// Table is an ordered set of canonical records. Row order is significant:
// the matcher's first-found semantics depend on it.
type Table []Record

// Role classifies a source document within a comparison side.
type Role string

const (
	RoleDeliveryNote Role = "pakbon"
	RoleInvoice      Role = "factuur"
	RoleUnknown      Role = "onbekend"
)

// RawTable is a loosely structured table as produced by the document
// readers, before column mapping and type coercion.
type RawTable struct {
	Headers []string
	Rows    []map[string]string
	Source  string
}

// ToRaw renders the table back into raw string form with canonical
// headers. Absent fields render as empty strings.
func (t Table) ToRaw(source string) RawTable {
	raw := RawTable{
		Headers: Columns(),
		Rows:    make([]map[string]string, len(t)),
		Source:  source,
	}
	for i, rec := range t {
		row := map[string]string{
			ColArticleCode: strVal(rec.ArticleCode),
			ColArticleName: strVal(rec.ArticleName),
			ColQuantity:    floatVal(rec.Quantity),
			ColUnitPrice:   floatVal(rec.UnitPrice),
			ColLineTotal:   floatVal(rec.LineTotal),
			ColTaxRate:     floatVal(rec.TaxRate),
		}
		raw.Rows[i] = row
	}
	return raw
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func floatVal(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

// String returns a pointer to s. Convenience for building records.
func String(s string) *string { return &s }

// Float returns a pointer to f. Convenience for building records.
func Float(f float64) *float64 { return &f }

// NormalizeName lowercases a name and collapses internal whitespace runs
// to single spaces. Used for grouping and for tier-2 matching; storage
// always keeps the original casing.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
