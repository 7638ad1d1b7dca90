// Package normalizer maps loosely structured supplier and system tables
// onto the canonical record model.
//
// Normalization is a pure projection: column mapping via a synonym table,
// absent-marker filling, text cleaning and numeric coercion. It never
// fails on bad data: uncoercible values become explicit absents, and
// detecting them is the validator's job.
package normalizer

import (
	"strconv"
	"strings"

	"github.com/bkooistra/factuurcheck/internal/domain/canonical"
)

// Normalizer projects raw tables onto the canonical model.
type Normalizer struct {
	synonyms map[string]string
}

// New creates a normalizer with the built-in synonym table, extended with
// any extra supplier-specific synonyms (raw lowercase header → canonical
// column).
func New(extraSynonyms map[string]string) *Normalizer {
	syn := make(map[string]string, len(defaultSynonyms)+len(extraSynonyms))
	for k, v := range defaultSynonyms {
		syn[k] = v
	}
	for k, v := range extraSynonyms {
		syn[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return &Normalizer{synonyms: syn}
}

// defaultSynonyms maps common supplier header variants (lowercase) to
// canonical columns. Unrecognized headers are dropped during mapping.
var defaultSynonyms = map[string]string{
	// article_code variants
	"artikel":      canonical.ColArticleCode,
	"artikelcode":  canonical.ColArticleCode,
	"code":         canonical.ColArticleCode,
	"product_code": canonical.ColArticleCode,
	"productcode":  canonical.ColArticleCode,
	"article_code": canonical.ColArticleCode,

	// article_name variants
	"omschrijving": canonical.ColArticleName,
	"artikelnaam":  canonical.ColArticleName,
	"beschrijving": canonical.ColArticleName,
	"product":      canonical.ColArticleName,
	"naam":         canonical.ColArticleName,
	"description":  canonical.ColArticleName,
	"article_name": canonical.ColArticleName,

	// quantity variants
	"qty":         canonical.ColQuantity,
	"aantal":      canonical.ColQuantity,
	"hoeveelheid": canonical.ColQuantity,
	"quantity":    canonical.ColQuantity,
	"aant":        canonical.ColQuantity,

	// unit_price variants
	"price":          canonical.ColUnitPrice,
	"prijs":          canonical.ColUnitPrice,
	"prijs_per_stuk": canonical.ColUnitPrice,
	"stukprijs":      canonical.ColUnitPrice,
	"eenheidsprijs":  canonical.ColUnitPrice,
	"unit_price":     canonical.ColUnitPrice,

	// line_total variants
	"total":        canonical.ColLineTotal,
	"totaal":       canonical.ColLineTotal,
	"totaalbedrag": canonical.ColLineTotal,
	"bedrag":       canonical.ColLineTotal,
	"amount":       canonical.ColLineTotal,
	"line_total":   canonical.ColLineTotal,

	// tax_rate variants
	"btw":            canonical.ColTaxRate,
	"btw_percentage": canonical.ColTaxRate,
	"btwpercentage":  canonical.ColTaxRate,
	"vat":            canonical.ColTaxRate,
	"tax":            canonical.ColTaxRate,
	"btw%":           canonical.ColTaxRate,
	"tax_rate":       canonical.ColTaxRate,
}

// MapColumns renames raw headers to canonical column names using the
// synonym table (case- and whitespace-insensitive). Unrecognized columns
// are dropped; missing canonical columns are added with empty values so
// the result always carries the full canonical header set.
func (n *Normalizer) MapColumns(raw canonical.RawTable) canonical.RawTable {
	rename := make(map[string]string, len(raw.Headers))
	for _, h := range raw.Headers {
		key := strings.ToLower(strings.TrimSpace(h))
		if col, ok := n.synonyms[key]; ok {
			// First header wins when two raw columns map to the same
			// canonical column.
			if _, taken := rename[col]; !taken {
				rename[col] = h
			}
		}
	}

	mapped := canonical.RawTable{
		Headers: canonical.Columns(),
		Rows:    make([]map[string]string, len(raw.Rows)),
		Source:  raw.Source,
	}
	for i, row := range raw.Rows {
		out := make(map[string]string, len(mapped.Headers))
		for _, col := range mapped.Headers {
			if rawHeader, ok := rename[col]; ok {
				out[col] = row[rawHeader]
			} else {
				out[col] = ""
			}
		}
		mapped.Rows[i] = out
	}
	return mapped
}

// Normalize projects a raw table onto the canonical model: columns are
// mapped, text fields cleaned, numeric fields coerced. The result always
// has all six canonical fields per record; missing or uncoercible data
// becomes nil.
func (n *Normalizer) Normalize(raw canonical.RawTable, source string) canonical.Table {
	mapped := n.MapColumns(raw)

	table := make(canonical.Table, 0, len(mapped.Rows))
	for _, row := range mapped.Rows {
		rec := canonical.Record{
			ArticleCode: CleanText(row[canonical.ColArticleCode]),
			ArticleName: CleanText(row[canonical.ColArticleName]),
			Quantity:    CoerceNumber(row[canonical.ColQuantity]),
			UnitPrice:   CoerceNumber(row[canonical.ColUnitPrice]),
			LineTotal:   CoerceNumber(row[canonical.ColLineTotal]),
			TaxRate:     CoerceNumber(row[canonical.ColTaxRate]),
		}
		table = append(table, rec)
	}
	return table
}

// textualNulls are raw values treated as absent after trimming.
var textualNulls = map[string]bool{
	"":     true,
	"none": true,
	"nan":  true,
	"null": true,
}

// CleanText trims a text value, collapses internal whitespace runs to one
// space and converts sentinel nulls to nil. Casing is preserved:
// lowercasing is a matching-time concern, not a storage concern.
func CleanText(v string) *string {
	cleaned := strings.Join(strings.Fields(v), " ")
	if textualNulls[strings.ToLower(cleaned)] {
		return nil
	}
	return &cleaned
}

// CoerceNumber attempts a locale-tolerant conversion of a raw value to a
// float. Both "1.234,56" and "1,234.56" styles are accepted, as are plain
// comma decimals ("2,5"). Unconvertible values yield nil; the validator
// reports them, the normalizer does not.
func CoerceNumber(v string) *float64 {
	s := strings.TrimSpace(v)
	if textualNulls[strings.ToLower(s)] {
		return nil
	}

	s = strings.TrimPrefix(s, "€")
	s = strings.TrimSpace(s)

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		// The rightmost separator is the decimal mark.
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
