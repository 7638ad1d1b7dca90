package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkooistra/factuurcheck/internal/domain/canonical"
)

func TestMapColumns_RenamesSynonyms(t *testing.T) {
	// Arrange
	n := New(nil)
	raw := canonical.RawTable{
		Headers: []string{"Artikelcode", "Omschrijving", "Aantal", "Prijs", "Bedrag", "BTW%"},
		Rows: []map[string]string{{
			"Artikelcode":  "A1",
			"Omschrijving": "Widget",
			"Aantal":       "2",
			"Prijs":        "5,00",
			"Bedrag":       "10,00",
			"BTW%":         "21",
		}},
		Source: "pakbon.csv",
	}

	// Act
	mapped := n.MapColumns(raw)

	// Assert
	assert.Equal(t, canonical.Columns(), mapped.Headers)
	require.Len(t, mapped.Rows, 1)
	assert.Equal(t, "A1", mapped.Rows[0][canonical.ColArticleCode])
	assert.Equal(t, "Widget", mapped.Rows[0][canonical.ColArticleName])
	assert.Equal(t, "21", mapped.Rows[0][canonical.ColTaxRate])
	assert.Equal(t, "pakbon.csv", mapped.Source)
}

func TestMapColumns_FirstHeaderWinsOnDuplicateMapping(t *testing.T) {
	// Arrange: both headers map to article_name.
	n := New(nil)
	raw := canonical.RawTable{
		Headers: []string{"Omschrijving", "Artikelnaam"},
		Rows: []map[string]string{{
			"Omschrijving": "Widget",
			"Artikelnaam":  "Other",
		}},
	}

	// Act
	mapped := n.MapColumns(raw)

	// Assert
	assert.Equal(t, "Widget", mapped.Rows[0][canonical.ColArticleName])
}

func TestMapColumns_DropsUnknownAndFillsMissing(t *testing.T) {
	// Arrange
	n := New(nil)
	raw := canonical.RawTable{
		Headers: []string{"Omschrijving", "Magazijnlocatie"},
		Rows: []map[string]string{{
			"Omschrijving":    "Widget",
			"Magazijnlocatie": "B-12",
		}},
	}

	// Act
	mapped := n.MapColumns(raw)

	// Assert
	assert.Equal(t, "", mapped.Rows[0][canonical.ColQuantity])
	assert.NotContains(t, mapped.Rows[0], "Magazijnlocatie")
}

func TestMapColumns_ExtraSynonyms(t *testing.T) {
	// Arrange
	n := New(map[string]string{"Art.Nr.": canonical.ColArticleCode})
	raw := canonical.RawTable{
		Headers: []string{"art.nr."},
		Rows:    []map[string]string{{"art.nr.": "X9"}},
	}

	// Act
	mapped := n.MapColumns(raw)

	// Assert
	assert.Equal(t, "X9", mapped.Rows[0][canonical.ColArticleCode])
}

func TestNormalize_CoercesAndCleans(t *testing.T) {
	// Arrange
	n := New(nil)
	raw := canonical.RawTable{
		Headers: []string{"code", "omschrijving", "aantal", "prijs", "totaal"},
		Rows: []map[string]string{{
			"code":         " A1 ",
			"omschrijving": "  Widget   Large ",
			"aantal":       "2",
			"prijs":        "€ 1.234,56",
			"totaal":       "2.469,12",
		}},
	}

	// Act
	table := n.Normalize(raw, "pakbon-1")

	// Assert
	require.Len(t, table, 1)
	rec := table[0]
	assert.Equal(t, "A1", *rec.ArticleCode)
	assert.Equal(t, "Widget Large", *rec.ArticleName)
	assert.Equal(t, 2.0, *rec.Quantity)
	assert.InDelta(t, 1234.56, *rec.UnitPrice, 1e-9)
	assert.InDelta(t, 2469.12, *rec.LineTotal, 1e-9)
	assert.Nil(t, rec.TaxRate)
}

func TestNormalize_UncoercibleBecomesNil(t *testing.T) {
	// Arrange
	n := New(nil)
	raw := canonical.RawTable{
		Headers: []string{"omschrijving", "aantal"},
		Rows: []map[string]string{{
			"omschrijving": "Widget",
			"aantal":       "twee",
		}},
	}

	// Act
	table := n.Normalize(raw, "pakbon-1")

	// Assert
	require.Len(t, table, 1)
	assert.Nil(t, table[0].Quantity)
	assert.Equal(t, "Widget", *table[0].ArticleName)
}

func TestCleanText(t *testing.T) {
	// Collapses whitespace, preserves casing.
	got := CleanText("  Widget   LARGE ")
	require.NotNil(t, got)
	assert.Equal(t, "Widget LARGE", *got)

	// Sentinel nulls become nil regardless of casing.
	assert.Nil(t, CleanText("None"))
	assert.Nil(t, CleanText("nan"))
	assert.Nil(t, CleanText("NULL"))
	assert.Nil(t, CleanText("   "))
}

func TestCoerceNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"2", 2},
		{"2,5", 2.5},
		{"2.5", 2.5},
		{"1.234,56", 1234.56},
		{"1,234.56", 1234.56},
		{"€10,00", 10},
		{"€ 10.00", 10},
	}
	for _, tc := range cases {
		got := CoerceNumber(tc.in)
		require.NotNil(t, got, "input %q", tc.in)
		assert.InDelta(t, tc.want, *got, 1e-9, "input %q", tc.in)
	}

	assert.Nil(t, CoerceNumber("abc"))
	assert.Nil(t, CoerceNumber(""))
	assert.Nil(t, CoerceNumber("none"))
}

func TestNormalize_Idempotent(t *testing.T) {
	// Arrange: messy input with synonyms, currency noise and a null.
	n := New(nil)
	raw := canonical.RawTable{
		Headers: []string{"Artikelcode", "Omschrijving", "Aantal", "Prijs", "Totaal", "BTW"},
		Rows: []map[string]string{
			{"Artikelcode": " A1 ", "Omschrijving": "Widget   Groot", "Aantal": "10", "Prijs": "€ 2,50", "Totaal": "25,00", "BTW": "21"},
			{"Artikelcode": "", "Omschrijving": "Los artikel", "Aantal": "2,5", "Prijs": "none", "Totaal": "1.234,56", "BTW": ""},
		},
		Source: "pakbon.csv",
	}

	// Act: normalizing an already normalized table changes nothing.
	once := n.Normalize(raw, "pakbon.csv")
	again := n.Normalize(once.ToRaw("pakbon.csv"), "pakbon.csv")

	// Assert
	assert.Equal(t, once, again)
}
