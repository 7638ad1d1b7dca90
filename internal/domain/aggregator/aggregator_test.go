package aggregator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkooistra/factuurcheck/internal/domain/canonical"
	"github.com/bkooistra/factuurcheck/internal/infrastructure/config"
)

func rec(code, name string, qty, price, total float64) canonical.Record {
	r := canonical.Record{
		ArticleName: canonical.String(name),
		Quantity:    canonical.Float(qty),
		UnitPrice:   canonical.Float(price),
		LineTotal:   canonical.Float(total),
	}
	if code != "" {
		r.ArticleCode = canonical.String(code)
	}
	return r
}

func TestAggregate_NoDocuments(t *testing.T) {
	// Arrange
	agg := New(config.DefaultTolerances())

	// Act
	result, err := agg.Aggregate(nil, nil, nil)

	// Assert
	require.ErrorIs(t, err, ErrNoDocuments)
	assert.Nil(t, result)
}

func TestAggregate_LengthMismatch(t *testing.T) {
	// Arrange
	agg := New(config.DefaultTolerances())
	tables := []canonical.Table{{rec("A1", "Widget", 1, 2, 2)}}

	// Act
	_, err := agg.Aggregate(tables, []string{"pakbon-1", "pakbon-2"}, []canonical.Role{canonical.RoleDeliveryNote})

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "length mismatch")
}

func TestAggregate_AllDocumentsEmpty(t *testing.T) {
	// Arrange
	agg := New(config.DefaultTolerances())
	tables := []canonical.Table{{}, {}}
	labels := []string{"pakbon-1", "pakbon-2"}
	roles := []canonical.Role{canonical.RoleDeliveryNote, canonical.RoleDeliveryNote}

	// Act
	_, err := agg.Aggregate(tables, labels, roles)

	// Assert
	require.ErrorIs(t, err, ErrAllDocumentsEmpty)
}

func TestAggregate_SkipsEmptyDocumentWithWarning(t *testing.T) {
	// Arrange
	agg := New(config.DefaultTolerances())
	tables := []canonical.Table{
		{rec("A1", "Widget", 2, 5, 10)},
		{},
	}
	labels := []string{"pakbon-1", "pakbon-2"}
	roles := []canonical.Role{canonical.RoleDeliveryNote, canonical.RoleDeliveryNote}

	// Act
	result, err := agg.Aggregate(tables, labels, roles)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, result.Metadata.DocumentCount)
	assert.Equal(t, 1, result.Metadata.ProcessedCount)
	assert.Equal(t, []int{1}, result.Metadata.SkippedEmpty)
	assert.Equal(t, []string{"pakbon-1"}, result.Metadata.Labels)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "pakbon-2")
}

func TestAggregate_SingleDocumentIsIdentityAfterFilter(t *testing.T) {
	// Arrange
	agg := New(config.DefaultTolerances())
	tables := []canonical.Table{{
		rec("A1", "Widget", 2, 5, 10),
		rec("A2", "Gadget", 0, 3, 0),
		rec("A1", "Widget", 1, 5, 5),
	}}

	// Act
	result, err := agg.Aggregate(tables, []string{"factuur"}, []canonical.Role{canonical.RoleInvoice})

	// Assert
	require.NoError(t, err)
	// Duplicate keys stay separate rows, only the zero-quantity row drops.
	require.Len(t, result.Table, 2)
	assert.Equal(t, "Widget", *result.Table[0].ArticleName)
	assert.Equal(t, "Widget", *result.Table[1].ArticleName)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "quantity=0")
}

func TestAggregate_MergesMatchingArticlesAcrossDocuments(t *testing.T) {
	// Arrange
	agg := New(config.DefaultTolerances())
	tables := []canonical.Table{
		{rec("A1", "Widget  Large", 2, 5, 10)},
		{rec("A1", "widget large", 3, 5, 15)},
	}
	labels := []string{"pakbon-1", "pakbon-2"}
	roles := []canonical.Role{canonical.RoleDeliveryNote, canonical.RoleDeliveryNote}

	// Act
	result, err := agg.Aggregate(tables, labels, roles)

	// Assert
	require.NoError(t, err)
	require.Len(t, result.Table, 1)
	merged := result.Table[0]
	assert.Equal(t, "A1", *merged.ArticleCode)
	assert.Equal(t, "Widget  Large", *merged.ArticleName)
	assert.InDelta(t, 5.0, *merged.Quantity, 1e-9)
	assert.InDelta(t, 25.0, *merged.LineTotal, 1e-9)
	assert.InDelta(t, 5.0, *merged.UnitPrice, 1e-9)
	assert.Equal(t, 2, result.Metadata.InputRows)
	assert.Equal(t, 1, result.Metadata.OutputRows)
}

func TestAggregate_WeightedAveragePrice(t *testing.T) {
	// Arrange
	agg := New(config.DefaultTolerances())
	tables := []canonical.Table{
		{rec("A1", "Widget", 1, 10, 10)},
		{rec("A1", "Widget", 3, 10.02, 30.06)},
	}
	labels := []string{"d1", "d2"}
	roles := []canonical.Role{canonical.RoleDeliveryNote, canonical.RoleDeliveryNote}

	// Act
	result, err := agg.Aggregate(tables, labels, roles)

	// Assert
	require.NoError(t, err)
	require.Len(t, result.Table, 1)
	assert.InDelta(t, 40.06/4.0, *result.Table[0].UnitPrice, 1e-9)
}

func TestAggregate_PriceInconsistencyWarning(t *testing.T) {
	// Arrange
	agg := New(config.DefaultTolerances())
	tables := []canonical.Table{
		{rec("A1", "Widget", 1, 10.00, 10.00)},
		{rec("A1", "Widget", 1, 10.50, 10.50)},
	}
	labels := []string{"d1", "d2"}
	roles := []canonical.Role{canonical.RoleDeliveryNote, canonical.RoleDeliveryNote}

	// Act
	result, err := agg.Aggregate(tables, labels, roles)

	// Assert
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "A1")
	assert.Contains(t, result.Warnings[0], "€10.00")
	assert.Contains(t, result.Warnings[0], "€10.50")
}

func TestAggregate_PriceDifferenceWithinToleranceNoWarning(t *testing.T) {
	// Arrange
	agg := New(config.DefaultTolerances())
	tables := []canonical.Table{
		{rec("A1", "Widget", 1, 10.00, 10.00)},
		{rec("A1", "Widget", 1, 10.01, 10.01)},
	}
	labels := []string{"d1", "d2"}
	roles := []canonical.Role{canonical.RoleDeliveryNote, canonical.RoleDeliveryNote}

	// Act
	result, err := agg.Aggregate(tables, labels, roles)

	// Assert
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
}

func TestAggregate_WithoutCodeGroupsByNormalizedName(t *testing.T) {
	// Arrange
	agg := New(config.DefaultTolerances())
	tables := []canonical.Table{
		{rec("", "Kabel 3m", 2, 4, 8)},
		{rec("", "KABEL   3M", 1, 4, 4)},
		{rec("", "Stekker", 1, 2, 2)},
	}
	labels := []string{"d1", "d2", "d3"}
	roles := []canonical.Role{canonical.RoleDeliveryNote, canonical.RoleDeliveryNote, canonical.RoleDeliveryNote}

	// Act
	result, err := agg.Aggregate(tables, labels, roles)

	// Assert
	require.NoError(t, err)
	require.Len(t, result.Table, 2)
	assert.Equal(t, "Kabel 3m", *result.Table[0].ArticleName)
	assert.InDelta(t, 3.0, *result.Table[0].Quantity, 1e-9)
	assert.Equal(t, "Stekker", *result.Table[1].ArticleName)
}

func TestAggregate_ModalTaxRateTieBreaksOnSmallest(t *testing.T) {
	// Arrange
	agg := New(config.DefaultTolerances())
	r1 := rec("A1", "Widget", 1, 5, 5)
	r1.TaxRate = canonical.Float(21)
	r2 := rec("A1", "Widget", 1, 5, 5)
	r2.TaxRate = canonical.Float(9)
	tables := []canonical.Table{{r1}, {r2}}
	labels := []string{"d1", "d2"}
	roles := []canonical.Role{canonical.RoleDeliveryNote, canonical.RoleDeliveryNote}

	// Act
	result, err := agg.Aggregate(tables, labels, roles)

	// Assert
	require.NoError(t, err)
	require.Len(t, result.Table, 1)
	require.NotNil(t, result.Table[0].TaxRate)
	assert.Equal(t, 9.0, *result.Table[0].TaxRate)
}

func TestAggregate_PriceWarningWithoutCode(t *testing.T) {
	// Arrange
	agg := New(config.DefaultTolerances())
	tables := []canonical.Table{
		{rec("", "Widget", 1, 10.00, 10.00)},
		{rec("", "Widget", 1, 12.00, 12.00)},
	}
	labels := []string{"d1", "d2"}
	roles := []canonical.Role{canonical.RoleDeliveryNote, canonical.RoleDeliveryNote}

	// Act
	result, err := agg.Aggregate(tables, labels, roles)

	// Assert
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.True(t, strings.Contains(result.Warnings[0], "without code"))
}

func TestAggregate_ConservesQuantityAndTotal(t *testing.T) {
	// Arrange: three documents with overlaps and a filtered zero line.
	agg := New(config.DefaultTolerances())
	tables := []canonical.Table{
		{rec("A1", "Widget", 2, 5, 10), rec("A2", "Gadget", 1, 3, 3)},
		{rec("A1", "Widget", 3, 5, 15), rec("", "Los artikel", 4, 2, 8)},
		{rec("A2", "Gadget", 0, 3, 0), rec("A2", "Gadget", 6, 3, 18)},
	}
	labels := []string{"pakbon-1", "pakbon-2", "pakbon-3"}
	roles := []canonical.Role{canonical.RoleDeliveryNote, canonical.RoleDeliveryNote, canonical.RoleDeliveryNote}

	// Act
	result, err := agg.Aggregate(tables, labels, roles)

	// Assert: sums over the output equal sums over the kept input rows.
	require.NoError(t, err)
	var qtySum, totalSum float64
	for _, r := range result.Table {
		require.NotNil(t, r.Quantity)
		require.NotNil(t, r.LineTotal)
		qtySum += *r.Quantity
		totalSum += *r.LineTotal
	}
	assert.InDelta(t, 16.0, qtySum, 1e-9)
	assert.InDelta(t, 54.0, totalSum, 1e-9)
	assert.Equal(t, 7, result.Metadata.InputRows)
	assert.Equal(t, 3, result.Metadata.OutputRows)
}
