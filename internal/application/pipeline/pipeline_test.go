package pipeline

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkooistra/factuurcheck/internal/audit"
	"github.com/bkooistra/factuurcheck/internal/domain/canonical"
	"github.com/bkooistra/factuurcheck/internal/domain/comparator"
	"github.com/bkooistra/factuurcheck/internal/infrastructure/config"
	"github.com/bkooistra/factuurcheck/internal/infrastructure/storage"
)

func newTestPipeline(repo storage.Repository) *Pipeline {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{Tolerances: config.DefaultTolerances()}
	return New(cfg, logger, audit.New(logger, repo))
}

func systemDoc(rows ...map[string]string) Document {
	return Document{
		Table: canonical.RawTable{Headers: canonical.Columns(), Rows: rows, Source: "export.csv"},
		Label: "systeemexport",
		Role:  canonical.RoleUnknown,
	}
}

func supplierDoc(label string, role canonical.Role, rows ...map[string]string) Document {
	return Document{
		Table: canonical.RawTable{
			Headers: []string{"artikelcode", "omschrijving", "aantal", "prijs", "bedrag"},
			Rows:    rows,
			Source:  label,
		},
		Label: label,
		Role:  role,
	}
}

func sysRow(code, name, qty, price, total string) map[string]string {
	return map[string]string{
		canonical.ColArticleCode: code,
		canonical.ColArticleName: name,
		canonical.ColQuantity:    qty,
		canonical.ColUnitPrice:   price,
		canonical.ColLineTotal:   total,
		canonical.ColTaxRate:     "",
	}
}

func supRow(code, name, qty, price, total string) map[string]string {
	return map[string]string{
		"artikelcode":  code,
		"omschrijving": name,
		"aantal":       qty,
		"prijs":        price,
		"bedrag":       total,
	}
}

func TestRun_EndToEnd(t *testing.T) {
	// Arrange
	repo := storage.NewMockRepository()
	p := newTestPipeline(repo)
	input := Input{
		SystemDocuments: []Document{systemDoc(
			sysRow("A1", "Widget", "10", "10,00", "100,00"),
			sysRow("B2", "Gadget", "5", "4,00", "20,00"),
		)},
		SupplierDocuments: []Document{supplierDoc("pakbon-1", canonical.RoleDeliveryNote,
			supRow("A1", "Widget", "10", "10,00", "100,00"),
			supRow("B2", "Gadget", "4", "4,00", "16,00"),
		)},
	}

	// Act
	out, err := p.Run(context.Background(), input)

	// Assert
	require.NoError(t, err)
	require.Len(t, out.Rows, 2)
	// Deviations sort first.
	assert.Equal(t, comparator.StatusDeviation, out.Rows[0].Status)
	assert.Equal(t, "Gadget", *out.Rows[0].ArticleName)
	assert.Equal(t, comparator.StatusOK, out.Rows[1].Status)
	assert.Equal(t, 2, out.Summary.TotalRows)
	assert.Equal(t, 1, out.Summary.StatusCounts[comparator.StatusDeviation])

	// The run landed in the history.
	saved, err := repo.GetRun(out.RunID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, 2, saved.ResultRows)
}

func TestRun_MultipleSupplierDocumentsAggregate(t *testing.T) {
	// Arrange: the same article split over two delivery notes sums up
	// before matching.
	p := newTestPipeline(nil)
	input := Input{
		SystemDocuments: []Document{systemDoc(
			sysRow("A1", "Widget", "15", "5,00", "75,00"),
		)},
		SupplierDocuments: []Document{
			supplierDoc("pakbon-1", canonical.RoleDeliveryNote,
				supRow("A1", "Widget", "10", "5,00", "50,00")),
			supplierDoc("pakbon-2", canonical.RoleDeliveryNote,
				supRow("A1", "Widget", "5", "5,00", "25,00")),
		},
	}

	// Act
	out, err := p.Run(context.Background(), input)

	// Assert
	require.NoError(t, err)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, comparator.StatusOK, out.Rows[0].Status)
	assert.Equal(t, 15.0, *out.Rows[0].QuantityTarget)
}

func TestRun_ValidationFailureStopsRun(t *testing.T) {
	// Arrange
	p := newTestPipeline(nil)
	input := Input{
		SystemDocuments: []Document{systemDoc(
			sysRow("A1", "Widget", "tien", "10,00", "100,00"),
		)},
		SupplierDocuments: []Document{supplierDoc("pakbon-1", canonical.RoleDeliveryNote,
			supRow("A1", "Widget", "10", "10,00", "100,00"),
		)},
	}

	// Act
	_, err := p.Run(context.Background(), input)

	// Assert
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Issues, 1)
	assert.Contains(t, verr.Issues[0], "'tien'")
}

func TestRun_SupplierColumnsMappedBeforeValidation(t *testing.T) {
	// Arrange: supplier headers are Dutch variants, validation must see
	// them as canonical columns instead of reporting them missing.
	p := newTestPipeline(nil)
	input := Input{
		SystemDocuments: []Document{systemDoc(
			sysRow("A1", "Widget", "1", "2,00", "2,00"),
		)},
		SupplierDocuments: []Document{supplierDoc("factuur-1", canonical.RoleInvoice,
			supRow("A1", "Widget", "1", "2,00", "2,00"),
		)},
	}

	// Act
	out, err := p.Run(context.Background(), input)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, out.Summary.StatusCounts[comparator.StatusOK])
}

func TestRun_NoSystemDocuments(t *testing.T) {
	// Arrange
	p := newTestPipeline(nil)

	// Act
	_, err := p.Run(context.Background(), Input{
		SupplierDocuments: []Document{supplierDoc("pakbon-1", canonical.RoleDeliveryNote)},
	})

	// Assert
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Issues[0], "no system export")
}

func TestRun_NoSupplierDocuments(t *testing.T) {
	// Arrange
	p := newTestPipeline(nil)

	// Act
	_, err := p.Run(context.Background(), Input{
		SystemDocuments: []Document{systemDoc(sysRow("A1", "Widget", "1", "1,00", "1,00"))},
	})

	// Assert
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Issues[0], "no supplier documents")
}

func TestRun_CancelledContext(t *testing.T) {
	// Arrange
	p := newTestPipeline(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	input := Input{
		SystemDocuments: []Document{systemDoc(
			sysRow("A1", "Widget", "1", "1,00", "1,00"),
		)},
		SupplierDocuments: []Document{supplierDoc("pakbon-1", canonical.RoleDeliveryNote,
			supRow("A1", "Widget", "1", "1,00", "1,00"),
		)},
	}

	// Act
	_, err := p.Run(ctx, input)

	// Assert
	require.ErrorIs(t, err, context.Canceled)
}
