// Package classifier detects the role of an uploaded document: delivery
// note, invoice or unknown. Roles drive the comparison sides and the
// user-facing wording ("a delivery note without totals is normal, not an
// error").
package classifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bkooistra/factuurcheck/internal/domain/canonical"
)

// invoiceKeywords are checked first, they are the more specific match.
var invoiceKeywords = []string{
	"factuur",
	"verzamelfactuur",
	"factuurnummer",
	"te betalen",
	"totaal incl",
	"totaal excl",
	"btw bedrag",
	"btw-bedrag",
	"invoice",
}

var deliveryNoteKeywords = []string{
	"pakbon",
	"pakbonnummer",
	"leverdatum",
	"geleverd",
	"levering",
	"delivery note",
	"packing slip",
}

var totalKeywords = []string{
	"totaal excl",
	"totaal incl",
	"subtotaal",
	"btw bedrag",
	"btw-bedrag",
	"te betalen",
	"eindbedrag",
}

// Common Dutch VAT percentages near a btw/vat mention usually indicate a
// totals section.
var vatPercentagePattern = regexp.MustCompile(`\b(6|9|21)%?\s*(btw|vat)\b`)

// Result is the outcome of a document classification.
type Result struct {
	Role           canonical.Role `json:"role"`
	HasTotalAmount bool           `json:"has_total_amount"`
	Message        string         `json:"message"`
}

// DetectRole classifies document text as delivery note, invoice or
// unknown, based on keyword heuristics.
func DetectRole(text string) canonical.Role {
	lower := strings.ToLower(text)

	for _, kw := range invoiceKeywords {
		if strings.Contains(lower, kw) {
			return canonical.RoleInvoice
		}
	}
	for _, kw := range deliveryNoteKeywords {
		if strings.Contains(lower, kw) {
			return canonical.RoleDeliveryNote
		}
	}
	return canonical.RoleUnknown
}

// HasTotalAmount reports whether the text appears to contain a totals or
// VAT section.
func HasTotalAmount(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range totalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return vatPercentagePattern.MatchString(lower)
}

// Classify combines role and total detection for document text and
// builds the user-facing message.
func Classify(text string) Result {
	role := DetectRole(text)
	hasTotal := HasTotalAmount(text)
	return Result{
		Role:           role,
		HasTotalAmount: hasTotal,
		Message:        message(role, hasTotal),
	}
}

// ClassifyHeaders classifies a tabular document (CSV, spreadsheet) by
// its column names. Header hints like "pakbonnummer" beat content
// heuristics for these formats.
func ClassifyHeaders(headers []string) Result {
	joined := strings.ToLower(strings.Join(headers, " "))

	role := DetectRole(joined)
	hasTotal := strings.Contains(joined, "totaal") ||
		strings.Contains(joined, "bedrag") ||
		strings.Contains(joined, "total") ||
		strings.Contains(joined, "amount")

	return Result{
		Role:           role,
		HasTotalAmount: hasTotal,
		Message:        message(role, hasTotal),
	}
}

// message keeps the wording contextual and calm. A delivery note without
// totals is the normal case, so it never reads as a problem.
func message(role canonical.Role, hasTotal bool) string {
	switch role {
	case canonical.RoleDeliveryNote:
		if hasTotal {
			return "Pakbon herkend"
		}
		return "Pakbon herkend — totalen volgen via factuur"
	case canonical.RoleInvoice:
		return "Factuur herkend"
	default:
		return "Document verwerkt"
	}
}

// MessageForSupplier prefixes a classification message with the detected
// supplier name, e.g. "Factuur herkend (Office Supplies BV)".
func MessageForSupplier(result Result, supplier string) string {
	if supplier == "" {
		return result.Message
	}
	switch result.Role {
	case canonical.RoleDeliveryNote:
		if result.HasTotalAmount {
			return fmt.Sprintf("Pakbon herkend (%s)", supplier)
		}
		return fmt.Sprintf("Pakbon herkend (%s) — totalen volgen via factuur", supplier)
	case canonical.RoleInvoice:
		return fmt.Sprintf("Factuur herkend (%s)", supplier)
	default:
		return fmt.Sprintf("Document verwerkt (%s)", supplier)
	}
}
