// Package supplierpdf converts supplier invoice PDFs into raw tables
// using per-supplier layout templates.
//
// Extraction is template-based for reliability: a template identifies
// the supplier in the document text and describes how one article line
// looks. Unknown suppliers, unreadable files and implausible extraction
// results each surface as a distinct error so the caller can tell the
// user what to do about it.
package supplierpdf

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/bkooistra/factuurcheck/internal/domain/canonical"
)

// ErrUnknownSupplier means no template matched the document text.
var ErrUnknownSupplier = errors.New("supplier not recognized, no template available")

// ErrParseFailed means the file could not be read or its text did not
// yield any article lines.
var ErrParseFailed = errors.New("pdf could not be parsed")

// ErrImplausibleExtraction means lines were extracted but the result
// fails the template's plausibility checks.
var ErrImplausibleExtraction = errors.New("extracted data looks incomplete")

// ErrScannedDocument means the PDF has no usable text layer, typically a
// scan or photo of a paper document.
var ErrScannedDocument = errors.New("pdf bevat geen tekstlaag (gescand document), vraag een digitale versie aan")

// scannedTextThreshold is the minimum number of non-whitespace runes a
// text-layer PDF is expected to yield. Anything below this is treated as
// a scan.
const scannedTextThreshold = 20

// TextExtractor produces the plain text of a PDF. The concrete
// extraction mechanics (layout engines, OCR) live behind this interface.
type TextExtractor interface {
	ExtractText(path string) (string, error)
}

// Template describes one supplier's invoice layout.
type Template struct {
	// Name is the supplier display name.
	Name string

	// IdentifierPattern recognizes the supplier in the document text.
	IdentifierPattern *regexp.Regexp

	// LinePattern matches one article line. Named groups map directly
	// to canonical columns (article_code, article_name, quantity,
	// unit_price, line_total).
	LinePattern *regexp.Regexp

	// MinRows is the minimum plausible number of article lines.
	MinRows int

	// TotalMarkerPattern, when set, must appear somewhere in the text
	// or the extraction is considered truncated.
	TotalMarkerPattern *regexp.Regexp
}

// Converter turns supplier PDFs into raw tables.
type Converter struct {
	extractor TextExtractor
	templates []Template
	preflight func(path string) error
}

// New creates a converter with the built-in supplier templates.
func New(extractor TextExtractor) *Converter {
	return NewWithTemplates(extractor, builtinTemplates())
}

// NewWithTemplates creates a converter with a custom template set.
func NewWithTemplates(extractor TextExtractor, templates []Template) *Converter {
	return &Converter{
		extractor: extractor,
		templates: templates,
		preflight: pdfcpuPreflight,
	}
}

// Suppliers lists the supplier names the converter has templates for.
func (c *Converter) Suppliers() []string {
	names := make([]string, len(c.templates))
	for i, t := range c.templates {
		names[i] = t.Name
	}
	return names
}

// DetectSupplier identifies which known supplier produced the PDF, based
// on its text content.
func (c *Converter) DetectSupplier(path string) (string, error) {
	text, err := c.extractText(path)
	if err != nil {
		return "", err
	}
	if t := c.matchTemplate(text); t != nil {
		return t.Name, nil
	}
	return "", fmt.Errorf("%s: %w", filepath.Base(path), ErrUnknownSupplier)
}

// Convert extracts the article lines of a supplier PDF into a raw
// table. The supplier is auto-detected from the document text.
func (c *Converter) Convert(path string) (canonical.RawTable, error) {
	text, err := c.extractText(path)
	if err != nil {
		return canonical.RawTable{}, err
	}

	tmpl := c.matchTemplate(text)
	if tmpl == nil {
		return canonical.RawTable{}, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnknownSupplier)
	}

	table := extractLines(tmpl, text, filepath.Base(path))
	if len(table.Rows) == 0 {
		return canonical.RawTable{}, fmt.Errorf("%s: no article lines found for supplier %s: %w",
			filepath.Base(path), tmpl.Name, ErrParseFailed)
	}

	if err := plausible(tmpl, table, text); err != nil {
		return canonical.RawTable{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return table, nil
}

// extractText runs the pdfcpu preflight before handing the file to the
// text extractor, so corrupt uploads fail with a clear parse error
// instead of garbage text.
func (c *Converter) extractText(path string) (string, error) {
	if err := c.preflight(path); err != nil {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	text, err := c.extractor.ExtractText(path)
	if err != nil {
		return "", fmt.Errorf("%s: extract text: %w", filepath.Base(path), ErrParseFailed)
	}
	if visibleRunes(text) < scannedTextThreshold {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), ErrScannedDocument)
	}
	return text, nil
}

func visibleRunes(text string) int {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func pdfcpuPreflight(path string) error {
	if err := api.ValidateFile(path, nil); err != nil {
		return fmt.Errorf("invalid pdf: %w", ErrParseFailed)
	}
	pages, err := api.PageCountFile(path)
	if err != nil || pages == 0 {
		return fmt.Errorf("unreadable pdf: %w", ErrParseFailed)
	}
	return nil
}

func (c *Converter) matchTemplate(text string) *Template {
	for i := range c.templates {
		if c.templates[i].IdentifierPattern.MatchString(text) {
			return &c.templates[i]
		}
	}
	return nil
}

// extractLines applies the line pattern to the text. Named groups become
// raw column values; the raw table headers are the canonical columns the
// pattern captures.
func extractLines(tmpl *Template, text, source string) canonical.RawTable {
	groupNames := tmpl.LinePattern.SubexpNames()

	var headers []string
	for _, name := range groupNames {
		if name != "" {
			headers = append(headers, name)
		}
	}

	table := canonical.RawTable{Headers: headers, Source: source}
	for _, match := range tmpl.LinePattern.FindAllStringSubmatch(text, -1) {
		row := make(map[string]string, len(headers))
		for gi, name := range groupNames {
			if name != "" {
				row[name] = match[gi]
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// plausible checks the extraction against the template's sanity limits.
// A scanned or truncated PDF typically yields a handful of mangled lines
// and no totals section.
func plausible(tmpl *Template, table canonical.RawTable, text string) error {
	minRows := tmpl.MinRows
	if minRows < 1 {
		minRows = 1
	}
	if len(table.Rows) < minRows {
		return fmt.Errorf("found %d article lines, expected at least %d for supplier %s: %w",
			len(table.Rows), minRows, tmpl.Name, ErrImplausibleExtraction)
	}
	if tmpl.TotalMarkerPattern != nil && !tmpl.TotalMarkerPattern.MatchString(text) {
		return fmt.Errorf("totals section missing for supplier %s: %w",
			tmpl.Name, ErrImplausibleExtraction)
	}
	return nil
}
