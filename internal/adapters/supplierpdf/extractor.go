package supplierpdf

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// literalString matches a PDF literal string operand, including escaped
// parentheses and backslashes.
var literalString = regexp.MustCompile(`\((?:\\.|[^\\()])*\)`)

// ContentExtractor pulls text from a PDF's decoded page content streams
// via pdfcpu. It only sees literal string operands of text-show
// operators, which is enough for the text-layer invoices the templates
// target. Scanned documents yield no strings at all and are caught by
// the converter's text-layer check.
type ContentExtractor struct{}

// ExtractText extracts the textual operands of every page, one output
// line per content line that carries text, pages in order.
func (ContentExtractor) ExtractText(path string) (string, error) {
	dir, err := os.MkdirTemp("", "pdfcontent-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	if err := api.ExtractContentFile(path, dir, nil, nil); err != nil {
		return "", fmt.Errorf("extract content: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", err
		}
		b.WriteString(contentText(string(data)))
	}
	return b.String(), nil
}

// contentText renders the literal strings of one content stream. Strings
// on the same content line stay on one output line.
func contentText(content string) string {
	var b strings.Builder
	for _, line := range strings.Split(content, "\n") {
		matches := literalString.FindAllString(line, -1)
		if len(matches) == 0 {
			continue
		}
		parts := make([]string, len(matches))
		for i, m := range matches {
			parts[i] = unescapeLiteral(m[1 : len(m)-1])
		}
		b.WriteString(strings.Join(parts, ""))
		b.WriteByte('\n')
	}
	return b.String()
}

func unescapeLiteral(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
