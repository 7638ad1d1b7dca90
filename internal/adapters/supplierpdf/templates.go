package supplierpdf

import "regexp"

// builtinTemplates returns the known supplier layouts. Line patterns use
// named groups that map onto canonical columns.
func builtinTemplates() []Template {
	return []Template{
		{
			Name:              "Office Supplies BV",
			IdentifierPattern: regexp.MustCompile(`(?i)Office\s+Supplies\s+BV`),
			// A1234  Paperclips groot  10  2,50  25,00
			LinePattern: regexp.MustCompile(
				`(?m)^(?P<article_code>[A-Z]\d{3,6})\s{2,}(?P<article_name>\S.*?\S)\s{2,}` +
					`(?P<quantity>\d+(?:,\d+)?)\s{2,}(?P<unit_price>\d+,\d{2})\s{2,}(?P<line_total>\d+(?:\.\d{3})*,\d{2})\s*$`),
			MinRows:            1,
			TotalMarkerPattern: regexp.MustCompile(`(?i)totaal\s+excl`),
		},
		{
			Name:              "TechParts Nederland",
			IdentifierPattern: regexp.MustCompile(`(?i)TechParts\s+Nederland`),
			// TP-8821 | Kabel HDMI 3m | 4 | 7,95 | 31,80
			LinePattern: regexp.MustCompile(
				`(?m)^(?P<article_code>TP-\d{3,5})\s*\|\s*(?P<article_name>[^|]+?)\s*\|\s*` +
					`(?P<quantity>\d+(?:,\d+)?)\s*\|\s*(?P<unit_price>\d+,\d{2})\s*\|\s*(?P<line_total>\d+(?:\.\d{3})*,\d{2})\s*$`),
			MinRows:            1,
			TotalMarkerPattern: regexp.MustCompile(`(?i)factuurtotaal`),
		},
		{
			Name:              "Groothandel De Vries",
			IdentifierPattern: regexp.MustCompile(`(?i)Groothandel\s+De\s+Vries`),
			// Lines carry no article code, only a description.
			LinePattern: regexp.MustCompile(
				`(?m)^(?P<quantity>\d+(?:,\d+)?)\s*x\s+(?P<article_name>\S.*?\S)\s+à\s+` +
					`(?P<unit_price>\d+,\d{2})\s+=\s+(?P<line_total>\d+(?:\.\d{3})*,\d{2})\s*$`),
			MinRows:            2,
			TotalMarkerPattern: regexp.MustCompile(`(?i)te\s+betalen`),
		},
	}
}
