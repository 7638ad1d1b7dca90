package comparator

// Summary counts result rows per status. Every known status is present
// in the counts, zero included.
type Summary struct {
	TotalRows    int            `json:"total_rows"`
	StatusCounts map[Status]int `json:"status_counts"`
}

// Summarize builds the per-status summary for a result table.
func Summarize(rows []ResultRow) Summary {
	counts := map[Status]int{
		StatusOK:               0,
		StatusDeviation:        0,
		StatusMissingOnInvoice: 0,
		StatusMissingInSystem:  0,
		StatusPartial:          0,
	}
	for _, row := range rows {
		counts[row.Status]++
	}
	return Summary{TotalRows: len(rows), StatusCounts: counts}
}
