package excel

import "strings"

// RawRowData represents a row of raw sheet data keyed by column header
type RawRowData map[string]string

// ExcelData represents a complete sheet
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// Get returns the trimmed value of a column, matching the header case-insensitively
func (r RawRowData) Get(column string) string {
	if v, ok := r[column]; ok {
		return v
	}
	for k, v := range r {
		if strings.EqualFold(k, column) {
			return v
		}
	}
	return ""
}
