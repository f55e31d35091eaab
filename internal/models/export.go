package models

// ExportFormat enumerates supported run export renderings.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatJSON ExportFormat = "json"
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatText ExportFormat = "text"
)

// ParseExportFormat validates a raw format string.
func ParseExportFormat(raw string) (ExportFormat, bool) {
	switch ExportFormat(raw) {
	case ExportFormatCSV, ExportFormatJSON, ExportFormatPDF, ExportFormatText:
		return ExportFormat(raw), true
	default:
		return "", false
	}
}
