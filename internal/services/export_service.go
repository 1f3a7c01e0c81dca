package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/sjperalta/car-ledger-api/internal/models"
	"github.com/sjperalta/car-ledger-api/internal/storage"
	"github.com/sjperalta/car-ledger-api/pkg/logger"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var ErrUnsupportedFormat = fmt.Errorf("unsupported export format, use %s or %s", FormatCSV, FormatXLSX)

// ExportService renders conversion reports for download and keeps a copy in
// the export directory
type ExportService struct {
	storage *storage.LocalStorage
}

func NewExportService(store *storage.LocalStorage) *ExportService {
	return &ExportService{storage: store}
}

// Export renders report in format and archives it
func (s *ExportService) Export(report *models.ConversionReport, format string) ([]byte, string, error) {
	var (
		data     []byte
		filename string
		err      error
	)
	switch strings.ToLower(format) {
	case FormatCSV, "":
		data, filename, err = s.ExportCSV(report)
	case FormatXLSX:
		data, filename, err = s.ExportXLSX(report)
	default:
		return nil, "", ErrUnsupportedFormat
	}
	if err != nil {
		return nil, "", err
	}

	if path, err := s.storage.SaveExport(data, filename); err != nil {
		logger.Warn("Failed to archive conversion report", "file", filename, "error", err)
	} else {
		logger.Info("Conversion report archived", "path", path)
	}
	return data, filename, nil
}

func reportFilename(report *models.ConversionReport, ext string) string {
	id := report.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("conversion_report_%s_%s.%s", report.FinishedAt.Format("2006-01-02"), id, ext)
}

func (s *ExportService) ExportCSV(report *models.ConversionReport) ([]byte, string, error) {
	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	// Header
	_ = writer.Write([]string{"RON to EUR conversion report", report.FinishedAt.Format("2006-01-02 15:04")})
	_ = writer.Write([]string{"Rate (RON per EUR)", report.Rate.String()})
	_ = writer.Write([]string{"Operator", report.Actor})
	_ = writer.Write([]string{"Method", models.ConversionMethod})
	_ = writer.Write([]string{""})

	// Tables
	_ = writer.Write([]string{"Database", "Table", "Fields", "Records", "Original RON", "Converted EUR", "Theoretical EUR", "Rounding difference"})
	for _, t := range report.Tables {
		_ = writer.Write([]string{
			t.Database, t.Table, strings.Join(t.Fields, " "), fmt.Sprintf("%d", t.Records),
			t.OriginalRON.StringFixed(2), t.ConvertedEUR.StringFixed(2),
			t.TheoreticalEUR.StringFixed(2), signed(t.RoundingDifference),
		})
	}
	_ = writer.Write([]string{
		"Total", "", "", "",
		report.TotalOriginalRON.StringFixed(2), report.TotalConvertedEUR.StringFixed(2),
		report.TotalTheoreticalEUR.StringFixed(2), signed(report.TotalRoundingDifference),
	})
	_ = writer.Write([]string{""})

	// Copied without conversion
	_ = writer.Write([]string{"Copied without conversion"})
	_ = writer.Write([]string{"Database", "Table", "Records"})
	for _, c := range report.Copied {
		_ = writer.Write([]string{c.Database, c.Table, fmt.Sprintf("%d", c.Records)})
	}
	_ = writer.Write([]string{""})

	// Integrity
	_ = writer.Write([]string{"Member registry check"})
	_ = writer.Write([]string{"Registered members", fmt.Sprintf("%d", report.Integrity.RegistryCount)})
	_ = writer.Write([]string{"Members with ledger activity", fmt.Sprintf("%d", report.Integrity.LedgerCount)})
	_ = writer.Write([]string{"Only in ledger", joinIDs(report.Integrity.OnlyInLedger)})
	_ = writer.Write([]string{"Only in registry", joinIDs(report.Integrity.OnlyInRegistry)})

	for _, w := range report.Warnings {
		_ = writer.Write([]string{"Warning", w})
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), reportFilename(report, FormatCSV), nil
}

func (s *ExportService) ExportXLSX(report *models.ConversionReport) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Conversion"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	boldStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	_ = f.SetCellValue(sheet, "A1", "RON to EUR conversion report")
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)
	_ = f.SetCellValue(sheet, "A2", "Rate (RON per EUR)")
	_ = f.SetCellValue(sheet, "B2", report.Rate.String())
	_ = f.SetCellValue(sheet, "A3", "Operator")
	_ = f.SetCellValue(sheet, "B3", report.Actor)
	_ = f.SetCellValue(sheet, "A4", "Converted at")
	_ = f.SetCellValue(sheet, "B4", report.FinishedAt.Format("2006-01-02 15:04"))

	headers := []string{"Database", "Table", "Fields", "Records", "Original RON", "Converted EUR", "Theoretical EUR", "Rounding difference"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 6)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	row := 7
	for _, t := range report.Tables {
		_ = f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &[]interface{}{
			t.Database, t.Table, strings.Join(t.Fields, " "), t.Records,
			t.OriginalRON.InexactFloat64(), t.ConvertedEUR.InexactFloat64(),
			t.TheoreticalEUR.InexactFloat64(), t.RoundingDifference.InexactFloat64(),
		})
		row++
	}
	_ = f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &[]interface{}{
		"Total", "", "", "",
		report.TotalOriginalRON.InexactFloat64(), report.TotalConvertedEUR.InexactFloat64(),
		report.TotalTheoreticalEUR.InexactFloat64(), report.TotalRoundingDifference.InexactFloat64(),
	})
	_ = f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("H%d", row), boldStyle)
	row += 2

	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Copied without conversion")
	_ = f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), boldStyle)
	row++
	for _, c := range report.Copied {
		_ = f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &[]interface{}{c.Database, c.Table, "", c.Records})
		row++
	}
	row++

	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Only in ledger")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), joinIDs(report.Integrity.OnlyInLedger))
	row++
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Only in registry")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), joinIDs(report.Integrity.OnlyInRegistry))

	_ = f.SetColWidth(sheet, "A", "H", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	return buf.Bytes(), reportFilename(report, FormatXLSX), nil
}

func signed(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + d.StringFixed(2)
	}
	return d.StringFixed(2)
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, " ")
}
