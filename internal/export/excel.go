package export

import (
	"bytes"
	"fmt"
	"time"

	"wisefido-vitals/internal/models"

	"github.com/xuri/excelize/v2"
)

// RecordsSheet 导出工作表名称
const RecordsSheet = "Records"

// RecordsHeader 导出表头，与 recordRow 的列顺序一致
var RecordsHeader = []string{
	"Patient ID",
	"Timestamp",
	"Time (UTC)",
	"Label",
	"Value",
}

var recordColumnWidths = []float64{12, 16, 24, 22, 12}

func recordRow(rec models.PatientRecord) []interface{} {
	return []interface{}{
		rec.PatientID,
		rec.Timestamp,
		time.UnixMilli(rec.Timestamp).UTC().Format(time.RFC3339),
		rec.RecordType,
		rec.Value,
	}
}

// GenerateRecordsExport 生成测量记录 Excel 文件，records 为空时只有表头
func GenerateRecordsExport(records []models.PatientRecord) ([]byte, error) {
	f := excelize.NewFile()
	if err := writeRecordsSheet(f, records); err != nil {
		f.Close()
		return nil, err
	}

	// WriteTo 期间文件必须保持打开
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRecordsSheet(f *excelize.File, records []models.PatientRecord) error {
	if _, err := f.NewSheet(RecordsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to delete default sheet: %w", err)
	}
	if index, err := f.GetSheetIndex(RecordsSheet); err == nil && index >= 0 {
		f.SetActiveSheet(index)
	}

	header := make([]interface{}, len(RecordsHeader))
	for i, h := range RecordsHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(RecordsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := styleHeader(f, len(RecordsHeader)); err != nil {
		return err
	}

	for i, w := range recordColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(RecordsSheet, col, col, w); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		row := recordRow(rec)
		if err := f.SetSheetRow(RecordsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	// 冻结表头
	if err := f.SetPanes(RecordsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}
	return nil
}

func styleHeader(f *excelize.File, columns int) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellStyle(RecordsSheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	return nil
}
