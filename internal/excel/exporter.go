package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jimmyBizMobile/SensAI/pkg/models"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet the history is written to.
const SheetName = "History"

// Header is the first row of every export.
var Header = []string{"ID", "Asked At", "Grammar Point", "Question", "Correct Answer", "Explanation"}

// ExportHistory writes records to path. The format follows the extension:
// .csv writes CSV, anything else writes an Excel workbook.
func ExportHistory(records []models.QuizHistoryRecord, path string) error {
	if path == "" {
		return fmt.Errorf("output path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return exportToCSV(records, path)
	}
	return exportToExcel(records, path)
}

func row(rec models.QuizHistoryRecord) []string {
	return []string{
		strconv.FormatInt(rec.ID, 10),
		rec.AskedAt.UTC().Format(time.RFC3339),
		rec.GrammarPoint,
		rec.QuestionText,
		rec.CorrectAnswer,
		rec.Explanation,
	}
}

// exportToExcel writes a workbook with a single History sheet
func exportToExcel(records []models.QuizHistoryRecord, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), SheetName)

	if err := f.SetSheetRow(SheetName, "A1", &Header); err != nil {
		return fmt.Errorf("failed to write header: %v", err)
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			rec.ID,
			rec.AskedAt.UTC().Format(time.RFC3339),
			rec.GrammarPoint,
			rec.QuestionText,
			rec.CorrectAnswer,
			rec.Explanation,
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %v", i+2, err)
		}
	}

	if err := f.SetColWidth(SheetName, "C", "F", 30); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %v", err)
	}
	return nil
}

// exportToCSV writes the same columns as CSV
func exportToCSV(records []models.QuizHistoryRecord, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(Header); err != nil {
		return err
	}
	for _, rec := range records {
		if err := w.Write(row(rec)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write CSV file: %v", err)
	}
	return file.Close()
}
