package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fmuoria/interview-coach/internal/interview"
	"github.com/fmuoria/interview-coach/internal/storage"
)

const (
	summarySheet    = "Summary"
	interviewsSheet = "Interviews"
	answersSheet    = "Answers"
)

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// WriteResults writes an interview results workbook to w.
func WriteResults(results []storage.InterviewRecord, w io.Writer) error {
	f, err := buildWorkbook(results)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ExportToExcel saves an interview results workbook to outputPath,
// adding the .xlsx extension when missing.
func ExportToExcel(results []storage.InterviewRecord, outputPath string) error {
	f, err := buildWorkbook(results)
	if err != nil {
		return err
	}
	defer f.Close()

	// Ensure output path has .xlsx extension
	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath = outputPath + ".xlsx"
	}
	outputPath = filepath.Clean(outputPath)

	if err := f.SaveAs(outputPath); err != nil {
		// If direct save fails, try buffer write fallback
		var buf bytes.Buffer
		if writeErr := f.Write(&buf); writeErr != nil {
			return fmt.Errorf("failed to save Excel file: direct save failed (%v), buffer write also failed: %w", err, writeErr)
		}
		if fileErr := os.WriteFile(outputPath, buf.Bytes(), 0644); fileErr != nil {
			return fmt.Errorf("failed to save Excel file: direct save failed (%v), file write failed: %w", err, fileErr)
		}
	}

	return nil
}

func buildWorkbook(results []storage.InterviewRecord) (*excelize.File, error) {
	f := excelize.NewFile()

	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(interviewsSheet); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(answersSheet); err != nil {
		f.Close()
		return nil, err
	}

	if err := createSummarySheet(f, summarySheet, results); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := createInterviewsSheet(f, interviewsSheet, results); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create interviews sheet: %w", err)
	}
	if err := createAnswersSheet(f, answersSheet, results); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create answers sheet: %w", err)
	}
	return f, nil
}

// createSummarySheet writes totals and the verdict split
func createSummarySheet(f *excelize.File, sheetName string, results []storage.InterviewRecord) error {
	f.SetColWidth(sheetName, "A", "A", 28)
	f.SetColWidth(sheetName, "B", "B", 30)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return err
	}

	row := 1
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Interview Results")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), headerStyle)
	f.MergeCell(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row))
	row += 2

	selected, totalPct := 0, 0.0
	for _, r := range results {
		if r.Verdict == interview.VerdictSelected {
			selected++
		}
		totalPct += percent(r)
	}
	avg := 0.0
	if len(results) > 0 {
		avg = totalPct / float64(len(results))
	}

	pairs := []struct {
		label string
		value any
	}{
		{"Generated:", time.Now().Format("2006-01-02 15:04:05")},
		{"Interviews:", len(results)},
		{"Selected:", selected},
		{"Needs Improvement:", len(results) - selected},
		{"Average Score (%):", fmt.Sprintf("%.1f", avg)},
	}
	for _, p := range pairs {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), p.label)
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), p.value)
		row++
	}

	return nil
}

// createInterviewsSheet writes one row per finished interview
func createInterviewsSheet(f *excelize.File, sheetName string, results []storage.InterviewRecord) error {
	widths := map[string]float64{"A": 38, "B": 12, "C": 12, "D": 12, "E": 20, "F": 20, "G": 20}
	for col, w := range widths {
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, err := tableHeaderStyle(f)
	if err != nil {
		return err
	}
	selectedStyle, err := f.NewStyle(&excelize.Style{
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
		Border: thinBorder,
	})
	if err != nil {
		return err
	}
	improveStyle, err := f.NewStyle(&excelize.Style{
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
		Border: thinBorder,
	})
	if err != nil {
		return err
	}

	headers := []string{"Session", "User", "Score", "Max", "Verdict", "Started", "Finished"}
	for col, header := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+col)))
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, r := range results {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), r.SessionID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), r.UserID)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), r.FinalScore)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), r.MaxScore)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), r.Verdict)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), r.StartedAt.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), r.FinishedAt.Format("2006-01-02 15:04:05"))

		style := improveStyle
		if r.Verdict == interview.VerdictSelected {
			style = selectedStyle
		}
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("G%d", row), style)
	}

	freezeHeader(f, sheetName)
	return nil
}

// createAnswersSheet writes the full transcript of every interview
func createAnswersSheet(f *excelize.File, sheetName string, results []storage.InterviewRecord) error {
	f.SetColWidth(sheetName, "A", "A", 38)
	f.SetColWidth(sheetName, "B", "B", 6)
	f.SetColWidth(sheetName, "C", "C", 45)
	f.SetColWidth(sheetName, "D", "D", 60)
	f.SetColWidth(sheetName, "E", "F", 12)

	headerStyle, err := tableHeaderStyle(f)
	if err != nil {
		return err
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    thinBorder,
	})
	if err != nil {
		return err
	}

	headers := []string{"Session", "#", "Question", "Answer", "Score", "Label"}
	for col, header := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+col)))
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	row := 2
	for _, r := range results {
		for i, a := range r.Answers {
			f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), r.SessionID)
			f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), i+1)
			f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), a.Question)
			f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), a.Answer)
			f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), a.Score)
			f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), a.Label)
			f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), wrapStyle)
			row++
		}
	}

	freezeHeader(f, sheetName)
	return nil
}

func tableHeaderStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder,
	})
}

func freezeHeader(f *excelize.File, sheetName string) {
	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func percent(r storage.InterviewRecord) float64 {
	if r.MaxScore <= 0 {
		return 0
	}
	return float64(r.FinalScore) * 100 / float64(r.MaxScore)
}
