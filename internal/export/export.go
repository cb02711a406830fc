// Package export renders attendance data as CSV and Excel files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/sdrao/facemark/internal/store"
)

var recordHeader = []string{"Reg No", "Name", "Course", "Date", "Time", "Confidence %"}

var summaryHeader = []string{"Date", "Present Count"}

func recordRow(r *store.Record) []string {
	return []string{
		r.RegNo,
		r.Name,
		r.Course,
		r.Date,
		r.Time,
		fmt.Sprintf("%.2f", r.Confidence*100),
	}
}

// RecordsCSV writes attendance records as CSV.
func RecordsCSV(w io.Writer, records []*store.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recordHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(recordRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RecordsExcel writes attendance records as an xlsx workbook.
func RecordsExcel(w io.Writer, records []*store.Record) error {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{r.RegNo, r.Name, r.Course, r.Date, r.Time, r.Confidence * 100})
	}
	return writeExcel(w, "Attendance", recordHeader, rows)
}

// SummaryCSV writes per-day present counts as CSV.
func SummaryCSV(w io.Writer, summaries []*store.DaySummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return err
	}
	for _, s := range summaries {
		if err := cw.Write([]string{s.Date, strconv.Itoa(s.Present)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SummaryExcel writes per-day present counts as an xlsx workbook.
func SummaryExcel(w io.Writer, summaries []*store.DaySummary) error {
	rows := make([][]any, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []any{s.Date, s.Present})
	}
	return writeExcel(w, "Summary", summaryHeader, rows)
}

// StudentsCSV writes the student roster as CSV.
func StudentsCSV(w io.Writer, students []*store.Student) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Reg No", "Name", "Course", "Mobile"}); err != nil {
		return err
	}
	for _, s := range students {
		if err := cw.Write([]string{s.RegNo, s.Name, s.Course, s.Mobile}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeExcel(w io.Writer, sheet string, header []string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return f.Write(w)
}
