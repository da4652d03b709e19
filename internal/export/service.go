// Package export renders a batch of pipeline records as an XLSX filing
// report, one row per processed document.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/m-hartl/lettersort/internal/pipeline"
)

// Service produces XLSX bytes from pipeline records.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// FilingReportXLSX returns an XLSX workbook (as bytes) summarizing one batch
// run. Rows keep the order of recs.
func (s *Service) FilingReportXLSX(recs []pipeline.Record) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Letters"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// Drop the default sheet so the workbook opens on "Letters".
	_ = f.DeleteSheet("Sheet1")

	headers := []string{
		"Processed At",
		"Source File",
		"Outcome",
		"Stage",
		"Worker",
		"Receiver",
		"Match Score",
		"Destination",
		"Reason",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.StartedAt.Format("2006-01-02 15:04:05"))
		write(2, r.Source)
		write(3, string(r.Outcome))
		write(4, string(r.Stage))
		write(5, r.Worker)
		write(6, r.Receiver)
		if r.Outcome == pipeline.OutcomeFiled && r.Score > 0 {
			write(7, r.Score)
		} else {
			write(7, "")
		}
		write(8, r.Destination)
		write(9, truncate(r.Reason, 140))

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 20) // timestamp
	_ = f.SetColWidth(sheet, "B", "B", 48) // source
	_ = f.SetColWidth(sheet, "C", "D", 14) // outcome, stage
	_ = f.SetColWidth(sheet, "E", "F", 22) // worker, receiver
	_ = f.SetColWidth(sheet, "G", "G", 12) // score
	_ = f.SetColWidth(sheet, "H", "H", 60) // destination
	_ = f.SetColWidth(sheet, "I", "I", 48) // reason

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
