// Package export writes run reports as xlsx workbooks.
package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/xuri/excelize/v2"

	"searchabull-keyword-engine/pkg/api"
	"searchabull-keyword-engine/pkg/pipeline"
	"searchabull-keyword-engine/pkg/table"
)

// Sheet names.
const (
	SheetData         = "data"
	SheetFailedTerms  = "failed_terms"
	SheetTranslations = "translations"

	ColumnReason      = "Reason"
	ColumnSource      = "Source"
	ColumnTranslation = "Translation"

	DefaultTimezone = "Europe/Bratislava"
)

// textColumns hold strings; every other column holds volumes.
var textColumns = map[string]bool{
	table.ColumnCategory: true,
	table.ColumnLanguage: true,
	table.ColumnRegion:   true,
	table.ColumnCountry:  true,
	table.ColumnKeyword:  true,
	ColumnReason:         true,
	ColumnSource:         true,
	ColumnTranslation:    true,
}

// Exporter renders reports and names the resulting files in a fixed zone.
type Exporter struct {
	location *time.Location
}

// NewExporter loads the time zone used in file names. Empty means
// Europe/Bratislava.
func NewExporter(timezone string) (*Exporter, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Exporter{location: loc}, nil
}

// Filename names a volume workbook after the mode, category and finish time.
func (e *Exporter) Filename(report *pipeline.Report) string {
	prefix := "SEARCH VOLUMES"
	if report.Mode == api.ModeIdeas {
		prefix = "KEYWORD IDEAS"
	}
	stamp := report.Finished.In(e.location).Format("02-01-2006 15-04-05")
	if category := sanitize(report.Category); category != "" {
		return fmt.Sprintf("%s - %s - %s.xlsx", prefix, category, stamp)
	}
	return fmt.Sprintf("%s - %s.xlsx", prefix, stamp)
}

// TranslationFilename names a translation workbook after its source language.
func (e *Exporter) TranslationFilename(report *pipeline.TranslationReport) string {
	stamp := report.Finished.In(e.location).Format("2006-01-02_15-04-05")
	return fmt.Sprintf("translated_file_%s_%s.xlsx", sanitize(report.SourceLang), stamp)
}

func sanitize(name string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, name))
}

// WriteWorkbook renders the table into the data sheet and failed terms into
// failed_terms. Volumes are integers and NoData cells are left blank.
func (e *Exporter) WriteWorkbook(report *pipeline.Report) ([]byte, error) {
	return writeSheets([]sheet{
		{name: SheetData, grid: report.Table.Grid(), wide: 4},
		{name: SheetFailedTerms, grid: FailedTermsGrid(report.Failed), wide: 4},
	})
}

// WriteTranslationWorkbook renders source/translation pairs plus the terms
// of failed batches.
func (e *Exporter) WriteTranslationWorkbook(report *pipeline.TranslationReport) ([]byte, error) {
	g := table.Grid{Header: []string{ColumnSource, ColumnTranslation}}
	for _, row := range report.Rows {
		g.Rows = append(g.Rows, []table.Cell{table.Text(row.Source), table.Text(row.Text)})
	}

	var failed []pipeline.FailedTerm
	for _, fb := range report.FailedBatches {
		for _, term := range fb.Terms {
			failed = append(failed, pipeline.FailedTerm{Descriptor: fb.Target, Keyword: term, Reason: pipeline.ReasonBatchFailed})
		}
	}

	return writeSheets([]sheet{
		{name: SheetTranslations, grid: g, wide: 0},
		{name: SheetFailedTerms, grid: FailedTermsGrid(failed), wide: 4},
	})
}

// FailedTermsGrid lays out failed terms with their target and reason.
func FailedTermsGrid(failed []pipeline.FailedTerm) table.Grid {
	g := table.Grid{Header: append(append([]string{}, table.DescriptiveColumns...), ColumnReason)}
	for _, ft := range failed {
		g.Rows = append(g.Rows, []table.Cell{
			table.Text(ft.Category), table.Text(ft.Language), table.Text(ft.Region),
			table.Text(ft.Country), table.Text(ft.Keyword), table.Text(ft.Reason),
		})
	}
	return g
}

// Save writes data to dir/name and returns the full path.
func Save(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write workbook: %w", err)
	}
	return path, nil
}

type sheet struct {
	name string
	grid table.Grid
	// wide is the number of leading columns given extra width.
	wide int
}

func writeSheets(sheets []sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", s.name, err)
		}
		if err := writeGrid(f, s, bold); err != nil {
			return nil, fmt.Errorf("write sheet %s: %w", s.name, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

func writeGrid(f *excelize.File, s sheet, headerStyle int) error {
	sw, err := f.NewStreamWriter(s.name)
	if err != nil {
		return err
	}
	width := s.wide
	if width > len(s.grid.Header) {
		width = len(s.grid.Header)
	}
	if width > 0 {
		if err := sw.SetColWidth(1, width, 18); err != nil {
			return err
		}
	}
	if len(s.grid.Header) > width {
		if err := sw.SetColWidth(width+1, width+1, 32); err != nil {
			return err
		}
	}

	header := make([]interface{}, len(s.grid.Header))
	for i, h := range s.grid.Header {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for r, cells := range s.grid.Rows {
		values := make([]interface{}, len(cells))
		for i, c := range cells {
			switch c.Kind {
			case table.CellText:
				values[i] = c.Text
			case table.CellNumber:
				values[i] = c.Number
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return err
		}
	}
	return sw.Flush()
}
