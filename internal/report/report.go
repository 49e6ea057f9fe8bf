// Package report consolidates the per-set crawl logs into the Excel
// report, re-extracting every stored XML through the tax extractor.
package report

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"nfse/internal"
	"nfse/internal/extract"
	"nfse/internal/runlog"
)

const FileName = "Relatorio_NFSe.xlsx"

// Generate builds or refreshes the report from existing logs and XML
// files, independent of any live crawl. Returns the output path and
// per-set row counts.
func Generate(baseDir string, listeners internal.Listeners) (string, map[internal.DocumentSet]int, error) {
	out := filepath.Join(baseDir, FileName)
	counts := map[internal.DocumentSet]int{}

	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)
	wrote := false

	for _, set := range internal.AllSets() {
		rows := collectRows(baseDir, set, listeners)
		if len(rows) == 0 {
			continue
		}
		if err := writeSheet(f, string(set), rows); err != nil {
			return "", nil, err
		}
		counts[set] = len(rows)
		wrote = true
	}

	if !wrote {
		if err := writeInfoSheet(f); err != nil {
			return "", nil, err
		}
	}

	// drop excelize's default sheet, keeping only document sets
	if f.GetSheetName(0) == defaultSheet && f.SheetCount > 1 {
		_ = f.DeleteSheet(defaultSheet)
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", nil, err
	}
	if err := f.SaveAs(out); err != nil {
		return "", nil, err
	}
	return out, counts, nil
}

// collectRows reads one set's log, deduplicates by XML filename (first
// occurrence wins), skips records whose file is gone and re-extracts
// the rest. Extraction failures drop the single record only.
func collectRows(baseDir string, set internal.DocumentSet, listeners internal.Listeners) []internal.TaxRecord {
	logPath := runlog.PathFor(baseDir, set)
	records, err := runlog.Read(logPath)
	if err != nil {
		return nil
	}

	xmlDir := filepath.Join(baseDir, string(set), "XML")
	seen := map[string]bool{}
	rows := []internal.TaxRecord{}

	for _, rec := range records {
		if rec.XMLFile == "" || seen[rec.XMLFile] {
			continue
		}
		seen[rec.XMLFile] = true

		xmlPath := filepath.Join(xmlDir, rec.XMLFile)
		if _, err := os.Stat(xmlPath); err != nil {
			continue
		}

		situation := rec.Situation
		if situation == "" {
			situation = internal.SituationActive
		}
		setTag := rec.Set
		if setTag == "" {
			setTag = set
		}

		row, err := extract.FromFile(xmlPath, extract.Context{
			Page:      rec.Page,
			Row:       rec.Row,
			Situation: situation,
			Set:       setTag,
		})
		if err != nil {
			listeners.Eventf("extração %s: %v", xmlPath, err)
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func writeSheet(f *excelize.File, name string, rows []internal.TaxRecord) error {
	idx, err := f.NewSheet(name)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)

	columns := append([]string{}, internal.ReportColumns...)
	columns = append(columns, extraColumns(rows)...)

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(name, cell, col); err != nil {
			return err
		}
	}

	for r, row := range rows {
		for i, col := range columns {
			value, ok := row[col]
			if !ok {
				value = "0"
			}
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			if err := f.SetCellValue(name, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// extraColumns lists record keys outside the fixed order, sorted so
// repeated generations stay byte-identical.
func extraColumns(rows []internal.TaxRecord) []string {
	known := map[string]bool{}
	for _, col := range internal.ReportColumns {
		known[col] = true
	}
	extraSet := map[string]bool{}
	for _, row := range rows {
		for col := range row {
			if !known[col] {
				extraSet[col] = true
			}
		}
	}
	extras := make([]string, 0, len(extraSet))
	for col := range extraSet {
		extras = append(extras, col)
	}
	sort.Strings(extras)
	return extras
}

func writeInfoSheet(f *excelize.File) error {
	if _, err := f.NewSheet("Info"); err != nil {
		return err
	}
	if err := f.SetCellValue("Info", "A1", "Info"); err != nil {
		return err
	}
	return f.SetCellValue("Info", "A2", "Nenhum XML")
}
