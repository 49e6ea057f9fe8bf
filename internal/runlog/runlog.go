// Package runlog persists the per-set crawl log (log_notas.csv), the
// single source of truth for which documents a later report run should
// re-extract.
package runlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"nfse/internal"
)

const FileName = "log_notas.csv"

var header = []string{"PAGINA", "LINHA", "NUMERO_NFSE", "XML", "PDF", "SITUACAO", "TIPO"}

const bom = "\uFEFF"

func PathFor(baseDir string, set internal.DocumentSet) string {
	return filepath.Join(baseDir, string(set), FileName)
}

// Write saves the records with a UTF-8 BOM so spreadsheet tools open
// the accented headers correctly.
func Write(path string, records []internal.LogRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(bom); err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.Page),
			strconv.Itoa(r.Row),
			r.Number,
			r.XMLFile,
			r.PDFFile,
			string(r.Situation),
			string(r.Set),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func Read(path string) ([]internal.LogRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content := strings.TrimPrefix(string(raw), bom)

	r := csv.NewReader(strings.NewReader(content))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ler log %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	idx := map[string]int{}
	for i, col := range rows[0] {
		idx[strings.TrimSpace(col)] = i
	}
	field := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make([]internal.LogRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		page, _ := strconv.Atoi(field(row, "PAGINA"))
		line, _ := strconv.Atoi(field(row, "LINHA"))
		records = append(records, internal.LogRecord{
			Page:      page,
			Row:       line,
			Number:    field(row, "NUMERO_NFSE"),
			XMLFile:   field(row, "XML"),
			PDFFile:   field(row, "PDF"),
			Situation: internal.Situation(field(row, "SITUACAO")),
			Set:       internal.DocumentSet(field(row, "TIPO")),
		})
	}
	return records, nil
}
