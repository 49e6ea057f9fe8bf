package runlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nfse/internal"
)

func TestWriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Recebidas", FileName)
	records := []internal.LogRecord{
		{Page: 1, Row: 1, Number: "101", XMLFile: "Recebidas_p1_l1.xml", PDFFile: "Recebidas_p1_l1.pdf", Situation: internal.SituationActive, Set: internal.SetReceived},
		{Page: 1, Row: 2, Number: "", XMLFile: "Recebidas_p1_l2.xml", PDFFile: "", Situation: internal.SituationCancelled, Set: internal.SetReceived},
	}

	if err := Write(path, records); err != nil {
		t.Fatalf("write: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.HasPrefix(string(raw), bom) {
		t.Fatalf("missing BOM prefix")
	}
	if !strings.Contains(string(raw), "PAGINA,LINHA,NUMERO_NFSE,XML,PDF,SITUACAO,TIPO") {
		t.Fatalf("missing header: %s", raw)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records", len(got))
	}
	if got[0] != records[0] || got[1] != records[1] {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPathFor(t *testing.T) {
	got := PathFor("/base", internal.SetIssued)
	want := filepath.Join("/base", "Emitidas", FileName)
	if got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}
