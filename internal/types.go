package internal

import "fmt"

type DocumentSet string

const (
	SetReceived DocumentSet = "Recebidas"
	SetIssued   DocumentSet = "Emitidas"
)

func AllSets() []DocumentSet {
	return []DocumentSet{SetReceived, SetIssued}
}

type Situation string

const (
	SituationActive    Situation = "Emitida"
	SituationCancelled Situation = "Cancelada"
)

// SetOutcome is the terminal state of one document set crawl.
type SetOutcome string

const (
	OutcomeCompleted SetOutcome = "completed"
	OutcomeEmpty     SetOutcome = "empty"
	OutcomeFailed    SetOutcome = "failed"
)

// LinkBundle holds the download URLs resolved from one table row. URLs
// and paths are empty when the popup exposed no link of that kind.
type LinkBundle struct {
	Page      int
	Row       int
	Number    string
	Situation Situation
	XMLURL    string
	PDFURL    string
	XMLPath   string
	PDFPath   string
}

// LogRecord is one line of the per-set log_notas.csv. It is the single
// source of truth for what the report generator re-extracts later.
type LogRecord struct {
	Page      int
	Row       int
	Number    string
	XMLFile   string
	PDFFile   string
	Situation Situation
	Set       DocumentSet
}

// FilePrefix builds the deterministic document file name stem.
func FilePrefix(set DocumentSet, page, row int) string {
	return fmt.Sprintf("%s_p%d_l%d", set, page, row)
}

// TaxRecord is one row of the final report keyed by column name.
// Values are already normalized (decimal strings with comma separator,
// "0" for absent fields).
type TaxRecord map[string]string

// ReportColumns is the fixed column order of the Excel report. Columns
// found in a TaxRecord but not listed here are appended after.
var ReportColumns = []string{
	"Página", "Linha", "Nº NFSe", "Chave", "Competência", "Data Emissão",
	"CNPJ Prestador", "Razão Social Prestador",
	"CNPJ Tomador", "CPF Tomador", "Razão Social Tomador",
	"Código Tributação Nacional", "Descrição Serviço", "Local da Prestação",
	"Valor dos Serviços", "Valor Deduções",
	"Desconto Incondicionado", "Desconto Condicionado",
	"Base de Cálculo", "Alíquota ISS", "Valor ISS",
	"tpRetISSQN", "Desc. Ret. ISSQN", "ISS Retido",
	"CST PIS/COFINS", "Desc. CST PIS/COFINS",
	"Base PIS/COFINS", "Alíq PIS", "Alíq COFINS",
	"Valor PIS", "Valor COFINS",
	"tpRetPisCofins", "Desc. Ret. PIS/COFINS",
	"PIS Retido", "COFINS Retido",
	"IR Retido", "CSLL Retido", "INSS Retido",
	"Outras Retenções", "Total Retenções", "Valor Líquido",
	"Situação", "Tipo",
}

// Cookie is a browser cookie snapshot entry handed to the downloader.
type Cookie struct {
	Name   string
	Value  string
	Domain string
}

// SessionInfo is the read-only browser state shared with the download
// domain. Taken once per document-set run.
type SessionInfo struct {
	Cookies   []Cookie
	UserAgent string
}

type RunInfo struct {
	ID          int
	StartedAt   string
	Set         DocumentSet
	PeriodStart string
	PeriodEnd   string
	Outcome     SetOutcome
	Pages       int
	Documents   int
	DurationMs  int64
}

// RunListener receives progress and status events from the pipeline.
// Any number of subscribers may attach; the pipeline itself never
// writes to stdout or files.
type RunListener interface {
	Event(msg string)
	Progress(set DocumentSet, page, row, rowsInPage, total int)
}

// Listeners fans events out to every subscriber.
type Listeners []RunListener

func (ls Listeners) Event(msg string) {
	for _, l := range ls {
		l.Event(msg)
	}
}

func (ls Listeners) Progress(set DocumentSet, page, row, rowsInPage, total int) {
	for _, l := range ls {
		l.Progress(set, page, row, rowsInPage, total)
	}
}

func (ls Listeners) Eventf(format string, args ...any) {
	ls.Event(fmt.Sprintf(format, args...))
}
