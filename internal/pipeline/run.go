// Package pipeline wires the browser session, crawler, downloader, log
// and report into the document-retrieval run.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"nfse/internal"
	"nfse/internal/browser"
	"nfse/internal/config"
	"nfse/internal/crawler"
	"nfse/internal/download"
	"nfse/internal/report"
	"nfse/internal/runlog"
	"nfse/internal/storage"
)

var reDate = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

type Options struct {
	BaseDir    string
	StartDate  string // DD/MM/AAAA
	EndDate    string
	Sets       []internal.DocumentSet
	AutoReport bool
}

type Service struct {
	cfg       config.Config
	db        *storage.DB
	listeners internal.Listeners
}

func NewService(cfg config.Config, db *storage.DB, listeners internal.Listeners) *Service {
	return &Service{cfg: cfg, db: db, listeners: listeners}
}

// Validate rejects configuration problems before any browser, network
// or filesystem activity starts.
func Validate(opts Options) error {
	if strings.TrimSpace(opts.BaseDir) == "" {
		return fmt.Errorf("selecione uma pasta de destino")
	}
	if info, err := os.Stat(opts.BaseDir); err != nil || !info.IsDir() {
		return fmt.Errorf("pasta inválida: %s", opts.BaseDir)
	}
	for _, d := range []string{opts.StartDate, opts.EndDate} {
		if !reDate.MatchString(strings.TrimSpace(d)) {
			return fmt.Errorf("data inválida %q: use DD/MM/AAAA", d)
		}
	}
	if len(opts.Sets) == 0 {
		return fmt.Errorf("nenhum conjunto de notas selecionado")
	}
	return nil
}

// Run executes the whole retrieval for the selected document sets. Per
// set failures do not abort the other sets; only session-level errors
// surface.
func (s *Service) Run(ctx context.Context, opts Options) (map[internal.DocumentSet]internal.SetOutcome, error) {
	if err := Validate(opts); err != nil {
		return nil, err
	}
	if err := ensureDirs(opts.BaseDir); err != nil {
		return nil, err
	}

	session, err := browser.Launch(s.cfg)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	if err := session.Login(ctx, s.listeners); err != nil {
		return nil, err
	}

	outcomes := map[internal.DocumentSet]internal.SetOutcome{}
	for _, set := range opts.Sets {
		s.listeners.Eventf("═══ %s ═══", strings.ToUpper(string(set)))
		outcome := s.runSet(ctx, session, set, opts)
		outcomes[set] = outcome
		if ctx.Err() != nil {
			return outcomes, ctx.Err()
		}
	}

	if opts.AutoReport && anyCompleted(outcomes) {
		out, counts, err := report.Generate(opts.BaseDir, s.listeners)
		if err != nil {
			s.listeners.Eventf("relatório: %v", err)
		} else {
			s.listeners.Eventf("✓ Relatório: %s (%d recebidas, %d emitidas)",
				out, counts[internal.SetReceived], counts[internal.SetIssued])
		}
	}

	return outcomes, nil
}

func (s *Service) runSet(ctx context.Context, session *browser.Session, set internal.DocumentSet, opts Options) internal.SetOutcome {
	start := time.Now()

	var err error
	if set == internal.SetReceived {
		err = session.OpenReceived()
	} else {
		err = session.OpenIssued()
	}
	if err != nil {
		s.listeners.Eventf("%s: %v", set, err)
		s.record(set, opts, internal.OutcomeFailed, crawler.Result{}, start)
		return internal.OutcomeFailed
	}

	newClient := func() (crawler.Downloader, error) {
		info, err := session.SessionInfo()
		if err != nil {
			return nil, err
		}
		return download.NewClient(info, s.cfg, s.listeners)
	}

	c := crawler.New(s.cfg, session, newClient, s.listeners)
	result, err := c.Run(ctx, set, opts.BaseDir, opts.StartDate, opts.EndDate)
	if err != nil {
		s.listeners.Eventf("%s: %v", set, err)
	}

	if result.Outcome == internal.OutcomeCompleted && len(result.Records) > 0 {
		logPath := runlog.PathFor(opts.BaseDir, set)
		if err := runlog.Write(logPath, result.Records); err != nil {
			s.listeners.Eventf("%s: gravar log: %v", set, err)
		}
	}

	s.record(set, opts, result.Outcome, result, start)
	s.listeners.Eventf("%s: %s em %s", set, result.Outcome, time.Since(start).Round(time.Second))
	return result.Outcome
}

func (s *Service) record(set internal.DocumentSet, opts Options, outcome internal.SetOutcome, result crawler.Result, start time.Time) {
	if s.db == nil {
		return
	}
	err := s.db.InsertRun(internal.RunInfo{
		Set:         set,
		PeriodStart: opts.StartDate,
		PeriodEnd:   opts.EndDate,
		Outcome:     outcome,
		Pages:       result.Pages,
		Documents:   result.Documents,
		DurationMs:  time.Since(start).Milliseconds(),
	})
	if err != nil {
		s.listeners.Eventf("histórico: %v", err)
	}
}

func ensureDirs(baseDir string) error {
	for _, set := range internal.AllSets() {
		for _, sub := range []string{"XML", "PDF"} {
			if err := os.MkdirAll(filepath.Join(baseDir, string(set), sub), 0o755); err != nil {
				return err
			}
		}
	}
	return nil
}

func anyCompleted(outcomes map[internal.DocumentSet]internal.SetOutcome) bool {
	for _, o := range outcomes {
		if o == internal.OutcomeCompleted {
			return true
		}
	}
	return false
}
