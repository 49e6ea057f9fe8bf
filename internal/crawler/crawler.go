// Package crawler drives one document set through filter application,
// page readiness, row resolution and pagination. All DOM interaction is
// sequential; only downloads fan out.
package crawler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nfse/internal"
	"nfse/internal/config"
	"nfse/internal/download"
)

// Driver is the UI capability the crawler consumes. The browser
// package provides the real implementation; tests provide fakes.
type Driver interface {
	Reload() error
	Eval(js string, args ...any) (any, error)
	WaitElement(selector string, timeout time.Duration) error
}

// Downloader decouples the crawler from the HTTP client construction.
type Downloader interface {
	FetchAll(ctx context.Context, tasks []download.Task) int
}

// errorPhrases mark the portal's transient error pages.
var errorPhrases = []string{
	"não foi possível",
	"tente novamente",
	"erro ao carregar",
	"serviço indisponível",
	"ocorreu um erro",
}

type state int

const (
	stateFiltering state = iota
	stateAwaitingRows
	stateProcessing
	stateNextPage
)

type awaitResult int

const (
	awaitReady awaitResult = iota
	awaitEmpty
	awaitFailed
)

type Result struct {
	Outcome   internal.SetOutcome
	Pages     int
	Documents int
	Records   []internal.LogRecord
}

type Crawler struct {
	cfg       config.Config
	drv       Driver
	listeners internal.Listeners
	newClient func() (Downloader, error)
}

func New(cfg config.Config, drv Driver, newClient func() (Downloader, error), listeners internal.Listeners) *Crawler {
	return &Crawler{cfg: cfg, drv: drv, newClient: newClient, listeners: listeners}
}

// Run crawls one document set between the given DD/MM/AAAA dates. The
// first page is authoritative: a persistent error there fails the set,
// while later-page trouble ends it as completed-so-far.
func (c *Crawler) Run(ctx context.Context, set internal.DocumentSet, baseDir, start, end string) (Result, error) {
	res := Result{Outcome: internal.OutcomeEmpty}

	var client Downloader
	page := 1
	total := 0
	st := stateFiltering

	for {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		switch st {
		case stateFiltering:
			empty, err := c.applyFilter(start, end)
			if err != nil {
				res.Outcome = internal.OutcomeFailed
				return res, err
			}
			if empty {
				c.listeners.Eventf("⊘ %s: sem registros %s–%s", set, start, end)
				return res, nil
			}
			st = stateAwaitingRows

		case stateAwaitingRows:
			c.listeners.Eventf("━━━ %s página %d ━━━", set, page)
			switch c.awaitRows() {
			case awaitEmpty:
				if page == 1 {
					return res, nil
				}
				// the empty page was still visited, so it counts
				return c.complete(set, res, page, total), nil
			case awaitFailed:
				if page == 1 {
					res.Outcome = internal.OutcomeFailed
					return res, fmt.Errorf("%s: página de erro persistente", set)
				}
				c.listeners.Eventf("%s: erro persistente na página %d, encerrando", set, page)
				return c.complete(set, res, page-1, total), nil
			case awaitReady:
				st = stateProcessing
			}

		case stateProcessing:
			rows := c.validRowCount()
			if rows == 0 {
				if page == 1 {
					return res, nil
				}
				st = stateNextPage
				continue
			}

			c.listeners.Eventf("  %d notas encontradas", rows)
			if client == nil {
				var err error
				client, err = c.newClient()
				if err != nil {
					res.Outcome = internal.OutcomeFailed
					return res, fmt.Errorf("sessão de download: %w", err)
				}
			}

			tasks := make([]download.Task, 0, rows*2)
			for row := 1; row <= rows; row++ {
				time.Sleep(time.Duration(c.cfg.ClickDelayMs) * time.Millisecond)
				bundle := c.resolveRow(set, page, row, baseDir)
				if bundle == nil {
					c.listeners.Eventf("%s p%d l%d: linha sem gatilho de ação, pulando", set, page, row)
					continue
				}
				if bundle.XMLURL != "" {
					tasks = append(tasks, download.Task{URL: bundle.XMLURL, Path: bundle.XMLPath})
				}
				if bundle.PDFURL != "" {
					tasks = append(tasks, download.Task{URL: bundle.PDFURL, Path: bundle.PDFPath})
				}
				total++
				res.Records = append(res.Records, logRecord(set, bundle))
				c.listeners.Progress(set, page, row, rows, total)
			}

			// One page's documents in flight at a time: the log only
			// ever references downloads that were already attempted.
			if len(tasks) > 0 {
				client.FetchAll(ctx, tasks)
			}
			st = stateNextPage

		case stateNextPage:
			if page >= c.cfg.MaxPages {
				c.listeners.Eventf("%s: limite de %d páginas atingido, encerrando", set, c.cfg.MaxPages)
				return c.complete(set, res, page, total), nil
			}
			if !c.nextPage(set) {
				return c.complete(set, res, page, total), nil
			}
			page++
			st = stateAwaitingRows
		}
	}
}

func (c *Crawler) complete(set internal.DocumentSet, res Result, pages, total int) Result {
	res.Outcome = internal.OutcomeCompleted
	res.Pages = pages
	res.Documents = total
	c.listeners.Eventf("✓ %s: %d notas, %d pág.", set, total, pages)
	return res
}

// applyFilter injects the period into the filter inputs and fires the
// filter action. Returns empty=true when the filtered table has no
// valid rows.
func (c *Crawler) applyFilter(start, end string) (bool, error) {
	if _, err := c.drv.Eval(jsSetFilterDates, start, end); err != nil {
		return false, fmt.Errorf("preencher filtro: %w", err)
	}
	time.Sleep(300 * time.Millisecond)

	ok, err := c.drv.Eval(jsClickFilter)
	if err != nil {
		return false, fmt.Errorf("acionar filtro: %w", err)
	}
	if ok != true {
		return false, fmt.Errorf("botão Filtrar não encontrado")
	}

	time.Sleep(time.Duration(c.cfg.FilterWaitMs) * time.Millisecond)
	// an error page also has zero rows; that is not a clean empty result
	return c.validRowCount() == 0 && !c.errorPage(), nil
}

// awaitRows retries until the page shows at least one valid row, a
// clean empty table, or gives up on a persistent error page.
func (c *Crawler) awaitRows() awaitResult {
	retryWait := time.Duration(c.cfg.RetryWaitSec) * time.Second

	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		if c.errorPage() {
			if attempt < c.cfg.MaxRetries {
				c.listeners.Eventf("página de erro, tentativa %d/%d", attempt, c.cfg.MaxRetries)
				time.Sleep(retryWait)
				_ = c.drv.Reload()
				time.Sleep(time.Second)
				continue
			}
			return awaitFailed
		}

		err := c.drv.WaitElement("table tbody tr", time.Duration(c.cfg.TableWaitSec)*time.Second)
		if err == nil {
			if c.validRowCount() > 0 {
				return awaitReady
			}
			// table present but only header/summary rows: empty page
			return awaitEmpty
		}

		if c.validRowCount() == 0 && !c.errorPage() {
			return awaitEmpty
		}
		if attempt < c.cfg.MaxRetries {
			time.Sleep(retryWait)
			_ = c.drv.Reload()
			time.Sleep(time.Second)
		}
	}
	return awaitFailed
}

func (c *Crawler) validRowCount() int {
	v, err := c.drv.Eval(jsValidRowCount)
	if err != nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func (c *Crawler) errorPage() bool {
	v, err := c.drv.Eval(jsBodyText)
	if err != nil {
		return false
	}
	body, _ := v.(string)
	body = strings.ToLower(body)
	for _, phrase := range errorPhrases {
		if strings.Contains(body, phrase) {
			return true
		}
	}
	return false
}

func (c *Crawler) nextPage(set internal.DocumentSet) bool {
	ok, err := c.drv.Eval(jsNextPage, string(set))
	if err != nil || ok != true {
		return false
	}
	time.Sleep(time.Duration(c.cfg.PageWaitMs) * time.Millisecond)
	return true
}

func logRecord(set internal.DocumentSet, b *internal.LinkBundle) internal.LogRecord {
	rec := internal.LogRecord{
		Page:      b.Page,
		Row:       b.Row,
		Number:    b.Number,
		Situation: b.Situation,
		Set:       set,
	}
	prefix := internal.FilePrefix(set, b.Page, b.Row)
	if b.XMLURL != "" {
		rec.XMLFile = prefix + ".xml"
	}
	if b.PDFURL != "" {
		rec.PDFFile = prefix + ".pdf"
	}
	return rec
}
