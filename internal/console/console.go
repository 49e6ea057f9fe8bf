// Package console holds the RunListener implementations the CLI
// attaches: terminal output, the automat.log file and a progress bar.
package console

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"nfse/internal"
)

// Printer writes every event as one line to the given writer.
type Printer struct {
	Out io.Writer
}

func NewPrinter() *Printer {
	return &Printer{Out: os.Stdout}
}

func (p *Printer) Event(msg string) {
	fmt.Fprintln(p.Out, msg)
}

func (p *Printer) Progress(internal.DocumentSet, int, int, int, int) {}

// FileLog appends timestamped events to a log file. Write errors are
// swallowed: logging must never interrupt a crawl.
type FileLog struct {
	f *os.File
}

func OpenFileLog(path string) (*FileLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileLog{f: f}, nil
}

func (l *FileLog) Close() error {
	return l.f.Close()
}

func (l *FileLog) Event(msg string) {
	fmt.Fprintf(l.f, "%s %s\n", time.Now().Format("2006-01-02 15:04:05"), msg)
}

func (l *FileLog) Progress(internal.DocumentSet, int, int, int, int) {}

// Bar renders per-page row progress on stderr. It stays silent when
// stderr is not a terminal.
type Bar struct {
	bar     *progressbar.ProgressBar
	set     internal.DocumentSet
	page    int
	enabled bool
}

func NewBar() *Bar {
	return &Bar{enabled: isatty.IsTerminal(os.Stderr.Fd())}
}

func (b *Bar) Event(string) {}

func (b *Bar) Progress(set internal.DocumentSet, page, row, rowsInPage, total int) {
	if !b.enabled {
		return
	}
	if b.bar == nil || b.set != set || b.page != page {
		b.set, b.page = set, page
		b.bar = progressbar.NewOptions(rowsInPage,
			progressbar.OptionSetDescription(fmt.Sprintf("%s p%d", set, page)),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = b.bar.Set(row)
}
