package util

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gosuri/uilive"
)

// TerminalPrinter redraws one status line per registered run at a fixed
// frequency. Runs publish their line through a ProgressLine.
type TerminalPrinter struct {
	lines     []*ProgressLine
	frequency time.Duration
	doneCh    chan struct{}
	stopOnce  sync.Once

	writer  *uilive.Writer
	writers []io.Writer
}

func NewTerminalPrinter(out io.Writer, frequency time.Duration) *TerminalPrinter {
	w := uilive.New()
	if out != nil {
		w.Out = out
	}
	return &TerminalPrinter{
		lines:     make([]*ProgressLine, 0),
		frequency: frequency,
		doneCh:    make(chan struct{}),
		writer:    w,
		writers:   make([]io.Writer, 0),
	}
}

// NewLine registers a new status line.
func (p *TerminalPrinter) NewLine() *ProgressLine {
	line := &ProgressLine{}
	p.lines = append(p.lines, line)
	p.writers = append(p.writers, p.writer.Newline())
	return line
}

func (p *TerminalPrinter) Start(ctx context.Context) {
	p.writer.Start()
	go func() {
		for {
			select {
			case <-p.doneCh:
				return
			case <-ctx.Done():
				return
			case <-time.After(p.frequency):
				p.print()
			}
		}
	}()
}

// Stop prints the final state of every line and releases the writer.
func (p *TerminalPrinter) Stop() {
	p.stopOnce.Do(func() {
		close(p.doneCh)
		p.print()
		p.writer.Stop()
	})
}

func (p *TerminalPrinter) print() {
	for i, line := range p.lines {
		fmt.Fprint(p.writers[i], line.Get()+"\n")
	}
	p.writer.Flush()
}

// ProgressLine holds the latest status text of one run.
type ProgressLine struct {
	mu   sync.Mutex
	text string
}

func (l *ProgressLine) Set(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.text = s
}

// Setf formats and sets the line.
func (l *ProgressLine) Setf(format string, args ...interface{}) {
	l.Set(fmt.Sprintf(format, args...))
}

func (l *ProgressLine) Get() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.text
}
