package assetstore

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/term"
)

// Progress receives updates from long-running index operations. Every Begin
// sequence is closed by End.
type Progress interface {
	Begin(title, message string, fraction float64)
	End()
}

// NopProgress discards all updates.
type NopProgress struct{}

// Begin implements Progress.
func (NopProgress) Begin(string, string, float64) {}

// End implements Progress.
func (NopProgress) End() {}

// ProgressState is the last update seen by a Tracker.
type ProgressState struct {
	Active    bool      `json:"active"`
	Title     string    `json:"title,omitempty"`
	Message   string    `json:"message,omitempty"`
	Fraction  float64   `json:"fraction"`
	StartedAt time.Time `json:"startedAt,omitempty"`
}

// Tracker remembers the current progress so it can be polled, e.g. by the
// HTTP status endpoint.
type Tracker struct {
	state atomic.Value
}

// NewTracker returns an idle tracker.
func NewTracker() *Tracker {
	t := &Tracker{}
	t.state.Store(ProgressState{})
	return t
}

// Begin implements Progress.
func (t *Tracker) Begin(title, message string, fraction float64) {
	cur := t.State()
	started := cur.StartedAt
	if !cur.Active {
		started = time.Now()
	}
	t.state.Store(ProgressState{
		Active:    true,
		Title:     title,
		Message:   message,
		Fraction:  fraction,
		StartedAt: started,
	})
}

// End implements Progress.
func (t *Tracker) End() {
	t.state.Store(ProgressState{})
}

// State returns the current progress.
func (t *Tracker) State() ProgressState {
	if s, ok := t.state.Load().(ProgressState); ok {
		return s
	}
	return ProgressState{}
}

// TerminalProgress draws a single-line progress bar when its output is a
// terminal and otherwise only tracks state.
type TerminalProgress struct {
	*Tracker

	mu    sync.Mutex
	out   io.Writer
	fd    int
	isTTY bool
	drawn bool
}

// NewTerminalProgress returns a reporter writing to f (usually os.Stderr).
func NewTerminalProgress(f *os.File) *TerminalProgress {
	fd := int(f.Fd())
	return &TerminalProgress{
		Tracker: NewTracker(),
		out:     f,
		fd:      fd,
		isTTY:   term.IsTerminal(fd),
	}
}

// Begin implements Progress.
func (p *TerminalProgress) Begin(title, message string, fraction float64) {
	p.Tracker.Begin(title, message, fraction)
	if !p.isTTY {
		return
	}

	width := 80
	if w, _, err := term.GetSize(p.fd); err == nil && w > 0 {
		width = w
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.out, "\r"+renderBar(title, message, fraction, width))
	p.drawn = true
}

// End implements Progress.
func (p *TerminalProgress) End() {
	p.Tracker.End()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drawn {
		fmt.Fprint(p.out, "\r\033[K")
		p.drawn = false
	}
}

// renderBar formats one progress line no wider than width columns.
func renderBar(title, message string, fraction float64, width int) string {
	fraction = min(max(fraction, 0), 1)

	const barWidth = 20
	filled := int(fraction * barWidth)
	bar := "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
	line := fmt.Sprintf("%s %3d%% %s: %s", bar, int(fraction*100), title, message)

	if r := []rune(line); len(r) > width-1 && width > 1 {
		line = string(r[:width-1])
	}
	return line
}
