package output

import (
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"
)

// progressTemplate shows label, counter, bar and percentage
const progressTemplate = `{{string . "label"}} {{counters . }} {{bar . "[" "=" ">" " " "]"}} {{percent . }} {{string . "item"}}`

// getUpdateInterval returns the progress refresh interval based on OS.
// Windows terminals have higher latency with ANSI sequences.
func getUpdateInterval() time.Duration {
	if runtime.GOOS == "windows" {
		return 300 * time.Millisecond
	}
	return 100 * time.Millisecond
}

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// Progress is a counter bar for walks, duplicate checks, diffs and backups.
// It renders only when enabled and w is a terminal; otherwise every method
// is a no-op. Methods are safe for concurrent use.
type Progress struct {
	mu  sync.Mutex
	bar *pb.ProgressBar
}

// NewProgress starts a bar of total steps labelled label
func NewProgress(w io.Writer, label string, total int, enabled bool) *Progress {
	p := &Progress{}
	if !enabled || !IsTerminal(w) {
		return p
	}

	bar := pb.ProgressBarTemplate(progressTemplate).New(total)
	bar.SetWriter(w)
	bar.SetRefreshRate(getUpdateInterval())
	bar.SetMaxWidth(terminalWidth(w))
	bar.Set("label", label)
	bar.Start()
	p.bar = bar
	return p
}

// Active reports whether the bar renders
func (p *Progress) Active() bool {
	return p.bar != nil
}

// SetTotal changes the number of steps
func (p *Progress) SetTotal(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.SetTotal(int64(total))
	}
}

// SetCurrent moves the bar to n steps
func (p *Progress) SetCurrent(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.SetCurrent(int64(n))
	}
}

// Increment advances the bar by one and shows item next to it
func (p *Progress) Increment(item string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Set("item", truncate(item, 40))
		p.bar.Increment()
	}
}

// Finish stops rendering and leaves the final state on screen
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Set("item", "")
		p.bar.Finish()
		p.bar = nil
	}
}
