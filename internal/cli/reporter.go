package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"ooxcrypt/internal/document"
)

var _ document.ProgressReporter = (*Reporter)(nil)

// Reporter implements document.ProgressReporter for terminal output.
// It displays progress updates on a single line that gets overwritten.
type Reporter struct {
	mu        sync.Mutex
	out       io.Writer
	status    string
	progress  float32
	info      string
	quiet     bool
	cancelled atomic.Bool
	lastLine  int // Length of last printed line (for clearing)
}

// NewReporter creates a new CLI progress reporter writing to stderr.
// If quiet is true, only errors are printed.
func NewReporter(quiet bool) *Reporter {
	return &Reporter{
		out:   os.Stderr,
		quiet: quiet,
	}
}

// SetStatus updates the status message.
func (r *Reporter) SetStatus(text string) {
	r.mu.Lock()
	r.status = text
	r.mu.Unlock()
	r.render()
}

// SetProgress updates the progress bar and info text.
func (r *Reporter) SetProgress(fraction float32, info string) {
	r.mu.Lock()
	r.progress = fraction
	r.info = info
	r.mu.Unlock()
	r.render()
}

// render redraws the progress line.
func (r *Reporter) render() {
	if r.quiet {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	barWidth := 30
	filled := min(max(int(r.progress*float32(barWidth)), 0), barWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	// Format: [████████░░░░░░░░░░░░░░░░░░░░░░]  25.0%  150.00 MiB/s ETA 00:00:05 | Decrypting...
	line := fmt.Sprintf("\r[%s] %s | %s", bar, r.info, r.status)

	// Clear previous line if it was longer
	if len(line) < r.lastLine {
		line += strings.Repeat(" ", r.lastLine-len(line))
	}
	r.lastLine = len(line)

	fmt.Fprint(r.out, line)
}

// IsCancelled checks if the operation was cancelled.
func (r *Reporter) IsCancelled() bool {
	return r.cancelled.Load()
}

// Cancel marks the operation as cancelled.
func (r *Reporter) Cancel() {
	r.cancelled.Store(true)
}

// Finish prints a newline to move past the progress line.
func (r *Reporter) Finish() {
	if !r.quiet && r.lastLine > 0 {
		fmt.Fprintln(r.out)
	}
}

// PrintWarning prints a warning unless quiet.
func (r *Reporter) PrintWarning(format string, args ...any) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.out, "Warning: "+format+"\n", args...)
}

// PrintSuccess prints a success message.
func (r *Reporter) PrintSuccess(format string, args ...any) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.out, format+"\n", args...)
}
