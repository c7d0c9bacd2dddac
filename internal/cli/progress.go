package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Progress renders a progress bar for multi-page fetches. The bar is created
// on the first report, once the total is known.
type Progress struct {
	writer      io.Writer
	bar         *progressbar.ProgressBar
	description string
	mu          sync.Mutex
}

// NewProgress creates a progress reporter writing to w.
func NewProgress(w io.Writer, description string) *Progress {
	return &Progress{writer: w, description: description}
}

// Report records done out of total. It matches the listing progress callback.
func (p *Progress) Report(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.writer),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("[cyan][bold]"+p.description+"[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				if _, err := fmt.Fprintln(p.writer); err != nil {
					slog.Warn("Failed to write newline after progress bar", "error", err)
				}
			}),
		)
	} else if total != p.bar.GetMax() {
		p.bar.ChangeMax(total)
	}

	if err := p.bar.Set(done); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Done finishes the bar if one was started.
func (p *Progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil || p.bar.IsFinished() {
		return
	}
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}
