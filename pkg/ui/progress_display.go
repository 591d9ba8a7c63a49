package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ProgressDisplay prints a one-line progress bar while a profile's images
// are saved. It is safe for concurrent use.
type ProgressDisplay struct {
	mu           sync.Mutex
	username     string
	total        int
	skipped      int
	savedCount   int
	errors       int
	bytesWritten int64
	lastImage    string
	startTime    time.Time
	isDebug      bool
	now          func() time.Time
}

// NewProgressDisplay creates a new progress display
func NewProgressDisplay(username string, debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		username:  username,
		startTime: time.Now(),
		isDebug:   debug,
		now:       time.Now,
	}
}

// Found records how many images the profile has and how many still need saving
func (p *ProgressDisplay) Found(total, pending int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = pending
	p.skipped = total - pending

	printf(false, "%s @%s: %d images, %d already saved\n",
		Magenta("→"), p.username, total, p.skipped)
}

// Saved marks one image as written
func (p *ProgressDisplay) Saved(imageID string, size int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.savedCount++
	p.bytesWritten += size
	p.lastImage = imageID

	if p.isDebug {
		printf(false, "%s %s • %s\n", Green("✓"), imageID, formatBytes(size))
		return
	}
	p.printProgress()
}

// Failed marks one image as failed
func (p *ProgressDisplay) Failed(imageID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.errors++
	if p.isDebug {
		printf(false, "%s Failed: %s - %v\n", Red("✗"), imageID, err)
		return
	}
	p.printProgress()
}

// printProgress prints the minimal progress line
func (p *ProgressDisplay) printProgress() {
	done := p.savedCount + p.errors
	progress := 1.0
	if p.total > 0 {
		progress = float64(done) / float64(p.total)
	}
	if progress > 1 {
		progress = 1
	}
	barWidth := 20
	filled := int(progress * float64(barWidth))
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

	line := fmt.Sprintf("%s [%s] %d/%d • %s",
		Cyan(p.username),
		bar,
		done,
		p.total,
		formatBytes(p.bytesWritten),
	)
	if p.lastImage != "" {
		line += fmt.Sprintf(" • %s", p.lastImage)
	}
	if p.errors > 0 {
		line += fmt.Sprintf(" • %s", Red(fmt.Sprintf("%d errors", p.errors)))
	}

	printf(false, "\r%s\r%s", strings.Repeat(" ", 100), line)
}

// Complete prints the summary
func (p *ProgressDisplay) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := p.now().Sub(p.startTime)

	printf(false, "\n%s Saved %d images from @%s\n",
		Green("✓"),
		p.savedCount,
		p.username,
	)
	printf(false, "  %s %s in %s\n",
		Dim("•"),
		formatBytes(p.bytesWritten),
		formatDuration(elapsed),
	)
	if p.skipped > 0 {
		printf(false, "  %s %d already saved\n", Dim("•"), p.skipped)
	}
	if p.errors > 0 {
		printf(false, "  %s %d images failed\n", Dim("•"), p.errors)
	}
}

// Counts returns the saved and failed totals so far
func (p *ProgressDisplay) Counts() (saved, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.savedCount, p.errors
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

// formatBytes formats bytes in a human-readable way
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
