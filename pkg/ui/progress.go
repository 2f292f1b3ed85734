package ui

import (
	"fmt"
	"strings"
	"time"

	"mailexport/pkg/export"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// ProgressDisplay renders run progress as a single rewriting terminal
// line. It implements the engine's progress reporting and never blocks.
type ProgressDisplay struct {
	startTime time.Time
	last      export.Progress
	enabled   bool
}

// NewProgressDisplay creates a progress display. When enabled is false
// every update is a no-op, for quiet and non-TTY runs.
func NewProgressDisplay(enabled bool) *ProgressDisplay {
	return &ProgressDisplay{
		startTime: time.Now(),
		enabled:   enabled,
	}
}

var _ export.Reporter = (*ProgressDisplay)(nil)

// Update renders the latest counters
func (pd *ProgressDisplay) Update(p export.Progress) {
	pd.last = p
	if !pd.enabled {
		return
	}

	line := fmt.Sprintf("\r%s exported: %d | skipped: %d | failed: %d",
		Green("[EXPORT]"), p.TotalExported, p.TotalSkippedDuplicate, p.TotalFailed)

	if p.EstimatedTotal > 0 {
		line += fmt.Sprintf(" | %s", bar(p.TotalSeen, p.EstimatedTotal))
	} else {
		line += fmt.Sprintf(" | seen: %d", p.TotalSeen)
	}
	fmt.Print(line)
}

// Done finishes the progress line and prints the elapsed time
func (pd *ProgressDisplay) Done() {
	if !pd.enabled {
		return
	}
	fmt.Println()
	elapsed := time.Since(pd.startTime).Round(time.Second)
	fmt.Printf("%s %s\n", Dim("elapsed:"), Dim(elapsed.String()))
}

// bar renders a fixed-width progress bar
func bar(current, total int) string {
	const width = 20
	if current > total {
		current = total
	}
	filled := 0
	if total > 0 {
		filled = current * width / total
	}
	return fmt.Sprintf("[%s%s] %d/%d",
		strings.Repeat(ProgressBar, filled),
		strings.Repeat(ProgressEmpty, width-filled),
		current, total)
}
