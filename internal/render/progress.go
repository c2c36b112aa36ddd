package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/iago/briefcase/internal/lifecycle"
	"github.com/iago/briefcase/internal/progress"
)

const DefaultBarWidth = 30

var phaseLabels = map[progress.Phase]string{
	progress.PhaseScraping: "Scraping team",
	progress.PhaseInsights: "Generating insights",
}

// ProgressBar redraws a single terminal line for the progress view.
type ProgressBar struct {
	out      io.Writer
	width    int
	mu       sync.Mutex
	lastLine string
}

func NewProgressBar(out io.Writer, width int) *ProgressBar {
	if width <= 0 {
		width = DefaultBarWidth
	}
	return &ProgressBar{out: out, width: width}
}

// Update draws the frame. Identical lines are not redrawn.
func (pb *ProgressBar) Update(frame lifecycle.Frame) {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	line := ProgressLine(frame, pb.width)
	if line == pb.lastLine {
		return
	}
	// pad to erase the tail of a longer previous line
	pad := max(len(pb.lastLine)-len(line), 0)
	fmt.Fprintf(pb.out, "\r%s%s", line, strings.Repeat(" ", pad))
	pb.lastLine = line
}

// Finish ends the bar line so later output starts on a fresh one.
func (pb *ProgressBar) Finish() {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	if pb.lastLine != "" {
		fmt.Fprintln(pb.out)
		pb.lastLine = ""
	}
}

// ProgressLine renders e.g.
// "[=====>        ]   7% | Scraping team 1/5 | Fetching profiles (1/5)...".
func ProgressLine(frame lifecycle.Frame, width int) string {
	display := frame.Display

	var b strings.Builder
	b.WriteString(Bar(display.Progress, width))
	fmt.Fprintf(&b, " %3d%%", display.Progress)

	if frame.State.Submitting {
		fmt.Fprintf(&b, " | %s", frame.State.Progress.Step)
		return b.String()
	}

	b.WriteString(" | ")
	b.WriteString(phaseLabels[display.Phase])
	if display.Subcount != nil {
		fmt.Fprintf(&b, " %d/%d", display.Subcount.Current, display.Subcount.Total)
	}
	if frame.ElapsedRunning {
		fmt.Fprintf(&b, " (%s elapsed)", progress.FormatElapsed(frame.Elapsed))
	}
	if step := frame.State.Progress.Step; step != "" {
		fmt.Fprintf(&b, " | %s", step)
	}
	return b.String()
}

// Bar draws a fixed width bar for a 0-100 percentage.
func Bar(percent, width int) string {
	percent = min(max(percent, 0), 100)
	filled := width * percent / 100

	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < width; i++ {
		switch {
		case i < filled:
			b.WriteByte('=')
		case i == filled:
			b.WriteByte('>')
		default:
			b.WriteByte(' ')
		}
	}
	b.WriteByte(']')
	return b.String()
}
