package progress

import (
	"math"
	"regexp"
	"strconv"
)

// Phase boundaries of the backend progress protocol. The backend reports
// 0..70 while scraping, 75..95 while generating insights and 100 when done;
// 70..75 is a reserved gap with no display meaning.
const (
	phaseOneCeiling = 70
	phaseTwoFloor   = 75
	phaseTwoSpan    = 20
	complete        = 100

	displayPhaseOneCeiling = 50
	displayPhaseTwoSpan    = 45
)

type Phase int

const (
	PhaseScraping Phase = 1
	PhaseInsights Phase = 2
)

// Subcount is the "(current/total)" fragment embedded in a step text.
type Subcount struct {
	Current int
	Total   int
}

// Display is the render-ready projection of one raw progress reading.
type Display struct {
	Progress int
	Phase    Phase
	Subcount *Subcount
}

var subcountPattern = regexp.MustCompile(`\((\d+)/(\d+)\)`)

// MapDisplay turns a raw backend progress value and step text into a smooth
// display percentage. It is pure: equal inputs always give equal outputs.
func MapDisplay(rawProgress int, step string) Display {
	display := Display{
		Phase:    PhaseOf(rawProgress),
		Progress: displayProgress(rawProgress),
	}
	if subcount, ok := ParseSubcount(step); ok {
		display.Subcount = &subcount
	}
	return display
}

// PhaseOf reports phase 2 from 75 upwards.
func PhaseOf(rawProgress int) Phase {
	if rawProgress >= phaseTwoFloor {
		return PhaseInsights
	}
	return PhaseScraping
}

func displayProgress(rawProgress int) int {
	if rawProgress >= complete {
		return 100
	}
	if rawProgress < phaseTwoFloor {
		clamped := max(0, min(rawProgress, phaseOneCeiling))
		return int(math.Round(float64(clamped) / phaseOneCeiling * displayPhaseOneCeiling))
	}
	t := float64(min(rawProgress-phaseTwoFloor, phaseTwoSpan)) / phaseTwoSpan
	return int(math.Round(displayPhaseOneCeiling + t*displayPhaseTwoSpan))
}

// ParseSubcount extracts "(current/total)" from a step. A step without the
// fragment, or with numbers that do not fit an int, has no subcount.
func ParseSubcount(step string) (Subcount, bool) {
	match := subcountPattern.FindStringSubmatch(step)
	if match == nil {
		return Subcount{}, false
	}
	current, err := strconv.Atoi(match[1])
	if err != nil {
		return Subcount{}, false
	}
	total, err := strconv.Atoi(match[2])
	if err != nil {
		return Subcount{}, false
	}
	return Subcount{Current: current, Total: total}, true
}
