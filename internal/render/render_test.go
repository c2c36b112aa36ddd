package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iago/briefcase/internal/domain"
	"github.com/iago/briefcase/internal/lifecycle"
	"github.com/iago/briefcase/internal/progress"
)

func frameFor(raw int, step string) lifecycle.Frame {
	state := lifecycle.Initial()
	state.View = lifecycle.ViewProgress
	state.JobID = "abc"
	state.Progress = lifecycle.ProgressSnapshot{Progress: raw, Step: step, Status: domain.JobStatusRunning}
	return lifecycle.Frame{State: state, Display: progress.MapDisplay(raw, step)}
}

func TestBar(t *testing.T) {
	assert.Equal(t, "[>         ]", Bar(0, 10))
	assert.Equal(t, "[=====>    ]", Bar(50, 10))
	assert.Equal(t, "[==========]", Bar(100, 10))
	assert.Equal(t, "[==========]", Bar(140, 10))
	assert.Equal(t, "[>         ]", Bar(-3, 10))
}

func TestProgressLinePhaseOne(t *testing.T) {
	line := ProgressLine(frameFor(10, "Fetching profiles (1/5)..."), 10)
	assert.Equal(t, "[>         ]   7% | Scraping team 1/5 | Fetching profiles (1/5)...", line)
}

func TestProgressLinePhaseTwoWithElapsed(t *testing.T) {
	frame := frameFor(85, "Generating deep insights with AI (this may take a minute)...")
	frame.Elapsed = 65
	frame.ElapsedRunning = true

	line := ProgressLine(frame, 10)
	assert.True(t, strings.HasPrefix(line, "[=======>  ]  73% | Generating insights (1m 5s elapsed)"), line)
}

func TestProgressLineWhileSubmitting(t *testing.T) {
	state := lifecycle.Reduce(lifecycle.Initial(), lifecycle.SubmitRequested{URL: "https://acme.com", Token: "t"})
	frame := lifecycle.Frame{State: state, Display: progress.MapDisplay(0, state.Progress.Step)}

	assert.Equal(t, "[>         ]   0% | Submitting...", ProgressLine(frame, 10))
}

func TestProgressBarSkipsIdenticalFrames(t *testing.T) {
	var out bytes.Buffer
	bar := NewProgressBar(&out, 10)

	bar.Update(frameFor(5, "Fetching team page..."))
	first := out.Len()
	bar.Update(frameFor(5, "Fetching team page..."))
	assert.Equal(t, first, out.Len())

	bar.Update(frameFor(10, "Analyzing page structure with AI..."))
	assert.Greater(t, out.Len(), first)

	bar.Finish()
	assert.True(t, strings.HasSuffix(out.String(), "\n"))
}

func TestDossierRendering(t *testing.T) {
	dossier := &domain.Dossier{
		Company:   "Acme",
		TeamCount: 3,
		Insights: []domain.Insight{
			{Title: "Team Shape", Content: "Mostly **engineers**.\n"},
		},
		Groups: []domain.Group{
			{Name: "Leadership", Count: 1, Members: []domain.Member{{
				Name:      "Ada Lovelace",
				Title:     "CEO",
				Education: []domain.Education{{School: "University of London", Degree: "BSc"}},
				Career:    []domain.Career{{Company: "Analytical Engines", Role: "Founder"}},
			}}},
			{Name: "Engineering", Count: 2, Members: []domain.Member{
				{Name: "Grace Hopper", PhotoURL: "https://acme.com/grace.jpg"},
				{Name: "alan turing", Personal: []string{"Marathon runner"}},
			}},
		},
	}

	var out bytes.Buffer
	require.NoError(t, Dossier(&out, dossier))
	text := out.String()

	assert.Contains(t, text, "3 members · Leadership (1) · Engineering (2)")
	assert.Contains(t, text, "[AL] Ada Lovelace - CEO")
	assert.Contains(t, text, "Education: BSc, University of London")
	assert.Contains(t, text, "Career: Founder at Analytical Engines")
	assert.Contains(t, text, "  Grace Hopper\n")
	assert.Contains(t, text, "Photo: https://acme.com/grace.jpg")
	assert.Contains(t, text, "[AT] alan turing")
	assert.Contains(t, text, "Personal: Marathon runner")
	assert.Less(t, strings.Index(text, "## Team Shape"), strings.Index(text, "# Leadership"))
}

func TestDossierRejectsNil(t *testing.T) {
	assert.Error(t, Dossier(&bytes.Buffer{}, nil))
}
