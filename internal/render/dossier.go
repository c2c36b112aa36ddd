package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/iago/briefcase/internal/domain"
)

// Summary is the header line: "12 members · Leadership (3) · Engineering (9)".
func Summary(d *domain.Dossier) string {
	parts := []string{fmt.Sprintf("%d members", d.TeamCount)}
	for _, group := range d.Groups {
		parts = append(parts, fmt.Sprintf("%s (%d)", group.Name, group.Count))
	}
	return strings.Join(parts, " · ")
}

// Dossier writes a plain text rendering: header, insights, then one section
// per group.
func Dossier(w io.Writer, d *domain.Dossier) error {
	if d == nil {
		return fmt.Errorf("render dossier: nil dossier")
	}

	p := &printer{w: w}
	p.line("%s", d.Company)
	p.line("%s", strings.Repeat("=", len([]rune(d.Company))))
	p.line("%s", Summary(d))

	for _, insight := range d.Insights {
		p.blank()
		p.line("## %s", insight.Title)
		p.blank()
		p.line("%s", strings.TrimSpace(insight.Content))
	}

	for _, group := range d.Groups {
		p.blank()
		p.line("# %s (%d)", group.Name, group.Count)
		for _, member := range group.Members {
			p.blank()
			writeMember(p, member)
		}
	}
	return p.err
}

func writeMember(p *printer, m domain.Member) {
	header := m.Name
	if m.PhotoURL == "" {
		header = fmt.Sprintf("[%s] %s", m.Initials(), m.Name)
	}
	if m.Title != "" {
		header += " - " + m.Title
	}
	p.line("  %s", header)

	if m.Bio != "" {
		p.line("    %s", m.Bio)
	}
	for _, edu := range m.Education {
		p.line("    Education: %s", joinNonEmpty(", ", edu.Degree, edu.School, edu.Honors))
	}
	for _, job := range m.Career {
		p.line("    Career: %s", joinNonEmpty(" at ", job.Role, job.Company))
	}
	for _, note := range m.Personal {
		p.line("    Personal: %s", note)
	}
	if m.PhotoURL != "" {
		p.line("    Photo: %s", m.PhotoURL)
	}
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) blank() {
	p.line("")
}

func joinNonEmpty(sep string, values ...string) string {
	kept := values[:0:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, sep)
}
