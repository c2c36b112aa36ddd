package domain

import "strings"

// Dossier is the terminal result of a completed job. It is never mutated
// after it has been received.
type Dossier struct {
	Company   string    `json:"company"`
	TeamCount int       `json:"team_count"`
	Groups    []Group   `json:"groups"`
	Insights  []Insight `json:"insights"`
}

// Group is a named section of the team. Count is reported by the backend and
// is expected to match len(Members); the client does not re-derive it.
type Group struct {
	Name    string   `json:"name"`
	Count   int      `json:"count"`
	Members []Member `json:"members"`
}

type Member struct {
	Name      string      `json:"name"`
	Title     string      `json:"title,omitempty"`
	Bio       string      `json:"bio,omitempty"`
	PhotoURL  string      `json:"photo_url,omitempty"`
	Education []Education `json:"education,omitempty"`
	Career    []Career    `json:"career,omitempty"`
	Personal  []string    `json:"personal,omitempty"`
}

type Education struct {
	School string `json:"school"`
	Degree string `json:"degree,omitempty"`
	Honors string `json:"honors,omitempty"`
}

type Career struct {
	Company string `json:"company"`
	Role    string `json:"role"`
}

// Insight holds a markdown body. It is rendered as-is, never parsed.
type Insight struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Initials returns up to two upper-case initials for members without a photo.
func (m Member) Initials() string {
	var builder strings.Builder
	for _, part := range strings.Fields(m.Name) {
		if builder.Len() >= 2 {
			break
		}
		builder.WriteString(strings.ToUpper(string([]rune(part)[:1])))
	}
	return builder.String()
}
