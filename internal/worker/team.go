package worker

import (
	"fmt"
	"hash/fnv"
	"net/url"
	"strings"
	"unicode"

	"github.com/iago/briefcase/internal/domain"
)

// PipelineError is a failure the backend reports on the job itself
// (status error, step "Error: <reason>") instead of retrying.
type PipelineError struct {
	Reason string
}

func (e *PipelineError) Error() string {
	return e.Reason
}

var (
	firstNames = []string{"Ada", "Grace", "Alan", "Katherine", "Linus", "Margaret", "Dennis", "Barbara", "Ken", "Frances"}
	lastNames  = []string{"Lovelace", "Hopper", "Turing", "Johnson", "Torvalds", "Hamilton", "Ritchie", "Liskov", "Thompson", "Allen"}
	schools    = []string{"MIT", "Stanford University", "University of Cambridge", "ETH Zurich", "Carnegie Mellon University"}
	employers  = []string{"Google", "Stripe", "Shopify", "Datadog", "GitLab"}
	teamShape  = []struct {
		name  string
		title string
		size  int
	}{
		{"Leadership", "Co-founder", 2},
		{"Engineering", "Software Engineer", 3},
		{"Operations", "Operations Lead", 1},
	}
)

// CompanyFromURL derives a display name from the page host:
// "https://www.acme-labs.io/team" becomes "Acme Labs".
func CompanyFromURL(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return "", &PipelineError{Reason: fmt.Sprintf("could not parse team page url %q", raw)}
	}
	if strings.Contains(parsed.Path, "/fail") {
		return "", &PipelineError{Reason: fmt.Sprintf("team page %s returned no members", parsed.Hostname())}
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	label, _, _ := strings.Cut(host, ".")
	words := strings.FieldsFunc(label, func(r rune) bool { return r == '-' || r == '_' })

	var parts []string
	for _, word := range words {
		if !strings.ContainsFunc(word, unicode.IsLetter) {
			continue
		}
		runes := []rune(word)
		parts = append(parts, string(unicode.ToUpper(runes[0]))+string(runes[1:]))
	}
	if len(parts) == 0 {
		return "", &PipelineError{Reason: fmt.Sprintf("could not determine company name from %s", parsed.Hostname())}
	}
	return strings.Join(parts, " "), nil
}

// SyntheticTeam builds a deterministic team for the page: the same URL host
// always yields the same members.
func SyntheticTeam(raw string) (*domain.Dossier, error) {
	company, err := CompanyFromURL(raw)
	if err != nil {
		return nil, err
	}

	seed := hashString(company)
	dossier := &domain.Dossier{Company: company}
	for g, shape := range teamShape {
		group := domain.Group{Name: shape.name}
		for i := 0; i < shape.size; i++ {
			n := seed>>(uint(g*8+i)%48) + uint64(g*shape.size+i)
			member := syntheticMember(company, shape.title, n)
			if i == 0 {
				// group leads list a contact address, redacted before storage
				member.Personal = append(member.Personal, fmt.Sprintf("Reach out at %s@%s.example",
					strings.ToLower(strings.Fields(member.Name)[0]), strings.ToLower(strings.ReplaceAll(company, " ", ""))))
			}
			group.Members = append(group.Members, member)
		}
		group.Count = len(group.Members)
		dossier.Groups = append(dossier.Groups, group)
		dossier.TeamCount += group.Count
	}
	return dossier, nil
}

func syntheticMember(company, title string, n uint64) domain.Member {
	name := firstNames[n%uint64(len(firstNames))] + " " + lastNames[(n/uint64(len(firstNames)))%uint64(len(lastNames))]
	member := domain.Member{
		Name:  name,
		Title: title,
		Bio:   fmt.Sprintf("%s works on the %s team.", name, company),
		Education: []domain.Education{{
			School: schools[n%uint64(len(schools))],
			Degree: "BSc Computer Science",
		}},
		Career: []domain.Career{{
			Company: employers[n%uint64(len(employers))],
			Role:    "Senior " + title,
		}},
	}
	if n%3 == 0 {
		member.Personal = []string{"Speaks at local meetups"}
	}
	return member
}

func syntheticInsights(d *domain.Dossier) []domain.Insight {
	var composition strings.Builder
	fmt.Fprintf(&composition, "%s has **%d** people on its public team page.\n\n", d.Company, d.TeamCount)
	for _, group := range d.Groups {
		fmt.Fprintf(&composition, "- %s: %d\n", group.Name, group.Count)
	}

	employersSeen := map[string]bool{}
	var alumni []string
	for _, group := range d.Groups {
		for _, member := range group.Members {
			for _, job := range member.Career {
				if !employersSeen[job.Company] {
					employersSeen[job.Company] = true
					alumni = append(alumni, job.Company)
				}
			}
		}
	}

	return []domain.Insight{
		{Title: "Team Composition", Content: composition.String()},
		{Title: "Career Patterns", Content: "Previous employers include " + strings.Join(alumni, ", ") + "."},
	}
}

func hashString(value string) uint64 {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(value))
	return hasher.Sum64()
}
