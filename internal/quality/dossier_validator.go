package quality

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iago/briefcase/internal/domain"
)

var ErrQualityRejected = errors.New("dossier failed quality checks")

const maxBioLength = 600

type DossierValidationResult struct {
	Corrected bool
	Dropped   int
}

// DossierValidator normalizes a freshly built dossier before it is stored.
// Whitespace is collapsed, long bios are cut at a word boundary, nameless
// members and untitled insights are dropped, and counts are recomputed from
// what remains.
type DossierValidator struct{}

func NewDossierValidator() *DossierValidator {
	return &DossierValidator{}
}

func (v *DossierValidator) Validate(d *domain.Dossier) (DossierValidationResult, error) {
	if d == nil {
		return DossierValidationResult{}, fmt.Errorf("%w: empty dossier", ErrQualityRejected)
	}

	var result DossierValidationResult
	normalize := func(value *string) {
		cleaned := normalizeText(*value)
		if cleaned != *value {
			*value = cleaned
			result.Corrected = true
		}
	}

	normalize(&d.Company)
	if d.Company == "" {
		return result, fmt.Errorf("%w: missing company name", ErrQualityRejected)
	}

	total := 0
	groups := d.Groups[:0]
	for _, group := range d.Groups {
		normalize(&group.Name)
		members := group.Members[:0]
		for _, member := range group.Members {
			normalize(&member.Name)
			if member.Name == "" {
				result.Dropped++
				continue
			}
			normalize(&member.Title)
			normalize(&member.Bio)
			if len(member.Bio) > maxBioLength {
				member.Bio = truncateAtWord(member.Bio, maxBioLength)
				result.Corrected = true
			}
			members = append(members, member)
		}
		if len(members) == 0 {
			continue
		}
		group.Members = members
		if group.Count != len(members) {
			group.Count = len(members)
			result.Corrected = true
		}
		total += group.Count
		groups = append(groups, group)
	}
	d.Groups = groups
	if total == 0 {
		return result, fmt.Errorf("%w: no team members", ErrQualityRejected)
	}
	if d.TeamCount != total {
		d.TeamCount = total
		result.Corrected = true
	}

	insights := d.Insights[:0]
	for _, insight := range d.Insights {
		normalize(&insight.Title)
		if insight.Title == "" || strings.TrimSpace(insight.Content) == "" {
			result.Dropped++
			continue
		}
		insights = append(insights, insight)
	}
	d.Insights = insights

	if result.Dropped > 0 {
		result.Corrected = true
	}
	return result, nil
}

func normalizeText(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func truncateAtWord(value string, maxLen int) string {
	if len(value) <= maxLen {
		return value
	}
	cut := value[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > maxLen/2 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "..."
}
