package policy

import (
	"regexp"

	"github.com/iago/briefcase/internal/domain"
)

var (
	emailPattern = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`(?:\+?\d[\d()\-\s.]{7,}\d)`)
)

const (
	emailRedacted = "[email_redacted]"
	phoneRedacted = "[phone_redacted]"
)

// MaskContact replaces e-mail addresses and phone numbers in free text.
func MaskContact(value string) string {
	masked := emailPattern.ReplaceAllString(value, emailRedacted)
	return phonePattern.ReplaceAllString(masked, phoneRedacted)
}

// MaskDossier redacts contact details from the free-text member fields and
// insight bodies in place. Names, titles and photo links are kept.
func MaskDossier(d *domain.Dossier) int {
	if d == nil {
		return 0
	}
	redacted := 0
	mask := func(value *string) {
		masked := MaskContact(*value)
		if masked != *value {
			redacted++
			*value = masked
		}
	}

	for g := range d.Groups {
		members := d.Groups[g].Members
		for m := range members {
			mask(&members[m].Bio)
			for i := range members[m].Personal {
				mask(&members[m].Personal[i])
			}
		}
	}
	for i := range d.Insights {
		mask(&d.Insights[i].Content)
	}
	return redacted
}
