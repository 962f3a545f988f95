package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the date-only form entered in task forms
const DateLayout = "2006-01-02"

// ParseTags splits comma separated tags, trimming blanks. Duplicates are kept.
func ParseTags(tags string) []string {
	out := []string{}
	for _, tag := range strings.Split(tags, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// ParseDate turns form input into a full timestamp. A date-only value becomes
// midnight UTC; RFC 3339 input is kept as is.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: malformed date %q", ErrValidation, s)
}

// FormatDate renders a timestamp back into the date-only form
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
