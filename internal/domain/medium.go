package domain

import (
	"fmt"
	"strings"
)

// Medium is the closed set of output targets a style specification is
// produced for.
type Medium string

const (
	MediumSlides Medium = "Slides"
	MediumSaaS   Medium = "SaaS"
	MediumPoster Medium = "Poster"
)

// Media returns every supported medium in display order.
func Media() []Medium {
	return []Medium{MediumSlides, MediumSaaS, MediumPoster}
}

// Valid reports whether m is one of the known media.
func (m Medium) Valid() bool {
	switch m {
	case MediumSlides, MediumSaaS, MediumPoster:
		return true
	}
	return false
}

func (m Medium) String() string {
	return string(m)
}

// ParseMedium accepts the canonical names case-insensitively.
func ParseMedium(raw string) (Medium, error) {
	value := strings.TrimSpace(raw)
	for _, m := range Media() {
		if strings.EqualFold(value, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMedium, raw)
}
