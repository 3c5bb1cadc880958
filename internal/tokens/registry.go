package tokens

import "slices"

// Domain identifiers.
const (
	DomainChars     = "chars"
	DomainWords     = "words"
	DomainIntervals = "intervals"
	DomainNotes     = "notes"
	DomainDurations = "durations"
)

var domains = []string{DomainChars, DomainWords, DomainIntervals, DomainNotes, DomainDurations}

// Domains returns the supported domain ids.
func Domains() []string {
	return slices.Clone(domains)
}

// Known reports whether id names a supported domain.
func Known(id string) bool {
	return slices.Contains(domains, id)
}

// IsMusic reports whether the domain reads scores.
func IsMusic(id string) bool {
	return id == DomainIntervals || id == DomainNotes || id == DomainDurations
}

var (
	_ Adapter[rune]    = (*Characters)(nil)
	_ Adapter[string]  = (*Words)(nil)
	_ Adapter[int]     = (*Intervals)(nil)
	_ Adapter[Pitch]   = (*Notes)(nil)
	_ Adapter[float64] = (*Durations)(nil)
)
