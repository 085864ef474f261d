package pattern

import "strings"

// DefaultWildcard is the wildcard character used when none is configured.
const DefaultWildcard = '*'

// Pattern is a compiled channel pattern.
type Pattern struct {
	raw      string
	wildcard rune

	// pieces holds the literal text between wildcards. A pattern without
	// a wildcard has exactly one piece.
	pieces []string

	// minLen is the number of literal bytes a subject must contain.
	minLen int
}

// Compile compiles raw into a Pattern using the given wildcard character.
// Compilation cannot fail: every string is a valid pattern.
func Compile(raw string, wildcard rune) *Pattern {
	p := &Pattern{
		raw:      raw,
		wildcard: wildcard,
		pieces:   strings.Split(raw, string(wildcard)),
	}
	for _, piece := range p.pieces {
		p.minLen += len(piece)
	}
	return p
}

// Match reports whether subject matches pattern using DefaultWildcard.
func Match(pattern, subject string) bool {
	return Compile(pattern, DefaultWildcard).Match(subject)
}

// HasWildcard reports whether raw contains the wildcard character.
func HasWildcard(raw string, wildcard rune) bool {
	return strings.ContainsRune(raw, wildcard)
}

// String returns the source text of the pattern.
func (p *Pattern) String() string {
	return p.raw
}

// Wildcard returns the wildcard character the pattern was compiled with.
func (p *Pattern) Wildcard() rune {
	return p.wildcard
}

// IsWildcard returns true if the pattern contains at least one wildcard.
func (p *Pattern) IsWildcard() bool {
	return len(p.pieces) > 1
}

// Match reports whether the whole subject matches the pattern.
// The subject is always treated as literal text.
func (p *Pattern) Match(subject string) bool {
	if !p.IsWildcard() {
		return subject == p.raw
	}
	if len(subject) < p.minLen {
		return false
	}

	first := p.pieces[0]
	last := p.pieces[len(p.pieces)-1]
	if !strings.HasPrefix(subject, first) || !strings.HasSuffix(subject, last) {
		return false
	}

	// Prefix and suffix are anchored; the middle pieces only need to appear
	// in order. Taking the leftmost occurrence of each leaves the most room
	// for the ones after it.
	rest := subject[len(first) : len(subject)-len(last)]
	for _, piece := range p.pieces[1 : len(p.pieces)-1] {
		if piece == "" {
			continue
		}
		idx := strings.Index(rest, piece)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(piece):]
	}
	return true
}
