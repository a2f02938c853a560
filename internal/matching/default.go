package matching

import (
	"fmt"
	"strings"

	"github.com/emrflow/emrflow/internal/domain/patient"
)

// DefaultStrategy is the built-in matcher. Scoring is deliberately strict:
// a candidate carrying an attribute that contradicts the row is rejected
// outright, matches on the remaining attributes are counted, and the highest
// count must be unique. A single candidate still runs through scoring, so a
// contradicting attribute rejects it rather than auto-accepting.
type DefaultStrategy struct{}

func NewDefaultStrategy() *DefaultStrategy {
	return &DefaultStrategy{}
}

func (s *DefaultStrategy) Match(candidates []*patient.Patient, attributes []patient.Attribute) (*patient.Patient, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", ErrCannotMatch)
	}

	if len(attributes) == 0 {
		if len(candidates) == 1 {
			return candidates[0], nil
		}
		return nil, fmt.Errorf("%w: %d candidates and no attributes to disambiguate", ErrCannotMatch, len(candidates))
	}

	best := -1
	var winner *patient.Patient
	tied := false

	for _, c := range candidates {
		score, rejected := score(c, attributes)
		if rejected {
			continue
		}
		switch {
		case score > best:
			best, winner, tied = score, c, false
		case score == best:
			tied = true
		}
	}

	if winner == nil {
		return nil, fmt.Errorf("%w: every candidate contradicts the row attributes", ErrCannotMatch)
	}
	if tied {
		return nil, fmt.Errorf("%w: multiple candidates tied on %d matching attributes", ErrCannotMatch, best)
	}
	return winner, nil
}

// score counts row attributes the candidate agrees with. A candidate that
// carries a differing value for any row attribute is rejected; an attribute
// the candidate does not carry neither helps nor hurts.
func score(c *patient.Patient, attributes []patient.Attribute) (matches int, rejected bool) {
	for _, attr := range attributes {
		value, ok := c.AttributeValue(attr.Name)
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(value), strings.TrimSpace(attr.Value)) {
			matches++
		} else {
			return 0, true
		}
	}
	return matches, false
}
