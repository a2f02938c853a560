// Package matching resolves one patient from a candidate set using the
// attribute pairs supplied on an import row. The strategy is pluggable: the
// built-in matcher ships here, and an operator may supply an alternate
// implementation loaded by name at job start.
package matching

import (
	"errors"
	"fmt"

	"github.com/emrflow/emrflow/internal/domain/patient"
)

// Strategy picks exactly one patient from the candidates or fails. An
// implementation must be deterministic and side-effect-free across rows.
type Strategy interface {
	Match(candidates []*patient.Patient, attributes []patient.Attribute) (*patient.Patient, error)
}

// ErrCannotMatch is the business outcome for "no confident match": either no
// candidate is acceptable or several remain tied. It is distinct from a
// strategy load failure, which is an environment fault.
var ErrCannotMatch = errors.New("cannot match patient")

// LoadError reports that an operator-supplied strategy could not be
// resolved. Operators fix configuration for this one, not data.
type LoadError struct {
	Name string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading matching strategy %q: %v", e.Name, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
