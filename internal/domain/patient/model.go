package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Patient is a reference to a patient aggregate owned by the clinical store.
// The import engine only ever holds one for the duration of a single row.
type Patient struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Identifier  string     `db:"identifier" json:"identifier"`
	GivenName   string     `db:"given_name" json:"given_name"`
	FamilyName  string     `db:"family_name" json:"family_name"`
	Gender      string     `db:"gender" json:"gender"`
	BirthDate   *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`

	// Attributes are the person attributes registered against the patient,
	// in registration order. Matching strategies compare row attributes
	// against these.
	Attributes []Attribute `json:"attributes,omitempty"`
}

// Attribute is one name/value pair. Order is insertion order and matters for
// deterministic matching tie-breaks.
type Attribute struct {
	Name  string `db:"name" json:"name"`
	Value string `db:"value" json:"value"`
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.GivenName + " " + p.FamilyName)
}

// AttributeValue returns the value of the named attribute, matched
// case-insensitively. The second return reports whether it was present.
func (p *Patient) AttributeValue(name string) (string, bool) {
	for _, a := range p.Attributes {
		if strings.EqualFold(a.Name, name) {
			return a.Value, true
		}
	}
	return "", false
}
