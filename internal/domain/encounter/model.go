package encounter

import (
	"time"

	"github.com/google/uuid"
)

// RowEncounter is one encounter's payload as it arrives on an import row:
// concept and diagnosis names, not yet translated to store identifiers.
type RowEncounter struct {
	EncounterDate time.Time        `json:"encounter_date"`
	VisitType     string           `json:"visit_type,omitempty"`
	Observations  []ObservationRow `json:"observations,omitempty"`
	Diagnoses     []string         `json:"diagnoses,omitempty"`
}

// ObservationRow is a single untranslated observation from a row.
type ObservationRow struct {
	Concept string `json:"concept"`
	Value   string `json:"value"`
}

// IsEmpty reports whether the payload carries no clinical data.
func (r *RowEncounter) IsEmpty() bool {
	return len(r.Observations) == 0 && len(r.Diagnoses) == 0
}

// Transaction is an ordered, immutable encounter payload ready to post for a
// matched patient. It never outlives the row it was built for.
type Transaction struct {
	PatientID     uuid.UUID
	EncounterDate time.Time
	VisitType     string
	Observations  []Observation
	Diagnoses     []Diagnosis
}

// Observation is a translated observation bound to a store concept.
type Observation struct {
	ConceptID   uuid.UUID
	ConceptName string
	Value       string
}

// Diagnosis is a translated diagnosis bound to a store concept.
type Diagnosis struct {
	ConceptID   uuid.UUID
	ConceptName string
}

// Concept is a dictionary entry in the clinical store.
type Concept struct {
	ID    uuid.UUID `db:"id"`
	Name  string    `db:"name"`
	Class string    `db:"class"`
}

// Visit is the visit context an encounter is posted against. Its period is
// half-open: StartDate inclusive, EndDate exclusive.
type Visit struct {
	ID        uuid.UUID `db:"id"`
	PatientID uuid.UUID `db:"patient_id"`
	VisitType string    `db:"visit_type"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
}

// Encounter is the durable record created when a transaction is posted.
type Encounter struct {
	ID            uuid.UUID `db:"id"`
	PatientID     uuid.UUID `db:"patient_id"`
	VisitID       uuid.UUID `db:"visit_id"`
	EncounterDate time.Time `db:"encounter_date"`
}
