// Package importer contains the row-level import engine: it turns one
// structured input record into durable clinical-record state, with strict
// per-row fault isolation.
package importer

import (
	"time"

	"github.com/emrflow/emrflow/internal/domain/encounter"
	"github.com/emrflow/emrflow/internal/domain/patient"
)

// Row is the unit of work handed in by the upstream parser. It is never
// mutated by the engine.
type Row struct {
	// PatientIdentifier may be empty; an empty identifier never matches.
	PatientIdentifier string `json:"patient_identifier"`

	// Attributes disambiguate candidate patients. Their order is the row's
	// insertion order.
	Attributes []patient.Attribute `json:"attributes,omitempty"`

	// Encounters holds the row's encounter payloads in row order.
	Encounters []encounter.RowEncounter `json:"encounters,omitempty"`

	// Programs holds requested program enrollments in row order.
	Programs []ProgramRequest `json:"programs,omitempty"`
}

// ProgramRequest asks that the matched patient be enrolled in a named
// program starting at the given date.
type ProgramRequest struct {
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}
