package encounter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ConceptRepository resolves concept names against the store dictionary.
type ConceptRepository interface {
	// GetByName resolves a concept by name, case-insensitively. Returns nil
	// when the name is unknown.
	GetByName(ctx context.Context, name string) (*Concept, error)
}

// VisitRepository locates and creates visit contexts.
type VisitRepository interface {
	// FindForDate returns a visit for the patient whose period covers the
	// given date, or nil when none exists.
	FindForDate(ctx context.Context, patientID uuid.UUID, date time.Time) (*Visit, error)

	Create(ctx context.Context, v *Visit) error
}

// Repository posts encounter records and their children.
type Repository interface {
	CreateEncounter(ctx context.Context, e *Encounter) error
	CreateObservation(ctx context.Context, encounterID uuid.UUID, o Observation) error
	CreateDiagnosis(ctx context.Context, encounterID uuid.UUID, d Diagnosis) error
}
