package program

import (
	"context"

	"github.com/google/uuid"
)

// Registry is the program collaborator contract.
type Registry interface {
	// GetByName resolves a program by its exact name. Returns nil when the
	// program is unknown.
	GetByName(ctx context.Context, name string) (*Program, error)

	// ListEnrollments returns every enrollment for (patient, program) in
	// enrollment-date order.
	ListEnrollments(ctx context.Context, patientID, programID uuid.UUID) ([]*Enrollment, error)

	// CreateEnrollment persists a new enrollment.
	CreateEnrollment(ctx context.Context, e *Enrollment) error
}
