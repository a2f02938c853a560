package program

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnrollmentService enforces the one-active-enrollment rule before creating
// new enrollments. It never silently skips a conflicting request.
type EnrollmentService struct {
	registry Registry
}

func NewEnrollmentService(registry Registry) *EnrollmentService {
	return &EnrollmentService{registry: registry}
}

// Enroll enrolls the patient in the named program starting at the requested
// date, with no end date. It fails with *UnknownProgramError when the name
// does not resolve, and with *AlreadyEnrolledError when any enrollment for
// the pair already exists.
func (s *EnrollmentService) Enroll(ctx context.Context, patientID uuid.UUID, programName string, date time.Time) (*Enrollment, error) {
	prog, err := s.registry.GetByName(ctx, programName)
	if err != nil {
		return nil, fmt.Errorf("resolving program: %w", err)
	}
	if prog == nil {
		return nil, &UnknownProgramError{Name: programName}
	}

	existing, err := s.registry.ListEnrollments(ctx, patientID, prog.ID)
	if err != nil {
		return nil, fmt.Errorf("listing enrollments: %w", err)
	}
	if len(existing) > 0 {
		return nil, &AlreadyEnrolledError{ProgramName: programName, Existing: existing[0]}
	}

	enrollment := &Enrollment{
		PatientID:    patientID,
		ProgramID:    prog.ID,
		DateEnrolled: date,
	}
	if err := s.registry.CreateEnrollment(ctx, enrollment); err != nil {
		return nil, err
	}
	return enrollment, nil
}
