package encounter

import (
	"context"
	"fmt"
	"time"

	"github.com/emrflow/emrflow/internal/domain/patient"
)

// RetrospectiveService posts encounter transactions against the correct,
// possibly backdated, visit for a patient. One attempt per transaction, no
// retry; atomicity across a row's transactions belongs to the caller's
// transaction scope.
type RetrospectiveService struct {
	visits     VisitRepository
	encounters Repository
}

func NewRetrospectiveService(visits VisitRepository, encounters Repository) *RetrospectiveService {
	return &RetrospectiveService{visits: visits, encounters: encounters}
}

// Save locates a visit covering the transaction's encounter date, creating a
// single-day visit when none exists, then posts the encounter with its
// observations and diagnoses in order.
func (s *RetrospectiveService) Save(ctx context.Context, tx *Transaction, p *patient.Patient) error {
	visit, err := s.visits.FindForDate(ctx, p.ID, tx.EncounterDate)
	if err != nil {
		return fmt.Errorf("locating visit: %w", err)
	}
	if visit == nil {
		// Half-open [day, day+24h) so every instant of the day, including
		// the final second, falls inside exactly one visit.
		day := tx.EncounterDate.Truncate(24 * time.Hour)
		visit = &Visit{
			PatientID: p.ID,
			VisitType: tx.VisitType,
			StartDate: day,
			EndDate:   day.Add(24 * time.Hour),
		}
		if err := s.visits.Create(ctx, visit); err != nil {
			return fmt.Errorf("creating visit: %w", err)
		}
	}

	enc := &Encounter{
		PatientID:     p.ID,
		VisitID:       visit.ID,
		EncounterDate: tx.EncounterDate,
	}
	if err := s.encounters.CreateEncounter(ctx, enc); err != nil {
		return fmt.Errorf("posting encounter: %w", err)
	}

	for _, obs := range tx.Observations {
		if err := s.encounters.CreateObservation(ctx, enc.ID, obs); err != nil {
			return fmt.Errorf("posting observation %q: %w", obs.ConceptName, err)
		}
	}
	for _, d := range tx.Diagnoses {
		if err := s.encounters.CreateDiagnosis(ctx, enc.ID, d); err != nil {
			return fmt.Errorf("posting diagnosis %q: %w", d.ConceptName, err)
		}
	}
	return nil
}
