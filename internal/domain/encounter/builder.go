package encounter

import (
	"context"
	"fmt"

	"github.com/emrflow/emrflow/internal/domain/patient"
)

// Builder turns a row's encounter payloads into transactions for a matched
// patient. Aside from concept translation it is a pure function of its
// inputs.
type Builder struct {
	concepts         *ConceptCache
	defaultVisitType string
}

func NewBuilder(concepts *ConceptCache, defaultVisitType string) *Builder {
	return &Builder{concepts: concepts, defaultVisitType: defaultVisitType}
}

// Build produces one transaction per non-empty row encounter, in row order.
// A row with no clinical data yields zero transactions; that is a legitimate
// outcome, not an error. Any unknown concept or diagnosis name fails the
// whole build.
func (b *Builder) Build(ctx context.Context, rowEncounters []RowEncounter, p *patient.Patient) ([]*Transaction, error) {
	var transactions []*Transaction
	for i, re := range rowEncounters {
		if re.IsEmpty() {
			continue
		}

		tx := &Transaction{
			PatientID:     p.ID,
			EncounterDate: re.EncounterDate,
			VisitType:     re.VisitType,
		}
		if tx.VisitType == "" {
			tx.VisitType = b.defaultVisitType
		}

		for _, obs := range re.Observations {
			concept, err := b.concepts.Get(ctx, obs.Concept)
			if err != nil {
				return nil, fmt.Errorf("encounter %d: %w", i+1, err)
			}
			tx.Observations = append(tx.Observations, Observation{
				ConceptID:   concept.ID,
				ConceptName: concept.Name,
				Value:       obs.Value,
			})
		}

		for _, name := range re.Diagnoses {
			concept, err := b.concepts.Get(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("encounter %d: %w", i+1, err)
			}
			tx.Diagnoses = append(tx.Diagnoses, Diagnosis{
				ConceptID:   concept.ID,
				ConceptName: concept.Name,
			})
		}

		transactions = append(transactions, tx)
	}
	return transactions, nil
}
