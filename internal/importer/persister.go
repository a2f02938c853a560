package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/emrflow/emrflow/internal/domain/encounter"
	"github.com/emrflow/emrflow/internal/domain/patient"
	"github.com/emrflow/emrflow/internal/domain/program"
	"github.com/emrflow/emrflow/internal/matching"
	"github.com/emrflow/emrflow/internal/platform/telemetry"
)

// PatientLookup is the candidate lookup collaborator.
type PatientLookup interface {
	LookupByIdentifier(ctx context.Context, identifier string) ([]*patient.Patient, error)
}

// TransactionBuilder converts a row's encounter payloads into transactions.
type TransactionBuilder interface {
	Build(ctx context.Context, rowEncounters []encounter.RowEncounter, p *patient.Patient) ([]*encounter.Transaction, error)
}

// Gateway posts one built transaction against the right visit.
type Gateway interface {
	Save(ctx context.Context, tx *encounter.Transaction, p *patient.Patient) error
}

// Enroller enrolls the matched patient in a named program.
type Enroller interface {
	Enroll(ctx context.Context, patientID uuid.UUID, programName string, date time.Time) (*program.Enrollment, error)
}

// Tx is the handle released exactly once per row: Commit on success,
// Rollback on any failure.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWork opens the scoped transaction a row runs inside. The returned
// context carries the transaction to every collaborator call.
type UnitOfWork interface {
	Begin(ctx context.Context) (context.Context, Tx, error)
}

// Persister sequences matching, building, persistence and enrollment for a
// single row. Every failure, of every kind, is converted into a Result; the
// batch driver never sees an error from Persist.
type Persister struct {
	uow      UnitOfWork
	patients PatientLookup
	strategy matching.Strategy
	builder  TransactionBuilder
	gateway  Gateway
	enroller Enroller
	log      zerolog.Logger
	metrics  *telemetry.Metrics
}

func NewPersister(
	uow UnitOfWork,
	patients PatientLookup,
	strategy matching.Strategy,
	builder TransactionBuilder,
	gateway Gateway,
	enroller Enroller,
	log zerolog.Logger,
) *Persister {
	return &Persister{
		uow:      uow,
		patients: patients,
		strategy: strategy,
		builder:  builder,
		gateway:  gateway,
		enroller: enroller,
		log:      log,
	}
}

// SetMetrics attaches optional import metrics to the persister.
func (p *Persister) SetMetrics(m *telemetry.Metrics) {
	p.metrics = m
}

// Persist processes one row inside one unit of work. Safe to call
// concurrently, one call per row. It never returns an error and never lets a
// panic escape; every fault becomes a Result.
func (p *Persister) Persist(ctx context.Context, row *Row) (result *Result) {
	// A null element in the input batch decodes to a nil row. It carries no
	// identifier, so it takes the empty-identifier path.
	if row == nil {
		row = &Row{}
	}
	defer func() {
		if r := recover(); r != nil {
			result = p.failed(row, fmt.Errorf("unexpected fault processing row %q: %v", row.PatientIdentifier, r))
		}
	}()

	// The store treats an empty identifier as "match everything", so it
	// must never reach the lookup call.
	if strings.TrimSpace(row.PatientIdentifier) == "" {
		return &Result{Row: row, Err: &NoMatchError{Identifier: row.PatientIdentifier}}
	}

	txCtx, tx, err := p.uow.Begin(ctx)
	if err != nil {
		return p.failed(row, fmt.Errorf("opening unit of work: %w", err))
	}

	saved, enrolled, err := p.process(txCtx, row)
	if err != nil {
		// Roll back before reporting so a failed row never retains
		// partial writes.
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			p.log.Error().Err(rbErr).
				Str("patient_identifier", row.PatientIdentifier).
				Msg("rollback failed")
		}
		return p.failed(row, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return p.failed(row, fmt.Errorf("committing row: %w", err))
	}

	// Counters only move for durable writes, so they are bumped after the
	// commit, never before a possible rollback.
	if p.metrics != nil {
		p.metrics.EncountersPosted.Add(float64(saved))
		p.metrics.EnrollmentsCreated.Add(float64(enrolled))
	}
	return &Result{Row: row}
}

// process runs the row pipeline inside the transaction context. A panic in
// any collaborator is converted to an error so the row fails alone instead
// of taking the batch down.
func (p *Persister) process(ctx context.Context, row *Row) (saved, enrolled int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected fault processing row %q: %v", row.PatientIdentifier, r)
		}
	}()

	candidates, err := p.patients.LookupByIdentifier(ctx, row.PatientIdentifier)
	if err != nil {
		return 0, 0, fmt.Errorf("looking up patients: %w", err)
	}
	if len(candidates) == 0 {
		return 0, 0, &NoMatchError{Identifier: row.PatientIdentifier}
	}

	matched, err := p.strategy.Match(candidates, row.Attributes)
	if err != nil {
		if errors.Is(err, matching.ErrCannotMatch) {
			return 0, 0, &NoMatchError{Identifier: row.PatientIdentifier}
		}
		// Strategy load failures and other faults are configuration
		// problems; surfacing them verbatim keeps them distinguishable
		// from bad data.
		return 0, 0, err
	}

	transactions, err := p.builder.Build(ctx, row.Encounters, matched)
	if err != nil {
		return 0, 0, fmt.Errorf("building encounter transactions: %w", err)
	}

	for _, tx := range transactions {
		if err := p.gateway.Save(ctx, tx, matched); err != nil {
			return saved, enrolled, fmt.Errorf("saving encounter for %q: %w", row.PatientIdentifier, err)
		}
		saved++
	}

	for _, req := range row.Programs {
		if _, err := p.enroller.Enroll(ctx, matched.ID, req.Name, req.Date); err != nil {
			return saved, enrolled, fmt.Errorf("enrolling %q: %w", row.PatientIdentifier, err)
		}
		enrolled++
	}
	return saved, enrolled, nil
}

func (p *Persister) failed(row *Row, err error) *Result {
	p.log.Warn().
		Str("patient_identifier", row.PatientIdentifier).
		Err(err).
		Msg("row failed")
	return &Result{Row: row, Err: err}
}
