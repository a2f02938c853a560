package encounter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emrflow/emrflow/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// -- Concepts --

type conceptRepoPG struct{ pool *pgxpool.Pool }

func NewConceptRepoPG(pool *pgxpool.Pool) ConceptRepository {
	return &conceptRepoPG{pool: pool}
}

func (r *conceptRepoPG) GetByName(ctx context.Context, name string) (*Concept, error) {
	var c Concept
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, name, class FROM concepts WHERE LOWER(name) = LOWER($1)`,
		name).Scan(&c.ID, &c.Name, &c.Class)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get concept %q: %w", name, err)
	}
	return &c, nil
}

// -- Visits --

type visitRepoPG struct{ pool *pgxpool.Pool }

func NewVisitRepoPG(pool *pgxpool.Pool) VisitRepository {
	return &visitRepoPG{pool: pool}
}

func (r *visitRepoPG) FindForDate(ctx context.Context, patientID uuid.UUID, date time.Time) (*Visit, error) {
	var v Visit
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, patient_id, visit_type, start_date, end_date
		FROM visits
		WHERE patient_id = $1 AND start_date <= $2 AND end_date > $2
		ORDER BY start_date DESC
		LIMIT 1`, patientID, date).
		Scan(&v.ID, &v.PatientID, &v.VisitType, &v.StartDate, &v.EndDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find visit: %w", err)
	}
	return &v, nil
}

func (r *visitRepoPG) Create(ctx context.Context, v *Visit) error {
	v.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO visits (id, patient_id, visit_type, start_date, end_date)
		VALUES ($1,$2,$3,$4,$5)`,
		v.ID, v.PatientID, v.VisitType, v.StartDate, v.EndDate)
	if err != nil {
		return fmt.Errorf("create visit: %w", err)
	}
	return nil
}

// -- Encounters --

type encounterRepoPG struct{ pool *pgxpool.Pool }

func NewEncounterRepoPG(pool *pgxpool.Pool) Repository {
	return &encounterRepoPG{pool: pool}
}

func (r *encounterRepoPG) CreateEncounter(ctx context.Context, e *Encounter) error {
	e.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO encounters (id, patient_id, visit_id, encounter_date)
		VALUES ($1,$2,$3,$4)`,
		e.ID, e.PatientID, e.VisitID, e.EncounterDate)
	if err != nil {
		return fmt.Errorf("create encounter: %w", err)
	}
	return nil
}

func (r *encounterRepoPG) CreateObservation(ctx context.Context, encounterID uuid.UUID, o Observation) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO observations (id, encounter_id, concept_id, value)
		VALUES ($1,$2,$3,$4)`,
		uuid.New(), encounterID, o.ConceptID, o.Value)
	if err != nil {
		return fmt.Errorf("create observation: %w", err)
	}
	return nil
}

func (r *encounterRepoPG) CreateDiagnosis(ctx context.Context, encounterID uuid.UUID, d Diagnosis) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO encounter_diagnoses (id, encounter_id, concept_id)
		VALUES ($1,$2,$3)`,
		uuid.New(), encounterID, d.ConceptID)
	if err != nil {
		return fmt.Errorf("create diagnosis: %w", err)
	}
	return nil
}
