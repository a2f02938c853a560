package program

import (
	"context"
	"errors"
	"fmt"

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

type registryPG struct{ pool *pgxpool.Pool }

func NewRegistryPG(pool *pgxpool.Pool) Registry {
	return &registryPG{pool: pool}
}

func (r *registryPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *registryPG) GetByName(ctx context.Context, name string) (*Program, error) {
	var p Program
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, name, description, created_at FROM programs WHERE name = $1`,
		name).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get program %q: %w", name, err)
	}
	return &p, nil
}

func (r *registryPG) ListEnrollments(ctx context.Context, patientID, programID uuid.UUID) ([]*Enrollment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_id, program_id, date_enrolled, date_completed, created_at
		FROM patient_programs
		WHERE patient_id = $1 AND program_id = $2
		ORDER BY date_enrolled`, patientID, programID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*Enrollment
	for rows.Next() {
		var e Enrollment
		if err := rows.Scan(&e.ID, &e.PatientID, &e.ProgramID,
			&e.DateEnrolled, &e.DateCompleted, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		enrollments = append(enrollments, &e)
	}
	return enrollments, rows.Err()
}

func (r *registryPG) CreateEnrollment(ctx context.Context, e *Enrollment) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_programs (id, patient_id, program_id, date_enrolled, date_completed)
		VALUES ($1,$2,$3,$4,$5)`,
		e.ID, e.PatientID, e.ProgramID, e.DateEnrolled, e.DateCompleted)
	if err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}
