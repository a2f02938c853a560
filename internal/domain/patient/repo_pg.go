package patient

import (
	"context"
	"fmt"

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

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) Repository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *patientRepoPG) LookupByIdentifier(ctx context.Context, identifier string) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, identifier, given_name, family_name, gender, birth_date, created_at
		FROM patients WHERE identifier = $1
		ORDER BY created_at`, identifier)
	if err != nil {
		return nil, fmt.Errorf("lookup patients by identifier: %w", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.Identifier, &p.GivenName, &p.FamilyName,
			&p.Gender, &p.BirthDate, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}

	for _, p := range patients {
		if err := r.loadAttributes(ctx, p); err != nil {
			return nil, err
		}
	}
	return patients, nil
}

func (r *patientRepoPG) loadAttributes(ctx context.Context, p *Patient) error {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT name, value FROM patient_attributes
		WHERE patient_id = $1 ORDER BY sort_order`, p.ID)
	if err != nil {
		return fmt.Errorf("load attributes for %s: %w", p.Identifier, err)
	}
	defer rows.Close()

	for rows.Next() {
		var a Attribute
		if err := rows.Scan(&a.Name, &a.Value); err != nil {
			return fmt.Errorf("scan attribute: %w", err)
		}
		p.Attributes = append(p.Attributes, a)
	}
	return rows.Err()
}
