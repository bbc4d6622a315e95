package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/hospital/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Pick(ctx, r.pool)
}

// Amounts cross the wire as integer cents.
const billCols = `id, patient_id, admission_id, (amount * 100)::bigint, description, status, created_at, paid_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBill(row rowScanner) (*Bill, error) {
	var b Bill
	var cents int64
	err := row.Scan(&b.ID, &b.PatientID, &b.AdmissionID, &cents, &b.Description, &b.Status, &b.CreatedAt, &b.PaidAt)
	if err != nil {
		return nil, err
	}
	b.Amount = Money(cents)
	return &b, nil
}

func (r *repoPG) Create(ctx context.Context, b *Bill) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO bill (patient_id, admission_id, amount, description, status)
		VALUES ($1, $2, $3::bigint / 100.0, $4, $5)
		RETURNING id, created_at`,
		b.PatientID, b.AdmissionID, int64(b.Amount), b.Description, b.Status,
	).Scan(&b.ID, &b.CreatedAt)
	if err == nil {
		return nil
	}
	code, constraint := db.PgErrorCode(err)
	switch {
	case code == db.ForeignKeyViolation && constraint == "bill_patient_id_fkey":
		return fmt.Errorf("%w: %d", ErrPatientNotFound, b.PatientID)
	case code == db.ForeignKeyViolation && constraint == "bill_admission_id_fkey":
		return fmt.Errorf("%w: %d", ErrAdmissionNotFound, *b.AdmissionID)
	}
	return err
}

func (r *repoPG) get(ctx context.Context, id int64, suffix string) (*Bill, error) {
	b, err := scanBill(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM bill WHERE id = $1`+suffix, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return b, err
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Bill, error) {
	return r.get(ctx, id, "")
}

func (r *repoPG) Lock(ctx context.Context, id int64) (*Bill, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *repoPG) SaveStatus(ctx context.Context, b *Bill) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE bill SET status = $2, paid_at = $3
		WHERE id = $1 AND status = 'Pending'`,
		b.ID, b.Status, b.PaidAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrClosed, b.ID)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, patientID int64) ([]*Bill, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT b.id, b.patient_id, b.admission_id, (b.amount * 100)::bigint, b.description, b.status,
		       b.created_at, b.paid_at,
		       p.first_name || ' ' || p.last_name, a.diagnosis, a.status
		FROM bill b
		JOIN patient p ON p.id = b.patient_id
		LEFT JOIN admission a ON a.id = b.admission_id
		WHERE $1::bigint = 0 OR b.patient_id = $1
		ORDER BY b.created_at DESC, b.id DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bills := []*Bill{}
	for rows.Next() {
		var (
			b     Bill
			cents int64
		)
		if err := rows.Scan(&b.ID, &b.PatientID, &b.AdmissionID, &cents, &b.Description, &b.Status,
			&b.CreatedAt, &b.PaidAt,
			&b.PatientName, &b.AdmissionDiagnosis, &b.AdmissionStatus); err != nil {
			return nil, err
		}
		b.Amount = Money(cents)
		bills = append(bills, &b)
	}
	return bills, rows.Err()
}
