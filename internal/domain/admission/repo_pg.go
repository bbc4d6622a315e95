package admission

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

const bedCols = `id, ward, label, occupied, current_admission_id, created_at`

const admissionCols = `id, patient_id, doctor_id, bed_id, diagnosis, status, admitted_at, discharged_at, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBed(row rowScanner) (*Bed, error) {
	var b Bed
	err := row.Scan(&b.ID, &b.Ward, &b.Label, &b.Occupied, &b.CurrentAdmissionID, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func scanAdmission(row rowScanner) (*Admission, error) {
	var a Admission
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.BedID, &a.Diagnosis, &a.Status,
		&a.AdmittedAt, &a.DischargedAt, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func notFound(err error, sentinel error, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %d", sentinel, id)
	}
	return err
}

func (r *repoPG) CreateBed(ctx context.Context, b *Bed) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO bed (ward, label, occupied)
		VALUES ($1, $2, FALSE)
		RETURNING id, created_at`,
		b.Ward, b.Label,
	).Scan(&b.ID, &b.CreatedAt)
	if code, _ := db.PgErrorCode(err); code == db.UniqueViolation {
		return fmt.Errorf("%w: bed %s/%s already exists", ErrInvalidInput, b.Ward, b.Label)
	}
	return err
}

func (r *repoPG) GetBed(ctx context.Context, id int64) (*Bed, error) {
	b, err := scanBed(r.conn(ctx).QueryRow(ctx, `SELECT `+bedCols+` FROM bed WHERE id = $1`, id))
	return b, notFound(err, ErrBedNotFound, id)
}

func (r *repoPG) LockBed(ctx context.Context, id int64) (*Bed, error) {
	b, err := scanBed(r.conn(ctx).QueryRow(ctx, `SELECT `+bedCols+` FROM bed WHERE id = $1 FOR UPDATE`, id))
	return b, notFound(err, ErrBedNotFound, id)
}

func (r *repoPG) MarkOccupied(ctx context.Context, bedID, admissionID int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE bed SET occupied = TRUE, current_admission_id = $2
		WHERE id = $1 AND occupied = FALSE`,
		bedID, admissionID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: bed %d", ErrBedOccupied, bedID)
	}
	return nil
}

func (r *repoPG) MarkAvailable(ctx context.Context, bedID, admissionID int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE bed SET occupied = FALSE, current_admission_id = NULL
		WHERE id = $1 AND current_admission_id = $2`,
		bedID, admissionID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: bed %d, admission %d", ErrBedNotHeld, bedID, admissionID)
	}
	return nil
}

func (r *repoPG) listBeds(ctx context.Context, where string) ([]*Bed, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+bedCols+` FROM bed `+where+` ORDER BY ward, label, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	beds := []*Bed{}
	for rows.Next() {
		b, err := scanBed(rows)
		if err != nil {
			return nil, err
		}
		beds = append(beds, b)
	}
	return beds, rows.Err()
}

func (r *repoPG) ListBeds(ctx context.Context) ([]*Bed, error) {
	return r.listBeds(ctx, "")
}

func (r *repoPG) ListAvailableBeds(ctx context.Context) ([]*Bed, error) {
	return r.listBeds(ctx, "WHERE occupied = FALSE")
}

func (r *repoPG) CreateAdmission(ctx context.Context, a *Admission) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO admission (patient_id, doctor_id, bed_id, diagnosis, status, admitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		a.PatientID, a.DoctorID, a.BedID, a.Diagnosis, a.Status, a.AdmittedAt,
	).Scan(&a.ID, &a.CreatedAt)
	if err == nil {
		return nil
	}

	code, constraint := db.PgErrorCode(err)
	switch {
	case code == db.UniqueViolation && constraint == "admission_one_active_per_bed":
		return fmt.Errorf("%w: bed %d", ErrBedOccupied, a.BedID)
	case code == db.ForeignKeyViolation && constraint == "admission_patient_id_fkey":
		return fmt.Errorf("%w: %d", ErrPatientNotFound, a.PatientID)
	case code == db.ForeignKeyViolation && constraint == "admission_doctor_id_fkey":
		return fmt.Errorf("%w: %d", ErrDoctorNotFound, *a.DoctorID)
	case code == db.ForeignKeyViolation && constraint == "admission_bed_id_fkey":
		return fmt.Errorf("%w: %d", ErrBedNotFound, a.BedID)
	}
	return err
}

func (r *repoPG) GetAdmission(ctx context.Context, id int64) (*Admission, error) {
	a, err := scanAdmission(r.conn(ctx).QueryRow(ctx, `SELECT `+admissionCols+` FROM admission WHERE id = $1`, id))
	return a, notFound(err, ErrAdmissionNotFound, id)
}

func (r *repoPG) LockAdmission(ctx context.Context, id int64) (*Admission, error) {
	a, err := scanAdmission(r.conn(ctx).QueryRow(ctx, `SELECT `+admissionCols+` FROM admission WHERE id = $1 FOR UPDATE`, id))
	return a, notFound(err, ErrAdmissionNotFound, id)
}

func (r *repoPG) SaveDischarge(ctx context.Context, a *Admission) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE admission SET status = $2, discharged_at = $3
		WHERE id = $1 AND status = 'Active'`,
		a.ID, a.Status, a.DischargedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrAlreadyDischarged, a.ID)
	}
	return nil
}

func (r *repoPG) ListAdmissions(ctx context.Context) ([]*Admission, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT a.id, a.patient_id, a.doctor_id, a.bed_id, a.diagnosis, a.status,
		       a.admitted_at, a.discharged_at, a.created_at,
		       p.first_name || ' ' || p.last_name,
		       u.full_name,
		       b.ward, b.label
		FROM admission a
		JOIN patient p ON p.id = a.patient_id
		JOIN bed b ON b.id = a.bed_id
		LEFT JOIN staff_user u ON u.id = a.doctor_id
		ORDER BY a.admitted_at DESC, a.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	admissions := []*Admission{}
	for rows.Next() {
		var a Admission
		if err := rows.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.BedID, &a.Diagnosis, &a.Status,
			&a.AdmittedAt, &a.DischargedAt, &a.CreatedAt,
			&a.PatientName, &a.DoctorName, &a.Ward, &a.BedLabel); err != nil {
			return nil, err
		}
		admissions = append(admissions, &a)
	}
	return admissions, rows.Err()
}
