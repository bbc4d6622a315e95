package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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

const apptCols = `id, patient_id, doctor_id, scheduled_at, reason, status, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.ScheduledAt, &a.Reason, &a.Status, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func mapWriteError(err error, a *Appointment) error {
	code, constraint := db.PgErrorCode(err)
	if code != db.ForeignKeyViolation {
		return err
	}
	switch constraint {
	case "appointment_patient_id_fkey":
		return fmt.Errorf("%w: %d", ErrPatientNotFound, a.PatientID)
	case "appointment_doctor_id_fkey":
		return fmt.Errorf("%w: %d", ErrDoctorNotFound, a.DoctorID)
	}
	return err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (patient_id, doctor_id, scheduled_at, reason, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		a.PatientID, a.DoctorID, a.ScheduledAt, a.Reason, a.Status,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return mapWriteError(err, a)
	}
	return nil
}

func (r *repoPG) get(ctx context.Context, id int64, suffix string) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointment WHERE id = $1`+suffix, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return a, err
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	return r.get(ctx, id, "")
}

func (r *repoPG) Lock(ctx context.Context, id int64) (*Appointment, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *repoPG) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE appointment SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET doctor_id = $2, scheduled_at = $3, reason = $4, status = $5
		WHERE id = $1`,
		a.ID, a.DoctorID, a.ScheduledAt, a.Reason, a.Status,
	)
	if err != nil {
		return mapWriteError(err, a)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, a.ID)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointment WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f Filter) ([]*Appointment, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.DoctorID > 0 {
		args = append(args, f.DoctorID)
		where = append(where, fmt.Sprintf("ap.doctor_id = $%d", len(args)))
	}
	if !f.Day.IsZero() {
		day := time.Date(f.Day.Year(), f.Day.Month(), f.Day.Day(), 0, 0, 0, 0, time.UTC)
		args = append(args, day, day.AddDate(0, 0, 1))
		where = append(where, fmt.Sprintf("ap.scheduled_at >= $%d AND ap.scheduled_at < $%d", len(args)-1, len(args)))
	}

	query := `
		SELECT ap.id, ap.patient_id, ap.doctor_id, ap.scheduled_at, ap.reason, ap.status, ap.created_at,
		       p.first_name || ' ' || p.last_name, u.full_name
		FROM appointment ap
		JOIN patient p ON p.id = ap.patient_id
		JOIN staff_user u ON u.id = ap.doctor_id`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\t\tORDER BY ap.scheduled_at, ap.id"

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*Appointment{}
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.ScheduledAt, &a.Reason, &a.Status, &a.CreatedAt,
			&a.PatientName, &a.DoctorName); err != nil {
			return nil, err
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}
