package dashboard

import (
	"context"
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

func (r *repoPG) StaffCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT role, COUNT(*) FROM staff_user GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		counts[role] = n
	}
	return counts, rows.Err()
}

func (r *repoPG) BedTotals(ctx context.Context) (BedTotals, error) {
	var t BedTotals
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE occupied)
		FROM bed`).Scan(&t.Total, &t.Occupied)
	t.Available = t.Total - t.Occupied
	return t, err
}

func (r *repoPG) AvailableBeds(ctx context.Context) ([]BedRow, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, ward, label FROM bed
		WHERE NOT occupied
		ORDER BY ward, label`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (BedRow, error) {
		var b BedRow
		err := row.Scan(&b.ID, &b.Ward, &b.Label)
		return b, err
	})
}

func (r *repoPG) ActiveAdmissions(ctx context.Context, doctorID int64) ([]AdmissionRow, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT a.id, a.patient_id, p.first_name || ' ' || p.last_name,
		       a.bed_id, b.ward, b.label, a.diagnosis, a.admitted_at
		FROM admission a
		JOIN patient p ON p.id = a.patient_id
		JOIN bed b ON b.id = a.bed_id
		WHERE a.status = 'Active' AND a.doctor_id = $1
		ORDER BY a.admitted_at DESC, a.id DESC`, doctorID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (AdmissionRow, error) {
		var a AdmissionRow
		err := row.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.BedID, &a.Ward, &a.BedLabel, &a.Diagnosis, &a.AdmittedAt)
		return a, err
	})
}

func (r *repoPG) Appointments(ctx context.Context, doctorID int64, from, to time.Time, limit int) ([]AppointmentRow, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT ap.id, ap.patient_id, p.first_name || ' ' || p.last_name,
		       ap.doctor_id, s.full_name, ap.scheduled_at, ap.reason, ap.status
		FROM appointment ap
		JOIN patient p ON p.id = ap.patient_id
		JOIN staff_user s ON s.id = ap.doctor_id
		WHERE ap.status = 'Scheduled'
		  AND ap.scheduled_at >= $2 AND ap.scheduled_at < $3
		  AND ($1::bigint = 0 OR ap.doctor_id = $1)
		ORDER BY ap.scheduled_at, ap.id
		LIMIT $4`, doctorID, from, to, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (AppointmentRow, error) {
		var a AppointmentRow
		err := row.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.DoctorID, &a.DoctorName, &a.ScheduledAt, &a.Reason, &a.Status)
		return a, err
	})
}

func (r *repoPG) CountActiveAdmissions(ctx context.Context) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM admission WHERE status = 'Active'`).Scan(&n)
	return n, err
}

func (r *repoPG) CountPendingBills(ctx context.Context) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM bill WHERE status = 'Pending'`).Scan(&n)
	return n, err
}
