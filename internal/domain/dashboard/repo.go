package dashboard

import (
	"context"
	"time"
)

// Repository runs the read-only aggregate queries behind the dashboards.
type Repository interface {
	StaffCounts(ctx context.Context) (map[string]int, error)
	BedTotals(ctx context.Context) (BedTotals, error)
	AvailableBeds(ctx context.Context) ([]BedRow, error)
	ActiveAdmissions(ctx context.Context, doctorID int64) ([]AdmissionRow, error)
	// Appointments returns Scheduled appointments in [from, to), optionally
	// restricted to one doctor (doctorID > 0), limited to limit rows.
	Appointments(ctx context.Context, doctorID int64, from, to time.Time, limit int) ([]AppointmentRow, error)
	CountActiveAdmissions(ctx context.Context) (int, error)
	CountPendingBills(ctx context.Context) (int, error)
}
