package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/ehr/hospital/internal/platform/auth"
)

// upcomingWindow bounds how far ahead the doctor dashboard looks.
const (
	upcomingWindow = 7 * 24 * time.Hour
	upcomingLimit  = 20
	todayLimit     = 200
)

var staffRoles = []string{auth.RoleHR, auth.RoleDoctor, auth.RoleFrontDesk, auth.RoleAdmin}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) HR(ctx context.Context) (*HRSummary, error) {
	counts, err := s.repo.StaffCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("staff counts: %w", err)
	}
	beds, err := s.repo.BedTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("bed totals: %w", err)
	}

	out := &HRSummary{StaffByRole: make(map[string]int, len(staffRoles)), Beds: beds}
	for _, role := range staffRoles {
		out.StaffByRole[role] = counts[role]
		out.TotalStaff += counts[role]
	}
	return out, nil
}

func (s *Service) Doctor(ctx context.Context, doctorID int64) (*DoctorSummary, error) {
	if doctorID <= 0 {
		return nil, fmt.Errorf("%w: doctor id is required", ErrInvalidInput)
	}
	admissions, err := s.repo.ActiveAdmissions(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("active admissions: %w", err)
	}
	now := s.now()
	appts, err := s.repo.Appointments(ctx, doctorID, now, now.Add(upcomingWindow), upcomingLimit)
	if err != nil {
		return nil, fmt.Errorf("upcoming appointments: %w", err)
	}
	return &DoctorSummary{
		DoctorID:             doctorID,
		ActiveAdmissions:     nonNil(admissions),
		UpcomingAppointments: nonNil(appts),
	}, nil
}

// FrontDesk reports the current UTC day's schedule.
func (s *Service) FrontDesk(ctx context.Context) (*FrontDeskSummary, error) {
	beds, err := s.repo.AvailableBeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("available beds: %w", err)
	}
	start := s.now().Truncate(24 * time.Hour)
	appts, err := s.repo.Appointments(ctx, 0, start, start.Add(24*time.Hour), todayLimit)
	if err != nil {
		return nil, fmt.Errorf("today's appointments: %w", err)
	}
	active, err := s.repo.CountActiveAdmissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("active admissions: %w", err)
	}
	pending, err := s.repo.CountPendingBills(ctx)
	if err != nil {
		return nil, fmt.Errorf("pending bills: %w", err)
	}
	return &FrontDeskSummary{
		AvailableBeds:        nonNil(beds),
		TodaysAppointments:   nonNil(appts),
		ActiveAdmissionCount: active,
		PendingBillCount:     pending,
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
