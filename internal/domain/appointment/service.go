package appointment

import (
	"context"
	"fmt"

	"github.com/ehr/hospital/internal/platform/db"
)

type Service struct {
	repo     Repository
	tx       db.TxRunner
	patients PatientDirectory
	doctors  DoctorDirectory
}

func NewService(repo Repository, tx db.TxRunner, patients PatientDirectory, doctors DoctorDirectory) *Service {
	return &Service{repo: repo, tx: tx, patients: patients, doctors: doctors}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Appointment, error) {
	a, err := in.Appointment()
	if err != nil {
		return nil, err
	}
	if err := s.checkPatient(ctx, a.PatientID); err != nil {
		return nil, err
	}
	if err := s.checkDoctor(ctx, a.DoctorID); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Appointment, error) {
	return s.repo.List(ctx, f)
}

// Update applies p to the appointment. A patch carrying only status writes
// only the status column; any other patch rewrites the editable columns.
func (s *Service) Update(ctx context.Context, id int64, p Patch) (*Appointment, error) {
	if p.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	var next *Status
	if p.Status != nil {
		st, err := ParseStatus(*p.Status)
		if err != nil {
			return nil, err
		}
		next = &st
	}
	if p.DoctorID != nil && *p.DoctorID <= 0 {
		return nil, fmt.Errorf("%w: doctor_id must be positive", ErrInvalidInput)
	}
	if p.ScheduledAt != nil && p.ScheduledAt.IsZero() {
		return nil, fmt.Errorf("%w: scheduled_at must be set", ErrInvalidInput)
	}

	var out *Appointment
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.Lock(ctx, id)
		if err != nil {
			return err
		}
		target := a.Status
		if next != nil {
			target = *next
		}
		if err := a.Transition(target); err != nil {
			return err
		}

		if p.StatusOnly() {
			if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
				return err
			}
			a.Status = target
			out = a
			return nil
		}

		if p.DoctorID != nil {
			if err := s.checkDoctor(ctx, p.DoctorID.Int64()); err != nil {
				return err
			}
			a.DoctorID = p.DoctorID.Int64()
		}
		if p.ScheduledAt != nil {
			a.ScheduledAt = p.ScheduledAt.UTC()
		}
		if p.Reason != nil {
			a.Reason = trimmed(p.Reason)
		}
		a.Status = target
		if err := s.repo.Update(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) checkPatient(ctx context.Context, id int64) error {
	ok, err := s.patients.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check patient: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %d", ErrPatientNotFound, id)
	}
	return nil
}

func (s *Service) checkDoctor(ctx context.Context, id int64) error {
	ok, err := s.doctors.DoctorExists(ctx, id)
	if err != nil {
		return fmt.Errorf("check doctor: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %d", ErrDoctorNotFound, id)
	}
	return nil
}
