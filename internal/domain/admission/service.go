package admission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/hospital/internal/platform/db"
	"github.com/ehr/hospital/internal/platform/events"
)

type Service struct {
	repo     Repository
	tx       db.TxRunner
	patients PatientDirectory
	doctors  DoctorDirectory
	events   events.Publisher
	now      func() time.Time
}

func NewService(repo Repository, tx db.TxRunner, patients PatientDirectory) *Service {
	return &Service{
		repo:     repo,
		tx:       tx,
		patients: patients,
		events:   events.NopPublisher{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetDoctorDirectory enables the existence check for doctor_id on admit.
func (s *Service) SetDoctorDirectory(d DoctorDirectory) {
	s.doctors = d
}

// SetPublisher attaches the lifecycle event publisher.
func (s *Service) SetPublisher(p events.Publisher) {
	if p == nil {
		p = events.NopPublisher{}
	}
	s.events = p
}

// Admit creates an Active admission and occupies the bed in one transaction.
func (s *Service) Admit(ctx context.Context, in AdmitInput) (*Admission, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var adm *Admission
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		ok, err := s.patients.Exists(ctx, in.PatientID)
		if err != nil {
			return fmt.Errorf("check patient: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: %d", ErrPatientNotFound, in.PatientID)
		}
		if in.DoctorID != nil && s.doctors != nil {
			ok, err := s.doctors.DoctorExists(ctx, *in.DoctorID)
			if err != nil {
				return fmt.Errorf("check doctor: %w", err)
			}
			if !ok {
				return fmt.Errorf("%w: %d", ErrDoctorNotFound, *in.DoctorID)
			}
		}

		bed, err := s.repo.LockBed(ctx, in.BedID)
		if err != nil {
			return err
		}
		if err := bed.CheckAvailable(); err != nil {
			return err
		}

		a := &Admission{
			PatientID:  in.PatientID,
			DoctorID:   in.DoctorID,
			BedID:      in.BedID,
			Diagnosis:  in.Diagnosis,
			Status:     StatusActive,
			AdmittedAt: s.now(),
		}
		if err := s.repo.CreateAdmission(ctx, a); err != nil {
			return err
		}
		if err := bed.Occupy(a.ID); err != nil {
			return err
		}
		if err := s.repo.MarkOccupied(ctx, bed.ID, a.ID); err != nil {
			return err
		}
		adm = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.AdmissionAdmitted, adm)
	return adm, nil
}

// Discharge ends an Active admission and frees its bed in one transaction.
func (s *Service) Discharge(ctx context.Context, id int64) (*Admission, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: admission id must be positive", ErrInvalidInput)
	}

	var adm *Admission
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.LockAdmission(ctx, id)
		if err != nil {
			return err
		}
		if err := a.Discharge(s.now()); err != nil {
			return fmt.Errorf("%w: %d", err, id)
		}

		bed, err := s.repo.LockBed(ctx, a.BedID)
		if err != nil {
			return err
		}
		if err := bed.Release(a.ID); err != nil {
			ev := zerolog.Ctx(ctx).Error().Err(err).
				Int64("bed_id", bed.ID).
				Int64("admission_id", a.ID)
			if bed.CurrentAdmissionID != nil {
				ev = ev.Int64("bed_current_admission_id", *bed.CurrentAdmissionID)
			}
			ev.Msg("bed linkage does not match active admission")
			return err
		}

		if err := s.repo.SaveDischarge(ctx, a); err != nil {
			return err
		}
		if err := s.repo.MarkAvailable(ctx, bed.ID, a.ID); err != nil {
			return err
		}
		adm = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.AdmissionDischarged, adm)
	return adm, nil
}

// UpdateStatus applies a status change requested through the generic update
// route. Discharged is the only reachable target.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*Admission, error) {
	st, ok := ParseStatus(status)
	if !ok || st != StatusDischarged {
		return nil, fmt.Errorf("%w: status must be %q", ErrInvalidInput, StatusDischarged)
	}
	return s.Discharge(ctx, id)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Admission, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: admission id must be positive", ErrInvalidInput)
	}
	return s.repo.GetAdmission(ctx, id)
}

func (s *Service) ListAll(ctx context.Context) ([]*Admission, error) {
	return s.repo.ListAdmissions(ctx)
}

func (s *Service) ListBeds(ctx context.Context) ([]*Bed, error) {
	return s.repo.ListBeds(ctx)
}

func (s *Service) ListAvailableBeds(ctx context.Context) ([]*Bed, error) {
	return s.repo.ListAvailableBeds(ctx)
}

// CreateBed adds a bed. New beds are always Available.
func (s *Service) CreateBed(ctx context.Context, ward, label string) (*Bed, error) {
	ward, label = strings.TrimSpace(ward), strings.TrimSpace(label)
	if ward == "" || label == "" {
		return nil, fmt.Errorf("%w: ward and label required", ErrInvalidInput)
	}
	b := &Bed{Ward: ward, Label: label}
	if err := s.repo.CreateBed(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) publish(ctx context.Context, typ string, a *Admission) {
	evt := events.Event{Type: typ, OccurredAt: s.now(), Data: a}
	if _, err := s.events.Publish(ctx, evt); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("event", typ).
			Int64("admission_id", a.ID).
			Msg("failed to publish admission event")
	}
}
