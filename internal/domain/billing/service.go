package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ehr/hospital/internal/domain/admission"
	"github.com/ehr/hospital/internal/platform/db"
)

type Service struct {
	repo       Repository
	tx         db.TxRunner
	patients   PatientDirectory
	admissions AdmissionDirectory
	now        func() time.Time
}

func NewService(repo Repository, tx db.TxRunner, patients PatientDirectory, admissions AdmissionDirectory) *Service {
	return &Service{
		repo:       repo,
		tx:         tx,
		patients:   patients,
		admissions: admissions,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create records a Pending bill. A referenced admission must belong to the
// same patient.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Bill, error) {
	b, err := in.Bill()
	if err != nil {
		return nil, err
	}

	ok, err := s.patients.Exists(ctx, b.PatientID)
	if err != nil {
		return nil, fmt.Errorf("check patient: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrPatientNotFound, b.PatientID)
	}

	if b.AdmissionID != nil {
		a, err := s.admissions.GetByID(ctx, *b.AdmissionID)
		switch {
		case errors.Is(err, admission.ErrAdmissionNotFound):
			return nil, fmt.Errorf("%w: %d", ErrAdmissionNotFound, *b.AdmissionID)
		case err != nil:
			return nil, fmt.Errorf("load admission: %w", err)
		case a.PatientID != b.PatientID:
			return nil, fmt.Errorf("%w: admission %d belongs to another patient", ErrInvalidInput, a.ID)
		}
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Bill, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, patientID int64) ([]*Bill, error) {
	return s.repo.List(ctx, patientID)
}

// UpdateStatus settles a Pending bill.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*Bill, error) {
	next, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}

	var out *Bill
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.Lock(ctx, id)
		if err != nil {
			return err
		}
		if err := b.Settle(next, s.now()); err != nil {
			return err
		}
		if err := s.repo.SaveStatus(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
