package billing

import (
	"context"

	"github.com/ehr/hospital/internal/domain/admission"
)

type Repository interface {
	Create(ctx context.Context, b *Bill) error
	GetByID(ctx context.Context, id int64) (*Bill, error)
	Lock(ctx context.Context, id int64) (*Bill, error)
	SaveStatus(ctx context.Context, b *Bill) error
	// List returns all bills, or one patient's when patientID > 0.
	List(ctx context.Context, patientID int64) ([]*Bill, error)
}

// PatientDirectory answers whether a patient exists.
type PatientDirectory interface {
	Exists(ctx context.Context, patientID int64) (bool, error)
}

// AdmissionDirectory resolves the admission a bill refers to.
type AdmissionDirectory interface {
	GetByID(ctx context.Context, id int64) (*admission.Admission, error)
}
