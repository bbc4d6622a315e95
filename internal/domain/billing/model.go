package billing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ehr/hospital/pkg/ident"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("bill not found")
	ErrPatientNotFound   = errors.New("patient not found")
	ErrAdmissionNotFound = errors.New("admission not found")
	ErrClosed            = errors.New("bill is already settled")
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusPaid      Status = "Paid"
	StatusCancelled Status = "Cancelled"
)

func ParseStatus(s string) (Status, error) {
	for _, st := range []Status{StatusPending, StatusPaid, StatusCancelled} {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: status must be Pending, Paid or Cancelled", ErrInvalidInput)
}

// Bill maps to the bill table.
type Bill struct {
	ID          int64      `db:"id" json:"id"`
	PatientID   int64      `db:"patient_id" json:"patient_id"`
	AdmissionID *int64     `db:"admission_id" json:"admission_id,omitempty"`
	Amount      Money      `db:"amount" json:"amount"`
	Description *string    `db:"description" json:"description,omitempty"`
	Status      Status     `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	PaidAt      *time.Time `db:"paid_at" json:"paid_at,omitempty"`

	// Populated by List only.
	PatientName        *string `db:"-" json:"patient_name,omitempty"`
	AdmissionDiagnosis *string `db:"-" json:"admission_diagnosis,omitempty"`
	AdmissionStatus    *string `db:"-" json:"admission_status,omitempty"`
}

// Settle moves a Pending bill to Paid or Cancelled. Paid stamps paid_at.
func (b *Bill) Settle(next Status, at time.Time) error {
	if b.Status != StatusPending {
		return fmt.Errorf("%w: %d is %s", ErrClosed, b.ID, b.Status)
	}
	switch next {
	case StatusPaid:
		b.PaidAt = &at
	case StatusCancelled:
	default:
		return fmt.Errorf("%w: status must be Paid or Cancelled", ErrInvalidInput)
	}
	b.Status = next
	return nil
}

type CreateInput struct {
	PatientID   ident.ID `json:"patient_id"`
	AdmissionID ident.ID `json:"admission_id"`
	Amount      Money    `json:"amount"`
	Description *string  `json:"description"`
}

func (in CreateInput) Bill() (*Bill, error) {
	if in.PatientID <= 0 {
		return nil, fmt.Errorf("%w: patient_id required", ErrInvalidInput)
	}
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidInput)
	}
	b := &Bill{
		PatientID:   in.PatientID.Int64(),
		AdmissionID: in.AdmissionID.Ptr(),
		Amount:      in.Amount,
		Status:      StatusPending,
	}
	if in.Description != nil {
		if d := strings.TrimSpace(*in.Description); d != "" {
			b.Description = &d
		}
	}
	return b, nil
}
