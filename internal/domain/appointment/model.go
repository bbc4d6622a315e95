package appointment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ehr/hospital/pkg/ident"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("appointment not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrClosed          = errors.New("appointment is already closed")
)

type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

func ParseStatus(s string) (Status, error) {
	for _, st := range []Status{StatusScheduled, StatusCompleted, StatusCancelled} {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: status must be Scheduled, Completed or Cancelled", ErrInvalidInput)
}

// Terminal reports whether no further change is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Appointment maps to the appointment table.
type Appointment struct {
	ID          int64     `db:"id" json:"id"`
	PatientID   int64     `db:"patient_id" json:"patient_id"`
	DoctorID    int64     `db:"doctor_id" json:"doctor_id"`
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduled_at"`
	Reason      *string   `db:"reason" json:"reason,omitempty"`
	Status      Status    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	// Populated by List only.
	PatientName *string `db:"-" json:"patient_name,omitempty"`
	DoctorName  *string `db:"-" json:"doctor_name,omitempty"`
}

// Transition checks that the appointment may move to next.
func (a *Appointment) Transition(next Status) error {
	if a.Status.Terminal() {
		return fmt.Errorf("%w: %d is %s", ErrClosed, a.ID, a.Status)
	}
	if next == StatusScheduled && a.Status != StatusScheduled {
		return fmt.Errorf("%w: cannot reopen appointment", ErrInvalidInput)
	}
	return nil
}

type CreateInput struct {
	PatientID   ident.ID  `json:"patient_id"`
	DoctorID    ident.ID  `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Reason      *string   `json:"reason"`
}

func (in CreateInput) Appointment() (*Appointment, error) {
	var missing []string
	if in.PatientID <= 0 {
		missing = append(missing, "patient_id")
	}
	if in.DoctorID <= 0 {
		missing = append(missing, "doctor_id")
	}
	if in.ScheduledAt.IsZero() {
		missing = append(missing, "scheduled_at")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s required", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return &Appointment{
		PatientID:   in.PatientID.Int64(),
		DoctorID:    in.DoctorID.Int64(),
		ScheduledAt: in.ScheduledAt.UTC(),
		Reason:      trimmed(in.Reason),
		Status:      StatusScheduled,
	}, nil
}

// Patch lists the fields an update may change. Nil fields were not sent.
type Patch struct {
	DoctorID    *ident.ID  `json:"doctor_id"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Reason      *string    `json:"reason"`
	Status      *string    `json:"status"`
}

// StatusOnly reports whether status is the sole field sent.
func (p Patch) StatusOnly() bool {
	return p.Status != nil && p.DoctorID == nil && p.ScheduledAt == nil && p.Reason == nil
}

func (p Patch) Empty() bool {
	return p.Status == nil && p.DoctorID == nil && p.ScheduledAt == nil && p.Reason == nil
}

// Filter narrows List. Zero values mean no filter.
type Filter struct {
	DoctorID int64
	// Day selects appointments whose scheduled_at falls on this UTC date.
	Day time.Time
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
