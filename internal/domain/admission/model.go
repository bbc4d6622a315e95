package admission

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrAdmissionNotFound = errors.New("admission not found")
	ErrPatientNotFound   = errors.New("patient not found")
	ErrDoctorNotFound    = errors.New("doctor not found")
	ErrBedNotFound       = errors.New("bed not found")
	ErrBedOccupied       = errors.New("bed is already occupied")
	ErrAlreadyDischarged = errors.New("admission is already discharged")
	ErrBedNotHeld        = errors.New("bed is not held by this admission")
)

var (
	notFoundErrors = []error{ErrAdmissionNotFound, ErrPatientNotFound, ErrDoctorNotFound, ErrBedNotFound}
	conflictErrors = []error{ErrBedOccupied, ErrAlreadyDischarged}
)

// IsNotFound reports whether err is one of the not-found errors.
func IsNotFound(err error) bool {
	return matchSentinel(err, notFoundErrors) != nil
}

// IsConflict reports whether err is a state conflict.
func IsConflict(err error) bool {
	return matchSentinel(err, conflictErrors) != nil
}

// matchSentinel returns the first target that err wraps, or nil.
func matchSentinel(err error, targets []error) error {
	for _, target := range targets {
		if errors.Is(err, target) {
			return target
		}
	}
	return nil
}

type Status string

const (
	StatusActive     Status = "Active"
	StatusDischarged Status = "Discharged"
)

// ParseStatus accepts the status names case-insensitively.
func ParseStatus(s string) (Status, bool) {
	switch {
	case strings.EqualFold(s, string(StatusActive)):
		return StatusActive, true
	case strings.EqualFold(s, string(StatusDischarged)):
		return StatusDischarged, true
	}
	return "", false
}

// Admission maps to the admission table.
type Admission struct {
	ID           int64      `db:"id" json:"id"`
	PatientID    int64      `db:"patient_id" json:"patient_id"`
	DoctorID     *int64     `db:"doctor_id" json:"doctor_id,omitempty"`
	BedID        int64      `db:"bed_id" json:"bed_id"`
	Diagnosis    *string    `db:"diagnosis" json:"diagnosis,omitempty"`
	Status       Status     `db:"status" json:"status"`
	AdmittedAt   time.Time  `db:"admitted_at" json:"admitted_at"`
	DischargedAt *time.Time `db:"discharged_at" json:"discharged_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`

	// Populated by ListAdmissions only.
	PatientName *string `db:"-" json:"patient_name,omitempty"`
	DoctorName  *string `db:"-" json:"doctor_name,omitempty"`
	Ward        *string `db:"-" json:"ward,omitempty"`
	BedLabel    *string `db:"-" json:"bed_label,omitempty"`
}

func (a *Admission) IsActive() bool { return a.Status == StatusActive }

// Discharge moves an active admission to Discharged. Discharged is terminal.
func (a *Admission) Discharge(at time.Time) error {
	switch a.Status {
	case StatusActive:
		a.Status = StatusDischarged
		a.DischargedAt = &at
		return nil
	case StatusDischarged:
		return ErrAlreadyDischarged
	default:
		return fmt.Errorf("admission %d has unknown status %q", a.ID, a.Status)
	}
}

type BedState string

const (
	BedAvailable BedState = "Available"
	BedOccupied  BedState = "Occupied"
)

// Bed maps to the bed table. Occupied and CurrentAdmissionID change together
// and only through Occupy and Release.
type Bed struct {
	ID                 int64     `db:"id" json:"id"`
	Ward               string    `db:"ward" json:"ward"`
	Label              string    `db:"label" json:"label"`
	Occupied           bool      `db:"occupied" json:"occupied"`
	CurrentAdmissionID *int64    `db:"current_admission_id" json:"current_admission_id,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

func (b *Bed) State() BedState {
	if b.Occupied {
		return BedOccupied
	}
	return BedAvailable
}

// CheckAvailable returns ErrBedOccupied unless the bed can take an admission.
func (b *Bed) CheckAvailable() error {
	if b.Occupied {
		return fmt.Errorf("%w: bed %d", ErrBedOccupied, b.ID)
	}
	return nil
}

// Occupy moves the bed from Available to Occupied by admissionID.
func (b *Bed) Occupy(admissionID int64) error {
	if err := b.CheckAvailable(); err != nil {
		return err
	}
	b.Occupied = true
	b.CurrentAdmissionID = &admissionID
	return nil
}

// Release moves the bed back to Available. Only the admission that currently
// holds the bed may release it.
func (b *Bed) Release(admissionID int64) error {
	if !b.Occupied || b.CurrentAdmissionID == nil || *b.CurrentAdmissionID != admissionID {
		return fmt.Errorf("%w: bed %d, admission %d", ErrBedNotHeld, b.ID, admissionID)
	}
	b.Occupied = false
	b.CurrentAdmissionID = nil
	return nil
}

// MarshalJSON adds the derived status field.
func (b Bed) MarshalJSON() ([]byte, error) {
	type bedJSON Bed
	return json.Marshal(struct {
		bedJSON
		Status BedState `json:"status"`
	}{bedJSON(b), b.State()})
}

// AdmitInput is the request to admit a patient to a bed.
type AdmitInput struct {
	PatientID int64
	DoctorID  *int64
	BedID     int64
	Diagnosis *string
}

// Validate rejects missing references and normalises the diagnosis text.
func (in *AdmitInput) Validate() error {
	var missing []string
	if in.PatientID <= 0 {
		missing = append(missing, "patient_id")
	}
	if in.BedID <= 0 {
		missing = append(missing, "bed_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrInvalidInput, strings.Join(missing, " and "))
	}
	if in.DoctorID != nil && *in.DoctorID <= 0 {
		return fmt.Errorf("%w: doctor_id must be positive", ErrInvalidInput)
	}
	if in.Diagnosis != nil {
		d := strings.TrimSpace(*in.Diagnosis)
		if d == "" {
			in.Diagnosis = nil
		} else {
			in.Diagnosis = &d
		}
	}
	return nil
}
