package patient

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("patient not found")
)

// DateLayout is the wire format of date_of_birth.
const DateLayout = "2006-01-02"

// Patient maps to the patient table.
type Patient struct {
	ID          int64      `db:"id" json:"id"`
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender      *string    `db:"gender" json:"gender,omitempty"`
	Phone       *string    `db:"phone" json:"phone,omitempty"`
	Address     *string    `db:"address" json:"address,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// CreateInput carries the fields accepted when registering a patient.
type CreateInput struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	DateOfBirth *string `json:"date_of_birth"`
	Gender      *string `json:"gender"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
}

// Patient validates the input and builds the row to insert.
func (in CreateInput) Patient(now time.Time) (*Patient, error) {
	p := &Patient{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Gender:    optional(in.Gender),
		Phone:     optional(in.Phone),
		Address:   optional(in.Address),
	}
	if p.FirstName == "" || p.LastName == "" {
		return nil, fmt.Errorf("%w: first_name and last_name required", ErrInvalidInput)
	}
	if dob := optional(in.DateOfBirth); dob != nil {
		t, err := time.Parse(DateLayout, *dob)
		if err != nil {
			return nil, fmt.Errorf("%w: date_of_birth must be YYYY-MM-DD", ErrInvalidInput)
		}
		if t.After(now) {
			return nil, fmt.Errorf("%w: date_of_birth is in the future", ErrInvalidInput)
		}
		p.DateOfBirth = &t
	}
	return p, nil
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
