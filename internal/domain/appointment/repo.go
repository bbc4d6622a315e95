package appointment

import "context"

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	Lock(ctx context.Context, id int64) (*Appointment, error)
	// UpdateStatus writes only the status column.
	UpdateStatus(ctx context.Context, id int64, status Status) error
	// Update writes every editable column of a.
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f Filter) ([]*Appointment, error)
}

// PatientDirectory answers whether a patient exists.
type PatientDirectory interface {
	Exists(ctx context.Context, patientID int64) (bool, error)
}

// DoctorDirectory answers whether a staff member with the Doctor role exists.
type DoctorDirectory interface {
	DoctorExists(ctx context.Context, doctorID int64) (bool, error)
}
