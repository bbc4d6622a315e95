package admission

import "context"

// Repository persists admissions and beds. Lock* methods take a row lock that
// is held until the surrounding transaction ends; Mark* methods are
// conditional updates that fail with ErrBedOccupied / ErrBedNotHeld when the
// row is not in the expected state.
type Repository interface {
	CreateBed(ctx context.Context, b *Bed) error
	GetBed(ctx context.Context, id int64) (*Bed, error)
	LockBed(ctx context.Context, id int64) (*Bed, error)
	MarkOccupied(ctx context.Context, bedID, admissionID int64) error
	MarkAvailable(ctx context.Context, bedID, admissionID int64) error
	ListBeds(ctx context.Context) ([]*Bed, error)
	ListAvailableBeds(ctx context.Context) ([]*Bed, error)

	CreateAdmission(ctx context.Context, a *Admission) error
	GetAdmission(ctx context.Context, id int64) (*Admission, error)
	LockAdmission(ctx context.Context, id int64) (*Admission, error)
	SaveDischarge(ctx context.Context, a *Admission) error
	ListAdmissions(ctx context.Context) ([]*Admission, error)
}

// PatientDirectory answers whether a patient exists.
type PatientDirectory interface {
	Exists(ctx context.Context, patientID int64) (bool, error)
}

// DoctorDirectory answers whether a staff member with the Doctor role exists.
type DoctorDirectory interface {
	DoctorExists(ctx context.Context, doctorID int64) (bool, error)
}
