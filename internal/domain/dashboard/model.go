package dashboard

import (
	"errors"
	"time"
)

var ErrInvalidInput = errors.New("invalid input")

type BedTotals struct {
	Total     int `json:"total"`
	Occupied  int `json:"occupied"`
	Available int `json:"available"`
}

type BedRow struct {
	ID    int64  `json:"id"`
	Ward  string `json:"ward"`
	Label string `json:"label"`
}

type AdmissionRow struct {
	ID          int64     `json:"id"`
	PatientID   int64     `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	BedID       int64     `json:"bed_id"`
	Ward        string    `json:"ward"`
	BedLabel    string    `json:"bed_label"`
	Diagnosis   *string   `json:"diagnosis"`
	AdmittedAt  time.Time `json:"admitted_at"`
}

type AppointmentRow struct {
	ID          int64     `json:"id"`
	PatientID   int64     `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	DoctorID    int64     `json:"doctor_id"`
	DoctorName  string    `json:"doctor_name"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Reason      *string   `json:"reason"`
	Status      string    `json:"status"`
}

type HRSummary struct {
	StaffByRole map[string]int `json:"staff_by_role"`
	TotalStaff  int            `json:"total_staff"`
	Beds        BedTotals      `json:"beds"`
}

type DoctorSummary struct {
	DoctorID             int64            `json:"doctor_id"`
	ActiveAdmissions     []AdmissionRow   `json:"active_admissions"`
	UpcomingAppointments []AppointmentRow `json:"upcoming_appointments"`
}

type FrontDeskSummary struct {
	AvailableBeds        []BedRow         `json:"available_beds"`
	TodaysAppointments   []AppointmentRow `json:"todays_appointments"`
	ActiveAdmissionCount int              `json:"active_admission_count"`
	PendingBillCount     int              `json:"pending_bill_count"`
}
