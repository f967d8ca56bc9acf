package models

import "time"

// Exam is an occupational medical exam of an employee.
type Exam struct {
	ID         uint
	EmployeeID uint
	ExamType   string
	ExamDate   time.Time
	Physician  string
	Result     string
	// Submitted reports whether the record was acknowledged by eSocial.
	// It only ever moves from false to true.
	Submitted   bool
	SubmittedAt *time.Time
}

// Accident is a workplace accident involving an employee.
type Accident struct {
	ID           uint
	EmployeeID   uint
	AccidentDate time.Time
	AccidentType string
	Description  string
	Submitted    bool
	SubmittedAt  *time.Time
}

// EmployeeRef carries the identifying fields of an employee shown next to
// pending records.
type EmployeeRef struct {
	EmployeeName       string
	NationalID         string
	RegistrationNumber string
}

// PendingExam is an unsubmitted Exam with its employee identity.
type PendingExam struct {
	Exam
	EmployeeRef
}

// PendingAccident is an unsubmitted Accident with its employee identity.
type PendingAccident struct {
	Accident
	EmployeeRef
}

// Dashboard holds point-in-time counts for the summary view.
type Dashboard struct {
	Companies        int64
	Employees        int64
	PendingExams     int64
	PendingAccidents int64
}

// RecordKind names the kind of record submitted to eSocial.
type RecordKind string

const (
	KindExam     RecordKind = "exam"
	KindAccident RecordKind = "accident"
)

// Valid reports whether k is a known record kind.
func (k RecordKind) Valid() bool {
	return k == KindExam || k == KindAccident
}
