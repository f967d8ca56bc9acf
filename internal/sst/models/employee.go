package models

import "time"

// Employee belongs to exactly one Company.
type Employee struct {
	ID        uint
	CompanyID uint
	Name      string
	// NationalID is the personal tax id (CPF), digits only.
	NationalID         string
	RegistrationNumber string
	JobTitle           string
	AdmissionDate      *time.Time
	Active             bool
}

// EmployeeListing is an Employee joined with its company's legal name.
type EmployeeListing struct {
	Employee
	CompanyName string
}
