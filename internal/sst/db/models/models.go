// Package models contains the persistence rows of the SST ledger,
// configured to work using GORM as the ORM.
package models

import (
	"time"
)

// User is an operator account. Email is unique among active users.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:150;not null"`
	Email        string `gorm:"size:255;not null;uniqueIndex:idx_users_email_active,where:active = true"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:30;not null;default:operator"`
	Active       bool   `gorm:"not null;default:true;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Company is an employer registered by a User. Tax id is unique among
// active companies.
type Company struct {
	ID        uint   `gorm:"primaryKey"`
	LegalName string `gorm:"size:200;not null;index"`
	TradeName string `gorm:"size:200"`
	TaxID     string `gorm:"size:14;not null;uniqueIndex:idx_companies_tax_id_active,where:active = true"`
	City      string `gorm:"size:100"`
	State     string `gorm:"size:2"`
	UserID    uint   `gorm:"not null;index"`
	User      *User  `gorm:"foreignKey:UserID"`
	Active    bool   `gorm:"not null;default:true;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Employee belongs to a Company. National id and registration number are
// each unique among active employees.
type Employee struct {
	ID                 uint       `gorm:"primaryKey"`
	CompanyID          uint       `gorm:"not null;index"`
	Company            *Company   `gorm:"foreignKey:CompanyID"`
	Name               string     `gorm:"size:200;not null;index"`
	NationalID         string     `gorm:"size:11;not null;uniqueIndex:idx_employees_national_id_active,where:active = true"`
	RegistrationNumber string     `gorm:"size:30;not null;uniqueIndex:idx_employees_registration_active,where:active = true"`
	JobTitle           string     `gorm:"size:150"`
	AdmissionDate      *time.Time `gorm:"type:date"`
	Active             bool       `gorm:"not null;default:true;index"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Exam is an occupational medical exam (ASO) of an Employee.
type Exam struct {
	ID          uint      `gorm:"primaryKey"`
	EmployeeID  uint      `gorm:"not null;index"`
	Employee    *Employee `gorm:"foreignKey:EmployeeID"`
	ExamType    string    `gorm:"size:50;not null"`
	ExamDate    time.Time `gorm:"type:date;not null;index"`
	Physician   string    `gorm:"size:200"`
	Result      string    `gorm:"size:50"`
	Submitted   bool      `gorm:"not null;default:false;index"`
	SubmittedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Accident is a workplace accident (CAT) involving an Employee.
type Accident struct {
	ID           uint      `gorm:"primaryKey"`
	EmployeeID   uint      `gorm:"not null;index"`
	Employee     *Employee `gorm:"foreignKey:EmployeeID"`
	AccidentDate time.Time `gorm:"type:date;not null;index"`
	AccidentType string    `gorm:"size:50;not null"`
	Description  string    `gorm:"size:3000;not null"`
	Submitted    bool      `gorm:"not null;default:false;index"`
	SubmittedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EmployeeListing is the projection of the employee list query.
type EmployeeListing struct {
	Employee
	CompanyName string
}

// PendingExam is the projection of the pending exams query.
type PendingExam struct {
	Exam
	EmployeeName       string
	NationalID         string
	RegistrationNumber string
}

// PendingAccident is the projection of the pending accidents query.
type PendingAccident struct {
	Accident
	EmployeeName       string
	NationalID         string
	RegistrationNumber string
}

// All lists every row type managed by migrations, parents first.
func All() []interface{} {
	return []interface{}{&User{}, &Company{}, &Employee{}, &Exam{}, &Accident{}}
}
