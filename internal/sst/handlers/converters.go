package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	e "github.com/globalled/sst/internal/sst/errors"
	"github.com/globalled/sst/internal/sst/models"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// Date is a calendar date carried as YYYY-MM-DD. RFC 3339 timestamps are
// accepted on input and truncated to their date.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	y, m, day := t.Date()
	d.Time = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

func datePtr(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	return &Date{Time: *t}
}

type loginRequest struct {
	Email    string `json:"email"`
	Secret   string `json:"secret"`
	Password string `json:"password"`
}

func (r loginRequest) secret() string {
	if r.Secret != "" {
		return r.Secret
	}
	return r.Password
}

type profileDTO struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type companyDTO struct {
	ID        uint   `json:"id,omitempty"`
	LegalName string `json:"legal_name"`
	TradeName string `json:"trade_name,omitempty"`
	TaxID     string `json:"tax_id"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	UserID    uint   `json:"user_id,omitempty"`
	Active    bool   `json:"active"`
}

type employeeDTO struct {
	ID                 uint   `json:"id,omitempty"`
	CompanyID          uint   `json:"company_id"`
	CompanyName        string `json:"company_name,omitempty"`
	Name               string `json:"name"`
	NationalID         string `json:"national_id"`
	RegistrationNumber string `json:"registration_number"`
	JobTitle           string `json:"job_title,omitempty"`
	AdmissionDate      *Date  `json:"admission_date,omitempty"`
	Active             bool   `json:"active"`
}

type examDTO struct {
	ID                 uint   `json:"id,omitempty"`
	EmployeeID         uint   `json:"employee_id"`
	ExamType           string `json:"exam_type"`
	ExamDate           Date   `json:"exam_date"`
	Physician          string `json:"physician,omitempty"`
	Result             string `json:"result,omitempty"`
	Submitted          bool   `json:"submitted"`
	EmployeeName       string `json:"employee_name,omitempty"`
	NationalID         string `json:"national_id,omitempty"`
	RegistrationNumber string `json:"registration_number,omitempty"`
}

type accidentDTO struct {
	ID                 uint   `json:"id,omitempty"`
	EmployeeID         uint   `json:"employee_id"`
	AccidentDate       Date   `json:"accident_date"`
	AccidentType       string `json:"accident_type"`
	Description        string `json:"description"`
	Submitted          bool   `json:"submitted"`
	EmployeeName       string `json:"employee_name,omitempty"`
	NationalID         string `json:"national_id,omitempty"`
	RegistrationNumber string `json:"registration_number,omitempty"`
}

type dashboardDTO struct {
	Companies        int64 `json:"companies"`
	Employees        int64 `json:"employees"`
	PendingExams     int64 `json:"pendingExams"`
	PendingAccidents int64 `json:"pendingAccidents"`
}

func profileToDTO(p models.PublicProfile) profileDTO {
	return profileDTO{ID: p.ID, Name: p.Name, Email: p.Email, Role: string(p.Role)}
}

func companyToDTO(c models.Company) companyDTO {
	return companyDTO{
		ID:        c.ID,
		LegalName: c.LegalName,
		TradeName: c.TradeName,
		TaxID:     c.TaxID,
		City:      c.City,
		State:     c.State,
		UserID:    c.UserID,
		Active:    c.Active,
	}
}

func (d companyDTO) toModel() *models.Company {
	return &models.Company{
		LegalName: d.LegalName,
		TradeName: d.TradeName,
		TaxID:     d.TaxID,
		City:      d.City,
		State:     d.State,
	}
}

func employeeToDTO(emp models.EmployeeListing) employeeDTO {
	return employeeDTO{
		ID:                 emp.ID,
		CompanyID:          emp.CompanyID,
		CompanyName:        emp.CompanyName,
		Name:               emp.Name,
		NationalID:         emp.NationalID,
		RegistrationNumber: emp.RegistrationNumber,
		JobTitle:           emp.JobTitle,
		AdmissionDate:      datePtr(emp.AdmissionDate),
		Active:             emp.Active,
	}
}

func (d employeeDTO) toModel() *models.Employee {
	emp := &models.Employee{
		CompanyID:          d.CompanyID,
		Name:               d.Name,
		NationalID:         d.NationalID,
		RegistrationNumber: d.RegistrationNumber,
		JobTitle:           d.JobTitle,
	}
	if d.AdmissionDate != nil && !d.AdmissionDate.IsZero() {
		t := d.AdmissionDate.Time
		emp.AdmissionDate = &t
	}
	return emp
}

func pendingExamToDTO(p models.PendingExam) examDTO {
	return examDTO{
		ID:                 p.ID,
		EmployeeID:         p.EmployeeID,
		ExamType:           p.ExamType,
		ExamDate:           Date{Time: p.ExamDate},
		Physician:          p.Physician,
		Result:             p.Result,
		Submitted:          p.Submitted,
		EmployeeName:       p.EmployeeName,
		NationalID:         p.NationalID,
		RegistrationNumber: p.RegistrationNumber,
	}
}

func (d examDTO) toModel() *models.Exam {
	return &models.Exam{
		EmployeeID: d.EmployeeID,
		ExamType:   d.ExamType,
		ExamDate:   d.ExamDate.Time,
		Physician:  d.Physician,
		Result:     d.Result,
	}
}

func pendingAccidentToDTO(p models.PendingAccident) accidentDTO {
	return accidentDTO{
		ID:                 p.ID,
		EmployeeID:         p.EmployeeID,
		AccidentDate:       Date{Time: p.AccidentDate},
		AccidentType:       p.AccidentType,
		Description:        p.Description,
		Submitted:          p.Submitted,
		EmployeeName:       p.EmployeeName,
		NationalID:         p.NationalID,
		RegistrationNumber: p.RegistrationNumber,
	}
}

func (d accidentDTO) toModel() *models.Accident {
	return &models.Accident{
		EmployeeID:   d.EmployeeID,
		AccidentDate: d.AccidentDate.Time,
		AccidentType: d.AccidentType,
		Description:  d.Description,
	}
}

func dashboardToDTO(d *models.Dashboard) dashboardDTO {
	return dashboardDTO{
		Companies:        d.Companies,
		Employees:        d.Employees,
		PendingExams:     d.PendingExams,
		PendingAccidents: d.PendingAccidents,
	}
}

// mapServiceError maps domain errors to an HTTP status and a caller-safe message.
func (h *ComplianceHandler) mapServiceError(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrInvalidCredentials):
		return http.StatusUnauthorized, e.ErrInvalidCredentials.Error()
	case errors.Is(err, e.ErrUnauthenticated):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, e.ErrConflict):
		return http.StatusBadRequest, detail(err, e.ErrConflict)
	case errors.Is(err, e.ErrInvalidInput):
		return http.StatusBadRequest, detail(err, e.ErrInvalidInput)
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound, detail(err, e.ErrNotFound)
	case errors.Is(err, e.ErrUnavailable):
		h.logger.Error("Datastore unavailable", zap.Error(err))
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	default:
		h.logger.Error("Internal server error", zap.Error(err))
		return http.StatusInternalServerError, "internal server error"
	}
}

// detail returns the text attached after sentinel in err's message, or the
// sentinel text when nothing was attached.
func detail(err, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return sentinel.Error()
}
