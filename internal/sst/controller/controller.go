// Package controller implements the compliance tracking workflow of the SST
// ledger: registering companies, employees, exams and accidents, deriving
// the records still pending eSocial submission and the dashboard counts.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	e "github.com/globalled/sst/internal/sst/errors"
	"github.com/globalled/sst/internal/sst/events"
	"github.com/globalled/sst/internal/sst/models"
	"go.uber.org/zap"
)

// Column widths of the ledger tables, in characters.
const (
	maxLegalNameLen    = 200
	maxCityLen         = 100
	maxStateLen        = 2
	maxTaxIDLen        = 14
	maxNationalIDLen   = 11
	maxRegistrationLen = 30
	maxJobTitleLen     = 150
	maxTypeLen         = 50
	maxPhysicianLen    = 200
	maxDescriptionLen  = 3000
)

type fieldLimit struct {
	name  string
	value string
	max   int
}

// checkLengths rejects the first value wider than its column.
func checkLengths(limits ...fieldLimit) error {
	for _, l := range limits {
		if utf8.RuneCountInString(l.value) > l.max {
			return fmt.Errorf("%w: %s exceeds %d characters", e.ErrInvalidInput, l.name, l.max)
		}
	}
	return nil
}

type EventProducer interface {
	Produce(eventType events.EventType, kind models.RecordKind, id uint)
}

// Repository defines the storage interface for the ledger records.
type Repository interface {
	ListCompanies(ctx context.Context) ([]models.Company, error)
	CreateCompany(ctx context.Context, company *models.Company) (uint, error)
	ListEmployees(ctx context.Context) ([]models.EmployeeListing, error)
	CreateEmployee(ctx context.Context, employee *models.Employee) (uint, error)
	CreateExam(ctx context.Context, exam *models.Exam) (uint, error)
	CreateAccident(ctx context.Context, accident *models.Accident) (uint, error)
	ListPendingExams(ctx context.Context) ([]models.PendingExam, error)
	ListPendingAccidents(ctx context.Context) ([]models.PendingAccident, error)
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	MarkExamSubmitted(ctx context.Context, id uint, at time.Time) (bool, error)
	MarkAccidentSubmitted(ctx context.Context, id uint, at time.Time) (bool, error)
}

// ComplianceService provides the ledger operations on top of a Repository,
// announcing newly created exams and accidents through an EventProducer.
type ComplianceService struct {
	repo     Repository
	producer EventProducer
	logger   *zap.Logger
	now      func() time.Time
}

// NewComplianceService constructs a ComplianceService with a repository,
// an event producer, and a logger.
func NewComplianceService(repo Repository, producer EventProducer, logger *zap.Logger) *ComplianceService {
	return &ComplianceService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("compliance_service"),
		now:      time.Now,
	}
}

// ListCompanies returns the active companies ordered by legal name.
func (s *ComplianceService) ListCompanies(ctx context.Context) ([]models.Company, error) {
	companies, err := s.repo.ListCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

// CreateCompany registers a company owned by actorID.
func (s *ComplianceService) CreateCompany(ctx context.Context, actorID uint, company *models.Company) (uint, error) {
	if actorID == 0 {
		return 0, e.ErrUnauthenticated
	}
	company.LegalName = strings.TrimSpace(company.LegalName)
	company.TradeName = strings.TrimSpace(company.TradeName)
	company.City = strings.TrimSpace(company.City)
	company.State = strings.ToUpper(strings.TrimSpace(company.State))
	company.TaxID = digitsOnly(company.TaxID)

	if company.LegalName == "" {
		return 0, fmt.Errorf("%w: legal name is required", e.ErrInvalidInput)
	}
	if company.TaxID == "" {
		return 0, fmt.Errorf("%w: tax id is required", e.ErrInvalidInput)
	}
	if err := checkLengths(
		fieldLimit{"legal name", company.LegalName, maxLegalNameLen},
		fieldLimit{"trade name", company.TradeName, maxLegalNameLen},
		fieldLimit{"tax id", company.TaxID, maxTaxIDLen},
		fieldLimit{"city", company.City, maxCityLen},
		fieldLimit{"state", company.State, maxStateLen},
	); err != nil {
		return 0, err
	}
	company.UserID = actorID

	id, err := s.repo.CreateCompany(ctx, company)
	if err != nil {
		return 0, fmt.Errorf("failed to create company: %w", err)
	}
	s.logger.Info("Company created", zap.Uint("company_id", id), zap.Uint("user_id", actorID))
	return id, nil
}

// ListEmployees returns the active employees ordered by name.
func (s *ComplianceService) ListEmployees(ctx context.Context) ([]models.EmployeeListing, error) {
	employees, err := s.repo.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}

// CreateEmployee registers an employee under an existing company.
func (s *ComplianceService) CreateEmployee(ctx context.Context, employee *models.Employee) (uint, error) {
	employee.Name = strings.TrimSpace(employee.Name)
	employee.NationalID = digitsOnly(employee.NationalID)
	employee.RegistrationNumber = strings.TrimSpace(employee.RegistrationNumber)
	employee.JobTitle = strings.TrimSpace(employee.JobTitle)

	switch {
	case employee.CompanyID == 0:
		return 0, fmt.Errorf("%w: company id is required", e.ErrInvalidInput)
	case employee.Name == "":
		return 0, fmt.Errorf("%w: name is required", e.ErrInvalidInput)
	case employee.NationalID == "":
		return 0, fmt.Errorf("%w: national id is required", e.ErrInvalidInput)
	case employee.RegistrationNumber == "":
		return 0, fmt.Errorf("%w: registration number is required", e.ErrInvalidInput)
	}
	if err := checkLengths(
		fieldLimit{"name", employee.Name, maxLegalNameLen},
		fieldLimit{"national id", employee.NationalID, maxNationalIDLen},
		fieldLimit{"registration number", employee.RegistrationNumber, maxRegistrationLen},
		fieldLimit{"job title", employee.JobTitle, maxJobTitleLen},
	); err != nil {
		return 0, err
	}

	id, err := s.repo.CreateEmployee(ctx, employee)
	if err != nil {
		return 0, fmt.Errorf("failed to create employee: %w", err)
	}
	return id, nil
}

// CreateExam records an exam that is pending submission.
func (s *ComplianceService) CreateExam(ctx context.Context, exam *models.Exam) (uint, error) {
	exam.ExamType = strings.TrimSpace(exam.ExamType)
	switch {
	case exam.EmployeeID == 0:
		return 0, fmt.Errorf("%w: employee id is required", e.ErrInvalidInput)
	case exam.ExamType == "":
		return 0, fmt.Errorf("%w: exam type is required", e.ErrInvalidInput)
	case exam.ExamDate.IsZero():
		return 0, fmt.Errorf("%w: exam date is required", e.ErrInvalidInput)
	}
	if err := checkLengths(
		fieldLimit{"exam type", exam.ExamType, maxTypeLen},
		fieldLimit{"physician", exam.Physician, maxPhysicianLen},
		fieldLimit{"result", exam.Result, maxTypeLen},
	); err != nil {
		return 0, err
	}

	exam.Submitted = false
	id, err := s.repo.CreateExam(ctx, exam)
	if err != nil {
		return 0, fmt.Errorf("failed to create exam: %w", err)
	}
	s.producer.Produce(events.RecordCreated, models.KindExam, id)
	return id, nil
}

// CreateAccident records an accident that is pending submission.
func (s *ComplianceService) CreateAccident(ctx context.Context, accident *models.Accident) (uint, error) {
	accident.AccidentType = strings.TrimSpace(accident.AccidentType)
	accident.Description = strings.TrimSpace(accident.Description)
	switch {
	case accident.EmployeeID == 0:
		return 0, fmt.Errorf("%w: employee id is required", e.ErrInvalidInput)
	case accident.AccidentDate.IsZero():
		return 0, fmt.Errorf("%w: accident date is required", e.ErrInvalidInput)
	case accident.AccidentType == "":
		return 0, fmt.Errorf("%w: accident type is required", e.ErrInvalidInput)
	case accident.Description == "":
		return 0, fmt.Errorf("%w: description is required", e.ErrInvalidInput)
	}
	if err := checkLengths(
		fieldLimit{"accident type", accident.AccidentType, maxTypeLen},
		fieldLimit{"description", accident.Description, maxDescriptionLen},
	); err != nil {
		return 0, err
	}

	accident.Submitted = false
	id, err := s.repo.CreateAccident(ctx, accident)
	if err != nil {
		return 0, fmt.Errorf("failed to create accident: %w", err)
	}
	s.producer.Produce(events.RecordCreated, models.KindAccident, id)
	return id, nil
}

// ListPendingExams returns the exams not yet submitted, most recent first.
func (s *ComplianceService) ListPendingExams(ctx context.Context) ([]models.PendingExam, error) {
	exams, err := s.repo.ListPendingExams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending exams: %w", err)
	}
	return exams, nil
}

// ListPendingAccidents returns the accidents not yet submitted, most recent first.
func (s *ComplianceService) ListPendingAccidents(ctx context.Context) ([]models.PendingAccident, error) {
	accidents, err := s.repo.ListPendingAccidents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending accidents: %w", err)
	}
	return accidents, nil
}

// Dashboard returns the current summary counts.
func (s *ComplianceService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	d, err := s.repo.Dashboard(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}
	return d, nil
}

// AcknowledgeSubmission marks a record as accepted by eSocial. Records that
// are already submitted are left as they are.
func (s *ComplianceService) AcknowledgeSubmission(ctx context.Context, kind models.RecordKind, id uint) error {
	if !kind.Valid() || id == 0 {
		return fmt.Errorf("%w: unknown record %q/%d", e.ErrInvalidInput, kind, id)
	}

	var (
		changed bool
		err     error
	)
	switch kind {
	case models.KindExam:
		changed, err = s.repo.MarkExamSubmitted(ctx, id, s.now())
	case models.KindAccident:
		changed, err = s.repo.MarkAccidentSubmitted(ctx, id, s.now())
	}
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to acknowledge %s %d: %w", kind, id, err)
	}

	if changed {
		s.logger.Info("Submission acknowledged", zap.String("kind", string(kind)), zap.Uint("id", id))
	} else {
		s.logger.Debug("Submission already acknowledged", zap.String("kind", string(kind)), zap.Uint("id", id))
	}
	return nil
}

// digitsOnly strips punctuation from tax and national ids.
func digitsOnly(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out = append(out, r)
		}
	}
	return string(out)
}
