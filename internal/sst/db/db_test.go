package db

import (
	"context"
	"testing"
	"time"

	dbmodels "github.com/globalled/sst/internal/sst/db/models"
	e "github.com/globalled/sst/internal/sst/errors"
	"github.com/globalled/sst/internal/sst/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

// SetupTestDB initializes an in-memory SQLite database with foreign keys on.
func SetupTestDB(t *testing.T) *Repository {
	repo, err := Open(sqlite.Open(":memory:?_foreign_keys=on"))
	require.NoError(t, err, "failed to open test database")

	// every pooled connection to :memory: is a distinct database
	sqlDB, err := repo.db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedUser(t *testing.T, repo *Repository) uint {
	id, err := repo.CreateUser(context.Background(), &models.User{
		Name:         "Admin",
		Email:        "admin@example.com",
		PasswordHash: "hash",
		Role:         models.RoleAdmin,
	})
	require.NoError(t, err, "CreateUser should succeed")
	return id
}

func seedCompany(t *testing.T, repo *Repository, userID uint, legalName, taxID string) uint {
	id, err := repo.CreateCompany(context.Background(), &models.Company{
		LegalName: legalName,
		TaxID:     taxID,
		UserID:    userID,
	})
	require.NoError(t, err, "CreateCompany should succeed")
	return id
}

func seedEmployee(t *testing.T, repo *Repository, companyID uint, name, nationalID, registration string) uint {
	id, err := repo.CreateEmployee(context.Background(), &models.Employee{
		CompanyID:          companyID,
		Name:               name,
		NationalID:         nationalID,
		RegistrationNumber: registration,
	})
	require.NoError(t, err, "CreateEmployee should succeed")
	return id
}

func countRows(t *testing.T, repo *Repository, model interface{}) int64 {
	var n int64
	require.NoError(t, repo.db.Model(model).Count(&n).Error)
	return n
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	seedUser(t, repo)

	_, err := repo.CreateUser(ctx, &models.User{Name: "Other", Email: "admin@example.com", PasswordHash: "x", Role: models.RoleOperator})
	assert.ErrorIs(t, err, e.ErrConflict)
	assert.Contains(t, err.Error(), "email already registered")
	assert.Equal(t, int64(1), countRows(t, repo, &dbmodels.User{}))
}

func TestGetActiveUser(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	id := seedUser(t, repo)

	user, err := repo.GetActiveUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, models.RoleAdmin, user.Role)

	_, err = repo.GetActiveUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, e.ErrNotFound)

	require.NoError(t, repo.db.Model(&dbmodels.User{}).Where("id = ?", id).Update("active", false).Error)
	_, err = repo.GetActiveUser(ctx, id)
	assert.ErrorIs(t, err, e.ErrNotFound, "inactive users are not returned")
}

func TestCreateCompany(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	userID := seedUser(t, repo)

	id, err := repo.CreateCompany(ctx, &models.Company{LegalName: "ACME", TaxID: "12345", UserID: userID})
	require.NoError(t, err)
	assert.Equal(t, uint(1), id)

	_, err = repo.CreateCompany(ctx, &models.Company{LegalName: "ACME Copy", TaxID: "12345", UserID: userID})
	assert.ErrorIs(t, err, e.ErrConflict)
	assert.Contains(t, err.Error(), "tax id already registered")
	assert.Equal(t, int64(1), countRows(t, repo, &dbmodels.Company{}), "failed insert must not persist")
}

func TestCreateCompanyTaxIDReusableAfterDeactivation(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	userID := seedUser(t, repo)
	id := seedCompany(t, repo, userID, "Old", "999")

	require.NoError(t, repo.db.Model(&dbmodels.Company{}).Where("id = ?", id).Update("active", false).Error)

	_, err := repo.CreateCompany(ctx, &models.Company{LegalName: "New", TaxID: "999", UserID: userID})
	assert.NoError(t, err, "tax id is only unique among active companies")
}

func TestListCompanies(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	userID := seedUser(t, repo)
	seedCompany(t, repo, userID, "Zeta", "3")
	inactive := seedCompany(t, repo, userID, "Beta", "2")
	seedCompany(t, repo, userID, "Alpha", "1")
	require.NoError(t, repo.db.Model(&dbmodels.Company{}).Where("id = ?", inactive).Update("active", false).Error)

	first, err := repo.ListCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "Alpha", first[0].LegalName)
	assert.Equal(t, "Zeta", first[1].LegalName)
	assert.Equal(t, userID, first[0].UserID)

	second, err := repo.ListCompanies(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second, "listing is a pure read")
}

func TestCreateEmployeeConflicts(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	companyID := seedCompany(t, repo, seedUser(t, repo), "ACME", "1")
	seedEmployee(t, repo, companyID, "Ana", "11111111111", "M-1")

	tests := []struct {
		name     string
		employee models.Employee
		message  string
	}{
		{
			name:     "duplicate national id",
			employee: models.Employee{CompanyID: companyID, Name: "Bia", NationalID: "11111111111", RegistrationNumber: "M-2"},
			message:  "national id already registered",
		},
		{
			name:     "duplicate registration number",
			employee: models.Employee{CompanyID: companyID, Name: "Caio", NationalID: "22222222222", RegistrationNumber: "M-1"},
			message:  "registration number already registered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.CreateEmployee(ctx, &tt.employee)
			assert.ErrorIs(t, err, e.ErrConflict)
			assert.Contains(t, err.Error(), tt.message)
			assert.Equal(t, int64(1), countRows(t, repo, &dbmodels.Employee{}))
		})
	}
}

func TestCreateEmployeeUnknownCompany(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	_, err := repo.CreateEmployee(ctx, &models.Employee{CompanyID: 999, Name: "Ana", NationalID: "1", RegistrationNumber: "M-1"})
	assert.ErrorIs(t, err, e.ErrNotFound)
	assert.Contains(t, err.Error(), "company not found")
	assert.Equal(t, int64(0), countRows(t, repo, &dbmodels.Employee{}))
}

func TestListEmployees(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	companyID := seedCompany(t, repo, seedUser(t, repo), "ACME", "1")
	seedEmployee(t, repo, companyID, "Carla", "3", "M-3")
	seedEmployee(t, repo, companyID, "Ana", "1", "M-1")

	employees, err := repo.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 2)
	assert.Equal(t, "Ana", employees[0].Name)
	assert.Equal(t, "Carla", employees[1].Name)
	assert.Equal(t, "ACME", employees[0].CompanyName)
	assert.Equal(t, companyID, employees[0].CompanyID)
}

func TestPendingExamsOrder(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	companyID := seedCompany(t, repo, seedUser(t, repo), "ACME", "1")
	employeeID := seedEmployee(t, repo, companyID, "Ana", "11111111111", "M-1")

	olderID, err := repo.CreateExam(ctx, &models.Exam{EmployeeID: employeeID, ExamType: "admissional", ExamDate: date("2024-01-10")})
	require.NoError(t, err)
	newerID, err := repo.CreateExam(ctx, &models.Exam{EmployeeID: employeeID, ExamType: "periodico", ExamDate: date("2024-06-01")})
	require.NoError(t, err)

	pending, err := repo.ListPendingExams(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, newerID, pending[0].ID, "most recent exam first")
	assert.Equal(t, olderID, pending[1].ID)
	assert.False(t, pending[0].Submitted)
	assert.Equal(t, "Ana", pending[0].EmployeeName)
	assert.Equal(t, "11111111111", pending[0].NationalID)
	assert.Equal(t, "M-1", pending[0].RegistrationNumber)
}

func TestCreateExamUnknownEmployee(t *testing.T) {
	repo := SetupTestDB(t)

	_, err := repo.CreateExam(context.Background(), &models.Exam{EmployeeID: 42, ExamType: "periodico", ExamDate: date("2024-06-01")})
	assert.ErrorIs(t, err, e.ErrNotFound)
	assert.Contains(t, err.Error(), "employee not found")
}

func TestPendingAccidents(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	companyID := seedCompany(t, repo, seedUser(t, repo), "ACME", "1")
	employeeID := seedEmployee(t, repo, companyID, "Ana", "1", "M-1")

	oldID, err := repo.CreateAccident(ctx, &models.Accident{EmployeeID: employeeID, AccidentDate: date("2023-03-01"), AccidentType: "tipico", Description: "queda"})
	require.NoError(t, err)
	newID, err := repo.CreateAccident(ctx, &models.Accident{EmployeeID: employeeID, AccidentDate: date("2024-03-01"), AccidentType: "trajeto", Description: "colisao"})
	require.NoError(t, err)

	_, err = repo.MarkAccidentSubmitted(ctx, oldID, time.Now())
	require.NoError(t, err)

	pending, err := repo.ListPendingAccidents(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, newID, pending[0].ID)
	assert.Equal(t, "colisao", pending[0].Description)
}

func TestMarkExamSubmittedIsMonotonic(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	companyID := seedCompany(t, repo, seedUser(t, repo), "ACME", "1")
	employeeID := seedEmployee(t, repo, companyID, "Ana", "1", "M-1")
	examID, err := repo.CreateExam(ctx, &models.Exam{EmployeeID: employeeID, ExamType: "periodico", ExamDate: date("2024-06-01")})
	require.NoError(t, err)

	changed, err := repo.MarkExamSubmitted(ctx, examID, time.Now())
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.MarkExamSubmitted(ctx, examID, time.Now())
	require.NoError(t, err)
	assert.False(t, changed, "already submitted exam is left untouched")

	var row dbmodels.Exam
	require.NoError(t, repo.db.First(&row, examID).Error)
	assert.True(t, row.Submitted)
	assert.NotNil(t, row.SubmittedAt)

	_, err = repo.MarkExamSubmitted(ctx, 4242, time.Now())
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestDashboard(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	userID := seedUser(t, repo)
	companyID := seedCompany(t, repo, userID, "ACME", "1")
	seedCompany(t, repo, userID, "Beta", "2")
	employeeID := seedEmployee(t, repo, companyID, "Ana", "1", "M-1")
	seedEmployee(t, repo, companyID, "Bia", "2", "M-2")

	examID, err := repo.CreateExam(ctx, &models.Exam{EmployeeID: employeeID, ExamType: "periodico", ExamDate: date("2024-06-01")})
	require.NoError(t, err)
	_, err = repo.CreateExam(ctx, &models.Exam{EmployeeID: employeeID, ExamType: "demissional", ExamDate: date("2024-07-01")})
	require.NoError(t, err)
	_, err = repo.CreateAccident(ctx, &models.Accident{EmployeeID: employeeID, AccidentDate: date("2024-05-01"), AccidentType: "tipico", Description: "corte"})
	require.NoError(t, err)
	_, err = repo.MarkExamSubmitted(ctx, examID, time.Now())
	require.NoError(t, err)

	d, err := repo.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, &models.Dashboard{Companies: 2, Employees: 2, PendingExams: 1, PendingAccidents: 1}, d)
}

// TestWithTransaction ensures a failing callback leaves nothing behind.
func TestWithTransaction(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	userID := seedUser(t, repo)

	err := repo.WithTransaction(ctx, func(txRepo *Repository) error {
		if _, err := txRepo.CreateCompany(ctx, &models.Company{LegalName: "Tx", TaxID: "77", UserID: userID}); err != nil {
			return err
		}
		return e.ErrInvalidInput
	})
	assert.ErrorIs(t, err, e.ErrInvalidInput)
	assert.Equal(t, int64(0), countRows(t, repo, &dbmodels.Company{}), "transaction should be rolled back")
}
