package db

import (
	"context"
	"errors"
	"fmt"

	dbmodels "github.com/globalled/sst/internal/sst/db/models"
	e "github.com/globalled/sst/internal/sst/errors"
	"github.com/globalled/sst/internal/sst/models"
)

// ListEmployees returns the active employees ordered by name, each with the
// legal name of its company.
func (r *Repository) ListEmployees(ctx context.Context) ([]models.EmployeeListing, error) {
	var rows []dbmodels.EmployeeListing
	result := r.db.WithContext(ctx).
		Table("employees").
		Select("employees.*, companies.legal_name AS company_name").
		Joins("JOIN companies ON companies.id = employees.company_id").
		Where("employees.active = ?", true).
		Order("employees.name").
		Order("employees.id").
		Scan(&rows)
	if result.Error != nil {
		return nil, translate("list employees", result.Error)
	}

	employees := make([]models.EmployeeListing, 0, len(rows))
	for i := range rows {
		employees = append(employees, models.EmployeeListing{
			Employee:    employeeToModel(&rows[i].Employee),
			CompanyName: rows[i].CompanyName,
		})
	}
	return employees, nil
}

// CreateEmployee inserts an active employee under employee.CompanyID.
func (r *Repository) CreateEmployee(ctx context.Context, employee *models.Employee) (uint, error) {
	row := &dbmodels.Employee{
		CompanyID:          employee.CompanyID,
		Name:               employee.Name,
		NationalID:         employee.NationalID,
		RegistrationNumber: employee.RegistrationNumber,
		JobTitle:           employee.JobTitle,
		AdmissionDate:      employee.AdmissionDate,
		Active:             true,
	}
	if err := translate("create employee", r.insert(ctx, row)); err != nil {
		switch {
		case errors.Is(err, e.ErrConflict):
			return 0, r.employeeConflict(ctx, employee)
		case errors.Is(err, e.ErrNotFound):
			return 0, fmt.Errorf("%w: company not found", e.ErrNotFound)
		}
		return 0, err
	}
	return row.ID, nil
}

// employeeConflict names the unique key employee collided on. It runs after
// the failed insert has been rolled back.
func (r *Repository) employeeConflict(ctx context.Context, employee *models.Employee) error {
	if taken, err := r.exists(ctx, &dbmodels.Employee{}, "national_id", employee.NationalID); err == nil && taken {
		return fmt.Errorf("%w: national id already registered", e.ErrConflict)
	}
	if taken, err := r.exists(ctx, &dbmodels.Employee{}, "registration_number", employee.RegistrationNumber); err == nil && taken {
		return fmt.Errorf("%w: registration number already registered", e.ErrConflict)
	}
	return fmt.Errorf("%w: national id or registration number already registered", e.ErrConflict)
}
