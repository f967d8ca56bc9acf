package db

import (
	dbmodels "github.com/globalled/sst/internal/sst/db/models"
	"github.com/globalled/sst/internal/sst/models"
)

func userToModel(row *dbmodels.User) *models.User {
	return &models.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Role:         models.Role(row.Role),
		Active:       row.Active,
	}
}

func companyToModel(row *dbmodels.Company) models.Company {
	return models.Company{
		ID:        row.ID,
		LegalName: row.LegalName,
		TradeName: row.TradeName,
		TaxID:     row.TaxID,
		City:      row.City,
		State:     row.State,
		UserID:    row.UserID,
		Active:    row.Active,
	}
}

func employeeToModel(row *dbmodels.Employee) models.Employee {
	return models.Employee{
		ID:                 row.ID,
		CompanyID:          row.CompanyID,
		Name:               row.Name,
		NationalID:         row.NationalID,
		RegistrationNumber: row.RegistrationNumber,
		JobTitle:           row.JobTitle,
		AdmissionDate:      row.AdmissionDate,
		Active:             row.Active,
	}
}

func examToModel(row *dbmodels.Exam) models.Exam {
	return models.Exam{
		ID:          row.ID,
		EmployeeID:  row.EmployeeID,
		ExamType:    row.ExamType,
		ExamDate:    row.ExamDate,
		Physician:   row.Physician,
		Result:      row.Result,
		Submitted:   row.Submitted,
		SubmittedAt: row.SubmittedAt,
	}
}

func accidentToModel(row *dbmodels.Accident) models.Accident {
	return models.Accident{
		ID:           row.ID,
		EmployeeID:   row.EmployeeID,
		AccidentDate: row.AccidentDate,
		AccidentType: row.AccidentType,
		Description:  row.Description,
		Submitted:    row.Submitted,
		SubmittedAt:  row.SubmittedAt,
	}
}
