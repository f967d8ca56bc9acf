package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbmodels "github.com/globalled/sst/internal/sst/db/models"
	e "github.com/globalled/sst/internal/sst/errors"
	"github.com/globalled/sst/internal/sst/models"
)

// CreateExam inserts an unsubmitted exam for exam.EmployeeID.
func (r *Repository) CreateExam(ctx context.Context, exam *models.Exam) (uint, error) {
	row := &dbmodels.Exam{
		EmployeeID: exam.EmployeeID,
		ExamType:   exam.ExamType,
		ExamDate:   exam.ExamDate,
		Physician:  exam.Physician,
		Result:     exam.Result,
	}
	if err := translate("create exam", r.insert(ctx, row)); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return 0, fmt.Errorf("%w: employee not found", e.ErrNotFound)
		}
		return 0, err
	}
	return row.ID, nil
}

// CreateAccident inserts an unsubmitted accident for accident.EmployeeID.
func (r *Repository) CreateAccident(ctx context.Context, accident *models.Accident) (uint, error) {
	row := &dbmodels.Accident{
		EmployeeID:   accident.EmployeeID,
		AccidentDate: accident.AccidentDate,
		AccidentType: accident.AccidentType,
		Description:  accident.Description,
	}
	if err := translate("create accident", r.insert(ctx, row)); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return 0, fmt.Errorf("%w: employee not found", e.ErrNotFound)
		}
		return 0, err
	}
	return row.ID, nil
}

// ListPendingExams returns the unsubmitted exams, most recent exam date first.
func (r *Repository) ListPendingExams(ctx context.Context) ([]models.PendingExam, error) {
	var rows []dbmodels.PendingExam
	result := r.db.WithContext(ctx).
		Table("exams").
		Select("exams.*, employees.name AS employee_name, employees.national_id, employees.registration_number").
		Joins("JOIN employees ON employees.id = exams.employee_id").
		Where("exams.submitted = ?", false).
		Order("exams.exam_date DESC").
		Order("exams.id DESC").
		Scan(&rows)
	if result.Error != nil {
		return nil, translate("list pending exams", result.Error)
	}

	exams := make([]models.PendingExam, 0, len(rows))
	for i := range rows {
		exams = append(exams, models.PendingExam{
			Exam: examToModel(&rows[i].Exam),
			EmployeeRef: models.EmployeeRef{
				EmployeeName:       rows[i].EmployeeName,
				NationalID:         rows[i].NationalID,
				RegistrationNumber: rows[i].RegistrationNumber,
			},
		})
	}
	return exams, nil
}

// ListPendingAccidents returns the unsubmitted accidents, most recent first.
func (r *Repository) ListPendingAccidents(ctx context.Context) ([]models.PendingAccident, error) {
	var rows []dbmodels.PendingAccident
	result := r.db.WithContext(ctx).
		Table("accidents").
		Select("accidents.*, employees.name AS employee_name, employees.national_id, employees.registration_number").
		Joins("JOIN employees ON employees.id = accidents.employee_id").
		Where("accidents.submitted = ?", false).
		Order("accidents.accident_date DESC").
		Order("accidents.id DESC").
		Scan(&rows)
	if result.Error != nil {
		return nil, translate("list pending accidents", result.Error)
	}

	accidents := make([]models.PendingAccident, 0, len(rows))
	for i := range rows {
		accidents = append(accidents, models.PendingAccident{
			Accident: accidentToModel(&rows[i].Accident),
			EmployeeRef: models.EmployeeRef{
				EmployeeName:       rows[i].EmployeeName,
				NationalID:         rows[i].NationalID,
				RegistrationNumber: rows[i].RegistrationNumber,
			},
		})
	}
	return accidents, nil
}

// Dashboard counts active companies and employees and unsubmitted exams and
// accidents. The four counts are separate statements.
func (r *Repository) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	var d models.Dashboard
	counts := []struct {
		model interface{}
		where string
		arg   bool
		dst   *int64
	}{
		{&dbmodels.Company{}, "active = ?", true, &d.Companies},
		{&dbmodels.Employee{}, "active = ?", true, &d.Employees},
		{&dbmodels.Exam{}, "submitted = ?", false, &d.PendingExams},
		{&dbmodels.Accident{}, "submitted = ?", false, &d.PendingAccidents},
	}
	for _, c := range counts {
		if err := r.db.WithContext(ctx).Model(c.model).Where(c.where, c.arg).Count(c.dst).Error; err != nil {
			return nil, translate("dashboard", err)
		}
	}
	return &d, nil
}

// MarkExamSubmitted flags an exam as submitted. It reports false when the
// exam was already submitted.
func (r *Repository) MarkExamSubmitted(ctx context.Context, id uint, at time.Time) (bool, error) {
	return r.markSubmitted(ctx, &dbmodels.Exam{}, "exam", id, at)
}

// MarkAccidentSubmitted flags an accident as submitted. It reports false
// when the accident was already submitted.
func (r *Repository) MarkAccidentSubmitted(ctx context.Context, id uint, at time.Time) (bool, error) {
	return r.markSubmitted(ctx, &dbmodels.Accident{}, "accident", id, at)
}

// markSubmitted only ever writes submitted = true, and only on rows that
// are still unsubmitted.
func (r *Repository) markSubmitted(ctx context.Context, model interface{}, kind string, id uint, at time.Time) (bool, error) {
	var affected int64
	err := r.WithTransaction(ctx, func(tx *Repository) error {
		result := tx.db.WithContext(ctx).Model(model).
			Where("id = ? AND submitted = ?", id, false).
			Updates(map[string]interface{}{"submitted": true, "submitted_at": at})
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return false, translate("mark "+kind+" submitted", err)
	}
	if affected > 0 {
		return true, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, translate("mark "+kind+" submitted", err)
	}
	if count == 0 {
		return false, fmt.Errorf("%w: %s %d", e.ErrNotFound, kind, id)
	}
	return false, nil
}
