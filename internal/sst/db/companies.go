package db

import (
	"context"
	"errors"
	"fmt"

	dbmodels "github.com/globalled/sst/internal/sst/db/models"
	e "github.com/globalled/sst/internal/sst/errors"
	"github.com/globalled/sst/internal/sst/models"
)

// ListCompanies returns the active companies ordered by legal name.
func (r *Repository) ListCompanies(ctx context.Context) ([]models.Company, error) {
	var rows []dbmodels.Company
	result := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("legal_name").
		Order("id").
		Find(&rows)
	if result.Error != nil {
		return nil, translate("list companies", result.Error)
	}

	companies := make([]models.Company, 0, len(rows))
	for i := range rows {
		companies = append(companies, companyToModel(&rows[i]))
	}
	return companies, nil
}

// CreateCompany inserts an active company owned by company.UserID.
func (r *Repository) CreateCompany(ctx context.Context, company *models.Company) (uint, error) {
	row := &dbmodels.Company{
		LegalName: company.LegalName,
		TradeName: company.TradeName,
		TaxID:     company.TaxID,
		City:      company.City,
		State:     company.State,
		UserID:    company.UserID,
		Active:    true,
	}
	if err := translate("create company", r.insert(ctx, row)); err != nil {
		switch {
		case errors.Is(err, e.ErrConflict):
			return 0, fmt.Errorf("%w: tax id already registered", e.ErrConflict)
		case errors.Is(err, e.ErrNotFound):
			return 0, fmt.Errorf("%w: user not found", e.ErrNotFound)
		}
		return 0, err
	}
	return row.ID, nil
}
