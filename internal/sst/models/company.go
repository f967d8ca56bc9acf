package models

// Company is an employer tracked by the ledger.
type Company struct {
	// ID is the generated identity.
	ID uint
	// LegalName is the registered name (razão social).
	LegalName string
	// TradeName is the commercial name, optional.
	TradeName string
	// TaxID is the national tax id (CNPJ), digits only.
	TaxID string
	City  string
	State string
	// UserID is the user that registered the company.
	UserID uint
	Active bool
}
