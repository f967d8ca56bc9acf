// Package models defines the domain models of the SST compliance ledger:
// users, companies, employees, medical exams and workplace accidents.
package models

// Role is the profile assigned to a user. It is recorded and carried in
// tokens but access is currently uniform across roles.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
)

// User is an operator of the ledger as stored, including the password hash.
type User struct {
	ID           uint
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
}

// PublicProfile is the caller-visible projection of a User.
type PublicProfile struct {
	ID    uint
	Name  string
	Email string
	Role  Role
}

// Profile returns the whitelisted public fields of u.
func (u *User) Profile() PublicProfile {
	return PublicProfile{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// Session is the outcome of a successful authentication.
type Session struct {
	Token string
	User  PublicProfile
}
