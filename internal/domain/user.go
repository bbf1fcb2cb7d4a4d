package domain

import "time"

// Role names a capability set granted to a user. A user may carry more
// than one role, but business logic treats the first matching role in
// priority order (admin, customer, professional) as primary.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleCustomer     Role = "customer"
	RoleProfessional Role = "professional"
)

// User is the identity record for admins, customers and professionals.
// Users are deactivated rather than deleted, except through the explicit
// admin cascade delete.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Active       bool
	Roles        []Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
