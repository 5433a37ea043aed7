package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent     UserRole = "STUDENT"
	RoleSecretary   UserRole = "SECRETARY"
	RoleAnalyst     UserRole = "ANALYST"
	RoleCoordinator UserRole = "COORDINATOR"
)

// Valid reports whether the role is one of the known values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleSecretary, RoleAnalyst, RoleCoordinator:
		return true
	}
	return false
}

// User represents an application user stored in the users table. Students
// carry CPF, birth date and contact fields; staff carry a functional
// registry number (ref). Guardian fields are required for minors.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	CPF          *string    `db:"cpf" json:"cpf,omitempty"`
	Ref          *string    `db:"ref" json:"ref,omitempty"`
	BirthDate    *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	Cellphone    *string    `db:"cellphone" json:"cellphone,omitempty"`
	Address      *string    `db:"address" json:"address,omitempty"`
	Neighborhood *string    `db:"neighborhood" json:"neighborhood,omitempty"`

	GuardianName  *string `db:"guardian_name" json:"guardian_name,omitempty"`
	GuardianCPF   *string `db:"guardian_cpf" json:"guardian_cpf,omitempty"`
	GuardianEmail *string `db:"guardian_email" json:"guardian_email,omitempty"`
	GuardianPhone *string `db:"guardian_phone" json:"guardian_phone,omitempty"`

	LastLogin *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// ContactPhone prefers the cellphone number, falling back to the landline.
func (u *User) ContactPhone() string {
	if u.Cellphone != nil && *u.Cellphone != "" {
		return *u.Cellphone
	}
	if u.Phone != nil && *u.Phone != "" {
		return *u.Phone
	}
	return ""
}

// AgeAt computes the calendar-correct age at the given reference time.
// Returns 0 when the birth date is unknown.
func (u *User) AgeAt(ref time.Time) int {
	if u.BirthDate == nil {
		return 0
	}
	birth := *u.BirthDate
	age := ref.Year() - birth.Year()
	if ref.Month() < birth.Month() || (ref.Month() == birth.Month() && ref.Day() < birth.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
