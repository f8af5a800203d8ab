// internal/models/account.go
package models

// Role gates which surfaces a client shows. It does not restrict data access.
type Role string

const (
	RoleStaff      Role = "staff"
	RoleSuperAdmin Role = "super_admin"
)

// UserAccount is a locally stored login. The password is kept in plain text
// on purpose: the access gate is a convenience lock, not a security boundary.
type UserAccount struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role" validate:"required,oneof=staff super_admin"`
}
