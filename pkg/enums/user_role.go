package enums

import "fmt"

type UserRole string

const (
	UserRolePhotographer UserRole = "photographer"
	UserRoleAdmin        UserRole = "admin"
)

func (r UserRole) IsValid() bool {
	switch r {
	case UserRolePhotographer, UserRoleAdmin:
		return true
	}
	return false
}

func ParseUserRole(raw string) (UserRole, error) {
	role := UserRole(raw)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid user role %q", raw)
	}
	return role, nil
}
