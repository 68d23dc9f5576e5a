package model

import "github.com/google/uuid"

type UserRole string

const (
	UserRoleAdmin         UserRole = "ADMIN"
	UserRoleContractor    UserRole = "CONTRACTOR"
	UserRoleSubcontractor UserRole = "SUBCONTRACTOR"
)

type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   UserRole
}

func (p Principal) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

func (p Principal) IsContractor() bool {
	return p.Role == UserRoleContractor || p.Role == UserRoleSubcontractor
}
