package models

import "time"

// Role is the section of the marketplace a visitor may use.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAgent    Role = "agent"
	RoleCustomer Role = "customer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleCustomer:
		return true
	}
	return false
}

// SessionClaims is what the page shell learns from the bearer credential.
type SessionClaims struct {
	Role      Role      `json:"role"`
	SubjectID string    `json:"subjectId,omitempty"`
	IssuedAt  time.Time `json:"issuedAt,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}
