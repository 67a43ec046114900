package rolegate

import (
	"errors"

	"insurance-quote-workers/internal/models"
)

// Decision reasons.
const (
	ReasonAllowed           = "allowed"
	ReasonRoleMismatch      = "role-mismatch"
	ReasonUnauthenticated   = "unauthenticated"
	ReasonInvalidCredential = "invalid-credential"
	ReasonExpiredCredential = "expired-credential"
)

// DefaultLoginPaths are the login entry points per section.
var DefaultLoginPaths = map[models.Role]string{
	models.RoleCustomer: "/login",
	models.RoleAgent:    "/agent/login",
	models.RoleAdmin:    "/admin/login",
}

// Decision tells the page shell whether to render a section or where to send
// the visitor instead.
type Decision struct {
	Allowed         bool   `json:"allowed"`
	RedirectTo      string `json:"redirectTo,omitempty"`
	ClearCredential bool   `json:"clearCredential"`
	Reason          string `json:"reason"`
}

// Router maps sections to their login entry points.
type Router struct {
	loginPaths map[models.Role]string
}

// NewRouter builds a Router. Sections missing from paths fall back to
// DefaultLoginPaths.
func NewRouter(paths map[string]string) *Router {
	r := &Router{loginPaths: make(map[models.Role]string, len(DefaultLoginPaths))}
	for role, path := range DefaultLoginPaths {
		r.loginPaths[role] = path
	}
	for section, path := range paths {
		if role := models.Role(section); role.Valid() && path != "" {
			r.loginPaths[role] = path
		}
	}
	return r
}

// LoginPath returns the login entry point for a section. Unknown sections
// go to the customer login.
func (r *Router) LoginPath(section models.Role) string {
	if path, ok := r.loginPaths[section]; ok {
		return path
	}
	return r.loginPaths[models.RoleCustomer]
}

// Decide turns the outcome of Resolve into a routing decision for section.
// A failed resolution also asks the shell to drop the stored credential.
func (r *Router) Decide(section models.Role, claims models.SessionClaims, resolveErr error) Decision {
	if resolveErr != nil {
		return Decision{
			RedirectTo:      r.LoginPath(section),
			ClearCredential: true,
			Reason:          reasonFor(resolveErr),
		}
	}
	if claims.Role != section {
		return Decision{
			RedirectTo: r.LoginPath(section),
			Reason:     ReasonRoleMismatch,
		}
	}
	return Decision{Allowed: true, Reason: ReasonAllowed}
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return ReasonUnauthenticated
	case errors.Is(err, ErrExpiredCredential):
		return ReasonExpiredCredential
	default:
		return ReasonInvalidCredential
	}
}
