// Package rolegate decides which marketplace section a visitor may see, based
// on the role claim inside their bearer credential.
//
// The credential's signature is NOT verified here. The result only steers
// page routing; every API call is authorized again by the backend.
package rolegate

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"insurance-quote-workers/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrUnauthenticated   = errors.New("UNAUTHENTICATED")
	ErrInvalidCredential = errors.New("INVALID_CREDENTIAL")
	ErrExpiredCredential = errors.New("EXPIRED_CREDENTIAL")
)

type credentialClaims struct {
	Role string `json:"role"`
	// Exp shadows the embedded claim: jwt.NumericDate drops sub-second digits.
	Exp json.Number `json:"exp"`
	jwt.RegisteredClaims
}

func (c *credentialClaims) expiresAt() (time.Time, error) {
	secs, err := c.Exp.Float64()
	if err != nil || math.IsInf(secs, 0) || math.IsNaN(secs) {
		return time.Time{}, fmt.Errorf("exp claim %q is not a number", c.Exp)
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)), nil
}

// Resolve decodes rawCredential and returns its claims when the credential
// is still valid at now. An optional "Bearer " prefix is accepted.
func Resolve(rawCredential string, now time.Time) (models.SessionClaims, error) {
	token := stripScheme(strings.TrimSpace(rawCredential))
	if token == "" {
		return models.SessionClaims{}, ErrUnauthenticated
	}

	claims := &credentialClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return models.SessionClaims{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	if claims.Exp == "" {
		return models.SessionClaims{}, fmt.Errorf("%w: exp claim missing", ErrInvalidCredential)
	}
	expiresAt, err := claims.expiresAt()
	if err != nil {
		return models.SessionClaims{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	role := models.Role(claims.Role)
	if !role.Valid() {
		return models.SessionClaims{}, fmt.Errorf("%w: unknown role %q", ErrInvalidCredential, claims.Role)
	}

	if !expiresAt.After(now) {
		return models.SessionClaims{}, fmt.Errorf("%w: expired at %s", ErrExpiredCredential, expiresAt.UTC().Format(time.RFC3339))
	}

	resolved := models.SessionClaims{
		Role:      role,
		SubjectID: claims.Subject,
		ExpiresAt: expiresAt,
	}
	if claims.IssuedAt != nil {
		resolved.IssuedAt = claims.IssuedAt.Time
	}
	return resolved, nil
}

func stripScheme(token string) string {
	const scheme = "bearer"
	if len(token) < len(scheme) || !strings.EqualFold(token[:len(scheme)], scheme) {
		return token
	}
	rest := token[len(scheme):]
	if rest != "" && rest[0] != ' ' {
		return token
	}
	return strings.TrimSpace(rest)
}
