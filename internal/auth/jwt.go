// Package auth issues and checks session tokens and password hashes.
//
// SESSION FLOW:
//
//	POST /auth/login → AuthService.Login → TokenService.Generate(user.ID)
//	                 → Set-Cookie: token=<jwt>; HttpOnly
//	later requests   → RequireAuth reads the cookie → Validate → user ID in context
//
// The token subject is the canonical form of the user's ID, so the same
// token format works whichever backend issued the ID.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/identity"
	"github.com/sakif/playlister/internal/model"
)

const (
	issuer = "playlister"

	// DefaultTokenTTL is how long a login lasts.
	DefaultTokenTTL = 24 * time.Hour
)

// TokenService signs and validates HS256 JWTs.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService returns a TokenService. The secret must be at least 16
// characters; a zero ttl means DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, apperror.Misconfigured("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL is the lifetime of tokens issued by Generate.
func (s *TokenService) TTL() time.Duration { return s.ttl }

type claims struct {
	jwt.RegisteredClaims
}

// Generate issues a token for userID with the service's TTL.
func (s *TokenService) Generate(userID model.ID) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration issues a token that expires after d. A negative d
// produces an already expired token, which is what the tests need.
func (s *TokenService) GenerateWithDuration(userID model.ID, d time.Duration) (string, error) {
	sub := identity.Canonical(userID)
	if sub == "" {
		return "", fmt.Errorf("auth: cannot issue a token without a subject")
	}

	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, algorithm, issuer and expiry and returns the
// subject. Every failure is an apperror.ErrUnauthorized.
func (s *TokenService) Validate(tokenStr string) (model.ID, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperror.Unauthorized("session expired")
		}
		return "", &apperror.AppError{Err: apperror.ErrUnauthorized, Message: "invalid token", Cause: err}
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", apperror.Unauthorized("invalid token claims")
	}
	if c.Subject == "" {
		return "", apperror.Unauthorized("token has no subject")
	}
	return model.ID(c.Subject), nil
}
