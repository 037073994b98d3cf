// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/centraldescuentos/internal/logging"
)

// Authentication modes.
const (
	ModeJWT  = "jwt"
	ModeNone = "none"
)

type contextKey string

const claimsContextKey contextKey = "claims"

var (
	errMissingToken   = errors.New("bearer token required")
	errMalformedToken = errors.New("malformed Authorization header")
)

// DenyFunc writes a rejected request's response.
type DenyFunc func(w http.ResponseWriter, r *http.Request, status int, message string)

// Middleware guards routes with bearer token verification.
type Middleware struct {
	jwtManager *JWTManager
	mode       string
	adminRole  string
	deny       DenyFunc
}

// NewMiddleware creates the admin guard. A nil jwtManager in jwt mode makes
// every guarded request fail with 503. A nil deny writes plain text.
func NewMiddleware(jwtManager *JWTManager, mode, adminRole string, deny DenyFunc) *Middleware {
	if deny == nil {
		deny = func(w http.ResponseWriter, _ *http.Request, status int, message string) {
			http.Error(w, message, status)
		}
	}
	return &Middleware{
		jwtManager: jwtManager,
		mode:       mode,
		adminRole:  adminRole,
		deny:       deny,
	}
}

// RequireAdmin admits requests whose bearer token carries the admin role
// and stores the verified claims in the request context.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.mode == ModeNone {
			next.ServeHTTP(w, r)
			return
		}

		if m.jwtManager == nil {
			recordDecision(outcomeUnconfigured)
			m.deny(w, r, http.StatusServiceUnavailable, "Admin authentication is not configured")
			return
		}

		token, err := bearerToken(r)
		if err != nil {
			recordDecision(outcomeMissingToken)
			w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
			m.deny(w, r, http.StatusUnauthorized, "Unauthorized: "+err.Error())
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			recordDecision(outcomeInvalidToken)
			logging.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("Admin token rejected")
			w.Header().Set("WWW-Authenticate", `Bearer realm="admin", error="invalid_token"`)
			m.deny(w, r, http.StatusUnauthorized, "Unauthorized: invalid token")
			return
		}

		if !claims.HasRole(m.adminRole) {
			recordDecision(outcomeForbidden)
			logging.Ctx(r.Context()).Warn().
				Str("subject", claims.Subject).
				Str("role", claims.Role).
				Str("path", r.URL.Path).
				Msg("Admin access denied")
			m.deny(w, r, http.StatusForbidden, "Forbidden: admin role required")
			return
		}

		recordDecision(outcomeAllowed)
		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errMalformedToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errMalformedToken
	}
	return token, nil
}

// ClaimsFromContext returns the claims stored by RequireAdmin.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}

// Subject returns the verified token subject, or "" when the request was
// not authenticated.
func Subject(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.Subject
	}
	return ""
}
