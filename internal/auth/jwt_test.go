// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/centraldescuentos/internal/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestManager(t *testing.T, issuer string) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(config.SecurityConfig{JWTSecret: testSecret, JWTIssuer: issuer})
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	return m
}

func TestNewJWTManager(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{"missing secret", "", true},
		{"short secret", "short", true},
		{"valid secret", testSecret, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewJWTManager(config.SecurityConfig{JWTSecret: tt.secret})
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if _, err := NewJWTManager(config.SecurityConfig{}); !errors.Is(err, ErrMissingSecret) {
		t.Errorf("empty secret err = %v, want ErrMissingSecret", err)
	}
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, "")
	valid, err := m.GenerateToken("ana@example.com", "admin", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := m.ValidateToken(valid)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Subject != "ana@example.com" || !claims.HasRole("admin") {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, "https://id.example.com")
	other, err := NewJWTManager(config.SecurityConfig{JWTSecret: strings.Repeat("x", 32), JWTIssuer: "https://id.example.com"})
	if err != nil {
		t.Fatal(err)
	}
	wrongIssuer := newTestManager(t, "https://evil.example.com")

	sign := func(t *testing.T, mgr *JWTManager, ttl time.Duration) string {
		t.Helper()
		tok, err := mgr.GenerateToken("ana", "admin", ttl)
		if err != nil {
			t.Fatal(err)
		}
		return tok
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://id.example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "https://id.example.com"},
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", sign(t, other, time.Hour)},
		{"expired", sign(t, m, -time.Minute)},
		{"wrong issuer", sign(t, wrongIssuer, time.Hour)},
		{"alg none", unsigned},
		{"missing exp", noExpiry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := m.ValidateToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestClaimsHasRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		claims Claims
		role   string
		want   bool
	}{
		{"role claim", Claims{Role: "admin"}, "admin", true},
		{"roles list", Claims{Roles: []string{"viewer", "admin"}}, "admin", true},
		{"other role", Claims{Role: "viewer"}, "admin", false},
		{"empty required role", Claims{Role: ""}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.claims.HasRole(tt.role); got != tt.want {
				t.Errorf("HasRole(%q) = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}
