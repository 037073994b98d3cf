// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

/*
Package auth verifies the bearer tokens that guard the admin API.

Tokens are issued by the external identity provider and signed with a
shared HMAC secret (JWT_SECRET). A request reaches an admin handler only
when its token verifies, has not expired, matches the configured issuer
and carries the admin role, either in the "role" claim or in the "roles"
list.

Usage:

	mgr, err := auth.NewJWTManager(cfg.Security)
	if err != nil {
		// admin routes answer 503 until a secret is configured
	}
	mw := auth.NewMiddleware(mgr, cfg.Security.AuthMode, cfg.Security.AdminRole, nil)
	r.Route("/admin", func(r chi.Router) {
		r.Use(mw.RequireAdmin)
	})

Handlers read the verified identity with ClaimsFromContext or Subject.
*/
package auth
