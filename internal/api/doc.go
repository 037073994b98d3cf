// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

/*
Package api serves the HTTP interface of the discount service.

Routes under /api/v1 answer with a common envelope:

	{"success": true, "data": ..., "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 3}}
	{"success": false, "error": {"code": "VALIDATION_FAILED", "message": "...", "details": [...], "request_id": "..."}, "meta": {...}}

The app-facing /api/distance and /api/notifications/send endpoints keep
the plain {"error": "..."} body the mobile client already parses; they are
served by the routing and notify packages and only mounted here.

Rate limits are per client IP (go-chi/httprate): a default limit for
reads, a stricter one for admin writes and for endpoints that spend
third-party quota, and a permissive one for health checks.

Everything under /api/v1/admin needs a bearer token carrying the admin role
(see package auth); rejections use the UNAUTHORIZED and FORBIDDEN codes.
*/
package api
