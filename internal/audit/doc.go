// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

/*
Package audit keeps a trail of catalogue changes made through the admin API.

Every successful create, update, delete, bulk operation, import, approval
or visibility change is recorded as an Event carrying the request id, the
client address and the affected discount ids. Events are written by a
background goroutine so admin requests never wait on the trail.

# Storage

MemoryStore keeps the most recent events in memory and drops the oldest
tenth once full. The trail is operational context for curators, not a
compliance record, and does not survive a restart.

# Usage

	trail := audit.NewLogger(audit.NewMemoryStore(5000), audit.DefaultConfig())
	defer trail.Close()

	trail.Record(r, audit.ActionDelete, audit.Target{ID: id}, nil)

	events, err := trail.Query(ctx, audit.QueryFilter{Action: audit.ActionImport, Limit: 20})
*/
package audit
