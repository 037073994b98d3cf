// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Admin authentication outcomes.
const (
	outcomeAllowed      = "allowed"
	outcomeMissingToken = "missing_token"
	outcomeInvalidToken = "invalid_token"
	outcomeForbidden    = "forbidden"
	outcomeUnconfigured = "unconfigured"
)

var (
	// AdminAuthDecisions counts admin route authentication decisions.
	// Labels:
	//   - outcome: "allowed", "missing_token", "invalid_token", "forbidden", "unconfigured"
	AdminAuthDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_auth_decisions_total",
			Help: "Total number of admin route authentication decisions",
		},
		[]string{"outcome"},
	)
)

func recordDecision(outcome string) {
	AdminAuthDecisions.WithLabelValues(outcome).Inc()
}
