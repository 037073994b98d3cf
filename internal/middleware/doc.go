// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

/*
Package middleware provides HTTP middleware shared by every route group.

  - RequestID: accepts or generates X-Request-ID and seeds the logging
    context with request_id and correlation_id.
  - PrometheusMetrics: records request count, latency and in-flight gauge,
    labelled by the chi route pattern so path parameters such as discount
    ids do not create new series.

Both are plain func(http.Handler) http.Handler values and can be passed to
chi's Router.Use directly.
*/
package middleware
