// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

// Package services adapts service components to suture.Service so the
// supervisor tree can start, restart and stop them.
//
//   - HTTPServerService: ListenAndServe with graceful Shutdown on cancel.
//   - StoreGCService: periodic BadgerDB value log garbage collection.
//   - BackupService: scheduled catalogue snapshots.
//
// Each service implements fmt.Stringer, which suture uses in its events.
package services
