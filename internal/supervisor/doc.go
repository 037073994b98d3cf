// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

/*
Package supervisor runs the long-lived parts of the service under a suture v4
supervisor tree.

	RootSupervisor ("centraldescuentos")
	├── DataSupervisor ("data-layer")
	│   ├── StoreGCService (Badger driver only)
	│   └── BackupService (BACKUP_ENABLED)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crashing service is restarted with backoff; a failure in the data layer
does not stop the HTTP server. Supervisor events are logged through a
slog.Logger, normally logging.NewSlogLogger so they reach zerolog.
*/
package supervisor
