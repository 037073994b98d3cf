// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

// Package main is the entry point for the Central de Descuentos server.
//
// The server exposes the discount catalogue, user preferences, AI
// recommendations, the directions proxy and push notification delivery
// over HTTP.
//
// # Startup Order
//
//  1. Configuration: defaults, config.yaml, .env and the environment (Koanf v2)
//  2. Logging: zerolog with the configured level and format
//  3. Store: embedded Badger or MongoDB, selected by STORE_DRIVER
//  4. Services: discount curation, recommendation engine and cache
//  5. Upstream clients: AI, routing and push, each behind a circuit breaker
//  6. Supervisor tree: HTTP server and Badger value log GC
//
// # Configuration
//
// Environment variables override config.yaml, which overrides the
// built-in defaults. Useful ones:
//
//	HTTP_PORT=8080
//	STORE_DRIVER=badger          # or mongo
//	BADGER_PATH=/data/descuentos
//	MONGO_URI=mongodb://localhost:27017
//	AI_API_KEY=...               # recommendations answer 503 without it
//	ORS_API_KEY=...              # /api/distance answers 503 without it
//	ONESIGNAL_APP_ID=... ONESIGNAL_REST_API_KEY=...
//	LOG_LEVEL=debug LOG_FORMAT=console
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
// in-flight requests for up to the server timeout and the store is closed
// once every service has stopped.
package main
