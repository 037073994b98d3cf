// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

/*
Package backup takes and restores snapshots of the discount catalogue.

A snapshot is a gzip-compressed JSON document holding every stored
discount. It is written through the store interfaces, so it works the
same for the Badger and MongoDB drivers and can move a catalogue from one
to the other.

# Files

Snapshots live in a single directory:

	catalog-20260615T120000Z-1a2b3c4d.json.gz
	index.json

index.json lists the snapshots with their discount count, size and
SHA-256 checksum. Restore refuses a file whose checksum no longer matches.

# Retention

After each snapshot only the newest Retain snapshots are kept. Older files
and their index entries are removed.

# Restore

Restore upserts the snapshot's discounts in batches of store.MaxBatchSize.
Discounts created after the snapshot are left in place.
*/
package backup
