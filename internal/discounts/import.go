// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package discounts

import (
	"context"
	"fmt"

	"github.com/tomtom215/centraldescuentos/internal/category"
	"github.com/tomtom215/centraldescuentos/internal/logging"
	"github.com/tomtom215/centraldescuentos/internal/metrics"
	"github.com/tomtom215/centraldescuentos/internal/models"
	"github.com/tomtom215/centraldescuentos/internal/store"
)

// RejectedRecord describes an import record that failed validation.
type RejectedRecord struct {
	Index  int      `json:"index"`
	Name   string   `json:"name,omitempty"`
	Errors []string `json:"errors"`
}

// ImportResult summarizes an Import call.
type ImportResult struct {
	Imported int              `json:"imported"`
	Batches  int              `json:"batches"`
	Rejected []RejectedRecord `json:"rejected,omitempty"`
}

// Import stores scraped discounts. Every record gets Source scraping and,
// unless already set, an id, status active and approval pending so an admin
// reviews it before it is published. A record without a category is filed
// under the canonical category its name matches. Invalid records are
// reported in Rejected and skipped; valid ones are written in commits of
// at most store.MaxBatchSize.
func (s *Service) Import(ctx context.Context, records []models.Discount) (ImportResult, error) {
	var result ImportResult
	now := s.timestamp()

	valid := make([]models.Discount, 0, len(records))
	for i, d := range records {
		d.Source = models.SourceScraping
		if d.ID == "" {
			d.ID = s.newID()
		}
		if d.Status == "" {
			d.Status = models.StatusActive
		}
		if d.ApprovalStatus == "" {
			d.ApprovalStatus = models.ApprovalPending
		}
		if d.Category == "" {
			d.Category = category.Canonical(d.Name)
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
		}
		d.UpdatedAt = now

		if verr := d.Validate(); verr != nil {
			result.Rejected = append(result.Rejected, RejectedRecord{
				Index:  i,
				Name:   d.Name,
				Errors: verr.Messages(),
			})
			continue
		}
		valid = append(valid, d)
	}

	for start := 0; start < len(valid); start += store.MaxBatchSize {
		end := min(start+store.MaxBatchSize, len(valid))
		if err := s.store.PutDiscounts(ctx, valid[start:end]); err != nil {
			logging.CtxErr(ctx, err).
				Int("batch", result.Batches+1).
				Int("imported", result.Imported).
				Msg("Failed to commit import batch")
			return result, fmt.Errorf("import batch %d: %w", result.Batches+1, err)
		}
		result.Batches++
		result.Imported += end - start
		metrics.RecordBatchCommit()
	}

	metrics.RecordDiscountWrites("import", result.Imported)
	logging.Ctx(ctx).Info().
		Int("imported", result.Imported).
		Int("rejected", len(result.Rejected)).
		Int("batches", result.Batches).
		Msg("Discount import finished")
	return result, nil
}
