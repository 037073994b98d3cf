// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

/*
Package discounts is the data-access layer for the discounts collection.

Service wraps a store.DiscountStore with the operations the API and the
import tooling need: listing, case-insensitive search, creation with
validation, partial updates, admin toggles and batched deletes. Every store
failure is logged with the request context and returned wrapped; nothing is
retried.

Bulk writes are split into commits of at most store.MaxBatchSize documents
and committed in sequence, so deleting 1200 documents issues exactly three
commits (500, 500, 200).
*/
package discounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/centraldescuentos/internal/logging"
	"github.com/tomtom215/centraldescuentos/internal/metrics"
	"github.com/tomtom215/centraldescuentos/internal/models"
	"github.com/tomtom215/centraldescuentos/internal/store"
)

var (
	// ErrInvalidDiscount wraps the validation error of a rejected record.
	ErrInvalidDiscount = errors.New("invalid discount")

	// ErrEmptyCriteria is returned by DeleteByCriteria for an empty filter,
	// which would otherwise delete the whole collection.
	ErrEmptyCriteria = errors.New("delete criteria must not be empty")
)

// Service implements the discount operations on top of a store.
type Service struct {
	store store.DiscountStore
	now   func() time.Time
	newID func() string
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now for timestamps and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the UUID generator used for new documents.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService creates a Service over st.
func NewService(st store.DiscountStore, opts ...Option) *Service {
	s := &Service{
		store: st,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// FetchAll returns every discount in the collection.
func (s *Service) FetchAll(ctx context.Context) ([]models.Discount, error) {
	all, err := s.store.ListDiscounts(ctx)
	if err != nil {
		logging.CtxErr(ctx, err).Msg("Failed to fetch discounts")
		return nil, fmt.Errorf("fetch discounts: %w", err)
	}
	return all, nil
}

// ListPublished returns active, approved discounts whose validity window
// has not closed.
func (s *Service) ListPublished(ctx context.Context) ([]models.Discount, error) {
	q := store.Where("status", store.OpEq, models.StatusActive).
		And("approval_status", store.OpEq, models.ApprovalApproved)

	found, err := s.store.FindDiscounts(ctx, q)
	if err != nil {
		logging.CtxErr(ctx, err).Msg("Failed to list published discounts")
		return nil, fmt.Errorf("list published discounts: %w", err)
	}

	now := s.now()
	out := found[:0]
	for i := range found {
		if !found[i].ExpiredAt(now) {
			out = append(out, found[i])
		}
	}
	return out, nil
}

// Search fetches the full collection and keeps the discounts whose name,
// description or category contains term, ignoring case. An empty term
// returns everything.
func (s *Service) Search(ctx context.Context, term string) ([]models.Discount, error) {
	all, err := s.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByTerm(all, term), nil
}

// FilterByTerm applies the Search predicate to an already loaded list.
func FilterByTerm(discounts []models.Discount, term string) []models.Discount {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return discounts
	}
	out := make([]models.Discount, 0, len(discounts))
	for _, d := range discounts {
		if strings.Contains(strings.ToLower(d.Name), needle) ||
			strings.Contains(strings.ToLower(d.Description), needle) ||
			strings.Contains(strings.ToLower(d.Category), needle) {
			out = append(out, d)
		}
	}
	return out
}

// Get returns one discount or an error wrapping store.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (models.Discount, error) {
	d, err := s.store.GetDiscount(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logging.CtxErr(ctx, err).Str("discount_id", id).Msg("Failed to get discount")
		}
		return models.Discount{}, fmt.Errorf("get discount %s: %w", id, err)
	}
	return d, nil
}

// Create stores a manually entered discount. ID and timestamps are
// assigned here; Status, ApprovalStatus and Source default to active,
// pending and manual.
func (s *Service) Create(ctx context.Context, d models.Discount) (models.Discount, error) {
	if d.ID == "" {
		d.ID = s.newID()
	}
	if d.Status == "" {
		d.Status = models.StatusActive
	}
	if d.ApprovalStatus == "" {
		d.ApprovalStatus = models.ApprovalPending
	}
	if d.Source == "" {
		d.Source = models.SourceManual
	}
	now := s.timestamp()
	d.CreatedAt = now
	d.UpdatedAt = now

	if verr := d.Validate(); verr != nil {
		return models.Discount{}, fmt.Errorf("%w: %w", ErrInvalidDiscount, verr)
	}
	if err := s.store.PutDiscounts(ctx, []models.Discount{d}); err != nil {
		logging.CtxErr(ctx, err).Str("discount_id", d.ID).Msg("Failed to create discount")
		return models.Discount{}, fmt.Errorf("create discount: %w", err)
	}

	metrics.RecordDiscountWrites("create", 1)
	logging.Ctx(ctx).Info().Str("discount_id", d.ID).Str("category", d.Category).Msg("Discount created")
	return d, nil
}

// Update applies a partial update. patch holds JSON field names; a null
// value clears an optional field. id and created_at cannot be changed.
// UpdatedAt is bumped and the result must validate.
func (s *Service) Update(ctx context.Context, id string, patch map[string]any) (models.Discount, error) {
	return s.update(ctx, "update", id, func(d *models.Discount) error {
		return applyPatch(d, patch)
	})
}

// SetApproval moves a discount through the admin approval workflow.
func (s *Service) SetApproval(ctx context.Context, id string, status models.ApprovalStatus) (models.Discount, error) {
	return s.update(ctx, "approval", id, func(d *models.Discount) error {
		d.ApprovalStatus = status
		return nil
	})
}

// SetVisibility switches a discount between active and inactive.
func (s *Service) SetVisibility(ctx context.Context, id string, active bool) (models.Discount, error) {
	return s.update(ctx, "visibility", id, func(d *models.Discount) error {
		if active {
			d.Status = models.StatusActive
		} else {
			d.Status = models.StatusInactive
		}
		return nil
	})
}

func (s *Service) update(ctx context.Context, op, id string, mutate func(*models.Discount) error) (models.Discount, error) {
	updated, err := s.store.UpdateDiscount(ctx, id, func(d *models.Discount) error {
		if err := mutate(d); err != nil {
			return err
		}
		d.UpdatedAt = s.timestamp()
		if verr := d.Validate(); verr != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDiscount, verr)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrInvalidDiscount) && !errors.Is(err, store.ErrNotFound) {
			logging.CtxErr(ctx, err).Str("discount_id", id).Str("operation", op).Msg("Failed to update discount")
		}
		return models.Discount{}, fmt.Errorf("%s discount %s: %w", op, id, err)
	}
	metrics.RecordDiscountWrites(op, 1)
	return updated, nil
}

// Delete removes one discount.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteDiscounts(ctx, []string{id}); err != nil {
		logging.CtxErr(ctx, err).Str("discount_id", id).Msg("Failed to delete discount")
		return fmt.Errorf("delete discount %s: %w", id, err)
	}
	metrics.RecordDiscountWrites("delete", 1)
	return nil
}

// CountExisting reports how many distinct ids name a stored discount.
func (s *Service) CountExisting(ctx context.Context, ids []string) (int, error) {
	seen := make(map[string]struct{}, len(ids))
	n := 0
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		_, err := s.store.GetDiscount(ctx, id)
		switch {
		case err == nil:
			n++
		case errors.Is(err, store.ErrNotFound):
		default:
			logging.CtxErr(ctx, err).Str("discount_id", id).Msg("Failed to check discount")
			return 0, fmt.Errorf("check discount %s: %w", id, err)
		}
	}
	return n, nil
}

// DeleteMany deletes ids in sequential commits of at most
// store.MaxBatchSize and returns how many commits succeeded. On failure the
// earlier commits stay applied.
func (s *Service) DeleteMany(ctx context.Context, ids []string) (int, error) {
	batches := 0
	for start := 0; start < len(ids); start += store.MaxBatchSize {
		end := min(start+store.MaxBatchSize, len(ids))
		if err := s.store.DeleteDiscounts(ctx, ids[start:end]); err != nil {
			logging.CtxErr(ctx, err).
				Int("batch", batches+1).
				Int("committed", start).
				Int("total", len(ids)).
				Msg("Failed to commit delete batch")
			return batches, fmt.Errorf("delete batch %d: %w", batches+1, err)
		}
		batches++
		metrics.RecordBatchCommit()
	}
	metrics.RecordDiscountWrites("delete", len(ids))
	if batches > 0 {
		logging.Ctx(ctx).Info().Int("deleted", len(ids)).Int("batches", batches).Msg("Discounts deleted")
	}
	return batches, nil
}

// DeleteByCriteria deletes every discount whose fields equal all of the
// criteria, using DeleteMany. It returns how many documents matched.
func (s *Service) DeleteByCriteria(ctx context.Context, criteria map[string]any) (int, error) {
	if len(criteria) == 0 {
		return 0, ErrEmptyCriteria
	}
	q := store.Equals(criteria)
	if err := q.Validate(); err != nil {
		return 0, fmt.Errorf("delete by criteria: %w", err)
	}

	matched, err := s.store.FindDiscounts(ctx, q)
	if err != nil {
		logging.CtxErr(ctx, err).Msg("Failed to query discounts for deletion")
		return 0, fmt.Errorf("delete by criteria: %w", err)
	}
	ids := make([]string, len(matched))
	for i := range matched {
		ids[i] = matched[i].ID
	}
	if _, err := s.DeleteMany(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}
