// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package backup

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/centraldescuentos/internal/config"
	"github.com/tomtom215/centraldescuentos/internal/logging"
	"github.com/tomtom215/centraldescuentos/internal/metrics"
	"github.com/tomtom215/centraldescuentos/internal/models"
	"github.com/tomtom215/centraldescuentos/internal/store"
)

const indexFile = "index.json"

// Source is the part of the store a snapshot reads and restores.
type Source interface {
	ListDiscounts(ctx context.Context) ([]models.Discount, error)
	PutDiscounts(ctx context.Context, discounts []models.Discount) error
}

// Manager creates, lists and restores snapshots in one directory.
type Manager struct {
	dir    string
	retain int
	src    Source
	now    func() time.Time

	mu      sync.Mutex
	backups []Backup // newest first
}

// NewManager creates the directory if needed and loads its index.
func NewManager(cfg config.BackupConfig, src Source) (*Manager, error) {
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	retain := cfg.Retain
	if retain < 1 {
		retain = 1
	}
	m := &Manager{dir: cfg.Dir, retain: retain, src: src, now: time.Now}
	if err := m.loadIndex(); err != nil {
		return nil, err
	}
	return m, nil
}

// Create writes a snapshot of every stored discount and applies retention.
func (m *Manager) Create(ctx context.Context, trigger Trigger) (Backup, error) {
	start := m.now()
	discounts, err := m.src.ListDiscounts(ctx)
	if err != nil {
		metrics.RecordBackup(false, 0)
		return Backup{}, fmt.Errorf("read catalogue: %w", err)
	}

	id := uuid.NewString()[:8]
	name := fmt.Sprintf("catalog-%s-%s.json.gz", start.UTC().Format("20060102T150405Z"), id)
	size, sum, err := m.writeSnapshot(filepath.Join(m.dir, name), snapshot{
		Version:   snapshotVersion,
		CreatedAt: start.UTC(),
		Discounts: discounts,
	})
	if err != nil {
		metrics.RecordBackup(false, 0)
		return Backup{}, err
	}

	b := Backup{
		ID:        id,
		File:      name,
		CreatedAt: start.UTC(),
		Trigger:   trigger,
		Discounts: len(discounts),
		SizeBytes: size,
		Checksum:  sum,
	}

	m.mu.Lock()
	m.backups = slices.Insert(m.backups, 0, b)
	removed := m.pruneLocked()
	err = m.saveIndexLocked()
	m.mu.Unlock()
	if err != nil {
		return Backup{}, err
	}

	metrics.RecordBackup(true, size)
	logging.Info().
		Str("backup_id", id).
		Str("trigger", string(trigger)).
		Int("discounts", len(discounts)).
		Int64("size_bytes", size).
		Int("pruned", removed).
		Dur("took", time.Since(start)).
		Msg("Catalogue snapshot written")
	return b, nil
}

func (m *Manager) writeSnapshot(path string, snap snapshot) (int64, string, error) {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return 0, "", fmt.Errorf("create snapshot file: %w", err)
	}

	hash := sha256.New()
	gz := gzip.NewWriter(io.MultiWriter(f, hash))
	encodeErr := json.NewEncoder(gz).Encode(snap)
	closeErr := errors.Join(gz.Close(), f.Sync(), f.Close())
	if err := errors.Join(encodeErr, closeErr); err != nil {
		_ = os.Remove(tmp)
		return 0, "", fmt.Errorf("write snapshot: %w", err)
	}

	info, err := os.Stat(tmp)
	if err != nil {
		_ = os.Remove(tmp)
		return 0, "", fmt.Errorf("stat snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return 0, "", fmt.Errorf("publish snapshot: %w", err)
	}
	return info.Size(), hex.EncodeToString(hash.Sum(nil)), nil
}

// List returns the snapshots, newest first.
func (m *Manager) List() []Backup {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.backups)
}

// Get returns one snapshot or ErrNotFound.
func (m *Manager) Get(id string) (Backup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOfLocked(id)
	if i < 0 {
		return Backup{}, ErrNotFound
	}
	return m.backups[i], nil
}

// Delete removes a snapshot file and its index entry.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOfLocked(id)
	if i < 0 {
		return ErrNotFound
	}
	if err := os.Remove(filepath.Join(m.dir, m.backups[i].File)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove snapshot: %w", err)
	}
	m.backups = slices.Delete(m.backups, i, i+1)
	return m.saveIndexLocked()
}

// Restore writes the discounts of snapshot id back to the store and
// returns how many were restored.
func (m *Manager) Restore(ctx context.Context, id string) (int, error) {
	b, err := m.Get(id)
	if err != nil {
		return 0, err
	}
	snap, err := m.readSnapshot(b)
	if err != nil {
		return 0, err
	}

	for start := 0; start < len(snap.Discounts); start += store.MaxBatchSize {
		end := min(start+store.MaxBatchSize, len(snap.Discounts))
		if err := m.src.PutDiscounts(ctx, snap.Discounts[start:end]); err != nil {
			return start, fmt.Errorf("restore batch at %d: %w", start, err)
		}
	}

	logging.Info().Str("backup_id", id).Int("discounts", len(snap.Discounts)).Msg("Catalogue restored from snapshot")
	return len(snap.Discounts), nil
}

func (m *Manager) readSnapshot(b Backup) (snapshot, error) {
	raw, err := os.ReadFile(filepath.Join(m.dir, b.File))
	if err != nil {
		return snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	sum := sha256.Sum256(raw)
	if hex.EncodeToString(sum[:]) != b.Checksum {
		return snapshot{}, ErrChecksumMismatch
	}

	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return snapshot{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer gz.Close()

	var snap snapshot
	if err := json.NewDecoder(gz).Decode(&snap); err != nil {
		return snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return snapshot{}, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	return snap, nil
}

// pruneLocked drops snapshots beyond the retention count.
func (m *Manager) pruneLocked() int {
	if len(m.backups) <= m.retain {
		return 0
	}
	old := m.backups[m.retain:]
	for _, b := range old {
		if err := os.Remove(filepath.Join(m.dir, b.File)); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.Warn().Err(err).Str("backup_id", b.ID).Msg("Failed to remove expired snapshot")
		}
	}
	n := len(old)
	m.backups = m.backups[:m.retain]
	return n
}

func (m *Manager) indexOfLocked(id string) int {
	return slices.IndexFunc(m.backups, func(b Backup) bool { return b.ID == id })
}

func (m *Manager) loadIndex() error {
	raw, err := os.ReadFile(filepath.Join(m.dir, indexFile))
	if errors.Is(err, os.ErrNotExist) {
		m.backups = []Backup{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read backup index: %w", err)
	}
	if err := json.Unmarshal(raw, &m.backups); err != nil {
		return fmt.Errorf("decode backup index: %w", err)
	}
	slices.SortFunc(m.backups, func(a, b Backup) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return nil
}

func (m *Manager) saveIndexLocked() error {
	raw, err := json.MarshalIndent(m.backups, "", "  ")
	if err != nil {
		return fmt.Errorf("encode backup index: %w", err)
	}
	tmp := filepath.Join(m.dir, indexFile+".tmp")
	if err := os.WriteFile(tmp, raw, 0o640); err != nil {
		return fmt.Errorf("write backup index: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(m.dir, indexFile)); err != nil {
		return fmt.Errorf("publish backup index: %w", err)
	}
	return nil
}
