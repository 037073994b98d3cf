// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package audit

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/centraldescuentos/internal/auth"
	"github.com/tomtom215/centraldescuentos/internal/logging"
)

// maxTargetIDs bounds the ids copied into a bulk event.
const maxTargetIDs = 100

// Config holds configuration for the audit logger.
type Config struct {
	// Enabled controls whether events are recorded.
	Enabled bool

	// BufferSize is the size of the async write buffer.
	BufferSize int

	// LogToStdout also writes each event through the application logger.
	LogToStdout bool
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{Enabled: true, BufferSize: 1000}
}

// Logger records events asynchronously. A nil *Logger is valid and
// records nothing.
type Logger struct {
	config  Config
	store   Store
	events  chan *Event
	stop    chan struct{}
	wg      sync.WaitGroup
	closeMu sync.Once
	now     func() time.Time
}

// NewLogger starts the background writer.
func NewLogger(store Store, config Config) *Logger {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	l := &Logger{
		config: config,
		store:  store,
		events: make(chan *Event, config.BufferSize),
		stop:   make(chan struct{}),
		now:    time.Now,
	}
	l.wg.Add(1)
	go l.writer()
	return l
}

func (l *Logger) writer() {
	defer l.wg.Done()
	for {
		select {
		case <-l.stop:
			for {
				select {
				case e := <-l.events:
					l.write(e)
				default:
					return
				}
			}
		case e := <-l.events:
			l.write(e)
		}
	}
}

func (l *Logger) write(e *Event) {
	if l.config.LogToStdout {
		if data, err := json.Marshal(e); err == nil {
			logging.Info().RawJSON("event", data).Msg("Audit event")
		}
	}
	if l.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.store.Save(ctx, e); err != nil {
		logging.Error().Err(err).Str("event_id", e.ID).Msg("Failed to save audit event")
	}
}

// Log queues event. Missing id and timestamp are filled in. The event is
// dropped with a warning when the buffer is full.
func (l *Logger) Log(event *Event) {
	if l == nil || !l.config.Enabled {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now().UTC()
	}
	select {
	case l.events <- event:
	default:
		logging.Warn().Str("event_id", event.ID).Msg("Audit event buffer full, dropping event")
	}
}

// Record logs action for the client behind r. metadata, when not nil, is
// stored as JSON.
func (l *Logger) Record(r *http.Request, action Action, target Target, metadata map[string]any) {
	if l == nil || !l.config.Enabled {
		return
	}
	if len(target.IDs) > maxTargetIDs {
		target.IDs = target.IDs[:maxTargetIDs]
	}
	if target.Count == 0 && target.ID != "" {
		target.Count = 1
	}

	e := &Event{
		Action:    action,
		Target:    target,
		Source:    Source{IP: clientIP(r), UserAgent: r.UserAgent(), Actor: auth.Subject(r.Context())},
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
	if metadata != nil {
		if raw, err := json.Marshal(metadata); err == nil {
			e.Metadata = raw
		}
	}
	l.Log(e)
}

// Query returns matching events, newest first.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	if l == nil || l.store == nil {
		return []Event{}, nil
	}
	return l.store.Query(ctx, filter)
}

// Count returns the number of matching events.
func (l *Logger) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	if l == nil || l.store == nil {
		return 0, nil
	}
	return l.store.Count(ctx, filter)
}

// Close drains queued events and stops the writer. It is safe to call
// more than once.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.closeMu.Do(func() { close(l.stop) })
	l.wg.Wait()
	return nil
}

// clientIP strips the port from RemoteAddr, which RealIP has already
// replaced with the forwarded address when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
