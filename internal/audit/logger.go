// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
)

// Config holds configuration for the security event logger.
type Config struct {
	// BufferSize is the size of the async write buffer.
	BufferSize int `json:"buffer_size"`

	// RecentCapacity bounds the in-memory ring served to the live monitor.
	RecentCapacity int `json:"recent_capacity"`

	// WriteTimeout bounds a single store write.
	WriteTimeout time.Duration `json:"write_timeout"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize:     1000,
		RecentCapacity: 200,
		WriteTimeout:   5 * time.Second,
	}
}

// ConfigFrom maps the application audit settings onto a logger Config.
func ConfigFrom(c config.AuditConfig) Config {
	cfg := DefaultConfig()
	if c.BufferSize > 0 {
		cfg.BufferSize = c.BufferSize
	}
	if c.RecentCapacity > 0 {
		cfg.RecentCapacity = c.RecentCapacity
	}
	return cfg
}

// Logger is the append-only security event log.
type Logger struct {
	config    Config
	store     Store
	eventChan chan *Event

	mu        sync.RWMutex
	recent    []Event
	next      int
	count     int
	publisher Publisher

	closeOnce sync.Once
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewLogger creates a new security event logger. store may be nil, in which
// case only the recent ring is kept.
func NewLogger(store Store, cfg Config) *Logger {
	def := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.RecentCapacity <= 0 {
		cfg.RecentCapacity = def.RecentCapacity
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}

	l := &Logger{
		config:    cfg,
		store:     store,
		eventChan: make(chan *Event, cfg.BufferSize),
		recent:    make([]Event, cfg.RecentCapacity),
		stopChan:  make(chan struct{}),
	}

	// Start async writer
	l.wg.Add(1)
	go l.asyncWriter()

	return l
}

// SetPublisher installs the fan-out target for appended events.
func (l *Logger) SetPublisher(p Publisher) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.publisher = p
}

// asyncWriter processes events from the buffer.
func (l *Logger) asyncWriter() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stopChan:
			// Drain remaining events
			for {
				select {
				case event := <-l.eventChan:
					l.writeEvent(event)
				default:
					return
				}
			}
		case event := <-l.eventChan:
			l.writeEvent(event)
		}
	}
}

// writeEvent persists an event to the store.
func (l *Logger) writeEvent(event *Event) {
	if l.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.config.WriteTimeout)
	defer cancel()

	if err := l.store.Save(ctx, event); err != nil {
		logging.Error().Err(err).Str("event_id", event.ID).Msg("Failed to save security event")
	}
}

// Append records an event. ID, timestamp and severity are filled in when
// unset. The event must not be modified after Append returns.
func (l *Logger) Append(event *Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Severity == "" {
		event.Severity = event.Kind.DefaultSeverity()
	}

	l.mu.Lock()
	l.recent[l.next] = *event
	l.next = (l.next + 1) % len(l.recent)
	if l.count < len(l.recent) {
		l.count++
	}
	publisher := l.publisher
	l.mu.Unlock()

	metrics.RecordSecurityEvent(string(event.Kind))

	if publisher != nil {
		publisher.PublishEvent(event)
	}

	select {
	case <-l.stopChan:
		return
	default:
	}

	select {
	case l.eventChan <- event:
	default:
		metrics.SecurityEventsDropped.Inc()
		logging.Warn().Str("event_id", event.ID).Msg("Security event buffer full, dropping persistence")
	}
}

// Recent returns up to n of the most recent events, newest first.
func (l *Logger) Recent(n int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || n > l.count {
		n = l.count
	}
	out := make([]Event, 0, n)
	idx := l.next
	for i := 0; i < n; i++ {
		idx = (idx - 1 + len(l.recent)) % len(l.recent)
		out = append(out, l.recent[idx])
	}
	return out
}

// Query retrieves events matching the filter, newest first. Without a store
// only the recent ring is searched.
func (l *Logger) Query(ctx context.Context, filter Filter) ([]Event, error) {
	if l.store != nil {
		return l.store.Query(ctx, filter)
	}

	results := make([]Event, 0)
	for _, e := range l.Recent(0) {
		e := e
		if !filter.matches(&e) {
			continue
		}
		results = append(results, e)
		if filter.Limit > 0 && len(results) >= filter.Limit {
			break
		}
	}
	return results, nil
}

// Store returns the backing store, which may be nil.
func (l *Logger) Store() Store {
	return l.store
}

// Close flushes buffered events and stops the writer.
func (l *Logger) Close() error {
	l.closeOnce.Do(func() {
		close(l.stopChan)
		l.wg.Wait()
	})
	return nil
}
