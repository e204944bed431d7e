package events

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
)

// LogSink writes each event as a structured log line.
type LogSink struct {
	Logger *slog.Logger
	Level  slog.Level
}

// Record implements Sink.
func (s LogSink) Record(ev Event) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Log(context.Background(), s.Level, ev.Description,
		"tick", ev.Tick,
		"category", string(ev.Category),
		"cell", ev.Cell,
	)
	return nil
}

// MemorySink keeps events in memory.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// Record implements Sink.
func (s *MemorySink) Record(ev Event) error {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	return nil
}

// Events returns a copy of everything recorded so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}

// Count returns how many events of cat were recorded.
func (s *MemorySink) Count(cat Category) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ev := range s.events {
		if ev.Category == cat {
			n++
		}
	}
	return n
}

// Tee fans each event out to every sink and joins their errors.
type Tee []Sink

// Record implements Sink.
func (t Tee) Record(ev Event) error {
	var errs []error
	for _, s := range t {
		if s == nil {
			continue
		}
		if err := s.Record(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
