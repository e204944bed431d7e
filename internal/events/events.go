// Package events carries notable state transitions out of the simulation
// without ever blocking a tick.
package events

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Category names the kind of transition an event records.
type Category string

const (
	Settlement Category = "settlement"
	TierUp     Category = "tier"
	Building   Category = "building"
	Conquest   Category = "conquest"
	Raid       Category = "raid"
	War        Category = "war"
	Extinct    Category = "extinct"
	Anomaly    Category = "anomaly"
)

// Event is one recorded transition. Cell is -1 for world-wide events.
type Event struct {
	Tick        uint64   `db:"tick"`
	Category    Category `db:"category"`
	Cell        int      `db:"cell"`
	Description string   `db:"description"`
}

// Sink is an append-only event store.
type Sink interface {
	Record(Event) error
}

// DefaultBuffer is the emitter queue length used when none is given.
const DefaultBuffer = 1024

// Emitter forwards events to a sink from a single background goroutine. Emit
// never blocks: when the queue is full the event is dropped and counted.
// A nil *Emitter accepts and discards everything.
type Emitter struct {
	sink Sink
	log  *slog.Logger

	mu     sync.RWMutex
	closed bool
	ch     chan Event
	done   chan struct{}

	emitted atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewEmitter starts the drain goroutine. A nil sink yields a nil emitter.
func NewEmitter(sink Sink, buffer int, logger *slog.Logger) *Emitter {
	if sink == nil {
		return nil
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Emitter{
		sink: sink,
		log:  logger,
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}
	go e.drain()
	return e
}

func (e *Emitter) drain() {
	defer close(e.done)
	for ev := range e.ch {
		if err := e.sink.Record(ev); err != nil {
			if e.failed.Add(1) == 1 {
				e.log.Warn("event sink failed", "category", ev.Category, "err", err)
			}
		}
	}
}

// Emit queues ev for the sink.
func (e *Emitter) Emit(ev Event) {
	if e == nil {
		return
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		e.dropped.Add(1)
		return
	}
	select {
	case e.ch <- ev:
		e.emitted.Add(1)
	default:
		e.dropped.Add(1)
	}
}

// Emitf formats the description and queues the event.
func (e *Emitter) Emitf(tick uint64, cat Category, cell int, format string, args ...any) {
	if e == nil {
		return
	}
	e.Emit(Event{Tick: tick, Category: cat, Cell: cell, Description: fmt.Sprintf(format, args...)})
}

// Close stops accepting events and waits for the queue to drain.
func (e *Emitter) Close() {
	if e == nil {
		return
	}
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
	e.mu.Unlock()
	<-e.done
}

// Emitted returns how many events were queued.
func (e *Emitter) Emitted() uint64 {
	if e == nil {
		return 0
	}
	return e.emitted.Load()
}

// Dropped returns how many events were discarded because the queue was full
// or the emitter was closed.
func (e *Emitter) Dropped() uint64 {
	if e == nil {
		return 0
	}
	return e.dropped.Load()
}

// Failed returns how many events the sink rejected.
func (e *Emitter) Failed() uint64 {
	if e == nil {
		return 0
	}
	return e.failed.Load()
}
