// Package engine runs one serialized action loop per table. Each loop
// dequeues a client intent, applies it to the hand FSM under a cross-process
// table lock, then persists and fans out the results. The FSM is never
// invoked concurrently for a given table; engines for different tables run
// independently.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/dealerd/internal/game"
)

// DefaultLockLease bounds how long a crashed node can hold a table lock.
const DefaultLockLease = 5 * time.Second

// Engine owns the action queue and FSM for one table.
type Engine struct {
	tableID string
	fsm     *game.FSM
	seq     uint64

	cache  Cache
	bus    Bus
	audit  Audit
	locker Locker
	hub    Broadcaster

	lease  time.Duration
	clock  quartz.Clock
	logger *log.Logger

	mu      sync.Mutex
	pending []game.Action
	closed  bool
	wake    chan struct{}
}

// New creates an engine around an existing FSM and its collaborator ports.
func New(tableID string, fsm *game.FSM, cache Cache, bus Bus, audit Audit, locker Locker, hub Broadcaster, clock quartz.Clock, logger *log.Logger) *Engine {
	return &Engine{
		tableID: tableID,
		fsm:     fsm,
		cache:   cache,
		bus:     bus,
		audit:   audit,
		locker:  locker,
		hub:     hub,
		lease:   DefaultLockLease,
		clock:   clock,
		logger:  logger.WithPrefix("engine").With("table", tableID),
		wake:    make(chan struct{}, 1),
	}
}

// Enqueue appends an action to the table's FIFO queue. The queue is
// unbounded; enqueueing never blocks the caller.
func (e *Engine) Enqueue(a game.Action) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.pending = append(e.pending, a)
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Close stops the queue. The loop finishes the in-flight action, drains what
// was already enqueued, then exits.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Seq returns the number of events published so far for this table.
func (e *Engine) Seq() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq
}

// Run processes the queue until the context is cancelled or the queue is
// closed and drained.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("engine started")
	for {
		a, ok := e.dequeue()
		if ok {
			e.process(ctx, a)
			continue
		}

		e.mu.Lock()
		closed := e.closed
		e.mu.Unlock()
		if closed {
			e.logger.Info("engine stopped")
			return
		}

		select {
		case <-e.wake:
		case <-ctx.Done():
			e.logger.Info("engine stopped", "reason", ctx.Err())
			return
		}
	}
}

func (e *Engine) dequeue() (game.Action, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.pending) == 0 {
		return game.Action{}, false
	}
	a := e.pending[0]
	e.pending = e.pending[1:]
	return a, true
}

// process applies one action under the table lock and fans out the results.
// Collaborator failures are logged and swallowed; only the FSM transition is
// allowed to decide the table's fate.
func (e *Engine) process(ctx context.Context, a game.Action) {
	start := e.clock.Now()

	// Give up on a contended lock after one lease; by then any crashed
	// holder's lease has expired, so waiting longer only stalls the queue.
	lockCtx, cancel := context.WithCancel(ctx)
	timer := e.clock.AfterFunc(e.lease, cancel)
	release, err := e.locker.Acquire(lockCtx, "table-lock:"+e.tableID, e.lease)
	timer.Stop()
	cancel()
	if err != nil {
		e.logger.Error("failed to acquire table lock, dropping action", "error", err, "action", a.Kind)
		return
	}
	defer release()

	events, res := e.applyRecovering(a)
	if !res.Accepted {
		e.logger.Debug("action ignored", "action", a.Kind, "player", a.PlayerID, "reason", res.Reason)
	}
	if len(events) == 0 {
		return
	}

	payloads := make([]any, 0, len(events))
	for _, ev := range events {
		if data, err := ev.JSON(); err == nil {
			if err := e.bus.Publish(fmt.Sprintf("table.%s.events", e.tableID), data); err != nil {
				e.logger.Warn("bus publish failed", "error", err, "event", ev.Type)
			}
		} else {
			e.logger.Warn("failed to encode event", "error", err, "event", ev.Type)
		}
		payloads = append(payloads, ev.Payload)

		e.mu.Lock()
		e.seq++
		e.mu.Unlock()
	}

	snapshot, err := e.fsm.State().Snapshot()
	if err != nil {
		e.logger.Error("failed to encode state snapshot", "error", err)
	} else if err := e.cache.HSet(ctx, "table:"+e.tableID+":state", map[string]string{"data": string(snapshot)}); err != nil {
		e.logger.Warn("cache write failed", "error", err)
	}

	update, err := json.Marshal(UpdateEnvelope{
		Type:    "update",
		TableID: e.tableID,
		Seq:     e.Seq(),
		State:   snapshot,
		Events:  payloads,
	})
	if err != nil {
		e.logger.Error("failed to encode update", "error", err)
	} else {
		e.hub.Broadcast(e.tableID, update)
	}

	for _, rec := range e.fsm.TakeHandRecords() {
		eventsJSON, err := json.Marshal(eventPayloads(rec.Events))
		if err != nil {
			e.logger.Error("failed to encode audit events", "error", err, "hand", rec.HandID)
			continue
		}
		if err := e.audit.LogHand(ctx, rec.TableID, rec.HandID, rec.Seed, rec.Secret, rec.Commitment, eventsJSON); err != nil {
			e.logger.Error("audit write failed", "error", err, "hand", rec.HandID)
		}
	}

	e.logger.Debug("action processed", "action", a.Kind, "events", len(events), "dur", e.clock.Since(start))
}

// applyRecovering shields the loop from FSM bugs: a panic drops the action
// and the engine keeps serving.
func (e *Engine) applyRecovering(a game.Action) (events []game.Event, res game.Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("fsm panicked, dropping action", "panic", r, "action", a.Kind, "player", a.PlayerID)
			events = nil
			res = game.Result{Reason: "internal error"}
		}
	}()
	return e.fsm.Apply(a)
}

// UpdateEnvelope is the consolidated message pushed to subscribed sockets
// after each processed action. Events carries the bare event payloads; typed
// events go out on the bus.
type UpdateEnvelope struct {
	Type    string          `json:"type"`
	TableID string          `json:"table_id"`
	Seq     uint64          `json:"seq"`
	State   json.RawMessage `json:"state"`
	Events  []any           `json:"events"`
}

func eventPayloads(events []game.Event) []any {
	payloads := make([]any, len(events))
	for i, ev := range events {
		payloads[i] = ev.Payload
	}
	return payloads
}
