package engine

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/dealerd/internal/game"
)

// Registry is the process-wide map from table ID to running engine. In a
// multi-node deployment it is only authoritative for tables this node owns.
type Registry struct {
	cache  Cache
	bus    Bus
	audit  Audit
	locker Locker
	hub    Broadcaster
	clock  quartz.Clock
	logger *log.Logger
	opts   []game.Option

	mu      sync.Mutex
	engines map[string]*Engine
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewRegistry creates a registry; engines it spawns share the given ports.
// The game options are applied to every table's FSM (blinds, default buyin).
func NewRegistry(cache Cache, bus Bus, audit Audit, locker Locker, hub Broadcaster, logger *log.Logger, opts ...game.Option) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		cache:   cache,
		bus:     bus,
		audit:   audit,
		locker:  locker,
		hub:     hub,
		clock:   quartz.NewReal(),
		logger:  logger,
		opts:    opts,
		engines: make(map[string]*Engine),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Get returns the engine for a table, creating and starting it on first use.
func (r *Registry) Get(tableID string) *Engine {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.engines[tableID]; ok {
		return e
	}

	fsm := game.NewFSM(tableID, r.logger, r.opts...)
	e := New(tableID, fsm, r.cache, r.bus, r.audit, r.locker, r.hub, r.clock, r.logger)
	r.engines[tableID] = e

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		e.Run(r.ctx)
	}()

	return e
}

// Close stops every engine cooperatively: queues are closed, in-flight
// actions finish, loops exit.
func (r *Registry) Close() {
	r.mu.Lock()
	for _, e := range r.engines {
		e.Close()
	}
	r.mu.Unlock()

	r.wg.Wait()
	r.cancel()
}
