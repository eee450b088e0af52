package engine

import (
	"context"
	"time"
)

// Cache stores hot state snapshots under table:{id}:state.
type Cache interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGet(ctx context.Context, key, field string) (value string, ok bool, err error)
}

// Bus distributes events to subscribers, best-effort. Publish failures must
// never block game progression.
type Bus interface {
	Publish(subject string, data []byte) error
}

// Audit durably records completed hands for after-the-fact verification.
type Audit interface {
	LogHand(ctx context.Context, tableID, handID, seed, secret, commitment string, eventsJSON []byte) error
}

// Locker provides named cross-process exclusive locks with a finite lease so
// a crashed holder cannot deadlock other nodes.
type Locker interface {
	Acquire(ctx context.Context, name string, lease time.Duration) (release func(), err error)
}

// Broadcaster fans a message out to every socket subscribed to a table.
type Broadcaster interface {
	Broadcast(tableID string, message []byte)
}
