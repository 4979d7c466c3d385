// Package session provides access to the volatile chat session cache: a
// key/value store with per-key TTL holding raw conversation payloads
// written by the inbound chat webhook.
package session

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when a session key does not exist (or has been
// purged by TTL expiry).
var ErrNotFound = eris.New("session: key not found")

// KeyPrefix marks chat session keys in the store.
const KeyPrefix = "chat:"

// Store is the session cache interface consumed by the pipeline.
type Store interface {
	// ScanKeys lists all unconsumed chat session keys.
	ScanKeys(ctx context.Context) ([]string, error)

	// TTL returns the remaining lifetime of a key in seconds. The value is
	// negative when the key has expired but not yet been purged.
	TTL(ctx context.Context, key string) (int, error)

	// Get returns the raw stored payload for a key.
	Get(ctx context.Context, key string) (string, error)

	// Put stores a payload under key with the given TTL. Used by the
	// inbound webhook and by tests.
	Put(ctx context.Context, key, payload string, ttl time.Duration) error

	// MarkProcessed marks a session consumed so later runs skip it. The
	// key is kept briefly with a short TTL rather than deleted outright.
	MarkProcessed(ctx context.Context, key string) error

	// AcquireRunLock takes the named short-TTL run lock. Returns false
	// when another invocation currently holds it.
	AcquireRunLock(ctx context.Context, name string, ttl time.Duration) (bool, error)

	// ReleaseRunLock drops the named run lock.
	ReleaseRunLock(ctx context.Context, name string) error

	Close() error
}
