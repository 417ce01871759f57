// Package lock provides short-lived keyed mutual exclusion. Commits take a
// lock per order so concurrent retries of the same checkout queue up instead
// of racing through the ledger.
package lock

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotObtained is returned when a lock could not be acquired before the
// retry budget or the context ran out.
var ErrNotObtained = errors.New("lock not obtained")

// ErrUnavailable is returned when the lock backend could not be reached.
var ErrUnavailable = errors.New("lock backend unavailable")

// Lock is a held lock.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker obtains locks by key.
type Locker interface {
	Obtain(ctx context.Context, key string) (Lock, error)
}

// WithLock runs fn while holding the lock for key. Release failures are
// reported only when fn itself succeeded.
func WithLock(ctx context.Context, l Locker, key string, fn func(ctx context.Context) error) (err error) {
	held, err := l.Obtain(ctx, key)
	if err != nil {
		return fmt.Errorf("obtain lock %s: %w", key, err)
	}
	defer func() {
		if rerr := held.Release(context.WithoutCancel(ctx)); rerr != nil && err == nil {
			err = fmt.Errorf("release lock %s: %w", key, rerr)
		}
	}()

	return fn(ctx)
}

// FailOpen returns a Locker that proceeds without the lock when next
// reports ErrUnavailable. onUnavailable, when set, is told about each such
// failure. Contention still surfaces as ErrNotObtained.
func FailOpen(next Locker, onUnavailable func(ctx context.Context, key string, err error)) Locker {
	return failOpen{next: next, onUnavailable: onUnavailable}
}

type failOpen struct {
	next          Locker
	onUnavailable func(ctx context.Context, key string, err error)
}

func (f failOpen) Obtain(ctx context.Context, key string) (Lock, error) {
	held, err := f.next.Obtain(ctx, key)
	if errors.Is(err, ErrUnavailable) {
		if f.onUnavailable != nil {
			f.onUnavailable(ctx, key, err)
		}
		return noopLock{}, nil
	}
	return held, err
}

type noopLock struct{}

func (noopLock) Release(context.Context) error { return nil }
