package toolchain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	errUtils "github.com/cloudposse/rustdn/errors"
	"github.com/cloudposse/rustdn/pkg/filelock"
	"github.com/cloudposse/rustdn/pkg/filesystem"
	log "github.com/cloudposse/rustdn/pkg/logger"
)

// DeadlockBackoff is how long a process that lost an upgrade race waits
// before checking the entry again.
const DeadlockBackoff = 100 * time.Millisecond

// Resolver turns overrides into built toolchains under a cache root. Any
// number of processes may resolve the same override concurrently; at most
// one of them builds at a time and the others reuse its result.
type Resolver struct {
	root    string
	builder Builder
	backoff time.Duration
	sleep   func(time.Duration)
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithBackoff sets the wait after a lost upgrade race.
func WithBackoff(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.backoff = d
	}
}

// NewResolver returns a Resolver building missing toolchains with builder.
func NewResolver(root string, builder Builder, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		root:    root,
		builder: builder,
		backoff: DeadlockBackoff,
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the cache root.
func (r *Resolver) Root() string {
	return r.root
}

// Entry returns the cache entry of o.
func (r *Resolver) Entry(o Override) Entry {
	return NewEntry(r.root, o)
}

// outcome of one pass over an entry.
type outcome int

const (
	// The artifact can be used.
	outcomeDone outcome = iota
	// Another process won the upgrade race; back off and check again.
	outcomeBackoff
	// Check again right away: the entry was committed, or the marker was
	// replaced while we waited for it.
	outcomeRecheck
)

func (o outcome) String() string {
	switch o {
	case outcomeDone:
		return "done"
	case outcomeBackoff:
		return "backoff"
	default:
		return "recheck"
	}
}

// Resolve returns the path of a toolchain satisfying o, building it first
// when the cached one is missing or cannot be trusted.
//
// ctx only bounds the builder. Waiting for a lock is not interruptible.
//
// A builder failure is returned as is, after the entry was purged, so its
// exit status reaches the caller. Other failures are internal and carry
// errUtils.ExitCodeInternal.
func (r *Resolver) Resolve(ctx context.Context, o Override) (string, error) {
	if err := o.Validate(); err != nil {
		return "", err
	}
	entry := r.Entry(o)
	log.Debug("Resolving toolchain", "override", o.String(), "entry", entry.Dir)

	for pass := 1; ; pass++ {
		next, err := r.pass(ctx, o, entry)
		if err != nil {
			return "", err
		}

		log.Trace("Resolve pass finished", "override", o.String(), "pass", pass, "outcome", next.String())

		switch next {
		case outcomeDone:
			return entry.ArtifactPath(), nil
		case outcomeBackoff:
			r.sleep(r.backoff)
		case outcomeRecheck:
		}
	}
}

// pass checks the entry under a shared lock and, when its artifact can't be
// used, upgrades and rebuilds it. All locks are released on return.
func (r *Resolver) pass(ctx context.Context, o Override, entry Entry) (outcome, error) {
	marker, err := entry.openMarker()
	if err != nil {
		return 0, errUtils.Internal(err)
	}
	defer marker.Close()

	shared, err := filelock.AcquireShared(marker)
	if err != nil {
		return 0, errUtils.Internal(err)
	}
	defer shared.Release()

	// A builder that failed removed the entry while we were waiting, so our
	// lock is on an orphaned marker. Start over on the new one.
	stale, err := markerStale(marker)
	if err != nil {
		return 0, err
	}
	if stale {
		return outcomeRecheck, nil
	}

	if entry.HasArtifact() {
		trusted, err := Trustworthy(entry, o, shared)
		if err != nil {
			return 0, errUtils.Internal(err)
		}
		if trusted {
			return outcomeDone, nil
		}
		log.Debug("Cached toolchain is not trusted", "override", o.String())
	}

	exclusive, err := filelock.Upgrade(shared)
	if errors.Is(err, errUtils.ErrLockDeadlock) {
		log.Debug("Lost lock upgrade race, backing off", "override", o.String(), "backoff", r.backoff)
		return outcomeBackoff, nil
	}
	if err != nil {
		return 0, errUtils.Internal(err)
	}
	defer exclusive.Release()

	if stale, err = markerStale(marker); err != nil {
		return 0, err
	}
	if stale {
		return outcomeRecheck, nil
	}

	return r.rebuild(ctx, o, entry, exclusive)
}

// rebuild runs the builder under the exclusive lock and commits the result.
func (r *Resolver) rebuild(ctx context.Context, o Override, entry Entry, lock *filelock.Lock[filelock.Exclusive]) (outcome, error) {
	log.Debug("Building toolchain", "override", o.String(), "entry", entry.Dir)

	if err := r.builder.Build(ctx, o, entry.Dir); err != nil {
		// Nothing from a failed build may survive for the next process.
		if purgeErr := entry.purge(); purgeErr != nil {
			log.Error("Failed to purge toolchain entry", "entry", entry.Dir, "error", purgeErr)
		}
		return 0, err
	}

	if !entry.HasArtifact() {
		if purgeErr := entry.purge(); purgeErr != nil {
			log.Error("Failed to purge toolchain entry", "entry", entry.Dir, "error", purgeErr)
		}
		return 0, errUtils.Build(errUtils.ErrBuildFailed).
			WithExplanationf("the builder succeeded but `%s` does not exist", entry.ArtifactPath()).
			WithContext("override", o.String()).
			WithExitCode(errUtils.ExitCodeInternal).
			Err()
	}

	recheck, err := Commit(entry, o, lock)
	if err != nil {
		return 0, errUtils.Internal(err)
	}
	if recheck {
		return outcomeRecheck, nil
	}
	return outcomeDone, nil
}

// markerStale reports whether marker was unlinked or replaced since it was
// opened.
func markerStale(marker *os.File) (bool, error) {
	linked, err := filesystem.StillLinked(marker)
	if err != nil {
		return false, errUtils.Internal(fmt.Errorf("%w: %s: %w", errUtils.ErrLockOpen, marker.Name(), err))
	}
	if !linked {
		log.Debug("Lock marker was replaced, starting over", "marker", marker.Name())
	}
	return !linked, nil
}
