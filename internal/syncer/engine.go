// Package syncer orchestrates one synchronization cycle per call: pull local
// data, fetch the remote document, reconcile, write the merge back locally
// and push it when it carries local changes. One engine instance serves one
// domain; overlapping cycles are rejected, not queued.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vanastassiou/seneschal/internal/merge"
	"github.com/vanastassiou/seneschal/internal/utils"
)

// Precondition messages returned by Sync without a status change. Callers
// poll these as normal states, so they are values, not errors.
const (
	msgAlreadySyncing     = "sync already in progress"
	msgNotConnected       = "not connected to a sync provider"
	msgNoFolderConfigured = "no sync folder configured"
)

// Listener receives every status transition, in registration order.
type Listener func(status Status, lastError string)

type listenerEntry struct {
	id string
	fn Listener
}

// Options configures an Engine. Zero values pick the kv-backed last-sync
// store, an interface-based connectivity probe and the wall clock.
type Options struct {
	LastSync   LastSyncStore
	HasNetwork func() bool
	Now        func() time.Time
}

// Engine drives synchronization for one domain.
type Engine struct {
	domain     string
	provider   RemoteProvider
	local      LocalAccessor
	lastSync   LastSyncStore
	hasNetwork func() bool
	now        func() time.Time

	mu        sync.Mutex
	syncing   bool
	status    Status
	lastErr   string
	listeners []listenerEntry
}

// New creates an Engine. lastSyncStore in opts may be nil only if the callers
// never read LastSync; pass NewKVLastSync for the default behavior.
func New(domain string, provider RemoteProvider, local LocalAccessor, opts *Options) *Engine {
	if opts == nil {
		opts = &Options{}
	}

	hasNetwork := opts.HasNetwork
	if hasNetwork == nil {
		hasNetwork = utils.HasNetwork
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{
		domain:     domain,
		provider:   provider,
		local:      local,
		lastSync:   opts.LastSync,
		hasNetwork: hasNetwork,
		now:        now,
		status:     StatusIdle,
	}
}

// CanSync is a cheap, non-blocking precondition check: network present,
// provider authenticated, folder configured.
func (e *Engine) CanSync() bool {
	return e.hasNetwork() && e.provider.IsConnected() && e.provider.IsFolderConfigured()
}

// Sync runs one synchronization cycle. Precondition failures return a
// distinct message each and leave status untouched. Mid-cycle failures land
// in StatusError with the message recorded; no code path leaves the engine
// at StatusSyncing or lets an error escape.
func (e *Engine) Sync(ctx context.Context) Result {
	e.mu.Lock()
	if e.syncing {
		e.mu.Unlock()
		return Result{Success: false, Error: msgAlreadySyncing}
	}
	if !e.provider.IsConnected() {
		e.mu.Unlock()
		return Result{Success: false, Error: msgNotConnected}
	}
	if !e.provider.IsFolderConfigured() {
		e.mu.Unlock()
		return Result{Success: false, Error: msgNoFolderConfigured}
	}
	e.syncing = true
	e.status = StatusSyncing
	e.lastErr = ""
	e.mu.Unlock()
	e.notify()

	slog.Info("sync cycle starting", "domain", e.domain)
	err := e.runCycle(ctx)

	e.mu.Lock()
	e.syncing = false
	if err != nil {
		e.status = StatusError
		e.lastErr = err.Error()
	} else {
		e.status = StatusIdle
	}
	e.mu.Unlock()
	e.notify()

	if err != nil {
		slog.Error("sync cycle failed", "domain", e.domain, "error", err)
		return Result{Success: false, Error: err.Error()}
	}

	slog.Info("sync cycle completed", "domain", e.domain)
	return Result{Success: true}
}

func (e *Engine) runCycle(ctx context.Context) error {
	local, err := e.local.GetLocalData(ctx)
	if err != nil {
		return fmt.Errorf("read local data: %w", err)
	}

	if e.lastSync != nil {
		if last, err := e.lastSync.LastSync(e.domain); err == nil && last != "" {
			slog.Debug("last successful sync", "domain", e.domain, "at", last)
		}
	}

	remote, _, err := e.provider.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch remote data: %w", err)
	}

	res := merge.Reconcile(local, remote)

	if err := e.local.SetLocalData(ctx, res.Merged); err != nil {
		return fmt.Errorf("write local data: %w", err)
	}

	if res.HasLocalChanges {
		if err := e.provider.Push(ctx, res.Merged); err != nil {
			return fmt.Errorf("push remote data: %w", err)
		}
	}

	if e.lastSync != nil {
		ts := e.now().UTC().Format(time.RFC3339)
		if err := e.lastSync.SetLastSync(e.domain, ts); err != nil {
			return fmt.Errorf("record last sync: %w", err)
		}
	}

	return nil
}

// OnStatusChange registers a listener and returns its disposer. Listeners
// fire in registration order and never after the disposer runs.
func (e *Engine) OnStatusChange(fn Listener) func() {
	id := uuid.NewString()

	e.mu.Lock()
	e.listeners = append(e.listeners, listenerEntry{id: id, fn: fn})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, entry := range e.listeners {
			if entry.id == id {
				e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
				return
			}
		}
	}
}

// Status returns the current session state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Err returns the last error message, or "" when the last cycle succeeded.
func (e *Engine) Err() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// LastSync returns the persisted timestamp of the last successful sync.
func (e *Engine) LastSync() (string, error) {
	if e.lastSync == nil {
		return "", nil
	}
	return e.lastSync.LastSync(e.domain)
}

// notify calls every listener outside the lock, in registration order.
func (e *Engine) notify() {
	e.mu.Lock()
	status := e.status
	lastErr := e.lastErr
	snapshot := make([]listenerEntry, len(e.listeners))
	copy(snapshot, e.listeners)
	e.mu.Unlock()

	for _, entry := range snapshot {
		entry.fn(status, lastErr)
	}
}
