package syncer

import "context"

// Status is the engine's session state. Every pass through Sync terminates in
// StatusIdle or StatusError; it is never left at StatusSyncing.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusError   Status = "error"
)

// Result is the outcome of one Sync call. Precondition failures and mid-cycle
// errors both land here; Sync never panics and never propagates an error.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RemoteProvider is the slice of the storage provider the engine consumes.
// Satisfied by *gdrive.Provider.
type RemoteProvider interface {
	IsConnected() bool
	IsFolderConfigured() bool
	Fetch(ctx context.Context) (data any, lastModified string, err error)
	Push(ctx context.Context, data any) error
}

// LocalAccessor is the caller-supplied bridge to the application's own record
// store. The snapshot shape must be stable across calls within one domain.
type LocalAccessor interface {
	GetLocalData(ctx context.Context) (any, error)
	SetLocalData(ctx context.Context, data any) error
}

// LocalAccessorFuncs adapts a pair of functions to LocalAccessor.
type LocalAccessorFuncs struct {
	Get func(ctx context.Context) (any, error)
	Set func(ctx context.Context, data any) error
}

var _ LocalAccessor = (*LocalAccessorFuncs)(nil)

func (f *LocalAccessorFuncs) GetLocalData(ctx context.Context) (any, error) {
	return f.Get(ctx)
}

func (f *LocalAccessorFuncs) SetLocalData(ctx context.Context, data any) error {
	return f.Set(ctx, data)
}

// LastSyncStore persists the per-domain timestamp of the last successful
// sync. It is pluggable so hosts with their own settings store can supply
// one; the default is backed by the shared key-value store.
type LastSyncStore interface {
	LastSync(domain string) (string, error) // RFC3339, or "" when never synced
	SetLastSync(domain, ts string) error
}
