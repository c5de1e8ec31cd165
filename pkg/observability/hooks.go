// Package observability provides hooks for metrics and tracing of
// resolution passes.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends to the resolver. The
// resolver emits events through [ResolveHooks]; main registers an
// implementation at startup, or passes one per call through the resolver
// options.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetResolveHooks(observability.NewMetrics(prometheus.DefaultRegisterer))
//	    // ... run application
//	}
//
// The resolver calls hooks to emit events:
//
//	observability.Resolve().OnResolveStart(path)
//	// ... resolve ...
//	observability.Resolve().OnResolveComplete(path, observability.Result{...}, duration, err)
package observability

import (
	"sync"
	"time"
)

// =============================================================================
// Resolve Hooks
// =============================================================================

// Result summarizes a finished resolution pass.
type Result struct {
	Virtual      bool // Workspace-only document
	Dependencies int  // Resolved direct dependencies
	Warnings     int  // Ordinary warnings
	Critical     int  // Critical warnings
}

// ResolveHooks receives events from manifest resolution. Implementations
// must be safe for concurrent use: independent passes may run in parallel.
type ResolveHooks interface {
	// OnResolveStart records the start of a pass over one manifest.
	OnResolveStart(path string)

	// OnResolveComplete records the end of a pass.
	OnResolveComplete(path string, res Result, duration time.Duration, err error)

	// OnWorkspaceLoad records a read of a workspace root manifest.
	OnWorkspaceLoad(path string, duration time.Duration, err error)

	// OnDependency records one resolved dependency by kind and source kind.
	OnDependency(kind, source string)
}

// =============================================================================
// No-op Implementation
// =============================================================================

// NoopResolveHooks is a no-op implementation of ResolveHooks.
type NoopResolveHooks struct{}

func (NoopResolveHooks) OnResolveStart(string)                                  {}
func (NoopResolveHooks) OnResolveComplete(string, Result, time.Duration, error) {}
func (NoopResolveHooks) OnWorkspaceLoad(string, time.Duration, error)           {}
func (NoopResolveHooks) OnDependency(string, string)                            {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	resolveHooks ResolveHooks = NoopResolveHooks{}
	hooksMu      sync.RWMutex
)

// SetResolveHooks registers custom resolve hooks.
// This should be called once at application startup before any resolution.
func SetResolveHooks(h ResolveHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resolveHooks = h
	}
}

// Resolve returns the registered resolve hooks.
func Resolve() ResolveHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resolveHooks
}

// Reset restores the hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	resolveHooks = NoopResolveHooks{}
}
