package sessions

import (
	"context"
	"sync"
	"time"
)

// HookEventType enumerates lifecycle events hooks can subscribe to.
type HookEventType string

const (
	HookEventSignup         HookEventType = "session.signup"
	HookEventLogin          HookEventType = "session.login"
	HookEventLogout         HookEventType = "session.logout"
	HookEventPasswordChange HookEventType = "session.password.change"
	HookEventPasswordReset  HookEventType = "session.password.reset"
)

// HookEvent describes a completed lifecycle event. The User is sanitized.
type HookEvent struct {
	EventType  HookEventType
	User       *User
	Metadata   map[string]any
	OccurredAt time.Time
}

// Hook consumes lifecycle events after the response is dispatched. Hooks run
// best-effort: failures are logged and never reach the original caller.
type Hook interface {
	Execute(ctx context.Context, event HookEvent) error
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(ctx context.Context, event HookEvent) error

// Execute implements Hook.
func (f HookFunc) Execute(ctx context.Context, event HookEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopHook struct{}

func (noopHook) Execute(context.Context, HookEvent) error {
	return nil
}

func normalizeHook(h Hook) Hook {
	if h == nil {
		return noopHook{}
	}
	return h
}

// DefaultHookTimeout bounds each hook invocation so a stuck continuation
// cannot pile up goroutines.
const DefaultHookTimeout = 30 * time.Second

// HookRunner dispatches events to registered hooks on detached goroutines.
// Dispatch returns immediately; execution happens after the caller moves on,
// outside the request's cancellation scope, with panics contained. Delivery
// is at most once: nothing re-runs a hook lost to process termination.
type HookRunner struct {
	mu      sync.RWMutex
	hooks   map[HookEventType][]Hook
	timeout time.Duration
	logger  Logger
	wg      sync.WaitGroup
}

type HookRunnerOption func(*HookRunner)

// WithHookTimeout overrides the per-invocation bound.
func WithHookTimeout(d time.Duration) HookRunnerOption {
	return func(r *HookRunner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithHookLogger overrides the runner logger.
func WithHookLogger(l Logger) HookRunnerOption {
	return func(r *HookRunner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewHookRunner creates a runner
func NewHookRunner(opts ...HookRunnerOption) *HookRunner {
	r := &HookRunner{
		hooks:   map[HookEventType][]Hook{},
		timeout: DefaultHookTimeout,
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// On registers a hook for an event type.
func (r *HookRunner) On(eventType HookEventType, h Hook) *HookRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[eventType] = append(r.hooks[eventType], normalizeHook(h))
	return r
}

// Dispatch schedules every hook registered for the event. The provided
// context is only consulted for values; cancellation of the originating
// request does not cancel hook execution.
func (r *HookRunner) Dispatch(ctx context.Context, event HookEvent) {
	r.mu.RLock()
	hooks := append([]Hook(nil), r.hooks[event.EventType]...)
	r.mu.RUnlock()

	if len(hooks) == 0 {
		return
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	detached := context.WithoutCancel(ctx)

	for _, h := range hooks {
		r.wg.Add(1)
		go r.run(detached, h, event)
	}
}

func (r *HookRunner) run(ctx context.Context, h Hook, event HookEvent) {
	defer r.wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("continuation hook panicked", "event", event.EventType, "panic", rec)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := h.Execute(ctx, event); err != nil {
		r.logger.Warn("continuation hook failed", "event", event.EventType, "error", err)
	}
}

// Wait blocks until all in-flight hooks finish. Intended for tests and
// graceful shutdown.
func (r *HookRunner) Wait() {
	r.wg.Wait()
}
