package sideeffect

import "github.com/voltastudio/volta-backend/internal/platform/logger"

// Run executes a best-effort bookkeeping side effect. Failures are logged and
// swallowed so they can never fail the primary operation. Every
// non-authoritative write in the asset lifecycle (activity bumps, usage
// counters, analytics, notifications) goes through here, which keeps the
// swallow policy auditable in one place.
func Run(log *logger.Logger, name string, fn func() error) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil && log != nil {
			log.Error("Side effect panicked", "side_effect", name, "panic", r)
		}
	}()
	if err := fn(); err != nil && log != nil {
		log.Warn("Side effect failed", "side_effect", name, "error", err)
	}
}

// Go runs the side effect on its own goroutine with the same swallow policy.
func Go(log *logger.Logger, name string, fn func() error) {
	go Run(log, name, fn)
}
