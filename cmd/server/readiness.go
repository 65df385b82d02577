package main

import (
	"context"
	"sync"
)

// readiness aggregates the checks of the components that are enabled.
// With no checks registered the service is ready as soon as it listens.
type readiness struct {
	mu     sync.Mutex
	checks []func(ctx context.Context) error
}

func (r *readiness) add(check func(ctx context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks = append(r.checks, check)
}

func (r *readiness) CheckReadiness(ctx context.Context) error {
	r.mu.Lock()
	checks := append([]func(context.Context) error(nil), r.checks...)
	r.mu.Unlock()

	for _, check := range checks {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}
