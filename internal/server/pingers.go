package server

import (
	"context"
	"fmt"
)

// pingFunc is any dependency client that can check its connection:
// *docstore.Mongo, *docstore.QdrantStore and *store.SQLiteStore.
type pingFunc interface {
	Ping(ctx context.Context) error
}

// healthChecker is a provider client with a zero-cost health endpoint, such
// as the embedding backends.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// depPinger adapts a dependency client to Pinger under a fixed name.
type depPinger struct {
	name  string
	check func(ctx context.Context) error
}

// NewPinger wraps a client exposing Ping(ctx) as a named Pinger.
func NewPinger(name string, p pingFunc) Pinger {
	return &depPinger{name: name, check: p.Ping}
}

// NewHealthCheckPinger wraps a client exposing HealthCheck(ctx) as a named
// Pinger. Used for model providers so readiness never spends tokens.
func NewHealthCheckPinger(name string, hc healthChecker) Pinger {
	return &depPinger{name: name, check: hc.HealthCheck}
}

// Name returns the dependency label used in readiness responses.
func (p *depPinger) Name() string { return p.name }

// Ping runs the wrapped check.
func (p *depPinger) Ping(ctx context.Context) error {
	if err := p.check(ctx); err != nil {
		return fmt.Errorf("%s health check failed: %w", p.name, err)
	}
	return nil
}
