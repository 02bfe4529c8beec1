// Package graphql exposes the sync service over a small GraphQL API.
package graphql

import (
	"context"
	"errors"

	"github.com/tournevent/invoicebridge/internal/syncer"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Runner is the part of the sync orchestrator the API needs.
type Runner interface {
	Run(ctx context.Context) (*syncer.Summary, error)
	LastSummary() *syncer.Summary
	Running() bool
}

// Resolver is the root resolver for the GraphQL schema.
// It holds dependencies needed by all resolvers.
type Resolver struct {
	Runner Runner
	Logger *otelzap.Logger
}

// NewResolver creates a new resolver with the given dependencies.
func NewResolver(runner Runner, logger *otelzap.Logger) *Resolver {
	return &Resolver{
		Runner: runner,
		Logger: logger,
	}
}

// Health resolves Query.health.
func (r *Resolver) Health(ctx context.Context) (map[string]any, error) {
	return map[string]any{
		"ok":      true,
		"running": r.Runner.Running(),
	}, nil
}

// LastRun resolves Query.lastRun.
func (r *Resolver) LastRun(ctx context.Context) (map[string]any, error) {
	return summaryToGraphQL(r.Runner.LastSummary()), nil
}

// SyncNow resolves Mutation.syncNow. A run-level abort is reported through
// the summary's error field, not as a GraphQL error.
func (r *Resolver) SyncNow(ctx context.Context) (map[string]any, error) {
	summary, err := r.Runner.Run(ctx)
	if err != nil && (summary == nil || !errors.Is(err, syncer.ErrRunAborted)) {
		r.Logger.Ctx(ctx).Warn("syncNow failed", zap.Error(err))
		return nil, err
	}
	return summaryToGraphQL(summary), nil
}
