// Package observability provides composition helpers for lifecycle hooks
// and a Prometheus metrics adapter driven by them.
package observability

import (
	"context"

	"github.com/cellstack/cellstack/pkg/domain"
)

// Combine fans a single hook set out to several listeners, in order.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnBuildStart: func(ctx context.Context, e *domain.BuildEvent) {
			for _, h := range hooks {
				if h.OnBuildStart != nil {
					h.OnBuildStart(ctx, e)
				}
			}
		},
		OnCellBuild: func(ctx context.Context, e *domain.BuildEvent) {
			for _, h := range hooks {
				if h.OnCellBuild != nil {
					h.OnCellBuild(ctx, e)
				}
			}
		},
		OnBuildEnd: func(ctx context.Context, e *domain.BuildEvent) {
			for _, h := range hooks {
				if h.OnBuildEnd != nil {
					h.OnBuildEnd(ctx, e)
				}
			}
		},
		OnCellStep: func(ctx context.Context, e *domain.StepEvent) {
			for _, h := range hooks {
				if h.OnCellStep != nil {
					h.OnCellStep(ctx, e)
				}
			}
		},
	}
}
