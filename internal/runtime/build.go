package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/cellstack/cellstack/pkg/domain"
)

// Build performs the one-time, shape-dependent construction pass.
//
// Cells are built in order. A cell whose build record is already set is
// skipped, so building twice with the same shape never re-invokes a build
// hook. After each cell, its resolved output width becomes the feature
// width handed to the next cell; the batch width is carried through
// unchanged. The composite is marked built after the last cell.
//
// Once built, a call with a different feature width returns
// domain.ErrShapeMismatch; the same width is a no-op. A failed cell build
// leaves the composite partially built and is reported with the cell index.
func (c *Composite) Build(ctx context.Context, shape domain.InputShape) error {
	if shape.Batch <= 0 || shape.Features <= 0 {
		return &domain.ShapeError{Reason: fmt.Sprintf("input shape %s, widths must be positive", shape)}
	}
	if c.built {
		if shape.Features != c.builtFor.Features {
			return fmt.Errorf("built for %s, got %s: %w", c.builtFor, shape, domain.ErrShapeMismatch)
		}
		return nil
	}

	c.emitBuild(ctx, domain.EventBuildStart, -1, shape)
	c.logger.Debug("building stack", "cells", len(c.cells), "input_shape", shape.String())

	current := shape
	for i, cell := range c.cells {
		if !c.records[i].built {
			if b, ok := cell.(domain.Buildable); ok {
				if err := b.Build(current); err != nil {
					return fmt.Errorf("build cell %d (%s): %w", i, c.types[i], err)
				}
			}
			c.records[i] = buildRecord{built: true, shape: current}
			c.emitBuild(ctx, domain.EventCellBuild, i, current)
			c.logger.Debug("built cell", "index", i, "type", c.types[i], "input_shape", current.String())
		}

		width, err := domain.ResolveOutputSize(cell)
		if err != nil {
			return fmt.Errorf("resolve output size of cell %d (%s): %w", i, c.types[i], err)
		}
		current = domain.InputShape{Batch: current.Batch, Features: width}
	}

	c.built = true
	c.builtFor = shape
	c.emitBuild(ctx, domain.EventBuildEnd, -1, shape)
	return nil
}

// ensureBuilt triggers the build pass the first time an input of a given
// shape is processed.
func (c *Composite) ensureBuilt(ctx context.Context, shape domain.InputShape) error {
	if c.built && shape.Features == c.builtFor.Features {
		return nil
	}
	return c.Build(ctx, shape)
}

func (c *Composite) emitBuild(ctx context.Context, typ domain.EventType, index int, shape domain.InputShape) {
	var fn func(context.Context, *domain.BuildEvent)
	switch typ {
	case domain.EventBuildStart:
		fn = c.hooks.OnBuildStart
	case domain.EventCellBuild:
		fn = c.hooks.OnCellBuild
	case domain.EventBuildEnd:
		fn = c.hooks.OnBuildEnd
	}
	if fn == nil {
		return
	}
	ev := &domain.BuildEvent{
		EventBase:  domain.EventBase{Timestamp: time.Now(), Type: typ},
		CellIndex:  index,
		InputShape: shape,
	}
	if index >= 0 {
		ev.CellType = c.types[index]
	}
	fn(ctx, ev)
}
