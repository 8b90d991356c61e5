// Package runtime implements the composite cell core: contract validation,
// one-time shape-dependent building, initial-state generation and per-step
// orchestration over an ordered sequence of cells.
package runtime

import (
	"fmt"
	"log/slog"

	"github.com/cellstack/cellstack/internal/logging"
	"github.com/cellstack/cellstack/pkg/domain"
	"github.com/cellstack/cellstack/pkg/tensor"
)

// buildRecord tracks the one-time build of a single cell.
type buildRecord struct {
	built bool
	shape domain.InputShape
}

// Composite chains an ordered sequence of cells into one logical cell.
// Execution order and state alignment follow the sequence order exactly.
type Composite struct {
	cells   []domain.Cell
	entries []stepFn
	types   []string
	records []buildRecord

	built    bool
	builtFor domain.InputShape

	name   string
	dtype  tensor.DType
	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// Option configures a Composite.
type Option func(*Composite)

// WithName sets a display name used in logs and the serialized config.
func WithName(name string) Option {
	return func(c *Composite) {
		c.name = name
	}
}

// WithDType sets the working precision used for zero-filled initial states.
func WithDType(dtype tensor.DType) Option {
	return func(c *Composite) {
		c.dtype = dtype
	}
}

// WithLogger sets a structured logger for the composite.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Composite) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability callbacks for build and step.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Composite) {
		c.hooks = hooks
	}
}

// New validates the candidate cells and assembles a composite.
//
// Validation is eager and happens exactly once: every candidate must be
// non-nil, expose a well-formed state shape, and resolve to a positive
// output width. A violation fails construction entirely; later calls can
// assume a valid contract. The per-cell entry point (training-aware or
// plain) is also resolved here, never re-dispatched per step.
func New(cells []domain.Cell, opts ...Option) (*Composite, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("composite needs at least one cell")
	}

	c := &Composite{
		cells:   cells,
		entries: make([]stepFn, len(cells)),
		types:   make([]string, len(cells)),
		records: make([]buildRecord, len(cells)),
		dtype:   tensor.Float32,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	for i, cell := range cells {
		if cell == nil {
			return nil, &domain.ContractViolationError{Index: i, Capability: "step operation"}
		}
		shape := cell.StateShape()
		if err := shape.Validate(); err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		if _, err := domain.ResolveOutputSize(cell); err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		c.entries[i] = resolveEntry(cell)
		c.types[i] = cellType(cell)
	}

	return c, nil
}

// Len returns the number of cells in the composite.
func (c *Composite) Len() int {
	return len(c.cells)
}

// Cells returns the ordered cell sequence. The slice must not be mutated.
func (c *Composite) Cells() []domain.Cell {
	return c.cells
}

// Name returns the composite's display name.
func (c *Composite) Name() string {
	return c.name
}

// DType returns the working precision used for zero-filled initial states.
func (c *Composite) DType() tensor.DType {
	return c.dtype
}

// StateShape returns the per-tensor widths of all member cells, in order.
func (c *Composite) StateShape() domain.StateShape {
	var dims []int
	for _, cell := range c.cells {
		dims = append(dims, cell.StateShape().Dims()...)
	}
	return domain.SeqOf(dims...)
}

// OutputSize resolves the composite's output width from the last cell only:
// its declared output size if present, else its state shape.
func (c *Composite) OutputSize() (int, bool) {
	n, err := domain.ResolveOutputSize(c.cells[len(c.cells)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Built reports whether the composite has completed its build pass.
func (c *Composite) Built() bool {
	return c.built
}

// BuiltFor returns the input shape the composite was built for.
// Only meaningful once Built reports true.
func (c *Composite) BuiltFor() domain.InputShape {
	return c.builtFor
}

// cellType names a cell for events and logs, preferring its serialization
// type identifier.
func cellType(cell domain.Cell) string {
	if named, ok := cell.(interface{ CellType() string }); ok {
		return named.CellType()
	}
	return fmt.Sprintf("%T", cell)
}
