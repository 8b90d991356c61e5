// Package registry implements the serialization round trip for cells: a
// cell is captured as a Descriptor (type identifier plus reconstruction
// config) and rebuilt through a registered factory, preserving its concrete
// type across the trip.
package registry

import (
	"fmt"
	"sync"

	"github.com/cellstack/cellstack/pkg/domain"
)

// Descriptor captures enough information to recreate an equivalent cell:
// a stable type identifier and the cell-specific config. It describes
// structure, not trained parameters.
type Descriptor struct {
	Type   string         `json:"type" yaml:"type" mapstructure:"type"`
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty" mapstructure:"config"`
}

// Factory reconstructs a cell from its config. It receives the registry so
// composite descriptors can rebuild their nested cells recursively.
type Factory func(r *Registry, config map[string]any) (domain.Cell, error)

// Registry manages the known cell types.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a cell type to the registry.
// If the type is already registered, it is overwritten.
func (r *Registry) Register(cellType string, fn Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[cellType] = fn
}

// Describer is the capability of producing a full descriptor directly.
// Composites implement it so serialization failures of nested cells can
// propagate; plain cells usually implement domain.Configurable instead.
type Describer interface {
	Describe() (Descriptor, error)
}

// Serialize captures a cell as a Descriptor. The cell must expose a
// serialization config; cells that do not fail with ErrNotSerializable.
func Serialize(cell domain.Cell) (Descriptor, error) {
	if d, ok := cell.(Describer); ok {
		return d.Describe()
	}
	cfg, ok := cell.(domain.Configurable)
	if !ok {
		return Descriptor{}, fmt.Errorf("%T: %w", cell, domain.ErrNotSerializable)
	}
	return Descriptor{Type: cfg.CellType(), Config: cfg.Config()}, nil
}

// Deserialize reconstructs a cell from its descriptor. Custom factories, if
// given, take precedence over registered ones. An unknown type identifier
// or a failing factory aborts the reconstruction.
func (r *Registry) Deserialize(desc Descriptor, custom map[string]Factory) (domain.Cell, error) {
	fn, ok := custom[desc.Type]
	if !ok {
		r.mu.RLock()
		fn, ok = r.factories[desc.Type]
		r.mu.RUnlock()
	}
	if !ok {
		return nil, fmt.Errorf("%q: %w", desc.Type, domain.ErrUnknownCellType)
	}

	cell, err := fn(r, desc.Config)
	if err != nil {
		return nil, fmt.Errorf("reconstruct %q: %w", desc.Type, err)
	}
	return cell, nil
}

// DeserializeAll reconstructs an ordered cell sequence. Order is preserved
// exactly; failure for any one descriptor fails the whole sequence.
func (r *Registry) DeserializeAll(descs []Descriptor, custom map[string]Factory) ([]domain.Cell, error) {
	cells := make([]domain.Cell, 0, len(descs))
	for i, desc := range descs {
		cell, err := r.Deserialize(desc, custom)
		if err != nil {
			return nil, fmt.Errorf("descriptor %d: %w", i, err)
		}
		cells = append(cells, cell)
	}
	return cells, nil
}
