// Package codec reads and writes cell descriptors as documents: YAML for
// model files on disk, JSON for the HTTP wire. The nested descriptor
// structure itself lives in pkg/registry; this package only handles the
// document framing.
package codec

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cellstack/cellstack/pkg/domain"
	"github.com/cellstack/cellstack/pkg/registry"
)

// Codec translates between cells and descriptor documents.
type Codec struct {
	reg    *registry.Registry
	custom map[string]registry.Factory
}

// Option configures a Codec.
type Option func(*Codec)

// WithCustomTypes registers factories consulted before the registry,
// letting callers decode documents that reference their own cell types.
func WithCustomTypes(custom map[string]registry.Factory) Option {
	return func(c *Codec) {
		c.custom = custom
	}
}

// New creates a codec over a registry.
func New(reg *registry.Registry, opts ...Option) *Codec {
	c := &Codec{reg: reg}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EncodeYAML serializes a cell to a YAML document.
func (c *Codec) EncodeYAML(cell domain.Cell) ([]byte, error) {
	desc, err := registry.Serialize(cell)
	if err != nil {
		return nil, err
	}
	out, err := yaml.Marshal(desc)
	if err != nil {
		return nil, fmt.Errorf("encode descriptor: %w", err)
	}
	return out, nil
}

// DecodeYAML reconstructs a cell from a YAML document.
func (c *Codec) DecodeYAML(data []byte) (domain.Cell, error) {
	var desc registry.Descriptor
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}
	return c.reg.Deserialize(desc, c.custom)
}

// EncodeJSON serializes a cell to a JSON document.
func (c *Codec) EncodeJSON(cell domain.Cell) ([]byte, error) {
	desc, err := registry.Serialize(cell)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(desc)
	if err != nil {
		return nil, fmt.Errorf("encode descriptor: %w", err)
	}
	return out, nil
}

// DecodeJSON reconstructs a cell from a JSON document.
func (c *Codec) DecodeJSON(data []byte) (domain.Cell, error) {
	var desc registry.Descriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}
	return c.reg.Deserialize(desc, c.custom)
}
