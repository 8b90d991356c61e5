package cells

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/cellstack/cellstack/pkg/domain"
	"github.com/cellstack/cellstack/pkg/registry"
)

// Register installs the factories for all built-in cells.
func Register(r *registry.Registry) {
	r.Register(TypeSimple, func(_ *registry.Registry, config map[string]any) (domain.Cell, error) {
		var cfg SimpleConfig
		if err := decode(config, &cfg); err != nil {
			return nil, err
		}
		return NewSimple(cfg)
	})
	r.Register(TypeGRU, func(_ *registry.Registry, config map[string]any) (domain.Cell, error) {
		var cfg GRUConfig
		if err := decode(config, &cfg); err != nil {
			return nil, err
		}
		return NewGRU(cfg)
	})
	r.Register(TypeLSTM, func(_ *registry.Registry, config map[string]any) (domain.Cell, error) {
		var cfg LSTMConfig
		if err := decode(config, &cfg); err != nil {
			return nil, err
		}
		return NewLSTM(cfg)
	})
}

// decode maps a raw config into a typed cell config. Weak typing smooths
// over the numeric differences between JSON and YAML documents.
func decode(config map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(config); err != nil {
		return fmt.Errorf("decode cell config: %w", err)
	}
	return nil
}
