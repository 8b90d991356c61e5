package domain

import (
	"errors"
	"fmt"
)

// ErrRunNotFound is returned when a run ID cannot be found in a checkpoint store.
var ErrRunNotFound = errors.New("run not found")

// ErrUnknownCellType is returned when no factory is registered for a
// descriptor's type identifier.
var ErrUnknownCellType = errors.New("unknown cell type")

// ErrShapeMismatch is returned when an already-built stack is asked to build
// for a different feature width.
var ErrShapeMismatch = errors.New("input shape differs from the shape the stack was built for")

// ErrNotSerializable is returned when a cell does not expose a serialization config.
var ErrNotSerializable = errors.New("cell does not expose a serialization config")

// ContractViolationError reports a candidate cell that lacks a required
// capability. It is raised once, at construction, and fails the whole
// composite; no partial composite is ever produced.
type ContractViolationError struct {
	Index      int
	Capability string
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("cell %d violates the cell contract: missing %s", e.Index, e.Capability)
}

// ShapeError reports a malformed state or output shape.
type ShapeError struct {
	Reason string
}

func (e *ShapeError) Error() string {
	return "shape error: " + e.Reason
}
