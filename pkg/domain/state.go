package domain

import (
	"encoding/json"
	"fmt"

	"github.com/cellstack/cellstack/pkg/tensor"
)

// State is the recurrent state threaded through a cell, modeled as a tagged
// tree: either a single tensor (leaf) or an ordered sequence of sub-states.
// A composite keeps one element per member cell; a multi-tensor cell (e.g.
// LSTM) keeps one leaf per state tensor.
type State struct {
	leaf *tensor.Tensor
	seq  []State
}

// Leaf wraps a single tensor as a state value.
func Leaf(t *tensor.Tensor) State {
	return State{leaf: t}
}

// Nested groups sub-states into an ordered sequence.
func Nested(elems ...State) State {
	return State{seq: elems}
}

// IsLeaf reports whether the state is a single tensor.
func (s State) IsLeaf() bool { return s.leaf != nil }

// Tensor returns the leaf tensor, or nil for a nested state.
func (s State) Tensor() *tensor.Tensor { return s.leaf }

// Len returns the number of direct sub-states of a nested state, or 1 for a leaf.
func (s State) Len() int {
	if s.IsLeaf() {
		return 1
	}
	return len(s.seq)
}

// At returns the i-th direct sub-state of a nested state.
func (s State) At(i int) State {
	if s.IsLeaf() {
		if i != 0 {
			panic(fmt.Sprintf("state: leaf has no element %d", i))
		}
		return s
	}
	return s.seq[i]
}

// Tensors flattens the state tree into its leaf tensors, in order.
func (s State) Tensors() []*tensor.Tensor {
	if s.IsLeaf() {
		return []*tensor.Tensor{s.leaf}
	}
	var out []*tensor.Tensor
	for _, e := range s.seq {
		out = append(out, e.Tensors()...)
	}
	return out
}

// FromTensors rebuilds a state element for a cell from a flat tensor
// sequence, restoring the nesting the cell's state shape declares: the
// scalar form yields a leaf, the sequence form a nested state of leaves.
func FromTensors(shape StateShape, tensors []*tensor.Tensor) (State, error) {
	if len(tensors) != shape.Arity() {
		return State{}, fmt.Errorf("state holds %d tensors, shape %s declares %d", len(tensors), shape, shape.Arity())
	}
	if shape.IsSingle() {
		return Leaf(tensors[0]), nil
	}
	elems := make([]State, len(tensors))
	for i, t := range tensors {
		elems[i] = Leaf(t)
	}
	return Nested(elems...), nil
}

type wireState struct {
	Leaf *tensor.Tensor `json:"leaf,omitempty"`
	Seq  []State        `json:"seq,omitempty"`
}

// MarshalJSON encodes the state tree for checkpoints and the HTTP wire format.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireState{Leaf: s.leaf, Seq: s.seq})
}

// UnmarshalJSON decodes a state tree from its wire form.
func (s *State) UnmarshalJSON(b []byte) error {
	var w wireState
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Leaf != nil && len(w.Seq) > 0 {
		return fmt.Errorf("state payload is both leaf and sequence")
	}
	s.leaf = w.Leaf
	s.seq = w.Seq
	return nil
}
