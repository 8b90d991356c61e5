package domain

import (
	"context"
	"time"
)

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventBuildStart EventType = "build_start"
	EventCellBuild  EventType = "cell_build"
	EventBuildEnd   EventType = "build_end"
	EventCellStep   EventType = "cell_step"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// BuildEvent is emitted when the stack builds, and once per cell built.
// CellIndex is -1 for the stack-level start/end events.
type BuildEvent struct {
	EventBase
	CellIndex  int        `json:"cell_index"`
	CellType   string     `json:"cell_type,omitempty"`
	InputShape InputShape `json:"input_shape"`
}

// StepEvent is emitted once per cell per timestep.
type StepEvent struct {
	EventBase
	CellIndex int    `json:"cell_index"`
	CellType  string `json:"cell_type,omitempty"`
	Training  bool   `json:"training,omitempty"`
}

// LifecycleHooks defines callbacks for stack observability. All fields are
// optional; a zero value is a no-op.
type LifecycleHooks struct {
	OnBuildStart func(context.Context, *BuildEvent)
	OnCellBuild  func(context.Context, *BuildEvent)
	OnBuildEnd   func(context.Context, *BuildEvent)
	OnCellStep   func(context.Context, *StepEvent)
}
