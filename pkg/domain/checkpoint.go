package domain

import "time"

// Checkpoint is a snapshot of a sequence run: the step reached and the state
// produced by that step. Because stepping is purely functional over State, a
// run can be resumed from any checkpoint without replaying earlier steps.
type Checkpoint struct {
	RunID     string    `json:"run_id"`
	Step      int       `json:"step"`
	State     State     `json:"state"`
	UpdatedAt time.Time `json:"updated_at"`
}
