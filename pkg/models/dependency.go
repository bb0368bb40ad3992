package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/pkg/errors"
)

// Dependency is a directed precedence edge, stored on the successor
// task: the successor may not start until LagDays after the
// predecessor finishes.
type Dependency struct {
	PredecessorID string `json:"predecessor_id" db:"predecessor_id"`
	LagDays       int    `json:"lag_days" db:"lag_days"` // Always >= 0
}

// Dependencies is the successor's outgoing edge list, persisted as a
// single JSONB column.
type Dependencies []Dependency

func (d Dependencies) Value() (driver.Value, error) {
	if d == nil {
		d = Dependencies{}
	}
	return json.Marshal(d)
}

func (d *Dependencies) Scan(src interface{}) error {
	if src == nil {
		*d = Dependencies{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return errors.Errorf("dependencies: cannot scan %T", src)
	}
	return json.Unmarshal(b, d)
}

// EdgeStatus is the evaluated compliance of one dependency edge.
type EdgeStatus struct {
	SuccessorID   string `json:"successor_id"`
	PredecessorID string `json:"predecessor_id"`
	LagDays       int    `json:"lag_days"`
	ActualGapDays int    `json:"actual_gap_days"` // Predecessor due -> successor start, in days
	Violated      bool   `json:"violated"`
	DelayDays     int    `json:"delay_days"` // Days the successor must slip to comply
}

// EvaluateEdge classifies the edge from predecessor to successor with
// the given lag. A successor starting before the predecessor finishes
// is a violation even at lag 0.
func EvaluateEdge(successor, predecessor Task, lagDays int) EdgeStatus {
	gap := DaysBetween(predecessor.Due, successor.Start)
	delay := lagDays - gap
	if delay < 0 {
		delay = 0
	}
	return EdgeStatus{
		SuccessorID:   successor.ID,
		PredecessorID: predecessor.ID,
		LagDays:       lagDays,
		ActualGapDays: gap,
		Violated:      gap < lagDays,
		DelayDays:     delay,
	}
}
