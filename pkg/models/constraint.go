package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

type ConstraintType string

const (
	ConstraintBefore ConstraintType = "before"
	ConstraintAfter  ConstraintType = "after"
)

// DeadlineConstraint anchors a task's due date to another task by a
// signed weekly offset: due = anchor date - offset ("before") or
// anchor date + offset ("after").
type DeadlineConstraint struct {
	RefTaskID   string         `json:"ref_task_id" db:"ref_task_id"`
	OffsetWeeks int            `json:"offset_weeks" db:"offset_weeks"` // Always >= 0
	Type        ConstraintType `json:"type" db:"type"`
}

// ResolveDue computes the constrained due date from the anchor task's
// reference date.
func (c DeadlineConstraint) ResolveDue(anchor time.Time) time.Time {
	days := c.OffsetWeeks * 7
	if c.Type == ConstraintBefore {
		days = -days
	}
	return anchor.AddDate(0, 0, days)
}

func (c DeadlineConstraint) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *DeadlineConstraint) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return errors.Errorf("deadline constraint: cannot scan %T", src)
	}
	return json.Unmarshal(b, c)
}
