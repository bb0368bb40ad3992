package models

import (
	"math"
	"time"
)

type TaskType string

const (
	TaskTypeTask      TaskType = "task"
	TaskTypeMilestone TaskType = "milestone"
	TaskTypeSummary   TaskType = "summary"
)

// Task represents a single bar on the Gantt timeline. Milestones are
// zero-width: Start == Due.
type Task struct {
	ID                 string              `json:"id" db:"id"`                      // UUID assigned by the service
	ProjectID          string              `json:"project_id" db:"project_id"`      // Owning project
	BucketID           string              `json:"bucket_id" db:"bucket_id"`        // Owning bucket
	Name               string              `json:"name" db:"name"`                  // Display name
	Type               TaskType            `json:"task_type" db:"task_type"`        // "task", "milestone" or "summary"
	Start              time.Time           `json:"start_date_time" db:"start_at"`   // Interval start
	Due                time.Time           `json:"due_date_time" db:"due_at"`       // Interval end
	CompletedPercent   int                 `json:"completed_percent" db:"completed_percent"` // 0..100, defaults to 0
	Notes              string              `json:"notes,omitempty" db:"notes"`
	Dependencies       Dependencies        `json:"dependencies" db:"dependencies"`  // Outgoing edges to predecessors
	DeadlineConstraint *DeadlineConstraint `json:"deadline_constraint,omitempty" db:"-"`
	CreatedAt          time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at" db:"updated_at"`
}

func (t Task) IsMilestone() bool {
	return t.Type == TaskTypeMilestone
}

// AnchorDate is the date other tasks' deadline constraints resolve
// against: the start for milestones (start == due anyway), the due
// date for everything else.
func (t Task) AnchorDate() time.Time {
	if t.IsMilestone() {
		return t.Start
	}
	return t.Due
}

// DurationDays is the task's length in whole days, never below one.
func (t Task) DurationDays() int {
	d := int(math.Round(t.Due.Sub(t.Start).Hours() / 24))
	if d < 1 {
		return 1
	}
	return d
}

// DependencyOn returns the edge to the given predecessor, if present.
func (t Task) DependencyOn(predecessorID string) (Dependency, bool) {
	for _, dep := range t.Dependencies {
		if dep.PredecessorID == predecessorID {
			return dep, true
		}
	}
	return Dependency{}, false
}

// TaskUpdate is a partial update for UpdateTask. Nil fields are left
// untouched. ShiftDays/ShiftWeeks move both dates by the signed offset,
// preserving the task's duration.
type TaskUpdate struct {
	Name             *string    `json:"name,omitempty"`
	BucketID         *string    `json:"bucket_id,omitempty"`
	Start            *time.Time `json:"start_date_time,omitempty"`
	Due              *time.Time `json:"due_date_time,omitempty"`
	CompletedPercent *int       `json:"completed_percent,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	ShiftDays        *int       `json:"shift_days,omitempty"`
	ShiftWeeks       *int       `json:"shift_weeks,omitempty"`
}

// DaysBetween returns the calendar-day gap from a to b, rounded up, so
// a same-instant pair yields 0 and b strictly before a goes negative.
func DaysBetween(a, b time.Time) int {
	return int(math.Ceil(b.Sub(a).Hours() / 24))
}
