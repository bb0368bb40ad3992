package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zjb1001/ganttGraph/pkg/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, models.DaysBetween(date(2024, 1, 10), date(2024, 1, 10)))
	assert.Equal(t, 5, models.DaysBetween(date(2024, 1, 10), date(2024, 1, 15)))
	assert.Equal(t, -2, models.DaysBetween(date(2024, 1, 10), date(2024, 1, 8)))
	// Partial days round up.
	assert.Equal(t, 1, models.DaysBetween(date(2024, 1, 10), date(2024, 1, 10).Add(6*time.Hour)))
}

func TestDurationDays(t *testing.T) {
	task := models.Task{Start: date(2024, 1, 1), Due: date(2024, 1, 8)}
	assert.Equal(t, 7, task.DurationDays())

	// Zero-width and inverted intervals floor at one day.
	milestone := models.Task{Type: models.TaskTypeMilestone, Start: date(2024, 1, 1), Due: date(2024, 1, 1)}
	assert.Equal(t, 1, milestone.DurationDays())
	inverted := models.Task{Start: date(2024, 1, 8), Due: date(2024, 1, 1)}
	assert.Equal(t, 1, inverted.DurationDays())
}

func TestAnchorDate(t *testing.T) {
	task := models.Task{Type: models.TaskTypeTask, Start: date(2024, 1, 1), Due: date(2024, 1, 8)}
	assert.Equal(t, date(2024, 1, 8), task.AnchorDate())

	milestone := models.Task{Type: models.TaskTypeMilestone, Start: date(2024, 6, 1), Due: date(2024, 6, 1)}
	assert.Equal(t, date(2024, 6, 1), milestone.AnchorDate())
}

func TestResolveDue(t *testing.T) {
	after := models.DeadlineConstraint{OffsetWeeks: 1, Type: models.ConstraintAfter}
	assert.Equal(t, date(2024, 3, 24), after.ResolveDue(date(2024, 3, 17)))

	before := models.DeadlineConstraint{OffsetWeeks: 2, Type: models.ConstraintBefore}
	assert.Equal(t, date(2024, 5, 18), before.ResolveDue(date(2024, 6, 1)))
}

func TestEvaluateEdge(t *testing.T) {
	pred := models.Task{ID: "p", Start: date(2024, 1, 1), Due: date(2024, 1, 10)}

	t.Run("CompliantAtExactLag", func(t *testing.T) {
		succ := models.Task{ID: "s", Start: date(2024, 1, 13), Due: date(2024, 1, 20)}
		st := models.EvaluateEdge(succ, pred, 3)
		assert.Equal(t, 3, st.ActualGapDays)
		assert.False(t, st.Violated)
		assert.Equal(t, 0, st.DelayDays)
	})

	t.Run("ViolatedBelowLag", func(t *testing.T) {
		succ := models.Task{ID: "s", Start: date(2024, 1, 8), Due: date(2024, 1, 20)}
		st := models.EvaluateEdge(succ, pred, 0)
		assert.Equal(t, -2, st.ActualGapDays)
		assert.True(t, st.Violated)
		assert.Equal(t, 2, st.DelayDays)
	})
}

func TestBucketAccepts(t *testing.T) {
	taskBucket := models.Bucket{Type: models.BucketTypeTask}
	assert.True(t, taskBucket.Accepts(models.TaskTypeTask))
	assert.True(t, taskBucket.Accepts(models.TaskTypeSummary))
	assert.False(t, taskBucket.Accepts(models.TaskTypeMilestone))

	milestoneBucket := models.Bucket{Type: models.BucketTypeMilestone}
	assert.True(t, milestoneBucket.Accepts(models.TaskTypeMilestone))
	assert.False(t, milestoneBucket.Accepts(models.TaskTypeTask))
}
