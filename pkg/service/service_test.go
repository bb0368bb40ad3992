package service_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjb1001/ganttGraph/pkg/models"
	"github.com/zjb1001/ganttGraph/pkg/service"
	"github.com/zjb1001/ganttGraph/pkg/storage"
)

type logger struct{}

func (l logger) Infof(format string, args ...interface{})  {}
func (l logger) Warnf(format string, args ...interface{})  {}
func (l logger) Errorf(format string, args ...interface{}) {}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fixture is a service on an in-memory store with one project, one
// task bucket and one milestone bucket.
type fixture struct {
	svc        *service.TaskService
	project    models.Project
	bucket     models.Bucket
	milestones models.Bucket
}

func newFixture(t *testing.T) *fixture {
	svc := service.NewTaskService(storage.NewMockStore(), logger{})
	p, err := svc.CreateProject("Website Relaunch")
	require.NoError(t, err)
	b, err := svc.AddBucket(models.Bucket{ProjectID: p.ID, Name: "Build", Type: models.BucketTypeTask})
	require.NoError(t, err)
	mb, err := svc.AddBucket(models.Bucket{ProjectID: p.ID, Name: "Milestones", Order: 1, Type: models.BucketTypeMilestone})
	require.NoError(t, err)
	return &fixture{svc: svc, project: p, bucket: b, milestones: mb}
}

func (f *fixture) addTask(t *testing.T, name string, start, due time.Time) models.Task {
	task, err := f.svc.AddTask(models.Task{
		ProjectID: f.project.ID,
		BucketID:  f.bucket.ID,
		Name:      name,
		Start:     start,
		Due:       due,
	})
	require.NoError(t, err)
	return task
}

func (f *fixture) addMilestone(t *testing.T, name string, at time.Time) models.Task {
	task, err := f.svc.AddTask(models.Task{
		ProjectID: f.project.ID,
		BucketID:  f.milestones.ID,
		Name:      name,
		Type:      models.TaskTypeMilestone,
		Start:     at,
		Due:       at,
	})
	require.NoError(t, err)
	return task
}

func TestProjects(t *testing.T) {
	t.Run("CreateRequiresName", func(t *testing.T) {
		svc := service.NewTaskService(storage.NewMockStore(), logger{})
		_, err := svc.CreateProject("")
		assert.Error(t, err)
	})

	t.Run("DeleteCascadesBucketsAndTasks", func(t *testing.T) {
		f := newFixture(t)
		task := f.addTask(t, "Design", date(2024, 3, 1), date(2024, 3, 10))

		err := f.svc.DeleteProject(f.project.ID)
		assert.NoError(t, err)

		_, err = f.svc.GetProject(f.project.ID)
		assert.True(t, errors.Is(err, storage.ErrNotFound))
		_, err = f.svc.GetBucket(f.bucket.ID)
		assert.True(t, errors.Is(err, storage.ErrNotFound))
		_, err = f.svc.GetTask(task.ID)
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})

	t.Run("DeleteMissingProject", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.DeleteProject("nope")
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})
}

func TestBuckets(t *testing.T) {
	t.Run("TypeDefaultsToTask", func(t *testing.T) {
		f := newFixture(t)
		b, err := f.svc.AddBucket(models.Bucket{ProjectID: f.project.ID, Name: "Backlog"})
		assert.NoError(t, err)
		assert.Equal(t, models.BucketTypeTask, b.Type)
	})

	t.Run("RejectsUnknownType", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.AddBucket(models.Bucket{ProjectID: f.project.ID, Name: "Odd", Type: "sprint"})
		assert.Error(t, err)
	})

	t.Run("RequiresExistingProject", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.AddBucket(models.Bucket{ProjectID: "nope", Name: "Orphan"})
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})

	t.Run("UpdateNameAndOrder", func(t *testing.T) {
		f := newFixture(t)
		name := "Shipping"
		order := 5
		b, err := f.svc.UpdateBucket(f.bucket.ID, models.BucketUpdate{Name: &name, Order: &order})
		assert.NoError(t, err)
		assert.Equal(t, "Shipping", b.Name)
		assert.Equal(t, 5, b.Order)
	})

	t.Run("DeleteCascadesTasks", func(t *testing.T) {
		f := newFixture(t)
		task := f.addTask(t, "Doomed", date(2024, 1, 1), date(2024, 1, 5))
		keeper := f.addMilestone(t, "Keeper", date(2024, 2, 1))

		err := f.svc.DeleteBucket(f.bucket.ID)
		assert.NoError(t, err)

		_, err = f.svc.GetTask(task.ID)
		assert.True(t, errors.Is(err, storage.ErrNotFound))
		_, err = f.svc.GetTask(keeper.ID)
		assert.NoError(t, err)
	})
}

func TestAddTask(t *testing.T) {
	t.Run("MilestoneBucketOnlyAcceptsMilestones", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.AddTask(models.Task{
			ProjectID: f.project.ID, BucketID: f.milestones.ID,
			Name: "Regular", Start: date(2024, 1, 1), Due: date(2024, 1, 5),
		})
		assert.Error(t, err)

		_, err = f.svc.AddTask(models.Task{
			ProjectID: f.project.ID, BucketID: f.bucket.ID,
			Name: "Misplaced", Type: models.TaskTypeMilestone, Start: date(2024, 1, 1),
		})
		assert.Error(t, err)
	})

	t.Run("MilestoneIsZeroWidth", func(t *testing.T) {
		f := newFixture(t)
		m, err := f.svc.AddTask(models.Task{
			ProjectID: f.project.ID, BucketID: f.milestones.ID,
			Name: "Launch", Type: models.TaskTypeMilestone,
			Start: date(2024, 6, 1), Due: date(2024, 6, 15), // due is ignored
		})
		assert.NoError(t, err)
		assert.Equal(t, m.Start, m.Due)
	})

	t.Run("CompletedPercentClamped", func(t *testing.T) {
		f := newFixture(t)
		task, err := f.svc.AddTask(models.Task{
			ProjectID: f.project.ID, BucketID: f.bucket.ID,
			Name: "Over", Start: date(2024, 1, 1), Due: date(2024, 1, 5),
			CompletedPercent: 150,
		})
		assert.NoError(t, err)
		assert.Equal(t, 100, task.CompletedPercent)
	})

	t.Run("EdgesAndConstraintsNotAcceptedAtCreation", func(t *testing.T) {
		f := newFixture(t)
		other := f.addTask(t, "Other", date(2024, 1, 1), date(2024, 1, 5))
		task, err := f.svc.AddTask(models.Task{
			ProjectID: f.project.ID, BucketID: f.bucket.ID,
			Name: "Smuggler", Start: date(2024, 1, 1), Due: date(2024, 1, 5),
			Dependencies:       models.Dependencies{{PredecessorID: other.ID}},
			DeadlineConstraint: &models.DeadlineConstraint{RefTaskID: other.ID, Type: models.ConstraintAfter},
		})
		assert.NoError(t, err)
		assert.Empty(t, task.Dependencies)
		assert.Nil(t, task.DeadlineConstraint)
	})
}

func TestUpdateTask(t *testing.T) {
	t.Run("PartialUpdateLeavesOtherFields", func(t *testing.T) {
		f := newFixture(t)
		task := f.addTask(t, "Design", date(2024, 3, 1), date(2024, 3, 10))

		name := "Visual Design"
		updated, err := f.svc.UpdateTask(task.ID, models.TaskUpdate{Name: &name})
		assert.NoError(t, err)
		assert.Equal(t, "Visual Design", updated.Name)
		assert.Equal(t, task.Start, updated.Start)
		assert.Equal(t, task.Due, updated.Due)
		assert.Equal(t, task.CreatedAt, updated.CreatedAt)
	})

	t.Run("DirectDateEditReplacesOnlyThatField", func(t *testing.T) {
		f := newFixture(t)
		task := f.addTask(t, "Design", date(2024, 3, 1), date(2024, 3, 10))

		newDue := date(2024, 3, 20)
		updated, err := f.svc.UpdateTask(task.ID, models.TaskUpdate{Due: &newDue})
		assert.NoError(t, err)
		assert.Equal(t, date(2024, 3, 1), updated.Start)
		assert.Equal(t, newDue, updated.Due)
	})

	t.Run("ShiftWeeksPreservesDuration", func(t *testing.T) {
		f := newFixture(t)
		task := f.addTask(t, "Design", date(2024, 3, 1), date(2024, 3, 10))

		shift := 2
		updated, err := f.svc.UpdateTask(task.ID, models.TaskUpdate{ShiftWeeks: &shift})
		assert.NoError(t, err)
		assert.Equal(t, date(2024, 3, 15), updated.Start)
		assert.Equal(t, date(2024, 3, 24), updated.Due)
		assert.Equal(t, task.DurationDays(), updated.DurationDays())
	})

	t.Run("ShiftDaysMovesBackward", func(t *testing.T) {
		f := newFixture(t)
		task := f.addTask(t, "Design", date(2024, 3, 10), date(2024, 3, 20))

		shift := -3
		updated, err := f.svc.UpdateTask(task.ID, models.TaskUpdate{ShiftDays: &shift})
		assert.NoError(t, err)
		assert.Equal(t, date(2024, 3, 7), updated.Start)
		assert.Equal(t, date(2024, 3, 17), updated.Due)
	})

	t.Run("MilestoneStaysZeroWidth", func(t *testing.T) {
		f := newFixture(t)
		m := f.addMilestone(t, "Launch", date(2024, 6, 1))

		newStart := date(2024, 6, 10)
		updated, err := f.svc.UpdateTask(m.ID, models.TaskUpdate{Start: &newStart})
		assert.NoError(t, err)
		assert.Equal(t, newStart, updated.Start)
		assert.Equal(t, newStart, updated.Due)
	})

	t.Run("BucketMoveValidatesType", func(t *testing.T) {
		f := newFixture(t)
		task := f.addTask(t, "Design", date(2024, 3, 1), date(2024, 3, 10))

		_, err := f.svc.UpdateTask(task.ID, models.TaskUpdate{BucketID: &f.milestones.ID})
		assert.Error(t, err)

		got, err := f.svc.GetTask(task.ID)
		assert.NoError(t, err)
		assert.Equal(t, f.bucket.ID, got.BucketID)
	})

	t.Run("MissingTaskIsNotFound", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.UpdateTask("nope", models.TaskUpdate{})
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})
}

func TestSetTaskDuration(t *testing.T) {
	t.Run("HoldsDueFixed", func(t *testing.T) {
		f := newFixture(t)
		task := f.addTask(t, "Design", date(2024, 3, 1), date(2024, 3, 10))

		updated, err := f.svc.SetTaskDuration(task.ID, 2)
		assert.NoError(t, err)
		assert.Equal(t, date(2024, 3, 10), updated.Due)
		assert.Equal(t, date(2024, 2, 25), updated.Start) // due - 14 days
	})

	t.Run("RejectsNonPositiveWeeks", func(t *testing.T) {
		f := newFixture(t)
		task := f.addTask(t, "Design", date(2024, 3, 1), date(2024, 3, 10))

		for _, weeks := range []float64{0, -1} {
			_, err := f.svc.SetTaskDuration(task.ID, weeks)
			assert.Error(t, err)
		}

		got, err := f.svc.GetTask(task.ID)
		assert.NoError(t, err)
		assert.Equal(t, task.Start, got.Start)
		assert.Equal(t, task.Due, got.Due)
	})

	t.Run("FractionalWeeksRoundToDays", func(t *testing.T) {
		f := newFixture(t)
		task := f.addTask(t, "Design", date(2024, 3, 1), date(2024, 3, 10))

		updated, err := f.svc.SetTaskDuration(task.ID, 0.5)
		assert.NoError(t, err)
		assert.Equal(t, date(2024, 3, 6), updated.Start) // due - round(3.5) days
	})
}

func TestDeleteTask(t *testing.T) {
	t.Run("LeavesDanglingEdgesOnOthers", func(t *testing.T) {
		f := newFixture(t)
		pred := f.addTask(t, "Backend", date(2024, 1, 1), date(2024, 1, 10))
		succ := f.addTask(t, "Frontend", date(2024, 1, 11), date(2024, 1, 20))
		require.NoError(t, f.svc.AddDependency(succ.ID, pred.ID, 0))

		require.NoError(t, f.svc.DeleteTask(pred.ID))

		got, err := f.svc.GetTask(succ.ID)
		assert.NoError(t, err)
		assert.Len(t, got.Dependencies, 1) // edge not eagerly cleaned up

		statuses, err := f.svc.EvaluateProject(f.project.ID)
		assert.NoError(t, err)
		assert.Empty(t, statuses) // but filtered out of evaluation
	})
}
