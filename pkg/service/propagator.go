package service

import (
	"time"

	"github.com/pkg/errors"

	"github.com/zjb1001/ganttGraph/pkg/models"
	"github.com/zjb1001/ganttGraph/pkg/storage"
)

// Constraint propagator. Whenever a task's dates change, every task
// whose deadline constraint anchors to it gets a recomputed due date,
// duration preserved, applied through the same update path so the
// cascade recurses. The walk is eager and synchronous: each affected
// task is persisted before the next level is visited.

// updateTask is the single write path for task field changes. visited
// carries the IDs already updated within the current cascade.
func (s *TaskService) updateTask(id string, upd models.TaskUpdate, visited map[string]struct{}) (models.Task, error) {
	tx, err := s.store.Begin()
	if err != nil {
		return models.Task{}, err
	}
	task, datesChanged, err := s.applyTaskUpdate(tx, id, upd)
	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
		}
		return models.Task{}, err
	}
	// Commit before cascading: dependents must observe the anchor's
	// new dates.
	if err := tx.Commit(); err != nil {
		s.logger.Errorf("Failed to commit: %v", err)
		return models.Task{}, err
	}
	if datesChanged {
		s.propagateDates(task, visited)
	}
	return task, nil
}

func (s *TaskService) applyTaskUpdate(tx storage.Store, id string, upd models.TaskUpdate) (models.Task, bool, error) {
	task, err := tx.GetTask(id)
	if err != nil {
		return models.Task{}, false, errors.Wrapf(err, "task %s", id)
	}
	oldStart, oldDue := task.Start, task.Due

	if upd.Name != nil {
		if *upd.Name == "" {
			return models.Task{}, false, errors.New("task name cannot be empty")
		}
		task.Name = *upd.Name
	}
	if upd.BucketID != nil {
		bucket, err := tx.GetBucket(*upd.BucketID)
		if err != nil {
			return models.Task{}, false, errors.Wrapf(err, "bucket %s", *upd.BucketID)
		}
		if !bucket.Accepts(task.Type) {
			return models.Task{}, false, errors.Errorf("bucket '%s' does not accept %s tasks", bucket.Name, task.Type)
		}
		task.BucketID = bucket.ID
	}
	if upd.Start != nil {
		task.Start = *upd.Start
	}
	if upd.Due != nil {
		task.Due = *upd.Due
	}
	if upd.ShiftWeeks != nil {
		task.Start = task.Start.AddDate(0, 0, *upd.ShiftWeeks*7)
		task.Due = task.Due.AddDate(0, 0, *upd.ShiftWeeks*7)
	}
	if upd.ShiftDays != nil {
		task.Start = task.Start.AddDate(0, 0, *upd.ShiftDays)
		task.Due = task.Due.AddDate(0, 0, *upd.ShiftDays)
	}
	if task.IsMilestone() && !task.Start.Equal(task.Due) {
		// Milestones stay zero-width; the edited side wins, due if both.
		if upd.Start != nil && upd.Due == nil {
			task.Due = task.Start
		} else {
			task.Start = task.Due
		}
	}
	if upd.CompletedPercent != nil {
		task.CompletedPercent = clampPercent(*upd.CompletedPercent)
	}
	if upd.Notes != nil {
		task.Notes = *upd.Notes
	}

	datesChanged := !task.Start.Equal(oldStart) || !task.Due.Equal(oldDue)
	task.UpdatedAt = time.Now()
	if err := tx.PutTask(task); err != nil {
		return models.Task{}, false, err
	}
	return task, datesChanged, nil
}

// propagateDates walks every task anchored to the changed task and
// recomputes its dates through updateTask, so deeper constraints
// cascade in turn. The visited set stops the walk when a constraint
// chain loops back on itself; without it a cycle would recurse forever.
func (s *TaskService) propagateDates(anchor models.Task, visited map[string]struct{}) {
	visited[anchor.ID] = struct{}{}
	constrained, err := s.store.ListTasksByConstraintRef(anchor.ID)
	if err != nil {
		s.logger.Errorf("Failed to list tasks anchored to %s: %v", anchor.ID, err)
		return
	}
	for _, t := range constrained {
		if _, seen := visited[t.ID]; seen {
			s.logger.Warnf("Deadline constraint cycle detected at task %s; stopping cascade", t.ID)
			continue
		}
		newDue := t.DeadlineConstraint.ResolveDue(anchor.AnchorDate())
		newStart := newDue.AddDate(0, 0, -t.DurationDays())
		if _, err := s.updateTask(t.ID, models.TaskUpdate{Start: &newStart, Due: &newDue}, visited); err != nil {
			// Best effort: a task we cannot correct keeps its dates.
			s.logger.Errorf("Failed to propagate dates to task %s: %v", t.ID, err)
		}
	}
}

// SetDeadlineConstraint anchors the task's due date to another task.
// The new due date is computed and applied immediately; if it would
// precede the current start, the start is pulled backward by the
// previously observed duration so the interval never inverts.
func (s *TaskService) SetDeadlineConstraint(id string, c models.DeadlineConstraint) (models.Task, error) {
	if c.RefTaskID == id {
		return models.Task{}, errors.New("a task cannot anchor its deadline to itself")
	}
	if c.OffsetWeeks < 0 {
		return models.Task{}, errors.Errorf("invalid constraint offset: %d weeks", c.OffsetWeeks)
	}
	if c.Type != models.ConstraintBefore && c.Type != models.ConstraintAfter {
		return models.Task{}, errors.Errorf("invalid constraint type %q", c.Type)
	}
	tx, err := s.store.Begin()
	if err != nil {
		return models.Task{}, err
	}
	task, err := s.applyConstraint(tx, id, c)
	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
		}
		return models.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Errorf("Failed to commit: %v", err)
		return models.Task{}, err
	}
	s.propagateDates(task, map[string]struct{}{})
	return task, nil
}

func (s *TaskService) applyConstraint(tx storage.Store, id string, c models.DeadlineConstraint) (models.Task, error) {
	task, err := tx.GetTask(id)
	if err != nil {
		return models.Task{}, errors.Wrapf(err, "task %s", id)
	}
	ref, err := tx.GetTask(c.RefTaskID)
	if err != nil {
		return models.Task{}, errors.Wrapf(err, "anchor task %s", c.RefTaskID)
	}

	duration := task.DurationDays()
	newDue := c.ResolveDue(ref.AnchorDate())
	if newDue.Before(task.Start) {
		task.Start = newDue.AddDate(0, 0, -duration)
	}
	task.Due = newDue
	if task.IsMilestone() {
		task.Start = newDue
	}
	task.DeadlineConstraint = &c
	task.UpdatedAt = time.Now()
	if err := tx.PutTask(task); err != nil {
		return models.Task{}, err
	}
	s.logger.Infof("Anchored task %s due date %s task %s by %d weeks", id, c.Type, c.RefTaskID, c.OffsetWeeks)
	return task, nil
}

// ClearDeadlineConstraint detaches the task from its anchor. Dates are
// left as they are.
func (s *TaskService) ClearDeadlineConstraint(id string) (task models.Task, err error) {
	tx, err := s.store.Begin()
	if err != nil {
		return models.Task{}, err
	}
	defer s.closeTx(tx, &err)

	task, err = tx.GetTask(id)
	if err != nil {
		return models.Task{}, errors.Wrapf(err, "task %s", id)
	}
	if task.DeadlineConstraint == nil {
		return task, nil
	}
	task.DeadlineConstraint = nil
	task.UpdatedAt = time.Now()
	if err = tx.PutTask(task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}
