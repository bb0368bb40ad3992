package service

import (
	"time"

	"github.com/pkg/errors"

	"github.com/zjb1001/ganttGraph/pkg/models"
	"github.com/zjb1001/ganttGraph/pkg/storage"
)

// Dependency graph operations. The successor's Dependencies list is
// the single authoritative adjacency representation; the reverse index
// is derived on demand by Dependents. Cycles are never rejected; each
// edge still evaluates independently.

// AddDependency records that successor may not start until lagDays
// after predecessor finishes. Re-adding an existing edge is a no-op;
// negative lag is clamped to zero.
func (s *TaskService) AddDependency(successorID, predecessorID string, lagDays int) (err error) {
	if lagDays < 0 {
		lagDays = 0
	}
	tx, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer s.closeTx(tx, &err)

	succ, err := tx.GetTask(successorID)
	if err != nil {
		return errors.Wrapf(err, "successor %s", successorID)
	}
	if _, err = tx.GetTask(predecessorID); err != nil {
		return errors.Wrapf(err, "predecessor %s", predecessorID)
	}
	if _, ok := succ.DependencyOn(predecessorID); ok {
		return nil
	}
	succ.Dependencies = append(succ.Dependencies, models.Dependency{PredecessorID: predecessorID, LagDays: lagDays})
	succ.UpdatedAt = time.Now()
	if err = tx.PutTask(succ); err != nil {
		return err
	}
	s.logger.Infof("Added dependency %s -> %s with lag %d days", predecessorID, successorID, lagDays)
	return nil
}

// RemoveDependency removes the edge between the two tasks. A missing
// edge is a no-op.
func (s *TaskService) RemoveDependency(successorID, predecessorID string) (err error) {
	tx, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer s.closeTx(tx, &err)

	succ, err := tx.GetTask(successorID)
	if err != nil {
		return errors.Wrapf(err, "successor %s", successorID)
	}
	kept := succ.Dependencies[:0:0]
	for _, dep := range succ.Dependencies {
		if dep.PredecessorID != predecessorID {
			kept = append(kept, dep)
		}
	}
	if len(kept) == len(succ.Dependencies) {
		return nil
	}
	succ.Dependencies = kept
	succ.UpdatedAt = time.Now()
	if err = tx.PutTask(succ); err != nil {
		return err
	}
	s.logger.Infof("Removed dependency %s -> %s", predecessorID, successorID)
	return nil
}

// UpdateDependencyLag changes the lag on an existing edge. A missing
// edge fails silently, leaving state unchanged.
func (s *TaskService) UpdateDependencyLag(successorID, predecessorID string, lagDays int) (err error) {
	if lagDays < 0 {
		lagDays = 0
	}
	tx, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer s.closeTx(tx, &err)

	succ, err := tx.GetTask(successorID)
	if err != nil {
		return errors.Wrapf(err, "successor %s", successorID)
	}
	updated := false
	for i, dep := range succ.Dependencies {
		if dep.PredecessorID == predecessorID {
			succ.Dependencies[i].LagDays = lagDays
			updated = true
			break
		}
	}
	if !updated {
		return nil
	}
	succ.UpdatedAt = time.Now()
	if err = tx.PutTask(succ); err != nil {
		return err
	}
	s.logger.Infof("Set lag on dependency %s -> %s to %d days", predecessorID, successorID, lagDays)
	return nil
}

// Dependents returns the IDs of tasks that depend on the given task,
// computed from the authoritative forward edges.
func (s *TaskService) Dependents(taskID string) ([]string, error) {
	task, err := s.store.GetTask(taskID)
	if err != nil {
		return nil, errors.Wrapf(err, "task %s", taskID)
	}
	tasks, err := s.store.ListTasksByProject(task.ProjectID)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, t := range tasks {
		if _, ok := t.DependencyOn(taskID); ok {
			out = append(out, t.ID)
		}
	}
	return out, nil
}

// EvaluateDependency classifies a single edge. It is read-only and
// returns storage.ErrNotFound when either task or the edge is missing.
func (s *TaskService) EvaluateDependency(successorID, predecessorID string) (models.EdgeStatus, error) {
	succ, err := s.store.GetTask(successorID)
	if err != nil {
		return models.EdgeStatus{}, errors.Wrapf(err, "successor %s", successorID)
	}
	pred, err := s.store.GetTask(predecessorID)
	if err != nil {
		return models.EdgeStatus{}, errors.Wrapf(err, "predecessor %s", predecessorID)
	}
	dep, ok := succ.DependencyOn(predecessorID)
	if !ok {
		return models.EdgeStatus{}, errors.Wrapf(storage.ErrNotFound, "dependency %s -> %s", predecessorID, successorID)
	}
	return models.EvaluateEdge(succ, pred, dep.LagDays), nil
}

// EvaluateProject recomputes the status of every visible edge in the
// project. Edges pointing at deleted tasks are skipped rather than
// cleaned up. Nothing is cached; every call recomputes from the task
// rows.
func (s *TaskService) EvaluateProject(projectID string) ([]models.EdgeStatus, error) {
	tasks, err := s.store.ListTasksByProject(projectID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	var out []models.EdgeStatus
	for _, succ := range tasks {
		for _, dep := range succ.Dependencies {
			pred, ok := byID[dep.PredecessorID]
			if !ok {
				continue // dangling edge
			}
			out = append(out, models.EvaluateEdge(succ, pred, dep.LagDays))
		}
	}
	return out, nil
}
