package service

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/zjb1001/ganttGraph/pkg/models"
	"github.com/zjb1001/ganttGraph/pkg/storage"
)

// Logger defines the logging interface for TaskService.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// TaskService owns the task collection and is the only writer to the
// persistence gateway. All callers (HTTP facade, CLI) mutate tasks
// through these entry points, so a date never changes without the
// deadline-constraint cascade running afterwards.
type TaskService struct {
	store  storage.Store
	logger Logger
}

func NewTaskService(store storage.Store, logger Logger) *TaskService {
	return &TaskService{
		store:  store,
		logger: logger,
	}
}

// closeTx commits the transaction, or rolls it back when the mutation
// already failed. Commit errors surface through errp.
func (s *TaskService) closeTx(tx storage.Store, errp *error) {
	if *errp != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, *errp)
		}
		return
	}
	if commitErr := tx.Commit(); commitErr != nil {
		s.logger.Errorf("Failed to commit: %v", commitErr)
		*errp = commitErr
	}
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Projects

func (s *TaskService) CreateProject(name string) (p models.Project, err error) {
	if name == "" {
		return models.Project{}, errors.New("project name cannot be empty")
	}
	tx, err := s.store.Begin()
	if err != nil {
		return models.Project{}, err
	}
	defer s.closeTx(tx, &err)

	now := time.Now()
	p = models.Project{ID: uuid.NewString(), Name: name, CreatedAt: now, UpdatedAt: now}
	if err = tx.PutProject(p); err != nil {
		return models.Project{}, err
	}
	s.logger.Infof("Created project '%s' with ID %s", name, p.ID)
	return p, nil
}

func (s *TaskService) GetProject(id string) (models.Project, error) {
	return s.store.GetProject(id)
}

func (s *TaskService) ListProjects() ([]models.Project, error) {
	return s.store.ListProjects()
}

// DeleteProject removes the project together with its buckets and
// tasks. The gateway does not cascade, the service does.
func (s *TaskService) DeleteProject(id string) (err error) {
	tx, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer s.closeTx(tx, &err)

	if _, err = tx.GetProject(id); err != nil {
		return errors.Wrapf(err, "project %s", id)
	}
	tasks, err := tx.ListTasksByProject(id)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if err = tx.DeleteTask(t.ID); err != nil {
			return err
		}
	}
	buckets, err := tx.ListBucketsByProject(id)
	if err != nil {
		return err
	}
	for _, b := range buckets {
		if err = tx.DeleteBucket(b.ID); err != nil {
			return err
		}
	}
	if err = tx.DeleteProject(id); err != nil {
		return err
	}
	s.logger.Infof("Deleted project %s with %d buckets and %d tasks", id, len(buckets), len(tasks))
	return nil
}

// Buckets

func (s *TaskService) AddBucket(b models.Bucket) (created models.Bucket, err error) {
	if b.Name == "" {
		return models.Bucket{}, errors.New("bucket name cannot be empty")
	}
	if b.Type == "" {
		b.Type = models.BucketTypeTask
	}
	if b.Type != models.BucketTypeTask && b.Type != models.BucketTypeMilestone {
		return models.Bucket{}, errors.Errorf("invalid bucket type %q", b.Type)
	}
	tx, err := s.store.Begin()
	if err != nil {
		return models.Bucket{}, err
	}
	defer s.closeTx(tx, &err)

	if _, err = tx.GetProject(b.ProjectID); err != nil {
		return models.Bucket{}, errors.Wrapf(err, "project %s", b.ProjectID)
	}
	now := time.Now()
	b.ID = uuid.NewString()
	b.CreatedAt = now
	b.UpdatedAt = now
	if err = tx.PutBucket(b); err != nil {
		return models.Bucket{}, err
	}
	s.logger.Infof("Created %s bucket '%s' with ID %s", b.Type, b.Name, b.ID)
	return b, nil
}

func (s *TaskService) GetBucket(id string) (models.Bucket, error) {
	return s.store.GetBucket(id)
}

func (s *TaskService) ListBuckets(projectID string) ([]models.Bucket, error) {
	return s.store.ListBucketsByProject(projectID)
}

func (s *TaskService) UpdateBucket(id string, upd models.BucketUpdate) (b models.Bucket, err error) {
	tx, err := s.store.Begin()
	if err != nil {
		return models.Bucket{}, err
	}
	defer s.closeTx(tx, &err)

	b, err = tx.GetBucket(id)
	if err != nil {
		return models.Bucket{}, errors.Wrapf(err, "bucket %s", id)
	}
	if upd.Name != nil {
		if *upd.Name == "" {
			return models.Bucket{}, errors.New("bucket name cannot be empty")
		}
		b.Name = *upd.Name
	}
	if upd.Order != nil {
		b.Order = *upd.Order
	}
	b.UpdatedAt = time.Now()
	if err = tx.PutBucket(b); err != nil {
		return models.Bucket{}, err
	}
	return b, nil
}

// DeleteBucket removes the bucket and every task it contains. Edges on
// other tasks that pointed at the deleted tasks are left dangling; the
// graph evaluation filters them out.
func (s *TaskService) DeleteBucket(id string) (err error) {
	tx, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer s.closeTx(tx, &err)

	if _, err = tx.GetBucket(id); err != nil {
		return errors.Wrapf(err, "bucket %s", id)
	}
	tasks, err := tx.ListTasksByBucket(id)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if err = tx.DeleteTask(t.ID); err != nil {
			return err
		}
	}
	if err = tx.DeleteBucket(id); err != nil {
		return err
	}
	s.logger.Infof("Deleted bucket %s with %d tasks", id, len(tasks))
	return nil
}

// Tasks

// AddTask creates a task inside an existing bucket. Dependency edges
// and deadline constraints are never accepted at creation time; they go
// through AddDependency and SetDeadlineConstraint.
func (s *TaskService) AddTask(t models.Task) (created models.Task, err error) {
	if t.Name == "" {
		return models.Task{}, errors.New("task name cannot be empty")
	}
	if t.Type == "" {
		t.Type = models.TaskTypeTask
	}
	tx, err := s.store.Begin()
	if err != nil {
		return models.Task{}, err
	}
	defer s.closeTx(tx, &err)

	if _, err = tx.GetProject(t.ProjectID); err != nil {
		return models.Task{}, errors.Wrapf(err, "project %s", t.ProjectID)
	}
	bucket, err := tx.GetBucket(t.BucketID)
	if err != nil {
		return models.Task{}, errors.Wrapf(err, "bucket %s", t.BucketID)
	}
	if !bucket.Accepts(t.Type) {
		return models.Task{}, errors.Errorf("bucket '%s' does not accept %s tasks", bucket.Name, t.Type)
	}
	if t.IsMilestone() {
		t.Due = t.Start
	}
	now := time.Now()
	t.ID = uuid.NewString()
	t.CompletedPercent = clampPercent(t.CompletedPercent)
	t.Dependencies = models.Dependencies{}
	t.DeadlineConstraint = nil
	t.CreatedAt = now
	t.UpdatedAt = now
	if err = tx.PutTask(t); err != nil {
		return models.Task{}, err
	}
	s.logger.Infof("Created %s '%s' with ID %s", t.Type, t.Name, t.ID)
	return t, nil
}

func (s *TaskService) GetTask(id string) (models.Task, error) {
	return s.store.GetTask(id)
}

func (s *TaskService) ListTasks(projectID string) ([]models.Task, error) {
	return s.store.ListTasksByProject(projectID)
}

func (s *TaskService) ListTasksByBucket(bucketID string) ([]models.Task, error) {
	return s.store.ListTasksByBucket(bucketID)
}

// UpdateTask applies a partial update. If the update touched the
// task's dates, the deadline-constraint cascade runs before returning.
func (s *TaskService) UpdateTask(id string, upd models.TaskUpdate) (models.Task, error) {
	return s.updateTask(id, upd, map[string]struct{}{})
}

// DeleteTask removes the task by identity. Dependency edges on other
// tasks that point at it are intentionally left in place (filtered out
// at evaluation time), matching the best-effort cleanup model.
func (s *TaskService) DeleteTask(id string) (err error) {
	tx, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer s.closeTx(tx, &err)

	if _, err = tx.GetTask(id); err != nil {
		return errors.Wrapf(err, "task %s", id)
	}
	if err = tx.DeleteTask(id); err != nil {
		return err
	}
	s.logger.Infof("Deleted task %s", id)
	return nil
}

// SetTaskDuration recomputes the start date from a duration given in
// weeks, holding the due date fixed. Non-positive or NaN input is
// rejected and the task is left untouched.
func (s *TaskService) SetTaskDuration(id string, weeks float64) (models.Task, error) {
	if math.IsNaN(weeks) || weeks <= 0 {
		return models.Task{}, errors.Errorf("invalid duration: %v weeks", weeks)
	}
	task, err := s.store.GetTask(id)
	if err != nil {
		return models.Task{}, errors.Wrapf(err, "task %s", id)
	}
	days := int(math.Round(weeks * 7))
	if days < 1 {
		days = 1
	}
	newStart := task.Due.AddDate(0, 0, -days)
	return s.UpdateTask(id, models.TaskUpdate{Start: &newStart})
}
