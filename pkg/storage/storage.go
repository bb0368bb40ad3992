package storage

import (
	"github.com/pkg/errors"

	"github.com/zjb1001/ganttGraph/pkg/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence gateway: key-indexed storage of projects,
// buckets and tasks. Put is insert-or-replace. Cascading deletes
// (bucket -> tasks, project -> buckets and tasks) are the caller's
// responsibility, not the gateway's.
type Store interface {
	Begin() (Store, error)
	Commit() error
	Rollback() error
	Close() error

	// Project operations
	GetProject(id string) (models.Project, error)
	ListProjects() ([]models.Project, error)
	PutProject(p models.Project) error
	DeleteProject(id string) error

	// Bucket operations
	GetBucket(id string) (models.Bucket, error)
	ListBucketsByProject(projectID string) ([]models.Bucket, error)
	PutBucket(b models.Bucket) error
	DeleteBucket(id string) error

	// Task operations
	GetTask(id string) (models.Task, error)
	ListTasksByProject(projectID string) ([]models.Task, error)
	ListTasksByBucket(bucketID string) ([]models.Task, error)
	ListTasksByConstraintRef(refTaskID string) ([]models.Task, error)
	PutTask(t models.Task) error
	DeleteTask(id string) error
}
