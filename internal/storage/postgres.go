package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/zjb1001/ganttGraph/pkg/models"
	"github.com/zjb1001/ganttGraph/pkg/storage"
)

type DBInterface interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	QueryRowx(query string, args ...interface{}) *sqlx.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// PostgresStore is the durable persistence gateway. Dependency edges
// and the deadline constraint live in JSONB columns on the task row.
type PostgresStore struct {
	db DBInterface
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Begin() (storage.Store, error) {
	if db, ok := s.db.(*sqlx.DB); ok {
		tx, err := db.Beginx()
		if err != nil {
			return nil, err
		}
		return &PostgresStore{db: tx}, nil
	}
	return nil, fmt.Errorf("cannot begin transaction on unknown type")
}

func (s *PostgresStore) Commit() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Commit()
	}
	return fmt.Errorf("cannot commit: not a transaction")
}

func (s *PostgresStore) Rollback() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Rollback()
	}
	return fmt.Errorf("cannot rollback: not a transaction")
}

func (s *PostgresStore) Close() error {
	if db, ok := s.db.(*sqlx.DB); ok {
		return db.Close()
	}
	return nil // No-op for *sqlx.Tx
}

// Projects

func (s *PostgresStore) GetProject(id string) (models.Project, error) {
	var p models.Project
	err := s.db.Get(&p, "SELECT id, name, created_at, updated_at FROM projects WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return models.Project{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("get project %s: %w", id, err)
	}
	return p, nil
}

func (s *PostgresStore) ListProjects() ([]models.Project, error) {
	projects := []models.Project{}
	err := s.db.Select(&projects, "SELECT id, name, created_at, updated_at FROM projects ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (s *PostgresStore) PutProject(p models.Project) error {
	_, err := s.db.Exec(`
		INSERT INTO projects (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, updated_at = EXCLUDED.updated_at`,
		p.ID, p.Name, p.CreatedAt, p.UpdatedAt)
	return err
}

func (s *PostgresStore) DeleteProject(id string) error {
	_, err := s.db.Exec("DELETE FROM projects WHERE id = $1", id)
	return err
}

// Buckets

func (s *PostgresStore) GetBucket(id string) (models.Bucket, error) {
	var b models.Bucket
	err := s.db.Get(&b, "SELECT id, project_id, name, sort_order, bucket_type, created_at, updated_at FROM buckets WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return models.Bucket{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Bucket{}, fmt.Errorf("get bucket %s: %w", id, err)
	}
	return b, nil
}

func (s *PostgresStore) ListBucketsByProject(projectID string) ([]models.Bucket, error) {
	buckets := []models.Bucket{}
	err := s.db.Select(&buckets,
		"SELECT id, project_id, name, sort_order, bucket_type, created_at, updated_at FROM buckets WHERE project_id = $1 ORDER BY sort_order",
		projectID)
	if err != nil {
		return nil, err
	}
	return buckets, nil
}

func (s *PostgresStore) PutBucket(b models.Bucket) error {
	_, err := s.db.Exec(`
		INSERT INTO buckets (id, project_id, name, sort_order, bucket_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			project_id = EXCLUDED.project_id,
			name = EXCLUDED.name,
			sort_order = EXCLUDED.sort_order,
			bucket_type = EXCLUDED.bucket_type,
			updated_at = EXCLUDED.updated_at`,
		b.ID, b.ProjectID, b.Name, b.Order, b.Type, b.CreatedAt, b.UpdatedAt)
	return err
}

func (s *PostgresStore) DeleteBucket(id string) error {
	_, err := s.db.Exec("DELETE FROM buckets WHERE id = $1", id)
	return err
}

// Tasks

// taskRow carries the raw JSONB constraint column; a nil pointer field
// cannot act as a sql.Scanner, so the unmarshal happens here.
type taskRow struct {
	models.Task
	Constraint []byte `db:"deadline_constraint"`
}

func (r taskRow) toTask() (models.Task, error) {
	t := r.Task
	if len(r.Constraint) > 0 {
		var c models.DeadlineConstraint
		if err := json.Unmarshal(r.Constraint, &c); err != nil {
			return models.Task{}, errors.Wrapf(err, "task %s: bad deadline constraint", t.ID)
		}
		t.DeadlineConstraint = &c
	}
	return t, nil
}

const taskColumns = "id, project_id, bucket_id, name, task_type, start_at, due_at, completed_percent, notes, dependencies, deadline_constraint, created_at, updated_at"

func (s *PostgresStore) GetTask(id string) (models.Task, error) {
	var row taskRow
	err := s.db.Get(&row, "SELECT "+taskColumns+" FROM tasks WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return models.Task{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task %s: %w", id, err)
	}
	return row.toTask()
}

func (s *PostgresStore) ListTasksByProject(projectID string) ([]models.Task, error) {
	return s.listTasks("SELECT "+taskColumns+" FROM tasks WHERE project_id = $1 ORDER BY created_at, id", projectID)
}

func (s *PostgresStore) ListTasksByBucket(bucketID string) ([]models.Task, error) {
	return s.listTasks("SELECT "+taskColumns+" FROM tasks WHERE bucket_id = $1 ORDER BY created_at, id", bucketID)
}

func (s *PostgresStore) ListTasksByConstraintRef(refTaskID string) ([]models.Task, error) {
	return s.listTasks("SELECT "+taskColumns+" FROM tasks WHERE deadline_constraint->>'ref_task_id' = $1 ORDER BY created_at, id", refTaskID)
}

func (s *PostgresStore) listTasks(query string, args ...interface{}) ([]models.Task, error) {
	rows := []taskRow{}
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	tasks := make([]models.Task, 0, len(rows))
	for _, row := range rows {
		t, err := row.toTask()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (s *PostgresStore) PutTask(t models.Task) error {
	_, err := s.db.Exec(`
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			project_id = EXCLUDED.project_id,
			bucket_id = EXCLUDED.bucket_id,
			name = EXCLUDED.name,
			task_type = EXCLUDED.task_type,
			start_at = EXCLUDED.start_at,
			due_at = EXCLUDED.due_at,
			completed_percent = EXCLUDED.completed_percent,
			notes = EXCLUDED.notes,
			dependencies = EXCLUDED.dependencies,
			deadline_constraint = EXCLUDED.deadline_constraint,
			updated_at = EXCLUDED.updated_at`,
		t.ID, t.ProjectID, t.BucketID, t.Name, t.Type, t.Start, t.Due, t.CompletedPercent,
		t.Notes, t.Dependencies, t.DeadlineConstraint, t.CreatedAt, t.UpdatedAt)
	return err
}

func (s *PostgresStore) DeleteTask(id string) error {
	_, err := s.db.Exec("DELETE FROM tasks WHERE id = $1", id)
	return err
}
