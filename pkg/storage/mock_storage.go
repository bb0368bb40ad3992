package storage

import (
	"sort"

	"github.com/zjb1001/ganttGraph/pkg/models"
)

// mockStore implements Store with in-memory maps. It backs the unit
// tests and doubles as an ephemeral, local-only gateway.
type mockStore struct {
	projects map[string]models.Project
	buckets  map[string]models.Bucket
	tasks    map[string]models.Task
}

// NewMockStore returns an empty in-memory Store.
func NewMockStore() Store {
	return &mockStore{
		projects: make(map[string]models.Project),
		buckets:  make(map[string]models.Bucket),
		tasks:    make(map[string]models.Task),
	}
}

// Begin returns the store itself: all in-memory writes are applied
// immediately, so Commit and Rollback are no-ops.
func (m *mockStore) Begin() (Store, error) { return m, nil }
func (m *mockStore) Commit() error         { return nil }
func (m *mockStore) Rollback() error       { return nil }
func (m *mockStore) Close() error          { return nil }

func (m *mockStore) GetProject(id string) (models.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return models.Project{}, ErrNotFound
	}
	return p, nil
}

func (m *mockStore) ListProjects() ([]models.Project, error) {
	out := make([]models.Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *mockStore) PutProject(p models.Project) error {
	m.projects[p.ID] = p
	return nil
}

func (m *mockStore) DeleteProject(id string) error {
	delete(m.projects, id)
	return nil
}

func (m *mockStore) GetBucket(id string) (models.Bucket, error) {
	b, ok := m.buckets[id]
	if !ok {
		return models.Bucket{}, ErrNotFound
	}
	return b, nil
}

func (m *mockStore) ListBucketsByProject(projectID string) ([]models.Bucket, error) {
	var out []models.Bucket
	for _, b := range m.buckets {
		if b.ProjectID == projectID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (m *mockStore) PutBucket(b models.Bucket) error {
	m.buckets[b.ID] = b
	return nil
}

func (m *mockStore) DeleteBucket(id string) error {
	delete(m.buckets, id)
	return nil
}

func (m *mockStore) GetTask(id string) (models.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return models.Task{}, ErrNotFound
	}
	return t, nil
}

func (m *mockStore) ListTasksByProject(projectID string) ([]models.Task, error) {
	return m.listTasks(func(t models.Task) bool { return t.ProjectID == projectID }), nil
}

func (m *mockStore) ListTasksByBucket(bucketID string) ([]models.Task, error) {
	return m.listTasks(func(t models.Task) bool { return t.BucketID == bucketID }), nil
}

func (m *mockStore) ListTasksByConstraintRef(refTaskID string) ([]models.Task, error) {
	return m.listTasks(func(t models.Task) bool {
		return t.DeadlineConstraint != nil && t.DeadlineConstraint.RefTaskID == refTaskID
	}), nil
}

func (m *mockStore) listTasks(match func(models.Task) bool) []models.Task {
	var out []models.Task
	for _, t := range m.tasks {
		if match(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *mockStore) PutTask(t models.Task) error {
	m.tasks[t.ID] = t
	return nil
}

func (m *mockStore) DeleteTask(id string) error {
	delete(m.tasks, id)
	return nil
}
