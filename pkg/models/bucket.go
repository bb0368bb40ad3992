package models

import "time"

type BucketType string

const (
	BucketTypeTask      BucketType = "task"
	BucketTypeMilestone BucketType = "milestone"
)

// Bucket groups tasks within a project. The bucket type partitions
// what it may contain: milestone buckets hold milestones, task buckets
// hold everything else.
type Bucket struct {
	ID        string     `json:"id" db:"id"`
	ProjectID string     `json:"project_id" db:"project_id"`
	Name      string     `json:"name" db:"name"`
	Order     int        `json:"order" db:"sort_order"` // Sort key, unique in practice but not enforced
	Type      BucketType `json:"bucket_type" db:"bucket_type"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// Accepts reports whether a task of the given type may live in this
// bucket.
func (b Bucket) Accepts(t TaskType) bool {
	if b.Type == BucketTypeMilestone {
		return t == TaskTypeMilestone
	}
	return t != TaskTypeMilestone
}

// BucketUpdate is a partial update for UpdateBucket. Nil fields are
// left untouched.
type BucketUpdate struct {
	Name  *string `json:"name,omitempty"`
	Order *int    `json:"order,omitempty"`
}
