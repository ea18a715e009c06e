// internal/domain/models/job.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Job statuses for the durable queue.
const (
	JobPending = "pending"
	JobRunning = "running"
	JobDone    = "done"
	JobDead    = "dead"
)

// Job is a durable payout job. A job becomes dead after its attempt bound
// is exhausted; dead jobs are kept for operator inspection.
type Job struct {
	ID            string             `bson:"_id" json:"id"`
	Type          string             `bson:"type" json:"type"`
	CommunityID   primitive.ObjectID `bson:"community_id" json:"community_id"`
	ScheduledTime time.Time          `bson:"scheduled_time" json:"scheduled_time"`

	Status      string    `bson:"status" json:"status"`
	Attempts    int       `bson:"attempts" json:"attempts"`
	MaxAttempts int       `bson:"max_attempts" json:"max_attempts"`
	LastError   string    `bson:"last_error,omitempty" json:"last_error,omitempty"`
	NextRunAt   time.Time `bson:"next_run_at" json:"next_run_at"`

	EnqueuedAt time.Time `bson:"enqueued_at" json:"enqueued_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}
