// internal/app/system/queue/queue.go

// Package queue abstracts the payout job queue. The scheduler and the
// HTTP layer depend only on the Queue interface; Memory serves tests and
// single-process deployments, and the jobs store provides the durable
// Mongo-backed implementation.
package queue

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payload is the payout job payload.
type Payload struct {
	CommunityID   primitive.ObjectID `json:"community_id"`
	ScheduledTime time.Time          `json:"scheduled_time"`
}

// Processor handles one job. A nil return acknowledges the job; an error
// triggers a bounded retry and eventually marks the job dead.
type Processor func(ctx context.Context, p Payload) error

// Stats is a point-in-time snapshot for operators.
type Stats struct {
	Enqueued  int64 `json:"enqueued"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
	Dead      int64 `json:"dead"`
	Pending   int64 `json:"pending"`
}

// Queue is the job queue port.
type Queue interface {
	Enqueue(ctx context.Context, p Payload) (string, error)
	RegisterProcessor(fn Processor)
	Stats(ctx context.Context) (Stats, error)
}
