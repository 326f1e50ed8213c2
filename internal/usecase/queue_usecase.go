package usecase

import (
	"context"

	"nutrisync/internal/domain/entity"
)

// QueueStatus is a snapshot of the offline queue for status endpoints.
type QueueStatus struct {
	Pending int  `json:"pending"`
	Online  bool `json:"online"`
}

// QueueUsecase defines the offline operation queue. Operations are replayed
// strictly in arrival order, one at a time; a failing head operation blocks
// the queue until it is applied or dropped.
type QueueUsecase interface {
	// Enqueue appends the operation and persists the pending list.
	Enqueue(ctx context.Context, op *entity.QueuedOperation) error

	// Pending returns a copy of the current pending list, oldest first.
	Pending(ctx context.Context) ([]*entity.QueuedOperation, error)

	// Status reports queue depth and connectivity.
	Status(ctx context.Context) (*QueueStatus, error)

	// Flush wakes the worker to drain the queue now instead of waiting for
	// the next connectivity transition.
	Flush(ctx context.Context) error

	// Start loads the persisted queue and launches the replay worker.
	Start(ctx context.Context) error

	// Stop halts the replay worker and waits for it to exit.
	Stop()
}
