package repository

import (
	"context"

	"nutrisync/internal/domain/entity"
)

// QueueRepository persists the offline operation queue across process
// restarts. The whole pending list is stored as one serialized value under a
// single well-known key; the queue is small by design and single-owner, so
// whole-list writes keep the storage format trivial.
type QueueRepository interface {
	// Save replaces the persisted pending-operations list.
	Save(ctx context.Context, ops []*entity.QueuedOperation) error

	// Load returns the persisted pending-operations list, oldest first.
	// A missing record yields an empty list, not an error.
	Load(ctx context.Context) ([]*entity.QueuedOperation, error)
}
