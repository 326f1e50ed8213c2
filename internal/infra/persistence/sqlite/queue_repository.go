package sqlite

import (
	"context"
	"encoding/json"
	"time"

	"nutrisync/internal/domain/entity"
	"nutrisync/internal/domain/repository"
	"nutrisync/internal/errors"
	"nutrisync/internal/infra/persistence/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pendingOperationsKey is the single row under which the queue persists its
// complete pending list. The list is small and strictly ordered, so a
// whole-list swap is simpler and safer than per-operation rows.
const pendingOperationsKey = "sync.pendingOperations"

type queueRepository struct {
	db *gorm.DB
}

// NewQueueRepository creates a QueueRepository backed by the local SQLite store.
func NewQueueRepository(db *gorm.DB) repository.QueueRepository {
	return &queueRepository{db: db}
}

// Save replaces the persisted pending list with the given one.
func (r *queueRepository) Save(ctx context.Context, ops []*entity.QueuedOperation) error {
	if ops == nil {
		ops = []*entity.QueuedOperation{}
	}

	value, err := json.Marshal(ops)
	if err != nil {
		return errors.Wrap(err, "failed to marshal pending operations")
	}

	record := model.KeyValueModel{
		Key:       pendingOperationsKey,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&record).Error; err != nil {
		return errors.Wrap(err, "failed to persist pending operations")
	}

	return nil
}

// Load returns the persisted pending list, oldest first. A missing row means
// an empty queue, not an error.
func (r *queueRepository) Load(ctx context.Context) ([]*entity.QueuedOperation, error) {
	var record model.KeyValueModel
	err := r.db.WithContext(ctx).
		Where("key = ?", pendingOperationsKey).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []*entity.QueuedOperation{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load pending operations")
	}

	var ops []*entity.QueuedOperation
	if err := json.Unmarshal(record.Value, &ops); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal pending operations")
	}

	return ops, nil
}
