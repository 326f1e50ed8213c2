package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// OperationType identifies the diary mutation carried by a queued operation.
type OperationType string

const (
	OpAddFood     OperationType = "addFood"
	OpUpdateFood  OperationType = "updateFood"
	OpRemoveFood  OperationType = "removeFood"
	OpAddWater    OperationType = "addWater"
	OpUpdateWater OperationType = "updateWater"
)

// DefaultMaxRetries is how many times a queued operation is attempted before
// it is dropped and the user is notified.
const DefaultMaxRetries = 3

// QueuedOperation is one pending diary mutation that could not be applied to
// the remote store. It lives in the offline operation queue until it is
// applied or its retries are exhausted.
type QueuedOperation struct {
	ID         string          `json:"id"`
	Type       OperationType   `json:"type"`
	UserID     string          `json:"userId"`
	Date       string          `json:"date"`
	Data       json.RawMessage `json:"data"`
	Timestamp  time.Time       `json:"timestamp"`
	RetryCount int             `json:"retryCount"`
	MaxRetries int             `json:"maxRetries"`
}

// FoodPayload is the data carried by addFood/updateFood/removeFood operations.
type FoodPayload struct {
	MealType MealType  `json:"mealType,omitempty"`
	EntryID  string    `json:"entryId,omitempty"`
	Entry    FoodEntry `json:"entry,omitempty"`
}

// WaterPayload is the data carried by addWater/updateWater operations.
type WaterPayload struct {
	Glasses int `json:"glasses"`
}

func newOperation(opType OperationType, userID, date string, payload any) (*QueuedOperation, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "marshal operation payload")
	}

	return &QueuedOperation{
		ID:         uuid.New().String(),
		Type:       opType,
		UserID:     userID,
		Date:       date,
		Data:       data,
		Timestamp:  time.Now().UTC(),
		MaxRetries: DefaultMaxRetries,
	}, nil
}

// NewAddFoodOperation creates a queued addFood mutation.
func NewAddFoodOperation(userID, date string, meal MealType, entry FoodEntry) (*QueuedOperation, error) {
	return newOperation(OpAddFood, userID, date, FoodPayload{MealType: meal, Entry: entry})
}

// NewUpdateFoodOperation creates a queued updateFood mutation.
func NewUpdateFoodOperation(userID, date string, entry FoodEntry) (*QueuedOperation, error) {
	return newOperation(OpUpdateFood, userID, date, FoodPayload{MealType: entry.MealType, Entry: entry})
}

// NewRemoveFoodOperation creates a queued removeFood mutation.
func NewRemoveFoodOperation(userID, date, entryID string) (*QueuedOperation, error) {
	return newOperation(OpRemoveFood, userID, date, FoodPayload{EntryID: entryID})
}

// NewAddWaterOperation creates a queued addWater mutation.
func NewAddWaterOperation(userID, date string, glasses int) (*QueuedOperation, error) {
	return newOperation(OpAddWater, userID, date, WaterPayload{Glasses: glasses})
}

// NewUpdateWaterOperation creates a queued updateWater mutation.
func NewUpdateWaterOperation(userID, date string, glasses int) (*QueuedOperation, error) {
	return newOperation(OpUpdateWater, userID, date, WaterPayload{Glasses: glasses})
}

// FoodData decodes the operation payload as a food payload.
func (op *QueuedOperation) FoodData() (FoodPayload, error) {
	var payload FoodPayload
	if err := json.Unmarshal(op.Data, &payload); err != nil {
		return FoodPayload{}, errors.Wrapf(err, "decode %s payload", op.Type)
	}

	return payload, nil
}

// WaterData decodes the operation payload as a water payload.
func (op *QueuedOperation) WaterData() (WaterPayload, error) {
	var payload WaterPayload
	if err := json.Unmarshal(op.Data, &payload); err != nil {
		return WaterPayload{}, errors.Wrapf(err, "decode %s payload", op.Type)
	}

	return payload, nil
}

// Exhausted reports whether the operation has used up its retry budget.
func (op *QueuedOperation) Exhausted() bool {
	return op.RetryCount >= op.MaxRetries
}
