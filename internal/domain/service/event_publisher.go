package service

import (
	"context"
	"time"
)

// Sync event outcomes.
const (
	SyncOutcomeApplied = "applied"
	SyncOutcomeDropped = "dropped"
)

// SyncEvent describes the final disposition of a queued diary operation.
// Dropped events drive the user-visible "change was not synced" notice in
// the worker.
type SyncEvent struct {
	RequestID   string    `json:"request_id,omitempty"` // For distributed tracing
	OperationID string    `json:"operation_id"`
	UserID      string    `json:"user_id"`
	Date        string    `json:"date"`
	Type        string    `json:"type"`    // addFood, removeFood, ...
	Outcome     string    `json:"outcome"` // applied or dropped
	Attempts    int       `json:"attempts"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// EventPublisher defines the interface for publishing sync events to a
// message queue for async processing.
type EventPublisher interface {
	// PublishSyncEvent publishes the outcome of a queued operation.
	PublishSyncEvent(ctx context.Context, event *SyncEvent) error

	// Close releases any resources held by the publisher.
	Close() error
}
