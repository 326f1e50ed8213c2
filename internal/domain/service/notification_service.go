package service

import "context"

// NotificationService delivers user-facing push notices. The sync worker
// uses it to tell a user that a queued change was dropped after exhausting
// its retries.
type NotificationService interface {
	// SendSyncFailureNotice notifies the user that the described change was
	// not synced. operationType is the queued operation type (addFood, ...).
	SendSyncFailureNotice(ctx context.Context, userID, operationType, date string) error
}
