package usecase

import (
	"context"

	"nutrisync/internal/domain/entity"
)

// SyncUsecase keeps one live diary view per user in sync with the remote
// store. Each user session follows a single selected date; switching the
// date tears down the previous subscription before opening the next.
//
// The remote snapshot always wins: optimistic local state installed while
// offline is replaced wholesale by the next pushed document.
type SyncUsecase interface {
	// SetSelectedDate points the user's session at a calendar day and opens a
	// live subscription for it. If no snapshot arrives within the guard
	// window a placeholder aggregate with default targets is installed so
	// the view never hangs on a spinner.
	SetSelectedDate(ctx context.Context, userID, date string) error

	// Snapshot returns the session's current aggregate.
	Snapshot(ctx context.Context, userID string) (*entity.DailyAggregate, error)

	// Subscribe streams every change of the session's aggregate, remote or
	// optimistic. The returned cancel func releases the subscription.
	Subscribe(ctx context.Context, userID string) (<-chan *entity.DailyAggregate, func(), error)

	// ApplyOptimistic mutates the session's local aggregate without touching
	// the remote store. Used while the queued operation waits for replay; the
	// change is provisional until the next remote snapshot confirms or
	// replaces it.
	ApplyOptimistic(ctx context.Context, userID, date string, mutate func(*entity.DailyAggregate)) (*entity.DailyAggregate, error)

	// CloseSession tears down the user's subscription and session state.
	CloseSession(ctx context.Context, userID string) error
}
