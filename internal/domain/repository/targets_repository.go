package repository

import (
	"context"

	"nutrisync/internal/domain/entity"
)

// TargetsRepository resolves a user's saved daily nutrition targets from the
// profile store. Implementations fall back to the fixed defaults when the
// user has no saved targets; resolution failures caused by an unreachable
// backend surface as errors so the caller can decide.
type TargetsRepository interface {
	ResolveTargets(ctx context.Context, userID string) (entity.NutritionTargets, error)
}
