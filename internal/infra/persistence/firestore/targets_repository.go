package firestore

import (
	"context"

	"nutrisync/internal/domain/entity"
	"nutrisync/internal/domain/repository"
	"nutrisync/internal/errors"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const usersCollection = "users"

// userTargetsDocument is the slice of the user profile document this service
// cares about.
type userTargetsDocument struct {
	NutritionTargets *entity.NutritionTargets `firestore:"nutritionTargets"`
}

type targetsRepository struct {
	client *fs.Client
}

// NewTargetsRepository resolves per-user daily targets from the user profile
// document, falling back to the fixed defaults when none are saved.
func NewTargetsRepository(client *fs.Client) repository.TargetsRepository {
	return &targetsRepository{client: client}
}

func (r *targetsRepository) ResolveTargets(ctx context.Context, userID string) (entity.NutritionTargets, error) {
	snap, err := r.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return entity.DefaultNutritionTargets(), nil
	}
	if err != nil {
		return entity.NutritionTargets{}, translateError(err)
	}

	var doc userTargetsDocument
	if err := snap.DataTo(&doc); err != nil {
		return entity.NutritionTargets{}, errors.Wrap(err, "failed to decode user profile")
	}
	if doc.NutritionTargets == nil {
		return entity.DefaultNutritionTargets(), nil
	}

	return *doc.NutritionTargets, nil
}
