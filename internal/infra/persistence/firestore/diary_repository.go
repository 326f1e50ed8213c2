package firestore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"nutrisync/internal/domain/entity"
	"nutrisync/internal/domain/repository"
	"nutrisync/internal/errors"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// diariesCollection holds one document per (user, date), keyed userId_date.
const diariesCollection = "diaries"

type diaryRepository struct {
	client  *fs.Client
	targets repository.TargetsRepository
	logger  *slog.Logger
}

// NewDiaryRepository creates a DiaryRepository backed by Firestore. All meal
// and total mutations run inside Firestore transactions so concurrent writers
// from multiple devices never produce totals that diverge from the meal lists.
func NewDiaryRepository(client *fs.Client, targets repository.TargetsRepository, logger *slog.Logger) repository.DiaryRepository {
	return &diaryRepository{
		client:  client,
		targets: targets,
		logger:  logger,
	}
}

func (r *diaryRepository) docRef(userID, date string) *fs.DocumentRef {
	return r.client.Collection(diariesCollection).Doc(entity.DiaryKey(userID, date))
}

// translateError maps transport-level failures onto the repository's domain
// errors so callers can route transient failures to the offline queue.
func translateError(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return repository.ErrDiaryNotFound
	case codes.Unavailable, codes.DeadlineExceeded:
		return errors.Wrap(repository.ErrRemoteUnavailable, err.Error())
	default:
		return errors.WithStack(err)
	}
}

// GetOrCreate returns the aggregate for (userID, date), creating a default
// document with the user's resolved targets when none exists yet.
func (r *diaryRepository) GetOrCreate(ctx context.Context, userID, date string) (*entity.DailyAggregate, error) {
	ref := r.docRef(userID, date)

	snap, err := ref.Get(ctx)
	if err == nil {
		return snapshotToAggregate(snap)
	}
	if status.Code(err) != codes.NotFound {
		return nil, translateError(err)
	}

	// Targets are resolved outside the transaction: a profile lookup inside
	// the transaction would retry the fetch on every contention round.
	targets := r.resolveTargets(ctx, userID)
	fresh := entity.NewDailyAggregate(userID, date, targets)

	err = r.client.RunTransaction(ctx, func(_ context.Context, tx *fs.Transaction) error {
		existing, err := tx.Get(ref)
		if err == nil {
			// Another device created the day concurrently; keep theirs.
			return existing.DataTo(fresh)
		}
		if status.Code(err) != codes.NotFound {
			return err
		}

		return tx.Set(ref, fresh)
	})
	if err != nil {
		return nil, translateError(err)
	}

	return fresh, nil
}

func (r *diaryRepository) resolveTargets(ctx context.Context, userID string) entity.NutritionTargets {
	targets, err := r.targets.ResolveTargets(ctx, userID)
	if err != nil {
		r.logger.Warn("Failed to resolve user targets, using defaults",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)

		return entity.DefaultNutritionTargets()
	}

	return targets
}

// mutate runs fn against the current aggregate inside a transaction and
// writes the result back. When the document does not exist yet it is created
// with default shape and the transaction retried once, so mutations against
// a brand-new day succeed without a separate ensure step at every call site.
func (r *diaryRepository) mutate(ctx context.Context, userID, date string, fn func(*entity.DailyAggregate) error) (*entity.DailyAggregate, error) {
	agg, err := r.mutateExisting(ctx, userID, date, fn)
	if !errors.Is(err, repository.ErrDiaryNotFound) {
		return agg, err
	}

	if _, err := r.GetOrCreate(ctx, userID, date); err != nil {
		return nil, err
	}

	return r.mutateExisting(ctx, userID, date, fn)
}

func (r *diaryRepository) mutateExisting(ctx context.Context, userID, date string, fn func(*entity.DailyAggregate) error) (*entity.DailyAggregate, error) {
	ref := r.docRef(userID, date)
	var result *entity.DailyAggregate

	err := r.client.RunTransaction(ctx, func(_ context.Context, tx *fs.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}

		agg := new(entity.DailyAggregate)
		if err := snap.DataTo(agg); err != nil {
			return err
		}

		if err := fn(agg); err != nil {
			return err
		}

		// Zero value lets the serverTimestamp tag stamp the write time.
		agg.UpdatedAt = time.Time{}
		result = agg

		return tx.Set(ref, agg)
	})
	if err != nil {
		if errors.Is(err, repository.ErrEntryNotFound) {
			return nil, err
		}

		return nil, translateError(err)
	}

	return result, nil
}

// AddFoodToMeal appends the entry to the named meal list and recomputes all
// four macro totals in one transaction.
func (r *diaryRepository) AddFoodToMeal(ctx context.Context, userID, date string, meal entity.MealType, entry entity.FoodEntry) (*entity.DailyAggregate, error) {
	return r.mutate(ctx, userID, date, func(agg *entity.DailyAggregate) error {
		agg.AppendEntry(meal, entry)

		return nil
	})
}

// RemoveFoodFromMeal filters the entry out of all meal lists. Removing an id
// that is already gone is a no-op, which keeps replayed queue operations safe.
func (r *diaryRepository) RemoveFoodFromMeal(ctx context.Context, userID, date, entryID string) (*entity.DailyAggregate, error) {
	return r.mutate(ctx, userID, date, func(agg *entity.DailyAggregate) error {
		agg.RemoveEntry(entryID)

		return nil
	})
}

// UpdateFoodInMeal replaces the entry with the same id, moving it across meal
// lists when the meal type changed.
func (r *diaryRepository) UpdateFoodInMeal(ctx context.Context, userID, date string, entry entity.FoodEntry) (*entity.DailyAggregate, error) {
	return r.mutate(ctx, userID, date, func(agg *entity.DailyAggregate) error {
		if !agg.ReplaceEntry(entry) {
			return repository.ErrEntryNotFound
		}

		return nil
	})
}

// UpdateNutrition adjusts the consumed macros directly without touching the
// meal lists. Values are clamped into their valid ranges before writing.
func (r *diaryRepository) UpdateNutrition(ctx context.Context, userID, date string, nutrition entity.NutritionInfo, op repository.NutritionOp) error {
	sanitized := entity.SanitizeNutrition(nutrition)

	_, err := r.mutate(ctx, userID, date, func(agg *entity.DailyAggregate) error {
		switch op {
		case repository.NutritionAdd:
			agg.Calories.Consumed += sanitized.Calories
			agg.Protein.Consumed += sanitized.Protein
			agg.Carbs.Consumed += sanitized.Carbs
			agg.Fat.Consumed += sanitized.Fat
		case repository.NutritionSet:
			agg.Calories.Consumed = sanitized.Calories
			agg.Protein.Consumed = sanitized.Protein
			agg.Carbs.Consumed = sanitized.Carbs
			agg.Fat.Consumed = sanitized.Fat
		default:
			return errors.Errorf("unknown nutrition op: %s", op)
		}

		return nil
	})

	return err
}

// AddWater atomically increments water.consumed, clamped to the maximum.
func (r *diaryRepository) AddWater(ctx context.Context, userID, date string, glasses int) error {
	_, err := r.mutate(ctx, userID, date, func(agg *entity.DailyAggregate) error {
		agg.Water.Consumed = entity.ClampWaterGlasses(agg.Water.Consumed + glasses)

		return nil
	})

	return err
}

// UpdateWater overwrites water.consumed, clamped to the maximum.
func (r *diaryRepository) UpdateWater(ctx context.Context, userID, date string, glasses int) error {
	_, err := r.mutate(ctx, userID, date, func(agg *entity.DailyAggregate) error {
		agg.Water.Consumed = entity.ClampWaterGlasses(glasses)

		return nil
	})

	return err
}

// UpdateTargets overwrites the aggregate's target fields.
func (r *diaryRepository) UpdateTargets(ctx context.Context, userID, date string, targets entity.NutritionTargets) error {
	_, err := r.mutate(ctx, userID, date, func(agg *entity.DailyAggregate) error {
		agg.ApplyTargets(targets)

		return nil
	})

	return err
}

// UpdateActivity overwrites the activity fields.
func (r *diaryRepository) UpdateActivity(ctx context.Context, userID, date string, steps, activeMinutes, workouts int, sleepHours float64) error {
	_, err := r.mutate(ctx, userID, date, func(agg *entity.DailyAggregate) error {
		agg.Steps = steps
		agg.ActiveMinutes = activeMinutes
		agg.WorkoutsCompleted = workouts
		agg.SleepHours = sleepHours

		return nil
	})

	return err
}

// Watch opens a snapshot listener on the (userID, date) document. Firestore
// pushes the full document on every change; deletions and not-yet-created
// days produce no update until the document exists.
func (r *diaryRepository) Watch(ctx context.Context, userID, date string) (repository.DiarySubscription, error) {
	watchCtx, cancel := context.WithCancel(ctx)
	iter := r.docRef(userID, date).Snapshots(watchCtx)

	sub := &diarySubscription{
		updates: make(chan *entity.DailyAggregate, 1),
		cancel:  cancel,
	}

	go func() {
		defer close(sub.updates)
		defer iter.Stop()

		for {
			snap, err := iter.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					r.logger.Warn("Diary snapshot listener stopped",
						slog.String("user_id", userID),
						slog.String("date", date),
						slog.String("error", err.Error()),
					)
				}

				return
			}
			if !snap.Exists() {
				continue
			}

			agg, err := snapshotToAggregate(snap)
			if err != nil {
				r.logger.Error("Failed to decode diary snapshot",
					slog.String("user_id", userID),
					slog.String("date", date),
					slog.String("error", err.Error()),
				)

				continue
			}

			select {
			case sub.updates <- agg:
			default:
				// Consumer is lagging: the remote snapshot wins, so the
				// stale buffered aggregate is replaced by the newest one.
				select {
				case <-sub.updates:
				default:
				}
				select {
				case sub.updates <- agg:
				case <-watchCtx.Done():
					return
				}
			}
		}
	}()

	return sub, nil
}

type diarySubscription struct {
	updates chan *entity.DailyAggregate
	cancel  context.CancelFunc
	once    sync.Once
}

func (s *diarySubscription) Updates() <-chan *entity.DailyAggregate {
	return s.updates
}

func (s *diarySubscription) Close() {
	s.once.Do(s.cancel)
}

func snapshotToAggregate(snap *fs.DocumentSnapshot) (*entity.DailyAggregate, error) {
	agg := new(entity.DailyAggregate)
	if err := snap.DataTo(agg); err != nil {
		return nil, errors.Wrap(err, "failed to decode diary document")
	}

	return agg, nil
}
