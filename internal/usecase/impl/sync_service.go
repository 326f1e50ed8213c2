package impl

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"nutrisync/internal/domain/entity"
	"nutrisync/internal/domain/repository"
	"nutrisync/internal/usecase"
)

var (
	// ErrNoActiveSession is returned when a user has no diary session open
	ErrNoActiveSession = errors.New("no active diary session for user")
	// ErrSnapshotPending is returned when a session exists but no aggregate
	// has arrived yet and the guard window has not elapsed
	ErrSnapshotPending = errors.New("diary snapshot not yet available")
	// ErrInvalidDateFormat is returned when a date is not YYYY-MM-DD
	ErrInvalidDateFormat = errors.New("date must use the YYYY-MM-DD format")
)

// diarySession is one user's live view of a single selected date.
type diarySession struct {
	userID string
	date   string

	current *diarySnapshot
	watch   repository.DiarySubscription
	guard   *time.Timer

	subscribers map[int]chan *entity.DailyAggregate
	nextSubID   int
}

// diarySnapshot pairs an aggregate with its provenance. Optimistic state is
// provisional; any remote snapshot replaces it wholesale.
type diarySnapshot struct {
	aggregate  *entity.DailyAggregate
	optimistic bool
}

type syncService struct {
	diaryRepo    repository.DiaryRepository
	guardTimeout time.Duration
	logger       *slog.Logger

	mu       sync.Mutex
	sessions map[string]*diarySession
}

// NewSyncService creates the realtime diary synchronizer. guardTimeout bounds
// how long a freshly selected date may stay without data before a placeholder
// aggregate is installed.
func NewSyncService(diaryRepo repository.DiaryRepository, guardTimeout time.Duration, logger *slog.Logger) usecase.SyncUsecase {
	return &syncService{
		diaryRepo:    diaryRepo,
		guardTimeout: guardTimeout,
		logger:       logger,
		sessions:     make(map[string]*diarySession),
	}
}

// SetSelectedDate points the user's session at a calendar day.
func (s *syncService) SetSelectedDate(ctx context.Context, userID, date string) error {
	if _, err := time.Parse(entity.DateLayout, date); err != nil {
		return ErrInvalidDateFormat
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if ok && session.date == date {
		return nil
	}
	if !ok {
		session = &diarySession{
			userID:      userID,
			subscribers: make(map[int]chan *entity.DailyAggregate),
		}
		s.sessions[userID] = session
	}

	s.teardownWatchLocked(session)
	session.date = date
	session.current = nil

	// The subscription outlives the request that selected the date.
	sub, err := s.diaryRepo.Watch(context.Background(), userID, date)
	if err != nil {
		return err
	}
	session.watch = sub

	// The guard timer keeps the view from hanging when the first snapshot
	// never arrives (cold start while offline). The placeholder uses default
	// targets and zero consumed values.
	session.guard = time.AfterFunc(s.guardTimeout, func() {
		s.installPlaceholder(userID, date)
	})

	go s.consumeWatch(session, sub, date)

	// Nudge the remote store so a brand-new day gets its default document
	// and the listener receives a first snapshot.
	go func() {
		getCtx, cancel := context.WithTimeout(context.Background(), s.guardTimeout)
		defer cancel()

		if _, err := s.diaryRepo.GetOrCreate(getCtx, userID, date); err != nil {
			s.logger.Debug("Initial diary fetch failed, guard timer will cover",
				slog.String("user_id", userID),
				slog.String("date", date),
				slog.String("error", err.Error()),
			)
		}
	}()

	return nil
}

func (s *syncService) consumeWatch(session *diarySession, sub repository.DiarySubscription, date string) {
	for agg := range sub.Updates() {
		s.mu.Lock()
		// Ignore late snapshots from a superseded subscription.
		if session.watch != sub || session.date != date {
			s.mu.Unlock()

			return
		}

		if session.guard != nil {
			session.guard.Stop()
			session.guard = nil
		}

		// Remote wins over any optimistic local state.
		session.current = &diarySnapshot{aggregate: agg}
		s.broadcastLocked(session, agg)
		s.mu.Unlock()
	}
}

func (s *syncService) installPlaceholder(userID, date string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok || session.date != date || session.current != nil {
		return
	}

	s.logger.Warn("No diary snapshot within guard window, installing placeholder",
		slog.String("user_id", userID),
		slog.String("date", date),
	)

	placeholder := entity.NewDailyAggregate(userID, date, entity.DefaultNutritionTargets())
	session.current = &diarySnapshot{aggregate: placeholder, optimistic: true}
	s.broadcastLocked(session, placeholder)
}

// Snapshot returns the session's current aggregate.
func (s *syncService) Snapshot(_ context.Context, userID string) (*entity.DailyAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return nil, ErrNoActiveSession
	}
	if session.current == nil {
		return nil, ErrSnapshotPending
	}

	return session.current.aggregate, nil
}

// Subscribe streams every aggregate change for the user's session.
func (s *syncService) Subscribe(_ context.Context, userID string) (<-chan *entity.DailyAggregate, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return nil, nil, ErrNoActiveSession
	}

	id := session.nextSubID
	session.nextSubID++

	ch := make(chan *entity.DailyAggregate, 1)
	session.subscribers[id] = ch

	// Seed the new subscriber with the current view so it never starts blank.
	if session.current != nil {
		ch <- session.current.aggregate
	}

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if sub, exists := session.subscribers[id]; exists {
			delete(session.subscribers, id)
			close(sub)
		}
	}

	return ch, cancel, nil
}

// ApplyOptimistic mutates the local view without touching the remote store.
func (s *syncService) ApplyOptimistic(_ context.Context, userID, date string, mutate func(*entity.DailyAggregate)) (*entity.DailyAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		// A write without an open session still needs a view to mutate, e.g.
		// a REST client that never opened the stream. Start a detached
		// session from the placeholder shape.
		session = &diarySession{
			userID:      userID,
			date:        date,
			subscribers: make(map[int]chan *entity.DailyAggregate),
		}
		s.sessions[userID] = session
	}

	if session.date != date {
		// The change targets a day the session is not following. Apply it to
		// a standalone aggregate so the caller still gets a coherent result.
		detached := entity.NewDailyAggregate(userID, date, entity.DefaultNutritionTargets())
		mutate(detached)

		return detached, nil
	}

	base := entity.NewDailyAggregate(userID, date, entity.DefaultNutritionTargets())
	if session.current != nil {
		cloned := *session.current.aggregate
		base = &cloned
	}

	mutate(base)
	session.current = &diarySnapshot{aggregate: base, optimistic: true}
	s.broadcastLocked(session, base)

	return base, nil
}

// CloseSession tears down the user's subscription and session state.
func (s *syncService) CloseSession(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return nil
	}

	s.teardownWatchLocked(session)
	for id, sub := range session.subscribers {
		delete(session.subscribers, id)
		close(sub)
	}
	delete(s.sessions, userID)

	return nil
}

func (s *syncService) teardownWatchLocked(session *diarySession) {
	if session.guard != nil {
		session.guard.Stop()
		session.guard = nil
	}
	if session.watch != nil {
		session.watch.Close()
		session.watch = nil
	}
}

func (s *syncService) broadcastLocked(session *diarySession, agg *entity.DailyAggregate) {
	for _, sub := range session.subscribers {
		// Slow subscribers keep only the newest aggregate.
		select {
		case sub <- agg:
		default:
			select {
			case <-sub:
			default:
			}
			select {
			case sub <- agg:
			default:
			}
		}
	}
}
