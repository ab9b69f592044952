package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/modguard/dashboard-api/internal/events"
)

// UsernameStore is the slice of the activity store the backfill needs.
type UsernameStore interface {
	SetUsername(ctx context.Context, userID, username string) error
}

// Backfill consumes resolved-username events and fills the username column
// on stored activity rows. A bounded queue plus a fixed worker pool keeps
// the concurrency explicit; when the queue is full, events are dropped and
// counted in the logs, not silently lost in detached goroutines.
type Backfill struct {
	store   UsernameStore
	queue   chan usernameUpdate
	workers int
	wg      sync.WaitGroup
	log     *zap.Logger
}

type usernameUpdate struct {
	userID   string
	username string
}

func NewBackfill(store UsernameStore, workers int, log *zap.Logger) *Backfill {
	if workers <= 0 {
		workers = 4
	}
	return &Backfill{
		store:   store,
		queue:   make(chan usernameUpdate, 256),
		workers: workers,
		log:     log,
	}
}

func (b *Backfill) Start(ctx context.Context) {
	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case upd, ok := <-b.queue:
					if !ok {
						return
					}
					if err := b.store.SetUsername(ctx, upd.userID, upd.username); err != nil {
						b.log.Warn("username backfill failed",
							zap.String("user_id", upd.userID),
							zap.Error(err),
						)
					}
				}
			}
		}()
	}
}

// Handle is the pub/sub callback. Non-blocking: a full queue drops the
// event rather than stalling the subscriber loop.
func (b *Backfill) Handle(event events.Event) {
	if event.Type != events.EventUsernameResolved {
		return
	}
	userID, _ := event.Payload["user_id"].(string)
	username, _ := event.Payload["username"].(string)
	if userID == "" || username == "" {
		return
	}

	select {
	case b.queue <- usernameUpdate{userID: userID, username: username}:
	default:
		b.log.Warn("backfill queue full, dropping event", zap.String("user_id", userID))
	}
}

// Stop waits for workers to drain. Callers cancel the Start context first;
// the queue stays open so a late Handle never panics.
func (b *Backfill) Stop() {
	b.wg.Wait()
}
