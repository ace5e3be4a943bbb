// Package poller drives the long-poll loop against the platform and fans the
// returned updates out to concurrent handlers. The loop itself is strictly
// sequential; only dispatch is parallel.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/user/snowbot/internal/botapi"
)

// API is the platform surface the poller needs.
type API interface {
	GetUpdates(ctx context.Context, marker *int64) (*botapi.UpdateList, error)
}

// CursorStore persists the poll position across restarts.
type CursorStore interface {
	Load() (int64, bool)
	Save(marker int64) error
}

// Dispatcher handles one update.
type Dispatcher interface {
	Dispatch(ctx context.Context, u botapi.Update)
}

// errPause keeps a failing poll from spinning when the long-poll call returns
// immediately (network down, bad token).
const errPause = time.Second

// Poller owns the update cursor and the fan-out pool.
type Poller struct {
	api        API
	cursor     CursorStore
	dispatcher Dispatcher
	sem        *semaphore.Weighted
	wg         sync.WaitGroup
	pause      time.Duration
}

// New creates a Poller that dispatches at most maxConcurrent updates at once.
func New(api API, cursor CursorStore, dispatcher Dispatcher, maxConcurrent int64) *Poller {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Poller{
		api:        api,
		cursor:     cursor,
		dispatcher: dispatcher,
		sem:        semaphore.NewWeighted(maxConcurrent),
		pause:      errPause,
	}
}

// Run polls until ctx is cancelled, then waits for in-flight handlers to
// finish. Poll errors never terminate the loop; the long-poll call's own
// blocking is the only pacing on the happy path.
func (p *Poller) Run(ctx context.Context) {
	var marker *int64
	if v, ok := p.cursor.Load(); ok {
		marker = &v
		slog.Info("resuming from saved cursor", "marker", v)
	} else {
		slog.Info("no saved cursor, polling from the beginning")
	}

	for ctx.Err() == nil {
		list, err := p.api.GetUpdates(ctx, marker)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			slog.Error("get updates failed", "error", err)
			p.sleep(ctx)
			continue
		}

		// Persist the new cursor before dispatching the batch. A crash
		// between the two steps skips the batch rather than replaying it
		// under a different marker.
		if list.Marker != nil && (marker == nil || *list.Marker != *marker) {
			m := *list.Marker
			marker = &m
			if err := p.cursor.Save(m); err != nil {
				slog.Error("cursor save failed, continuing with in-memory cursor", "marker", m, "error", err)
			}
		}

		for _, u := range list.Updates {
			p.dispatch(ctx, u)
		}
	}

	p.wg.Wait()
	slog.Info("poller stopped")
}

// dispatch hands one update to the pool, preserving batch order of spawn but
// not of completion.
func (p *Poller) dispatch(ctx context.Context, u botapi.Update) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		p.dispatcher.Dispatch(ctx, u)
	}()
}

func (p *Poller) sleep(ctx context.Context) {
	select {
	case <-time.After(p.pause):
	case <-ctx.Done():
	}
}
