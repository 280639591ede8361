package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// SnapshotCache persists the latest raw snapshot of a collection.
type SnapshotCache interface {
	SaveSnapshot(ctx context.Context, collection string, raw []byte) error
}

// Observer is notified about feed activity. It must be safe for concurrent use.
type Observer interface {
	FeedUpdated(collection string, records int)
	FeedFailed(collection string)
}

type noopObserver struct{}

func (noopObserver) FeedUpdated(string, int) {}
func (noopObserver) FeedFailed(string)       {}

// cacheTimeout bounds a single snapshot write to the cache.
const cacheTimeout = 5 * time.Second

// Subscriber holds one live subscription per collection and forwards every
// snapshot to the Bubble Tea runtime as an UpdateMsg.
type Subscriber struct {
	src      Source
	cache    SnapshotCache
	observer Observer
	updates  chan UpdateMsg

	mu      gosync.Mutex
	cancel  context.CancelFunc
	wg      gosync.WaitGroup
	running bool
	stopped bool
}

// NewSubscriber creates a Subscriber for src. cache and observer may be nil.
func NewSubscriber(src Source, cache SnapshotCache, observer Observer) *Subscriber {
	if observer == nil {
		observer = noopObserver{}
	}
	return &Subscriber{
		src:      src,
		cache:    cache,
		observer: observer,
		updates:  make(chan UpdateMsg, 16),
	}
}

// Start opens a subscription for every collection and returns a command
// that waits for the first update. It is a no-op once started or stopped.
func (s *Subscriber) Start() tea.Cmd {
	s.mu.Lock()
	if s.running || s.stopped {
		s.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	s.wg.Add(len(Collections))
	s.mu.Unlock()

	for _, c := range Collections {
		go s.subscribe(ctx, c)
	}

	return s.WaitForNext()
}

// Stop cancels every subscription and waits for them to exit. Updates still
// buffered are discarded, so after Stop returns no further UpdateMsg is
// produced. Stop is idempotent.
func (s *Subscriber) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	wasRunning := s.running
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	if wasRunning {
		cancel()
		s.wg.Wait()
	}
drain:
	for {
		select {
		case <-s.updates:
		default:
			break drain
		}
	}
	close(s.updates)
}

// Active reports whether the subscriptions are live.
func (s *Subscriber) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// WaitForNext returns a tea.Cmd that waits for the next update. It should
// be re-issued after every UpdateMsg is handled.
func (s *Subscriber) WaitForNext() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-s.updates
		if !ok || !s.Active() {
			return nil
		}
		return msg
	}
}

// subscribe runs a single collection stream until ctx is cancelled or the
// stream fails. Failures are reported once as an empty UpdateMsg.
func (s *Subscriber) subscribe(ctx context.Context, c Collection) {
	defer s.wg.Done()

	tree := NewTree()
	err := s.src.Stream(ctx, c, func(ev Event) error {
		var applyErr error
		switch ev.Name {
		case "put":
			applyErr = tree.Put(ev.Path, ev.Data)
		case "patch":
			applyErr = tree.Patch(ev.Path, ev.Data)
		default:
			return nil
		}
		if applyErr != nil {
			return applyErr
		}

		raw, err := tree.Snapshot()
		if err != nil {
			return err
		}
		s.publish(ctx, c, raw)
		return nil
	})

	if err == nil || ctx.Err() != nil {
		return
	}

	log.Printf("feed %s: subscription ended: %v", c, err)
	s.observer.FeedFailed(string(c))
	s.send(ctx, UpdateMsg{Collection: c, Err: fmt.Errorf("subscribing to %s: %w", c, err)})
}

// publish decodes a snapshot, caches it and forwards it.
func (s *Subscriber) publish(ctx context.Context, c Collection, raw json.RawMessage) {
	msg := Decode(c, raw)
	if msg.Err != nil {
		log.Printf("feed %s: %v", c, msg.Err)
		s.observer.FeedFailed(string(c))
	} else {
		s.observer.FeedUpdated(string(c), msg.Len())
	}

	if s.cache != nil && msg.Err == nil {
		cctx, cancel := context.WithTimeout(ctx, cacheTimeout)
		if err := s.cache.SaveSnapshot(cctx, string(c), raw); err != nil {
			log.Printf("feed %s: caching snapshot: %v", c, err)
		}
		cancel()
	}

	s.send(ctx, msg)
}

// send delivers msg unless the subscriber is being stopped.
func (s *Subscriber) send(ctx context.Context, msg UpdateMsg) {
	msg.From = s
	select {
	case s.updates <- msg:
	case <-ctx.Done():
	}
}
