package viewport

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Hub keeps one Watcher per key, typically a gateway session, and the latest
// committed result of each. Watchers idle for longer than the idle timeout
// are closed by Sweep.
type Hub[T any] struct {
	cfg   Config
	fetch FetchFunc[T]
	log   logrus.FieldLogger
	idle  time.Duration

	mu      sync.Mutex
	entries map[string]*hubEntry[T]
}

type hubEntry[T any] struct {
	watcher  *Watcher[T]
	latest   *Result[T]
	lastSeen time.Time
}

// DefaultIdle is how long a Hub keeps an untouched watcher.
const DefaultIdle = 10 * time.Minute

func NewHub[T any](cfg Config, fetch FetchFunc[T], idle time.Duration, log logrus.FieldLogger) *Hub[T] {
	if idle <= 0 {
		idle = DefaultIdle
	}
	return &Hub[T]{
		cfg:     cfg,
		fetch:   fetch,
		log:     log,
		idle:    idle,
		entries: make(map[string]*hubEntry[T]),
	}
}

func (h *Hub[T]) entry(key string) *hubEntry[T] {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.entries[key]
	if !ok {
		e = &hubEntry[T]{}
		e.watcher = NewWatcher(h.cfg, h.fetch, func(r Result[T]) {
			h.mu.Lock()
			e.latest = &r
			h.mu.Unlock()
		}, h.log.WithField("viewport_key", key))
		h.entries[key] = e
	}
	e.lastSeen = time.Now()
	return e
}

func (h *Hub[T]) Update(key string, v Viewport) {
	h.entry(key).watcher.Update(v)
}

func (h *Hub[T]) Refresh(key string, v Viewport) {
	h.entry(key).watcher.Refresh(v)
}

// Latest returns the most recent committed result for key.
func (h *Hub[T]) Latest(key string) (Result[T], bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.entries[key]
	if !ok || e.latest == nil {
		return Result[T]{}, false
	}
	e.lastSeen = time.Now()
	return *e.latest, true
}

// Sweep closes watchers not touched within the idle timeout.
func (h *Hub[T]) Sweep(now time.Time) int {
	h.mu.Lock()
	var stale []*Watcher[T]
	for key, e := range h.entries {
		if now.Sub(e.lastSeen) > h.idle {
			stale = append(stale, e.watcher)
			delete(h.entries, key)
		}
	}
	h.mu.Unlock()

	for _, w := range stale {
		w.Close()
	}
	return len(stale)
}

// Run sweeps idle watchers until ctx is done.
func (h *Hub[T]) Run(ctx context.Context) {
	ticker := time.NewTicker(h.idle)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			if n := h.Sweep(now); n > 0 {
				h.log.WithField("closed", n).Debug("idle viewport watchers closed")
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub[T]) Close() {
	h.mu.Lock()
	entries := h.entries
	h.entries = make(map[string]*hubEntry[T])
	h.mu.Unlock()

	for _, e := range entries {
		e.watcher.Close()
	}
}
