// Package viewport turns a stream of map viewport changes into debounced,
// cancellable nearby fetches.
package viewport

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/fjod/ixplor/internal/domain"
	"github.com/fjod/ixplor/internal/geo"
	"github.com/sirupsen/logrus"
)

const (
	DefaultDebounce      = 2 * time.Second
	DefaultMinDistanceKm = 1.0
	DefaultMinZoomDelta  = 1.0
)

type Viewport struct {
	Center       domain.Coordinate `json:"center"`
	Zoom         float64           `json:"zoom"`
	RadiusMeters float64           `json:"radiusMeters"`
}

// Significant reports whether moving from prev to v warrants a refetch: the
// center moved at least minKm, or the zoom changed by at least minZoom.
func Significant(prev, v Viewport, minKm, minZoom float64) bool {
	km := geo.MilesToKilometers(geo.Haversine(
		prev.Center.Latitude, prev.Center.Longitude,
		v.Center.Latitude, v.Center.Longitude,
	))
	return km >= minKm || math.Abs(v.Zoom-prev.Zoom) >= minZoom
}

type FetchFunc[T any] func(ctx context.Context, v Viewport) (T, error)

// Result is a committed fetch. Generation grows with every started fetch.
type Result[T any] struct {
	Viewport   Viewport
	Value      T
	Err        error
	Generation uint64
	FetchedAt  time.Time
}

type Config struct {
	Debounce      time.Duration
	MinDistanceKm float64
	MinZoomDelta  float64
}

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.MinDistanceKm <= 0 {
		c.MinDistanceKm = DefaultMinDistanceKm
	}
	if c.MinZoomDelta <= 0 {
		c.MinZoomDelta = DefaultMinZoomDelta
	}
	return c
}

type request struct {
	v     Viewport
	force bool
}

type outcome[T any] struct {
	gen uint64
	v   Viewport
	val T
	err error
}

// Watcher owns one logical nearby query. At most one fetch is in flight;
// starting a new one cancels the previous, and results of superseded fetches
// are dropped rather than committed.
type Watcher[T any] struct {
	cfg      Config
	fetch    FetchFunc[T]
	onResult func(Result[T])
	log      logrus.FieldLogger

	updates chan request
	results chan outcome[T]
	done    chan struct{}
	stopped chan struct{}

	closeOnce sync.Once
}

func NewWatcher[T any](cfg Config, fetch FetchFunc[T], onResult func(Result[T]), log logrus.FieldLogger) *Watcher[T] {
	w := &Watcher[T]{
		cfg:      cfg.withDefaults(),
		fetch:    fetch,
		onResult: onResult,
		log:      log,
		updates:  make(chan request),
		results:  make(chan outcome[T]),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go w.run()
	return w
}

// Update reports a viewport change. The fetch starts once changes settle for
// the debounce delay, and only if the movement is significant.
func (w *Watcher[T]) Update(v Viewport) {
	w.submit(request{v: v})
}

// Refresh fetches v right away, skipping debounce and movement checks.
func (w *Watcher[T]) Refresh(v Viewport) {
	w.submit(request{v: v, force: true})
}

func (w *Watcher[T]) submit(r request) {
	select {
	case w.updates <- r:
	case <-w.done:
	}
}

// Close cancels any in-flight fetch and waits for the watcher to stop.
func (w *Watcher[T]) Close() {
	w.closeOnce.Do(func() { close(w.done) })
	<-w.stopped
}

func (w *Watcher[T]) run() {
	defer close(w.stopped)

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending Viewport
		last    Viewport
		hasLast bool
		gen     uint64
		cancel  context.CancelFunc
	)

	start := func(v Viewport) {
		if cancel != nil {
			cancel()
		}
		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		gen++
		last, hasLast = v, true

		go func(ctx context.Context, gen uint64) {
			val, err := w.fetch(ctx, v)
			select {
			case w.results <- outcome[T]{gen: gen, v: v, val: val, err: err}:
			case <-w.done:
			}
		}(ctx, gen)
	}

	for {
		select {
		case r := <-w.updates:
			if r.force {
				if timer != nil {
					timer.Stop()
				}
				timerC = nil
				start(r.v)
				continue
			}
			pending = r.v
			if timer == nil {
				timer = time.NewTimer(w.cfg.Debounce)
			} else {
				timer.Reset(w.cfg.Debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if hasLast && !Significant(last, pending, w.cfg.MinDistanceKm, w.cfg.MinZoomDelta) {
				w.log.WithField("generation", gen).Debug("viewport change below threshold, fetch skipped")
				continue
			}
			start(pending)

		case o := <-w.results:
			if o.gen != gen {
				w.log.WithField("generation", o.gen).Debug("stale viewport fetch dropped")
				continue
			}
			w.onResult(Result[T]{Viewport: o.v, Value: o.val, Err: o.err, Generation: o.gen, FetchedAt: time.Now()})

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			if cancel != nil {
				cancel()
			}
			return
		}
	}
}
