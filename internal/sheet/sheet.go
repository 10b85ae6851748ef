// Package sheet is the snap-point state machine of the map's bottom sheet.
package sheet

import (
	"fmt"
	"math"
	"sync"
)

type Snap int

const (
	Docked Snap = iota
	Third
	Mid
	Full
)

var snapNames = [...]string{"DOCKED", "THIRD", "MID", "FULL"}

func (s Snap) String() string {
	if s < Docked || s > Full {
		return fmt.Sprintf("Snap(%d)", int(s))
	}
	return snapNames[s]
}

const (
	// DockedHeight is the height of the handle bar, in points.
	DockedHeight = 60.0
	// VelocityFactor extrapolates release velocity into extra travel.
	VelocityFactor = 100.0
	FullRatio      = 0.85
)

// Heights holds the four snap heights, indexed by Snap.
type Heights [4]float64

// HeightsFor derives snap heights from the screen height. No snap is lower
// than the docked handle.
func HeightsFor(screenHeight float64) Heights {
	return Heights{
		Docked: DockedHeight,
		Third:  math.Max(DockedHeight, screenHeight/3),
		Mid:    math.Max(DockedHeight, screenHeight/2),
		Full:   math.Max(DockedHeight, screenHeight*FullRatio),
	}
}

// Nearest returns the snap closest to h. Ties go to the lower snap.
func (hs Heights) Nearest(h float64) Snap {
	best := Docked
	bestDist := math.Abs(h - hs[Docked])
	for s := Third; s <= Full; s++ {
		if d := math.Abs(h - hs[s]); d < bestDist {
			best, bestDist = s, d
		}
	}
	return best
}

func (hs Heights) clamp(h float64) float64 {
	return math.Min(math.Max(h, hs[Docked]), hs[Full])
}

// State is the sheet at rest at Snap, or mid-drag at a provisional Height.
type State struct {
	Snap     Snap
	Dragging bool
	Height   float64
}

type Option func(*Sheet)

// WithOnDocked registers a hook run every time the sheet enters DOCKED, used
// to scroll the content list back to the top.
func WithOnDocked(fn func()) Option {
	return func(s *Sheet) { s.onDocked = fn }
}

type Sheet struct {
	mu           sync.Mutex
	heights      Heights
	snap         Snap
	dragging     bool
	dragHeight   float64
	scrollResets int
	onDocked     func()
}

// New returns a sheet docked at the bottom of a screen of the given height.
func New(screenHeight float64, opts ...Option) *Sheet {
	s := &Sheet{heights: HeightsFor(screenHeight), snap: Docked}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Sheet) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.heights[s.snap]
	if s.dragging {
		h = s.dragHeight
	}
	return State{Snap: s.snap, Dragging: s.dragging, Height: h}
}

func (s *Sheet) Snap() Snap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *Sheet) Heights() Heights {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heights
}

// Resize recomputes snap heights, e.g. after rotation. The snap is kept.
func (s *Sheet) Resize(screenHeight float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heights = HeightsFor(screenHeight)
	s.dragging = false
}

// Tap advances DOCKED → THIRD → MID → FULL → DOCKED.
func (s *Sheet) Tap() Snap {
	s.mu.Lock()
	next := (s.snap + 1) % (Full + 1)
	hook := s.settle(next)
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return next
}

// Drag tracks a pan gesture. deltaY is the finger travel since the gesture
// began, positive downwards. The snap does not change.
func (s *Sheet) Drag(deltaY float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dragging = true
	s.dragHeight = s.heights.clamp(s.heights[s.snap] - deltaY)
	return s.dragHeight
}

// Release ends a pan gesture and snaps to the height closest to where the
// gesture would carry the sheet at the release velocity.
func (s *Sheet) Release(deltaY, velocity float64) Snap {
	s.mu.Lock()
	projected := s.heights[s.snap] - deltaY - velocity*VelocityFactor
	next := s.heights.Nearest(projected)
	hook := s.settle(next)
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return next
}

// ScrollResetCount is how many times the content list was sent back to the
// top, once per entry into DOCKED.
func (s *Sheet) ScrollResetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scrollResets
}

// settle must be called with mu held. It returns the docked hook to run
// after unlocking, if any.
func (s *Sheet) settle(next Snap) func() {
	s.snap = next
	s.dragging = false
	if next != Docked {
		return nil
	}
	s.scrollResets++
	return s.onDocked
}
