// Package gesture turns raw pointer events into element transforms: one
// pointer drags, two pointers pinch, rotate and pan together, and a pointer
// that never moved is a tap.
//
// The engine keeps one session per touched element. A session holds an
// immutable Baseline taken whenever the pointer count changes; every move
// is computed from that baseline, never accumulated from the previous move.
package gesture

import (
	"strconv"
	"time"

	"github.com/xob0t/CardStencil/pkg/card"
	"github.com/xob0t/CardStencil/pkg/geom"
	"github.com/xob0t/CardStencil/pkg/layout"
)

// ElementID names an editable element.
type ElementID struct {
	Kind card.Kind
	Key  string // frame index for photos, layer id otherwise
}

// Photo, Sticker and Text build element ids.
func Photo(frame int) ElementID { return ElementID{Kind: card.KindPhoto, Key: strconv.Itoa(frame)} }
func Sticker(id string) ElementID { return ElementID{Kind: card.KindSticker, Key: id} }
func Text(id string) ElementID { return ElementID{Kind: card.KindText, Key: id} }

func (e ElementID) String() string { return e.Kind.String() + ":" + e.Key }

// FrameIndex returns the frame of a photo id.
func (e ElementID) FrameIndex() (int, bool) {
	if e.Kind != card.KindPhoto {
		return 0, false
	}
	i, err := strconv.Atoi(e.Key)
	return i, err == nil
}

// PointerID identifies one finger or mouse.
type PointerID int

// Target owns the transforms the engine edits.
type Target interface {
	Transform(id ElementID) (card.Transform, bool)
	SetTransform(id ElementID, t card.Transform)
	Tap(id ElementID)
	DoubleTap(id ElementID)
}

// Limits bound a kind's scale and rotation (degrees).
type Limits struct {
	MinScale, MaxScale   float64
	MinRotate, MaxRotate float64
}

// Config tunes the engine.
type Config struct {
	// RenderedWidth is the on-screen width of the preview in pointer pixels.
	// Zero means the preview is shown at Space.PreviewWidth.
	RenderedWidth   float64
	Space           layout.Space
	Limits          map[card.Kind]Limits
	Damping         map[card.Kind]float64
	TapEpsilon      float64 // pixels
	DoubleTapWindow time.Duration
}

// DefaultConfig returns the editor defaults.
func DefaultConfig() Config {
	layer := Limits{MinScale: 0.2, MaxScale: 4, MinRotate: -180, MaxRotate: 180}
	return Config{
		Space: layout.DefaultSpace,
		Limits: map[card.Kind]Limits{
			card.KindPhoto:   {MinScale: 0.3, MaxScale: 2.5, MinRotate: -180, MaxRotate: 180},
			card.KindSticker: layer,
			card.KindText:    layer,
		},
		Damping: map[card.Kind]float64{
			card.KindPhoto:   1,
			card.KindSticker: 0.5,
			card.KindText:    0.5,
		},
		TapEpsilon:      2,
		DoubleTapWindow: 260 * time.Millisecond,
	}
}

// UnitsPerPixel converts pointer pixels to the unit the kind's offsets are
// stored in.
func (c Config) UnitsPerPixel(k card.Kind) float64 {
	sp := c.Space
	if sp.CanvasWidth <= 0 {
		sp = layout.DefaultSpace
	}
	rendered := c.RenderedWidth
	if rendered <= 0 {
		rendered = sp.PreviewWidth
	}
	if k.Unit() == card.UnitPreview {
		return sp.PreviewWidth / rendered
	}
	return sp.CanvasWidth / rendered
}

func (c Config) damping(k card.Kind) float64 {
	if d, ok := c.Damping[k]; ok && d > 0 {
		return d
	}
	return 1
}

func (c Config) limits(k card.Kind) Limits {
	if l, ok := c.Limits[k]; ok {
		return l
	}
	return Limits{MinScale: 0.01, MaxScale: 100, MinRotate: -180, MaxRotate: 180}
}

// Baseline is the snapshot a pointer-count epoch is measured from.
type Baseline struct {
	Pointers  []geom.Point // positions of the tracked pointers, in arrival order
	Distance  float64      // between the first two pointers
	Angle     float64      // radians, first to second pointer
	Midpoint  geom.Point
	Transform card.Transform
}

type session struct {
	id    ElementID
	order []PointerID
	pos   map[PointerID]geom.Point
	down  map[PointerID]geom.Point
	moved bool
	base  Baseline
}

// Engine routes pointer events to sessions. It is not safe for concurrent
// use; event handlers run on one goroutine.
type Engine struct {
	cfg      Config
	target   Target
	sessions map[ElementID]*session
	owners   map[PointerID]ElementID
	lastTap  map[ElementID]time.Time
}

// NewEngine returns an engine editing target.
func NewEngine(target Target, cfg Config) *Engine {
	return &Engine{
		cfg:      cfg,
		target:   target,
		sessions: make(map[ElementID]*session),
		owners:   make(map[PointerID]ElementID),
		lastTap:  make(map[ElementID]time.Time),
	}
}

// SetRenderedWidth updates the on-screen preview width after a resize.
func (e *Engine) SetRenderedWidth(w float64) { e.cfg.RenderedWidth = w }

// Active reports whether id has a live session.
func (e *Engine) Active(id ElementID) bool {
	_, ok := e.sessions[id]
	return ok
}

// Baseline returns the current baseline of id's session.
func (e *Engine) Baseline(id ElementID) (Baseline, bool) {
	s, ok := e.sessions[id]
	if !ok {
		return Baseline{}, false
	}
	return s.base, true
}

// Down starts tracking pointer on element id. A pointer that is already
// tracked is ignored.
func (e *Engine) Down(id ElementID, pointer PointerID, pos geom.Point, at time.Time) {
	if _, ok := e.owners[pointer]; ok {
		return
	}
	if _, ok := e.target.Transform(id); !ok {
		return
	}
	s, ok := e.sessions[id]
	if !ok {
		s = &session{
			id:   id,
			pos:  make(map[PointerID]geom.Point),
			down: make(map[PointerID]geom.Point),
		}
		e.sessions[id] = s
	}
	e.owners[pointer] = id
	s.order = append(s.order, pointer)
	s.pos[pointer] = pos
	s.down[pointer] = pos
	e.rebaseline(s)
}

// Move updates pointer and applies one composite transform update.
func (e *Engine) Move(pointer PointerID, pos geom.Point, at time.Time) {
	s := e.session(pointer)
	if s == nil {
		return
	}
	s.pos[pointer] = pos
	if geom.Distance(pos, s.down[pointer]) >= e.cfg.TapEpsilon {
		s.moved = true
	}
	e.target.SetTransform(s.id, e.compute(s))
}

// Up stops tracking pointer. When it was the last pointer of an element
// that never moved, the element gets a Tap or, within the double-tap
// window of the previous tap, a DoubleTap.
func (e *Engine) Up(pointer PointerID, pos geom.Point, at time.Time) {
	s := e.session(pointer)
	if s == nil {
		return
	}
	if geom.Distance(pos, s.down[pointer]) >= e.cfg.TapEpsilon {
		s.moved = true
	}
	e.release(s, pointer)
	if len(s.order) > 0 {
		return
	}
	e.pruneTaps(at)
	if s.moved {
		return
	}
	if last, ok := e.lastTap[s.id]; ok && at.Sub(last) <= e.cfg.DoubleTapWindow {
		delete(e.lastTap, s.id)
		e.target.DoubleTap(s.id)
		return
	}
	e.lastTap[s.id] = at
	e.target.Tap(s.id)
}

// pruneTaps forgets taps too old to start a double tap, including those of
// elements that no longer exist.
func (e *Engine) pruneTaps(now time.Time) {
	for id, last := range e.lastTap {
		if now.Sub(last) > e.cfg.DoubleTapWindow {
			delete(e.lastTap, id)
		}
	}
}

// Cancel stops tracking pointer without a tap.
func (e *Engine) Cancel(pointer PointerID) {
	if s := e.session(pointer); s != nil {
		s.moved = true
		e.release(s, pointer)
	}
}

func (e *Engine) session(pointer PointerID) *session {
	id, ok := e.owners[pointer]
	if !ok {
		return nil
	}
	return e.sessions[id]
}

func (e *Engine) release(s *session, pointer PointerID) {
	delete(e.owners, pointer)
	delete(s.pos, pointer)
	delete(s.down, pointer)
	for i, p := range s.order {
		if p == pointer {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if len(s.order) == 0 {
		delete(e.sessions, s.id)
		return
	}
	e.rebaseline(s)
}

// rebaseline snapshots the current pointers and element transform.
func (e *Engine) rebaseline(s *session) {
	t, ok := e.target.Transform(s.id)
	if !ok {
		t = card.Identity
	}
	b := Baseline{Transform: t}
	for _, p := range s.order {
		b.Pointers = append(b.Pointers, s.pos[p])
	}
	if len(b.Pointers) >= 2 {
		p0, p1 := b.Pointers[0], b.Pointers[1]
		b.Distance = geom.Distance(p0, p1)
		b.Angle = geom.Angle(p0, p1)
		b.Midpoint = geom.Midpoint(p0, p1)
	}
	s.base = b
}

// compute derives the element transform from the baseline and the current
// pointer positions.
func (e *Engine) compute(s *session) card.Transform {
	b := s.base
	t := b.Transform
	kind := s.id.Kind
	units := e.cfg.UnitsPerPixel(kind)

	if len(s.order) == 1 {
		d := s.pos[s.order[0]].Sub(b.Pointers[0]).Mul(units * e.cfg.damping(kind))
		return t.WithOffset(b.Transform.Offset().Add(d))
	}

	p0, p1 := s.pos[s.order[0]], s.pos[s.order[1]]
	lim := e.cfg.limits(kind)
	if b.Distance > 0 {
		t.Scale = geom.Clamp(b.Transform.Scale*geom.Distance(p0, p1)/b.Distance, lim.MinScale, lim.MaxScale)
	}
	delta := geom.NormalizeDegrees(geom.RadToDeg(geom.Angle(p0, p1) - b.Angle))
	t.Rotate = geom.Clamp(geom.NormalizeDegrees(b.Transform.Rotate+delta), lim.MinRotate, lim.MaxRotate)
	pan := geom.Midpoint(p0, p1).Sub(b.Midpoint).Mul(units)
	return t.WithOffset(b.Transform.Offset().Add(pan))
}
