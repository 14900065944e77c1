// Package editor holds the state of one card being composed: photos bound
// to frame slots, stickers and text layers. A Session is the gesture
// engine's Target and produces the persisted card when editing finishes.
package editor

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/xob0t/CardStencil/pkg/card"
	"github.com/xob0t/CardStencil/pkg/fit"
	"github.com/xob0t/CardStencil/pkg/gesture"
	"github.com/xob0t/CardStencil/pkg/logging"
	"github.com/xob0t/CardStencil/pkg/shape"
	"github.com/xob0t/CardStencil/pkg/template"
)

var (
	ErrNoFreeSlot  = errors.New("no free photo slot")
	ErrTextLimit   = errors.New("text layer limit reached")
	ErrPrimaryText = errors.New("primary text layer cannot be removed")
	ErrNotFound    = errors.New("element not found")
)

// Layout of added text layers, canvas units.
const (
	NewTextContent = "New Text"
	textStackTop   = -170
	textStackStep  = 135
)

type slot struct {
	photo card.PhotoElement
	local *LocalImage // nil once uploaded
}

// Session is a card in the editor. Methods are safe for concurrent use.
type Session struct {
	mu    sync.Mutex
	blobs BlobStore

	tpl       *template.Template
	message   string
	textColor string
	textStyle card.TextStyle
	reveal    string

	slots    map[int]*slot
	stickers []card.StickerLayer
	texts    []card.TextLayer
	active   gesture.ElementID
}

// New starts a session on tpl with the default message as primary text.
// A nil blobs uses a fresh MemoryBlobs.
func New(tpl *template.Template, blobs BlobStore) *Session {
	if blobs == nil {
		blobs = NewMemoryBlobs()
	}
	s := &Session{
		blobs:     blobs,
		tpl:       tpl,
		message:   card.DefaultMessage,
		textColor: card.DefaultTextColor,
		textStyle: card.StyleModern,
		slots:     make(map[int]*slot),
	}
	s.texts = []card.TextLayer{{
		ID:        card.PrimaryTextID,
		Content:   s.message,
		Color:     s.textColor,
		Style:     s.textStyle,
		Transform: card.Identity,
	}}
	s.active = gesture.Text(card.PrimaryTextID)
	return s
}

// Template returns the current template.
func (s *Session) Template() *template.Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tpl
}

// SetTemplate switches the template. Photos keep their slots; slots beyond
// the new frame count stay stored but do not render.
func (s *Session) SetTemplate(tpl *template.Template) {
	s.mu.Lock()
	s.tpl = tpl
	s.mu.Unlock()
}

// capacity is the number of photo slots of the current template.
func (s *Session) capacity() int {
	if s.tpl.FreePlacement() {
		return card.MaxPhotos
	}
	return len(s.tpl.Frames)
}

// ── Photos ──

// AddImages assigns imgs to the empty slots in ascending order and returns
// the slots used. Images that find no slot are not kept and the error is
// ErrNoFreeSlot.
func (s *Session) AddImages(imgs ...LocalImage) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var used []int
	idx := 0
	for n, img := range imgs {
		for idx < s.capacity() && s.slots[idx] != nil {
			idx++
		}
		if idx >= s.capacity() {
			logging.Logger().Warn("photo slots full", "dropped", len(imgs)-n)
			return used, ErrNoFreeSlot
		}
		s.place(idx, img)
		used = append(used, idx)
		idx++
	}
	return used, nil
}

// SetImage puts img into slot i, replacing and releasing what was there.
func (s *Session) SetImage(i int, img LocalImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= s.capacity() {
		return ErrNoFreeSlot
	}
	s.place(i, img)
	return nil
}

// place binds img to slot i with the fit and rotation hints of its frame.
func (s *Session) place(i int, img LocalImage) {
	s.release(i)
	mode, scale := fit.Cover, 1.0
	if !s.tpl.FreePlacement() {
		fr := s.tpl.Frames[i]
		mode = fit.ChooseFit(float64(img.Width), float64(img.Height), fr.W, fr.H)
		scale = fit.InitialScale(mode)
	}
	ref := s.blobs.Put(img)
	local := img
	s.slots[i] = &slot{
		photo: card.PhotoElement{
			FrameIndex: i,
			URL:        ref,
			Transform:  card.Transform{Scale: scale, Rotate: s.tpl.FrameRotation(i)},
			Shape:      s.tpl.Shape(),
			Fit:        mode,
		},
		local: &local,
	}
	s.active = gesture.Photo(i)
	logging.Logger().Debug("photo placed", "slot", i, "fit", mode, "size", [2]int{img.Width, img.Height})
}

// release drops slot i and revokes its local reference.
func (s *Session) release(i int) {
	sl, ok := s.slots[i]
	if !ok {
		return
	}
	if IsBlob(sl.photo.URL) {
		s.blobs.Revoke(sl.photo.URL)
	}
	delete(s.slots, i)
}

// RemovePhoto empties slot i.
func (s *Session) RemovePhoto(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[i]; !ok {
		return ErrNotFound
	}
	s.release(i)
	return nil
}

// Photo returns the photo in slot i.
func (s *Session) Photo(i int) (card.PhotoElement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[i]
	if !ok {
		return card.PhotoElement{}, false
	}
	return sl.photo, true
}

// SetShape sets the clip shape of the photo in slot i.
func (s *Session) SetShape(i int, sh shape.Shape) error {
	if !sh.Valid() {
		return ErrNotFound
	}
	return s.updatePhoto(i, func(p *card.PhotoElement) { p.Shape = sh })
}

// SetFit switches the fit of the photo in slot i and adjusts its scale.
func (s *Session) SetFit(i int, m fit.Mode) error {
	return s.updatePhoto(i, func(p *card.PhotoElement) {
		p.Fit = m
		p.Scale = fit.ToggleScale(m, p.Scale)
	})
}

func (s *Session) updatePhoto(i int, fn func(*card.PhotoElement)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[i]
	if !ok {
		return ErrNotFound
	}
	fn(&sl.photo)
	return nil
}

// ── Stickers ──

// AddSticker puts def on top of the existing stickers at the canvas centre.
func (s *Session) AddSticker(def template.Sticker) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := "st_" + uuid.NewString()
	s.stickers = append(s.stickers, card.StickerLayer{
		ID:        id,
		StickerID: def.ID,
		Src:       def.Src,
		Transform: card.Identity,
		Z:         len(s.stickers) + 1,
	})
	s.active = gesture.Sticker(id)
	return id
}

// RemoveSticker deletes sticker id.
func (s *Session) RemoveSticker(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, st := range s.stickers {
		if st.ID == id {
			s.stickers = append(s.stickers[:i], s.stickers[i+1:]...)
			s.deselect(gesture.Sticker(id))
			return nil
		}
	}
	return ErrNotFound
}

// ── Text ──

// AddText adds a text layer below the previous ones in the current colour
// and style.
func (s *Session) AddText() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.texts) >= card.MaxTextLayers {
		return "", ErrTextLimit
	}
	id := "txt_" + uuid.NewString()
	s.texts = append(s.texts, card.TextLayer{
		ID:        id,
		Content:   NewTextContent,
		Color:     s.textColor,
		Style:     s.textStyle,
		Transform: card.Transform{Y: textStackTop - float64(len(s.texts))*textStackStep, Scale: 1},
		Z:         len(s.texts),
	})
	s.active = gesture.Text(id)
	return id, nil
}

// RemoveText deletes text layer id. The primary layer stays.
func (s *Session) RemoveText(id string) error {
	if id == card.PrimaryTextID {
		return ErrPrimaryText
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.texts {
		if t.ID == id {
			s.texts = append(s.texts[:i], s.texts[i+1:]...)
			s.deselect(gesture.Text(id))
			return nil
		}
	}
	return ErrNotFound
}

// SetTextContent replaces the content of layer id. Editing the primary
// layer edits the message.
func (s *Session) SetTextContent(id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == card.PrimaryTextID {
		s.message = content
		s.syncPrimary()
		return nil
	}
	t := s.text(id)
	if t == nil {
		return ErrNotFound
	}
	t.Content = content
	return nil
}

// SetMessage sets the card message, mirrored by the primary layer.
func (s *Session) SetMessage(msg string) {
	s.mu.Lock()
	s.message = msg
	s.syncPrimary()
	s.mu.Unlock()
}

// SetTextColor sets the card text colour, mirrored by the primary layer.
func (s *Session) SetTextColor(col string) {
	s.mu.Lock()
	s.textColor = col
	s.syncPrimary()
	s.mu.Unlock()
}

// SetTextStyle sets the card text style, mirrored by the primary layer.
func (s *Session) SetTextStyle(st card.TextStyle) {
	s.mu.Lock()
	s.textStyle = card.ParseTextStyle(string(st))
	s.syncPrimary()
	s.mu.Unlock()
}

// SetReveal sets the reveal tag stored with the card.
func (s *Session) SetReveal(r string) {
	s.mu.Lock()
	s.reveal = r
	s.mu.Unlock()
}

func (s *Session) syncPrimary() {
	if t := s.text(card.PrimaryTextID); t != nil {
		t.Content, t.Color, t.Style = s.message, s.textColor, s.textStyle
	}
}

func (s *Session) text(id string) *card.TextLayer {
	for i := range s.texts {
		if s.texts[i].ID == id {
			return &s.texts[i]
		}
	}
	return nil
}

func (s *Session) sticker(id string) *card.StickerLayer {
	for i := range s.stickers {
		if s.stickers[i].ID == id {
			return &s.stickers[i]
		}
	}
	return nil
}

// ── Selection and gesture target ──

// Active returns the selected element.
func (s *Session) Active() gesture.ElementID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Select makes id the selected element.
func (s *Session) Select(id gesture.ElementID) {
	s.mu.Lock()
	s.active = id
	s.mu.Unlock()
}

func (s *Session) deselect(id gesture.ElementID) {
	if s.active == id {
		s.active = gesture.ElementID{}
	}
}

// transform returns a pointer to the transform behind id.
func (s *Session) transform(id gesture.ElementID) *card.Transform {
	switch id.Kind {
	case card.KindPhoto:
		i, ok := id.FrameIndex()
		if !ok {
			return nil
		}
		if sl, ok := s.slots[i]; ok {
			return &sl.photo.Transform
		}
	case card.KindSticker:
		if st := s.sticker(id.Key); st != nil {
			return &st.Transform
		}
	case card.KindText:
		if t := s.text(id.Key); t != nil {
			return &t.Transform
		}
	}
	return nil
}

// Transform implements gesture.Target.
func (s *Session) Transform(id gesture.ElementID) (card.Transform, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.transform(id)
	if t == nil {
		return card.Transform{}, false
	}
	return *t, true
}

// SetTransform implements gesture.Target.
func (s *Session) SetTransform(id gesture.ElementID, tr card.Transform) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.transform(id); t != nil {
		*t = tr
	}
}

// Tap selects id; tapping a photo also cycles its shape.
func (s *Session) Tap(id gesture.ElementID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = id
	if i, ok := id.FrameIndex(); ok {
		if sl, ok := s.slots[i]; ok {
			sl.photo.Shape = shape.Next(sl.photo.Shape)
		}
	}
}

// DoubleTap toggles the fit of a photo.
func (s *Session) DoubleTap(id gesture.ElementID) {
	i, ok := id.FrameIndex()
	if !ok {
		return
	}
	_ = s.updatePhoto(i, func(p *card.PhotoElement) {
		p.Fit = fit.Parse(string(p.Fit)).Toggle()
		p.Scale = fit.ToggleScale(p.Fit, p.Scale)
	})
}

// ── Snapshot ──

// Card returns a snapshot of the composition for rendering. Photos that are
// not uploaded yet carry their blob reference.
func (s *Session) Card() *card.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() *card.Card {
	c := &card.Card{
		TemplateID: s.tpl.ID,
		Message:    s.message,
		TextColor:  s.textColor,
		TextStyle:  s.textStyle,
		Reveal:     s.reveal,
		Stickers:   append([]card.StickerLayer(nil), s.stickers...),
		TextLayers: append([]card.TextLayer(nil), s.texts...),
	}
	for _, i := range s.slotOrder() {
		c.Photos = append(c.Photos, s.slots[i].photo)
	}
	return c
}

func (s *Session) slotOrder() []int {
	idx := make([]int, 0, len(s.slots))
	for i := range s.slots {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// Close revokes every local reference.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.slots {
		if IsBlob(s.slots[i].photo.URL) {
			s.blobs.Revoke(s.slots[i].photo.URL)
		}
	}
	s.slots = make(map[int]*slot)
}
