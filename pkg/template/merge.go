// merge.go - Overlay catalog entries onto the registry.
package template

// Merge adds the catalog's templates and stickers to r. A template whose id
// already exists is overlaid field by field: non-zero fields of the new entry
// win, frames and rotation hints are replaced wholesale. Stickers with a known
// id replace the old entry in place, new ones are appended.
func (r *Registry) Merge(cat Catalog) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range cat.Templates {
		if t.ID == "" {
			continue
		}
		if base, ok := r.templates[t.ID]; ok {
			merged := *base
			mergeTemplate(&merged, t)
			r.templates[t.ID] = &merged
			continue
		}
		nt := t
		applyTemplateDefaults(&nt)
		r.templates[t.ID] = &nt
	}

	for _, s := range cat.Stickers {
		if s.ID == "" {
			continue
		}
		replaced := false
		for i := range r.stickers {
			if r.stickers[i].ID == s.ID {
				mergeSticker(&r.stickers[i], s)
				replaced = true
				break
			}
		}
		if !replaced {
			if s.Label == "" {
				s.Label = s.ID
			}
			r.stickers = append(r.stickers, s)
		}
	}
}

// mergeTemplate applies non-zero overrides.
func mergeTemplate(base *Template, over Template) {
	if over.Name != "" {
		base.Name = over.Name
	}
	if over.Background != "" {
		base.Background = over.Background
	}
	if over.BackgroundColor != "" {
		base.BackgroundColor = over.BackgroundColor
	}
	if over.Frames != nil {
		base.Frames = over.Frames // replace, not append
		for i := range base.Frames {
			applyFrameDefaults(&base.Frames[i])
		}
	}
	if over.DefaultShape != "" {
		base.DefaultShape = over.DefaultShape
	}
	if over.FrameRotations != nil {
		base.FrameRotations = over.FrameRotations
	}
}

func mergeSticker(base *Sticker, over Sticker) {
	if over.Src != "" {
		base.Src = over.Src
	}
	if over.Label != "" {
		base.Label = over.Label
	}
}

// applyTemplateDefaults fills in fields a catalog may leave out.
func applyTemplateDefaults(t *Template) {
	if t.Name == "" {
		t.Name = t.ID
	}
	for i := range t.Frames {
		applyFrameDefaults(&t.Frames[i])
	}
}

func applyFrameDefaults(f *Frame) {
	if f.Kind == "" {
		f.Kind = FramePath
	}
}
