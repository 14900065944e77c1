// builtin.go - Templates and stickers shipped with the binary.
package template

func pathFrame(x, y, w, h float64) Frame {
	return Frame{Kind: FramePath, X: x, Y: y, W: w, H: h}
}

func builtinTemplates() []Template {
	return []Template{
		{
			ID: "t1", Name: "Single Heart Frame", Background: "/templates/t1.png",
			Frames:         []Frame{pathFrame(180, 520, 720, 720)},
			DefaultShape:   "heart",
			FrameRotations: []float64{12},
		},
		{
			ID: "t2", Name: "Polaroid Stack", Background: "/templates/t2.png",
			Frames: []Frame{
				pathFrame(342, 172, 416, 434),
				pathFrame(335, 694, 420, 436),
				pathFrame(344, 1250, 412, 430),
			},
			DefaultShape:   "square",
			FrameRotations: []float64{0, -9, 0},
		},
		{
			ID: "t3", Name: "Music Vibes", Background: "/templates/t3.png",
			Frames:       []Frame{pathFrame(270, 485, 535, 540)},
			DefaultShape: "square",
		},
		{
			ID: "t4", Name: "Valentine's Day", Background: "/templates/t4.png",
			Frames:       []Frame{pathFrame(270, 650, 535, 540)},
			DefaultShape: "square",
		},
		{
			ID: "t5", Name: "Valentine", Background: "/templates/t5.png",
			Frames: []Frame{
				pathFrame(560, 670, 395, 575),
				pathFrame(200, 1050, 430, 628),
			},
			DefaultShape: "square",
		},
		{
			ID: "t6", Name: "Memory Polaroids", Background: "/templates/t6.png",
			Frames: []Frame{
				pathFrame(10, 180, 424, 429),
				pathFrame(700, 655, 420, 436),
				pathFrame(155, 910, 385, 430),
				pathFrame(450, 1310, 400, 420),
			},
			DefaultShape:   "square",
			FrameRotations: []float64{-13, 3, -10, 10},
		},
		{ID: "t7", Name: "Plain Background", Background: "/templates/t7.png"},
		{ID: "t8", Name: "Calendar Style", Background: "/templates/t8.png"},
		{
			ID: "t9", Name: "Postcard", Background: "/templates/t9.png",
			BackgroundColor: "#fbe9e7",
			Frames:          []Frame{{Kind: FrameRect, X: 120, Y: 360, W: 840, H: 1000, Radius: 48}},
		},
	}
}

var stickerIDs = []struct{ id, label string }{
	{"arrow", "Arrow"},
	{"banner", "Banner"},
	{"bow", "Bow"},
	{"chocolate-box", "Chocolate"},
	{"cupid", "Cupid"},
	{"flower", "Flower"},
	{"flowers", "Flowers"},
	{"i-love-you", "I Love You"},
	{"kiss", "Kiss"},
	{"love-badge", "Love Badge"},
	{"love-you", "Love You"},
	{"rose-flower", "Rose"},
	{"smile", "Smile"},
	{"valentines-day", "Valentine"},
}

func builtinStickers() []Sticker {
	out := make([]Sticker, 0, len(stickerIDs))
	for _, s := range stickerIDs {
		out = append(out, Sticker{ID: s.id, Src: "/stickers/" + s.id + ".png", Label: s.label})
	}
	return out
}
