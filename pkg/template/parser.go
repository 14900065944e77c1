// parser.go - Example catalog generation.
package template

// ExampleCatalog returns a sample catalog.yaml for cardstencil init.
func ExampleCatalog() string {
	return `# Templates add to or override the built-in catalog (t1..t9).
# Frame coordinates are canvas pixels on the 1080x1920 card.
templates:
  - id: birthday
    name: Birthday Trio
    background: backgrounds/birthday.png
    backgroundColor: "#fff3e0"
    defaultShape: circle
    frames:
      - { kind: path, x: 140, y: 300, w: 380, h: 380 }
      - { kind: path, x: 560, y: 520, w: 380, h: 380 }
      - { kind: rect, x: 200, y: 1000, w: 680, h: 520, r: 36 }
    frameRotations: [-6, 5, 0]

  # Overlay: only the listed fields change.
  - id: t3
    backgroundColor: "#1a1a2e"

stickers:
  - id: balloon
    src: stickers/balloon.png
    label: Balloon
`
}

// ExampleCard returns a sample card JSON matching the example catalog.
func ExampleCard() string {
	return `{
  "templateId": "birthday",
  "message": "Happy Birthday!",
  "textColor": "#FF3B8E",
  "textStyle": "modern",
  "photos": [
    { "frameIndex": 0, "url": "https://example.com/a.jpg", "x": 0, "y": 0, "scale": 1, "rotate": -6, "shape": "circle", "fit": "cover" }
  ],
  "stickers": [
    { "stickerId": "balloon", "src": "https://example.com/balloon.png", "x": 300, "y": -600, "scale": 1, "rotate": 0, "z": 1 }
  ],
  "textLayers": [
    { "id": "msg_main", "content": "Happy Birthday!", "color": "#FF3B8E", "style": "modern", "x": 0, "y": 700, "scale": 1.4, "rotate": 0, "z": 1 }
  ]
}
`
}
