//go:build js && wasm

// CardStencil WASM - in-browser editor core.
// Compiled with: GOOS=js GOARCH=wasm go build -o cardstencil.wasm ./clients/wasm/
package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"mime/multipart"
	"net/http"
	"sync"
	"syscall/js"
	"time"

	"github.com/xob0t/CardStencil/pkg/card"
	"github.com/xob0t/CardStencil/pkg/editor"
	"github.com/xob0t/CardStencil/pkg/export"
	"github.com/xob0t/CardStencil/pkg/fonts"
	"github.com/xob0t/CardStencil/pkg/geom"
	"github.com/xob0t/CardStencil/pkg/gesture"
	"github.com/xob0t/CardStencil/pkg/layout"
	"github.com/xob0t/CardStencil/pkg/preview"
	"github.com/xob0t/CardStencil/pkg/template"
)

// ── Browser blob store ──

// objectURLs backs editor blob refs with URL.createObjectURL so the SVG
// preview can show local photos directly.
type objectURLs struct {
	mu    sync.Mutex
	blobs map[string]editor.LocalImage
}

func (o *objectURLs) Put(img editor.LocalImage) string {
	arr := js.Global().Get("Uint8Array").New(len(img.Data))
	js.CopyBytesToJS(arr, img.Data)
	opts := js.Global().Get("Object").New()
	opts.Set("type", img.ContentType)
	blob := js.Global().Get("Blob").New(js.Global().Get("Array").New(arr), opts)
	ref := js.Global().Get("URL").Call("createObjectURL", blob).String()
	o.mu.Lock()
	o.blobs[ref] = img
	o.mu.Unlock()
	return ref
}

func (o *objectURLs) Get(ref string) (editor.LocalImage, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	img, ok := o.blobs[ref]
	return img, ok
}

func (o *objectURLs) Revoke(ref string) {
	o.mu.Lock()
	delete(o.blobs, ref)
	o.mu.Unlock()
	js.Global().Get("URL").Call("revokeObjectURL", ref)
}

// ── State ──

var (
	registry = template.Builtin()
	blobs    = &objectURLs{blobs: make(map[string]editor.LocalImage)}
	session  *editor.Session
	engine   *gesture.Engine
	origin   = js.Global().Get("location").Get("origin").String()
	// One exporter for the page so overlapping exports fail with ErrBusy.
	exporter = export.New(export.Config{Loader: &export.HTTPLoader{BaseURL: origin}})
)

func main() {
	fmt.Println("CardStencil WASM loaded")

	resetSession("t1")

	js.Global().Set("goNewSession", js.FuncOf(newSession))
	js.Global().Set("goAddImage", js.FuncOf(addImage))
	js.Global().Set("goRemovePhoto", js.FuncOf(removePhoto))
	js.Global().Set("goAddSticker", js.FuncOf(addSticker))
	js.Global().Set("goAddText", js.FuncOf(addText))
	js.Global().Set("goRemoveLayer", js.FuncOf(removeLayer))
	js.Global().Set("goSetText", js.FuncOf(setText))
	js.Global().Set("goPointer", js.FuncOf(pointer))
	js.Global().Set("goSetRenderedWidth", js.FuncOf(setRenderedWidth))
	js.Global().Set("goPreview", js.FuncOf(renderPreview))
	js.Global().Set("goExportPNG", js.FuncOf(exportPNG))
	js.Global().Set("goExportState", js.FuncOf(exportState))
	js.Global().Set("goFinish", js.FuncOf(finish))
	js.Global().Set("goReady", js.ValueOf(true))

	// Block forever (WASM must not exit).
	select {}
}

func resetSession(templateID string) {
	if session != nil {
		session.Close()
	}
	session = editor.New(registry.Resolve(templateID), blobs)
	engine = gesture.NewEngine(session, gesture.DefaultConfig())
}

func jsError(err error) js.Value { return js.ValueOf("error: " + err.Error()) }

// promise runs fn off the event loop. Network calls block, and blocking
// inside a js.FuncOf callback deadlocks the runtime.
func promise(fn func() (js.Value, error)) js.Value {
	handler := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		resolve, reject := args[0], args[1]
		go func() {
			v, err := fn()
			if err != nil {
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			resolve.Invoke(v)
		}()
		return nil
	})
	p := js.Global().Get("Promise").New(handler)
	handler.Release()
	return p
}

// ── Editing ──

// goNewSession(templateId)
func newSession(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need templateId")
	}
	resetSession(args[0].String())
	return js.ValueOf("ok")
}

// goAddImage(base64Data, name, mime) - returns the slot or an error string.
func addImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf("error: need base64Data, name, mime")
	}
	data, err := base64.StdEncoding.DecodeString(args[0].String())
	if err != nil {
		return js.ValueOf("error: invalid base64: " + err.Error())
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return js.ValueOf("error: not an image: " + err.Error())
	}
	used, err := session.AddImages(editor.LocalImage{
		Name:        args[1].String(),
		ContentType: args[2].String(),
		Data:        data,
		Width:       cfg.Width,
		Height:      cfg.Height,
	})
	if err != nil {
		return jsError(err)
	}
	return js.ValueOf(used[0])
}

// goRemovePhoto(slot)
func removePhoto(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need slot")
	}
	if err := session.RemovePhoto(args[0].Int()); err != nil {
		return jsError(err)
	}
	return js.ValueOf("ok")
}

// goAddSticker(stickerId) - returns the layer id.
func addSticker(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need stickerId")
	}
	def, ok := registry.Sticker(args[0].String())
	if !ok {
		return js.ValueOf("error: unknown sticker")
	}
	return js.ValueOf(session.AddSticker(def))
}

// goAddText() - returns the layer id.
func addText(this js.Value, args []js.Value) interface{} {
	id, err := session.AddText()
	if err != nil {
		return jsError(err)
	}
	return js.ValueOf(id)
}

// goRemoveLayer(kind, id) with kind "sticker" or "text".
func removeLayer(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("error: need kind, id")
	}
	var err error
	switch args[0].String() {
	case "sticker":
		err = session.RemoveSticker(args[1].String())
	case "text":
		err = session.RemoveText(args[1].String())
	default:
		return js.ValueOf("error: unknown layer kind")
	}
	if err != nil {
		return jsError(err)
	}
	return js.ValueOf("ok")
}

// goSetText(field, value) with field "message", "color", "style" or a text
// layer id.
func setText(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("error: need field, value")
	}
	v := args[1].String()
	switch f := args[0].String(); f {
	case "message":
		session.SetMessage(v)
	case "color":
		session.SetTextColor(v)
	case "style":
		session.SetTextStyle(card.ParseTextStyle(v))
	default:
		if err := session.SetTextContent(f, v); err != nil {
			return jsError(err)
		}
	}
	return js.ValueOf("ok")
}

// ── Gestures ──

// msTime converts a DOM event timestamp in milliseconds.
func msTime(ms float64) time.Time { return time.UnixMilli(int64(ms)) }

func elementID(kind, key string) (gesture.ElementID, bool) {
	switch kind {
	case "photo":
		return gesture.ElementID{Kind: card.KindPhoto, Key: key}, true
	case "sticker":
		return gesture.Sticker(key), true
	case "text":
		return gesture.Text(key), true
	}
	return gesture.ElementID{}, false
}

// goPointer(event, kind, key, pointerId, x, y, timeStampMs) with event
// "down", "move", "up" or "cancel". Positions are CSS pixels relative to
// the preview.
func pointer(this js.Value, args []js.Value) interface{} {
	if len(args) < 7 {
		return js.ValueOf("error: need event, kind, key, pointerId, x, y, time")
	}
	p := gesture.PointerID(args[3].Int())
	pos := geom.Pt(args[4].Float(), args[5].Float())
	at := msTime(args[6].Float())
	switch args[0].String() {
	case "down":
		id, ok := elementID(args[1].String(), args[2].String())
		if !ok {
			return js.ValueOf("error: unknown element kind")
		}
		engine.Down(id, p, pos, at)
	case "move":
		engine.Move(p, pos, at)
	case "up":
		engine.Up(p, pos, at)
	case "cancel":
		engine.Cancel(p)
	}
	return js.ValueOf("ok")
}

// goSetRenderedWidth(px)
func setRenderedWidth(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need width")
	}
	engine.SetRenderedWidth(args[0].Float())
	return js.ValueOf("ok")
}

// ── Rendering ──

func scene() *layout.Scene {
	opts := layout.Options{}
	if fm, err := fonts.Default(); err == nil {
		opts.Measurer = fm
	}
	return layout.Compose(session.Card(), session.Template(), opts)
}

// goPreview(widthPx) - returns the SVG document.
func renderPreview(this js.Value, args []js.Value) interface{} {
	opts := preview.DefaultOptions
	if len(args) > 0 {
		opts.Width = args[0].Float()
	}
	svg, err := preview.String(scene(), opts)
	if err != nil {
		return jsError(err)
	}
	return js.ValueOf(svg)
}

// goExportPNG() - Promise of a base64 PNG. Photos that are not uploaded yet
// are left out. Rejects while another export is running.
func exportPNG(this js.Value, args []js.Value) interface{} {
	return promise(func() (js.Value, error) {
		var buf bytes.Buffer
		if err := exporter.ExportPNG(context.Background(), &buf, session.Card(), session.Template()); err != nil {
			return js.Undefined(), err
		}
		return js.ValueOf(base64.StdEncoding.EncodeToString(buf.Bytes())), nil
	})
}

// goExportState() - "idle", "exporting", "done" or "failed".
func exportState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(exporter.State().String())
}

// goFinish() - Promise of the card JSON after uploading local photos.
func finish(this js.Value, args []js.Value) interface{} {
	return promise(func() (js.Value, error) {
		w, err := session.Finish(context.Background(), editor.UploaderFunc(uploadImage))
		if err != nil {
			return js.Undefined(), err
		}
		data, err := json.Marshal(w)
		if err != nil {
			return js.Undefined(), err
		}
		return js.ValueOf(string(data)), nil
	})
}

// uploadImage posts img to the server's upload endpoint.
func uploadImage(ctx context.Context, img editor.LocalImage) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", img.Name)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(img.Data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, origin+"/api/upload/image", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", img.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload %s: %s", img.Name, resp.Status)
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("upload %s: %w", img.Name, err)
	}
	if !card.IsRemoteURL(out.URL) {
		out.URL = origin + out.URL
	}
	return out.URL, nil
}
