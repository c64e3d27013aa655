//go:build js && wasm

package main

import (
	"bytes"
	"encoding/json"
	"syscall/js"

	"github.com/inamate/designsurface/internal/document"
	"github.com/inamate/designsurface/internal/engine"
	"github.com/inamate/designsurface/internal/export"
	"github.com/inamate/designsurface/internal/session"
)

var sess *session.Session

func main() {
	sess = session.New("canvas_local", "Untitled", session.Config{})

	api := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	api.Set("loadDocument", js.FuncOf(loadDocument))
	api.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	api.Set("setActor", js.FuncOf(setActor))
	api.Set("addShapes", js.FuncOf(addShapes))
	api.Set("updateShape", js.FuncOf(updateShape))
	api.Set("moveShape", js.FuncOf(moveShape))
	api.Set("deleteShapes", js.FuncOf(deleteShapes))
	api.Set("groupShapes", js.FuncOf(groupShapes))
	api.Set("ungroupShapes", js.FuncOf(ungroupShapes))
	api.Set("bringToFront", js.FuncOf(idsCommand((*engine.Engine).BringToFront)))
	api.Set("sendToBack", js.FuncOf(idsCommand((*engine.Engine).SendToBack)))
	api.Set("bringForward", js.FuncOf(idsCommand((*engine.Engine).BringForward)))
	api.Set("sendBackward", js.FuncOf(idsCommand((*engine.Engine).SendBackward)))
	api.Set("alignShapes", js.FuncOf(alignShapes))
	api.Set("distributeShapes", js.FuncOf(distributeShapes))
	api.Set("duplicateShapes", js.FuncOf(duplicateShapes))
	api.Set("undo", js.FuncOf(func(js.Value, []js.Value) any { return sessEngine().Undo() }))
	api.Set("redo", js.FuncOf(func(js.Value, []js.Value) any { return sessEngine().Redo() }))
	api.Set("setSelection", js.FuncOf(setSelection))
	api.Set("createComponent", js.FuncOf(createComponent))
	api.Set("instantiateComponent", js.FuncOf(instantiateComponent))

	// --- Queries (frontend ← engine) ---
	api.Set("getDocument", js.FuncOf(getDocument))
	api.Set("getSelection", js.FuncOf(getSelection))
	api.Set("hitTest", js.FuncOf(hitTest))
	api.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	api.Set("canUndo", js.FuncOf(func(js.Value, []js.Value) any { return sessEngine().CanUndo() }))
	api.Set("canRedo", js.FuncOf(func(js.Value, []js.Value) any { return sessEngine().CanRedo() }))
	api.Set("exportSVG", js.FuncOf(exportSVG))

	js.Global().Set("designSurface", api)
	js.Global().Set("designSurfaceReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func sessEngine() *engine.Engine { return sess.Engine() }

func ok() any             { return js.ValueOf(map[string]any{"ok": true}) }
func fail(msg string) any { return js.ValueOf(map[string]any{"error": msg}) }
func toJSON(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return fail(err.Error())
	}
	return js.ValueOf(string(data))
}

// stringsArg reads a JS array of strings or a JSON encoded array.
func stringsArg(args []js.Value, i int) []string {
	if len(args) <= i {
		return nil
	}
	v := args[i]
	switch v.Type() {
	case js.TypeString:
		var out []string
		if err := json.Unmarshal([]byte(v.String()), &out); err != nil {
			return nil
		}
		return out
	case js.TypeObject:
		out := make([]string, v.Length())
		for j := range out {
			out[j] = v.Index(j).String()
		}
		return out
	}
	return nil
}

func stringArg(args []js.Value, i int) string {
	if len(args) <= i || args[i].Type() != js.TypeString {
		return ""
	}
	return args[i].String()
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return fail("missing document JSON")
	}
	var snap document.Snapshot
	if err := json.Unmarshal([]byte(args[0].String()), &snap); err != nil {
		return fail(err.Error())
	}
	sess = session.New(snap.CanvasID, snap.Name, session.Config{})
	sess.Load(&snap)
	return ok()
}

func loadSampleDocument(this js.Value, args []js.Value) any {
	canvasID := stringArg(args, 0)
	if canvasID == "" {
		canvasID = "canvas_sample"
	}
	snap := document.NewSampleSnapshot(canvasID)
	sess = session.New(canvasID, snap.Name, session.Config{})
	sess.Load(snap)
	return ok()
}

func setActor(this js.Value, args []js.Value) any {
	sess.SetActor(stringArg(args, 0))
	return nil
}

func addShapes(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return fail("missing shapes JSON")
	}
	var shapes []document.Shape
	if err := json.Unmarshal([]byte(args[0].String()), &shapes); err != nil {
		return fail(err.Error())
	}
	added, err := sessEngine().AddMany(shapes)
	if err != nil {
		return fail(err.Error())
	}
	ids := make([]string, len(added))
	for i, s := range added {
		ids[i] = s.ID
	}
	return toJSON(ids)
}

func updateShape(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return false
	}
	var patch document.ShapePatch
	if err := json.Unmarshal([]byte(args[1].String()), &patch); err != nil {
		return false
	}
	return sessEngine().Update(args[0].String(), patch)
}

// moveShape moves with snapping and returns the guides to draw.
func moveShape(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return toJSON(nil)
	}
	guides, _ := sess.MoveWithSnap(args[0].String(), args[1].Float(), args[2].Float())
	return toJSON(guides)
}

func deleteShapes(this js.Value, args []js.Value) any {
	return toJSON(sessEngine().DeleteMany(stringsArg(args, 0)))
}

func groupShapes(this js.Value, args []js.Value) any {
	return sessEngine().GroupShapes(stringsArg(args, 0), stringArg(args, 1))
}

func ungroupShapes(this js.Value, args []js.Value) any {
	return sessEngine().UngroupShapes(stringArg(args, 0))
}

func idsCommand(fn func(*engine.Engine, []string) bool) func(js.Value, []js.Value) any {
	return func(this js.Value, args []js.Value) any {
		return fn(sessEngine(), stringsArg(args, 0))
	}
}

func alignShapes(this js.Value, args []js.Value) any {
	edge, valid := engine.ParseAlignEdge(stringArg(args, 1))
	if !valid {
		return false
	}
	return sessEngine().AlignShapes(stringsArg(args, 0), edge)
}

func distributeShapes(this js.Value, args []js.Value) any {
	dir, valid := engine.ParseDirection(stringArg(args, 1))
	if !valid {
		return false
	}
	return sessEngine().DistributeShapes(stringsArg(args, 0), dir)
}

func duplicateShapes(this js.Value, args []js.Value) any {
	return toJSON(sessEngine().DuplicateShapes(stringsArg(args, 0)))
}

func setSelection(this js.Value, args []js.Value) any {
	sessEngine().SetSelection(stringsArg(args, 0))
	return nil
}

func createComponent(this js.Value, args []js.Value) any {
	c, created := sess.CreateComponentFromSelection(stringArg(args, 0))
	if !created {
		return ""
	}
	return c.ID
}

func instantiateComponent(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return toJSON(nil)
	}
	ids, _ := sess.InstantiateComponent(args[0].String(), args[1].Float(), args[2].Float())
	return toJSON(ids)
}

// --- Query Handlers ---

func getDocument(this js.Value, args []js.Value) any {
	return toJSON(sess.Snapshot())
}

func getSelection(this js.Value, args []js.Value) any {
	return toJSON(sessEngine().Selection())
}

func hitTest(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return ""
	}
	return sessEngine().HitTest(args[0].Float(), args[1].Float())
}

func getSelectionBounds(this js.Value, args []js.Value) any {
	b, found := sessEngine().SelectionBounds()
	if !found {
		return toJSON(nil)
	}
	return toJSON(b)
}

func exportSVG(this js.Value, args []js.Value) any {
	var buf bytes.Buffer
	opts := export.SVGOptions{Title: sess.Name(), Padding: 16, Background: stringArg(args, 0)}
	if err := export.RenderSVG(&buf, sessEngine().ShapesByZ(), opts); err != nil {
		return fail(err.Error())
	}
	return buf.String()
}
