package plugin

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/tessera/internal/engine"
	"github.com/dshills/tessera/internal/engine/buffer"
	"github.com/dshills/tessera/internal/renderer/decoration"
	"github.com/dshills/tessera/internal/renderer/display"
)

// moduleName is the global table scripts see.
const moduleName = "tessera"

func (h *Host) registerAPI() {
	mod := h.L.SetFuncs(h.L.NewTable(), map[string]lua.LGFunction{
		// Text
		"text":       h.apiText,
		"line":       h.apiLine,
		"line_count": h.apiLineCount,
		"insert":     h.apiInsert,
		"set_text":   h.apiSetText,
		"delete":     h.apiDelete,
		"undo":       h.apiUndo,
		"redo":       h.apiRedo,

		// Markers
		"mark":           h.apiMark,
		"marker_range":   h.apiMarkerRange,
		"destroy_marker": h.apiDestroyMarker,

		// Decorations
		"add_layer":          h.apiAddLayer,
		"decorate":           h.apiDecorate,
		"destroy_decoration": h.apiDestroyDecoration,
		"decorations":        h.apiDecorations,

		// Folds
		"fold":       h.apiFold,
		"fold_rows":  h.apiFoldRows,
		"unfold":     h.apiUnfold,
		"unfold_all": h.apiUnfoldAll,
		"is_folded":  h.apiIsFolded,

		// Screen
		"screen_position":   h.apiScreenPosition,
		"buffer_position":   h.apiBufferPosition,
		"screen_line_count": h.apiScreenLineCount,
		"set_soft_wrap":     h.apiSetSoftWrap,

		// Host
		"log":     h.apiLog,
		"command": h.apiCommand,
		"run":     h.apiRun,
	})
	h.L.SetGlobal(moduleName, mod)
}

// raise turns err into a Lua error naming the API function.
func raise(L *lua.LState, fn string, err error) int {
	L.RaiseError("%s.%s: %v", moduleName, fn, err)
	return 0
}

func checkPoint(L *lua.LState, n int) buffer.Point {
	return buffer.Point{Row: L.CheckInt(n), Column: L.CheckInt(n + 1)}
}

func checkRange(L *lua.LState, n int) buffer.Range {
	return buffer.Range{Start: checkPoint(L, n), End: checkPoint(L, n+2)}
}

func checkID(L *lua.LState, n int) uint64 {
	v := L.CheckInt64(n)
	if v < 0 {
		L.ArgError(n, "id must not be negative")
	}
	return uint64(v)
}

func pushPoint(L *lua.LState, p buffer.Point) int {
	L.Push(lua.LNumber(p.Row))
	L.Push(lua.LNumber(p.Column))
	return 2
}

// ============================================================================
// Text
// ============================================================================

func (h *Host) apiText(L *lua.LState) int {
	L.Push(lua.LString(h.engine.Text()))
	return 1
}

func (h *Host) apiLine(L *lua.LState) int {
	line, err := h.engine.LineForRow(L.CheckInt(1))
	if err != nil {
		return raise(L, "line", err)
	}
	L.Push(lua.LString(line))
	return 1
}

func (h *Host) apiLineCount(L *lua.LState) int {
	L.Push(lua.LNumber(h.engine.LineCount()))
	return 1
}

func (h *Host) apiInsert(L *lua.LState) int {
	r, err := h.engine.Insert(checkPoint(L, 1), L.CheckString(3))
	if err != nil {
		return raise(L, "insert", err)
	}
	return pushPoint(L, r.End)
}

func (h *Host) apiSetText(L *lua.LState) int {
	r, err := h.engine.SetTextInRange(checkRange(L, 1), L.CheckString(5))
	if err != nil {
		return raise(L, "set_text", err)
	}
	return pushPoint(L, r.End)
}

func (h *Host) apiDelete(L *lua.LState) int {
	if err := h.engine.Delete(checkRange(L, 1)); err != nil {
		return raise(L, "delete", err)
	}
	return 0
}

func (h *Host) apiUndo(L *lua.LState) int {
	L.Push(lua.LBool(h.engine.Undo() == nil))
	return 1
}

func (h *Host) apiRedo(L *lua.LState) int {
	L.Push(lua.LBool(h.engine.Redo() == nil))
	return 1
}

// ============================================================================
// Markers
// ============================================================================

func (h *Host) apiMark(L *lua.LState) int {
	r := checkRange(L, 1)
	opts, err := markerOptions(L.OptTable(5, nil))
	if err != nil {
		return raise(L, "mark", err)
	}
	id, err := h.engine.MarkRange(r, opts...)
	if err != nil {
		return raise(L, "mark", err)
	}
	L.Push(lua.LNumber(id))
	return 1
}

func (h *Host) apiMarkerRange(L *lua.LState) int {
	m, err := h.engine.Markers().Get(engine.MarkerID(checkID(L, 1)))
	if err != nil {
		L.Push(lua.LNil)
		return 1
	}
	pushPoint(L, m.Range.Start)
	pushPoint(L, m.Range.End)
	L.Push(lua.LBool(m.Valid))
	return 5
}

func (h *Host) apiDestroyMarker(L *lua.LState) int {
	err := h.engine.DestroyMarker(engine.MarkerID(checkID(L, 1)))
	L.Push(lua.LBool(err == nil))
	return 1
}

// ============================================================================
// Decorations
// ============================================================================

func (h *Host) apiAddLayer(L *lua.LState) int {
	id := h.engine.Decorations().AddLayer(L.CheckString(1), L.OptInt(2, 0))
	L.Push(lua.LNumber(id))
	return 1
}

func (h *Host) apiDecorate(L *lua.LState) int {
	id := engine.MarkerID(checkID(L, 1))
	name := L.CheckString(2)
	kind, ok := decoration.ParseKind(name)
	if !ok {
		return raise(L, "decorate", fmt.Errorf("kind %q: %w", name, ErrInvalidArgument))
	}
	props, layer, err := decorationProperties(L.OptTable(3, nil), kind)
	if err != nil {
		return raise(L, "decorate", err)
	}

	did, err := h.engine.DecorateMarkerInLayer(id, layer, kind, props)
	if err != nil {
		return raise(L, "decorate", err)
	}
	L.Push(lua.LNumber(did))
	return 1
}

func (h *Host) apiDestroyDecoration(L *lua.LState) int {
	L.Push(lua.LBool(h.engine.DestroyDecoration(engine.DecorationID(checkID(L, 1)))))
	return 1
}

func (h *Host) apiDecorations(L *lua.LState) int {
	start := L.CheckInt(1)
	end := L.OptInt(2, start)

	list := L.NewTable()
	for _, d := range h.engine.DecorationsForScreenRowRange(start, end) {
		t := L.NewTable()
		t.RawSetString("id", lua.LNumber(d.ID))
		t.RawSetString("marker", lua.LNumber(d.Marker))
		t.RawSetString("layer", lua.LNumber(d.Layer))
		t.RawSetString("kind", lua.LString(d.Kind.String()))
		t.RawSetString("class", lua.LString(d.Properties.Class))
		if d.Properties.Item != nil {
			t.RawSetString("item", toLuaValue(L, d.Properties.Item))
		}
		if d.IsBlock() {
			t.RawSetString("height", lua.LNumber(d.Height))
			t.RawSetString("measured", lua.LBool(d.Measured))
		}
		list.Append(t)
	}
	L.Push(list)
	return 1
}

// ============================================================================
// Folds
// ============================================================================

func (h *Host) apiFold(L *lua.LState) int {
	id, err := h.engine.FoldBufferRange(checkRange(L, 1))
	if err != nil {
		return raise(L, "fold", err)
	}
	L.Push(lua.LNumber(id))
	return 1
}

func (h *Host) apiFoldRows(L *lua.LState) int {
	id, err := h.engine.FoldBufferRow(L.CheckInt(1), L.CheckInt(2))
	if err != nil {
		return raise(L, "fold_rows", err)
	}
	L.Push(lua.LNumber(id))
	return 1
}

func (h *Host) apiUnfold(L *lua.LState) int {
	err := h.engine.Unfold(engine.MarkerID(checkID(L, 1)))
	L.Push(lua.LBool(err == nil))
	return 1
}

func (h *Host) apiUnfoldAll(L *lua.LState) int {
	L.Push(lua.LNumber(len(h.engine.UnfoldAll())))
	return 1
}

func (h *Host) apiIsFolded(L *lua.LState) int {
	L.Push(lua.LBool(h.engine.Display().IsFoldedAtBufferRow(L.CheckInt(1))))
	return 1
}

// ============================================================================
// Screen
// ============================================================================

func (h *Host) apiScreenPosition(L *lua.LState) int {
	sp, err := h.engine.ScreenPositionForBufferPosition(checkPoint(L, 1))
	if err != nil {
		return raise(L, "screen_position", err)
	}
	L.Push(lua.LNumber(sp.Row))
	L.Push(lua.LNumber(sp.Column))
	return 2
}

func (h *Host) apiBufferPosition(L *lua.LState) int {
	sp := display.ScreenPoint{Row: L.CheckInt(1), Column: L.CheckInt(2)}

	var opts []display.ClipOption
	switch clip := L.OptString(3, "closest"); clip {
	case "closest":
		opts = append(opts, display.ClipClosest())
	case "backward":
		opts = append(opts, display.ClipBackward())
	case "forward":
		opts = append(opts, display.ClipForward())
	default:
		return raise(L, "buffer_position", fmt.Errorf("clip %q: %w", clip, ErrInvalidArgument))
	}
	return pushPoint(L, h.engine.BufferPositionForScreenPosition(sp, opts...))
}

func (h *Host) apiScreenLineCount(L *lua.LState) int {
	L.Push(lua.LNumber(h.engine.ScreenLineCount()))
	return 1
}

func (h *Host) apiSetSoftWrap(L *lua.LState) int {
	column := L.OptInt(1, 0)
	if column < 0 {
		L.ArgError(1, "column must not be negative")
	}
	h.engine.Display().SetSoftWrapColumn(column)
	return 0
}

// ============================================================================
// Host
// ============================================================================

func (h *Host) apiLog(L *lua.LState) int {
	msg := L.CheckString(1)
	var args []any
	if t, ok := L.Get(2).(*lua.LTable); ok {
		t.ForEach(func(k, v lua.LValue) {
			args = append(args, k.String(), toGoValue(v))
		})
	}
	h.logger.Info(msg, args...)
	return 0
}

func (h *Host) apiCommand(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)
	if err := h.Register(name, &luaCommand{host: h, fn: fn, source: name}); err != nil {
		return raise(L, "command", err)
	}
	return 0
}

func (h *Host) apiRun(L *lua.LState) int {
	name := L.CheckString(1)
	args := make([]string, 0, L.GetTop()-1)
	for i := 2; i <= L.GetTop(); i++ {
		args = append(args, L.CheckString(i))
	}

	result, err := h.Run(L.Context(), name, args...)
	if err != nil {
		var se *ScriptError
		if errors.As(err, &se) {
			err = se.Err
		}
		return raise(L, "run", err)
	}
	L.Push(toLuaValue(L, result))
	return 1
}
