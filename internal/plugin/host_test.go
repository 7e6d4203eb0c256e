package plugin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/tessera/internal/engine"
	"github.com/dshills/tessera/internal/renderer/decoration"
	"github.com/dshills/tessera/internal/renderer/heightcache"
)

func newTestHost(t *testing.T, content string, opts ...Option) (*Host, *engine.Engine) {
	t.Helper()
	e := engine.New(engine.WithContent(content))
	h := NewHost(e, opts...)
	t.Cleanup(func() {
		h.Close()
		e.Close()
	})
	return h, e
}

func mustDo(t *testing.T, h *Host, code string) {
	t.Helper()
	if err := h.DoString(context.Background(), code); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
}

func globalString(h *Host, name string) string {
	return h.L.GetGlobal(name).String()
}

func TestSandbox(t *testing.T) {
	h, _ := newTestHost(t, "")

	for _, name := range []string{"io", "os", "debug", "package", "require", "dofile", "loadfile", "load"} {
		if h.L.GetGlobal(name) != lua.LNil {
			t.Errorf("global %q should not be available", name)
		}
	}
	mustDo(t, h, `x = string.upper("ok") .. math.floor(2.5) .. table.concat({"a", "b"})`)
	if got := globalString(h, "x"); got != "OK2ab" {
		t.Errorf("x = %q, want %q", got, "OK2ab")
	}
}

func TestTextAPI(t *testing.T) {
	h, e := newTestHost(t, "one\ntwo")

	mustDo(t, h, `
		n = tessera.line_count()
		r, c = tessera.insert(1, 3, "!")
		tessera.set_text(0, 0, 0, 3, "ONE")
		tessera.delete(1, 0, 1, 1)
		second = tessera.line(1)
		all = tessera.text()
	`)

	if got := globalString(h, "n"); got != "2" {
		t.Errorf("line_count = %s, want 2", got)
	}
	if r, c := globalString(h, "r"), globalString(h, "c"); r != "1" || c != "4" {
		t.Errorf("insert end = (%s, %s), want (1, 4)", r, c)
	}
	if got := globalString(h, "second"); got != "wo!" {
		t.Errorf("line(1) = %q, want %q", got, "wo!")
	}
	if e.Text() != "ONE\nwo!" || globalString(h, "all") != e.Text() {
		t.Errorf("text = %q", e.Text())
	}

	mustDo(t, h, `undone = tessera.undo()`)
	if globalString(h, "undone") != "true" || e.Text() != "ONE\ntwo!" {
		t.Errorf("after undo: %q", e.Text())
	}
}

func TestMarkerAPI(t *testing.T) {
	h, _ := newTestHost(t, "abc\ndef")

	mustDo(t, h, `
		m = tessera.mark(0, 1, 0, 2, { policy = "grow", invalidate = "touch" })
		tessera.insert(0, 0, "xx")
		sr, sc, er, ec, valid = tessera.marker_range(m)
		gone = tessera.destroy_marker(m)
		missing = tessera.marker_range(m)
	`)

	got := []string{globalString(h, "sr"), globalString(h, "sc"), globalString(h, "er"), globalString(h, "ec"), globalString(h, "valid")}
	want := []string{"0", "3", "0", "4", "true"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("marker_range = %v, want %v", got, want)
	}
	if globalString(h, "gone") != "true" || globalString(h, "missing") != "nil" {
		t.Errorf("destroy_marker = %s, marker_range after = %s", globalString(h, "gone"), globalString(h, "missing"))
	}
}

func TestMarkerAPIRejectsBadPolicy(t *testing.T) {
	h, _ := newTestHost(t, "abc")

	err := h.DoString(context.Background(), `tessera.mark(0, 0, 0, 1, { policy = "sideways" })`)
	var se *ScriptError
	if !errors.As(err, &se) {
		t.Fatalf("expected *ScriptError, got %v", err)
	}
	if !strings.Contains(err.Error(), "sideways") {
		t.Errorf("error %q should name the policy", err)
	}
}

func TestDecorationAPI(t *testing.T) {
	h, e := newTestHost(t, "a\nb\nc")

	mustDo(t, h, `
		m = tessera.mark(1, 0, 1, 1)
		top = tessera.add_layer("top", -1)
		line = tessera.decorate(m, "line", { class = "current", layer = top })
		block = tessera.decorate(m, "block", { position = "after", item = { kind = "diff", lines = 3 } })
		list = tessera.decorations(1, 1)
		count = #list
		first = list[1].class
	`)

	if got := globalString(h, "count"); got != "2" {
		t.Fatalf("decorations count = %s, want 2", got)
	}
	if got := globalString(h, "first"); got != "current" {
		t.Errorf("first decoration class = %q, want %q", got, "current")
	}

	id := decoration.ID(lua.LVAsNumber(h.L.GetGlobal("block")))
	d, ok := e.Decorations().Get(id)
	if !ok {
		t.Fatal("block decoration not found")
	}
	if d.Properties.BlockPosition != heightcache.After {
		t.Errorf("block position = %v, want After", d.Properties.BlockPosition)
	}
	want := map[string]any{"kind": "diff", "lines": int64(3)}
	if !reflect.DeepEqual(d.Properties.Item, want) {
		t.Errorf("item = %#v, want %#v", d.Properties.Item, want)
	}
	if len(e.PendingMeasurements()) != 1 {
		t.Errorf("expected the block to be queued for measurement")
	}

	mustDo(t, h, `ok = tessera.destroy_decoration(block)`)
	if globalString(h, "ok") != "true" || e.Decorations().Exists(id) {
		t.Error("destroy_decoration did not remove the block")
	}
}

func TestDecorationAPIErrors(t *testing.T) {
	h, _ := newTestHost(t, "a")

	tests := []struct {
		name string
		code string
	}{
		{"unknown kind", `tessera.decorate(tessera.mark(0, 0, 0, 1), "sparkle")`},
		{"bad position", `tessera.decorate(tessera.mark(0, 0, 0, 1), "block", { position = "head" })`},
		{"unknown marker", `tessera.decorate(999, "line")`},
		{"negative id", `tessera.decorate(-1, "line")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := h.DoString(context.Background(), tt.code); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestFoldAPI(t *testing.T) {
	h, e := newTestHost(t, "0\n1\n2\n3\n4")

	mustDo(t, h, `
		f = tessera.fold_rows(1, 3)
		folded = tessera.is_folded(2)
		rows = tessera.screen_line_count()
		sr, sc = tessera.screen_position(4, 0)
		br, bc = tessera.buffer_position(2, 0)
		removed = tessera.unfold_all()
	`)

	if globalString(h, "folded") != "true" {
		t.Error("row 2 should be folded")
	}
	if got := globalString(h, "rows"); got != "3" {
		t.Errorf("screen_line_count = %s, want 3", got)
	}
	if got := globalString(h, "sr"); got != "2" {
		t.Errorf("screen row of buffer row 4 = %s, want 2", got)
	}
	if got := globalString(h, "br"); got != "4" {
		t.Errorf("buffer row of screen row 2 = %s, want 4", got)
	}
	if globalString(h, "removed") != "1" || e.ScreenLineCount() != 5 {
		t.Errorf("unfold_all removed %s folds, %d rows", globalString(h, "removed"), e.ScreenLineCount())
	}
}

func TestSoftWrapAPI(t *testing.T) {
	h, _ := newTestHost(t, "abcdefgh")

	mustDo(t, h, `
		tessera.set_soft_wrap(3)
		rows = tessera.screen_line_count()
		r, c = tessera.screen_position(0, 5)
	`)
	if got := globalString(h, "rows"); got != "3" {
		t.Errorf("screen_line_count = %s, want 3", got)
	}
	if r, c := globalString(h, "r"), globalString(h, "c"); r != "1" || c != "2" {
		t.Errorf("screen_position = (%s, %s), want (1, 2)", r, c)
	}
}

func TestLuaCommand(t *testing.T) {
	h, e := newTestHost(t, "x")

	mustDo(t, h, `
		tessera.command("append", function(args)
			local r, c = tessera.insert(0, #tessera.line(0), table.concat(args, ","))
			return { row = r, column = c }
		end)
	`)

	result, err := h.Run(context.Background(), "append", "a", "b")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if e.Text() != "xa,b" {
		t.Errorf("text = %q, want %q", e.Text(), "xa,b")
	}
	want := map[string]any{"row": int64(0), "column": int64(4)}
	if !reflect.DeepEqual(result, want) {
		t.Errorf("result = %#v, want %#v", result, want)
	}

	mustDo(t, h, `again = tessera.run("append", "c").column`)
	if got := globalString(h, "again"); got != "5" {
		t.Errorf("tessera.run result = %s, want 5", got)
	}
}

func TestGoCommand(t *testing.T) {
	h, _ := newTestHost(t, "hello")

	err := h.Register("length", CommandFunc(func(ctx *Context) error {
		ctx.Result = len(ctx.Engine.Text())
		return nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Register("length", CommandFunc(func(*Context) error { return nil })); !errors.Is(err, ErrCommandExists) {
		t.Errorf("duplicate Register() error = %v, want ErrCommandExists", err)
	}

	mustDo(t, h, `n = tessera.run("length")`)
	if got := globalString(h, "n"); got != "5" {
		t.Errorf("n = %s, want 5", got)
	}

	if !reflect.DeepEqual(h.Commands(), []string{"length"}) {
		t.Errorf("Commands() = %v", h.Commands())
	}
	if !h.Unregister("length") || h.Unregister("length") {
		t.Error("Unregister should succeed once")
	}
	if _, err := h.Run(context.Background(), "length"); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Run() error = %v, want ErrUnknownCommand", err)
	}
}

func TestCommandError(t *testing.T) {
	h, _ := newTestHost(t, "")

	mustDo(t, h, `tessera.command("fail", function() error("boom") end)`)
	_, err := h.Run(context.Background(), "fail")
	var se *ScriptError
	if !errors.As(err, &se) {
		t.Fatalf("expected *ScriptError, got %v", err)
	}
	if se.Source != "fail" || !strings.Contains(err.Error(), "boom") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestReadOnlyEngine(t *testing.T) {
	e := engine.New(engine.WithContent("fixed"), engine.WithReadOnly())
	defer e.Close()
	h := NewHost(e)
	defer h.Close()

	err := h.DoString(context.Background(), `tessera.insert(0, 0, "x")`)
	if err == nil || !strings.Contains(err.Error(), engine.ErrReadOnly.Error()) {
		t.Errorf("expected a read-only error, got %v", err)
	}
}

func TestExecutionTimeout(t *testing.T) {
	h, _ := newTestHost(t, "", WithExecutionTimeout(50*time.Millisecond))

	start := time.Now()
	err := h.DoString(context.Background(), `while true do end`)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("timeout took too long")
	}

	// The state stays usable.
	mustDo(t, h, `x = 1`)
}

func TestCancelledContext(t *testing.T) {
	h, _ := newTestHost(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.DoString(ctx, `while true do end`); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDoFile(t *testing.T) {
	h, e := newTestHost(t, "abc")

	path := filepath.Join(t.TempDir(), "init.lua")
	if err := os.WriteFile(path, []byte(`tessera.insert(0, 3, "d")`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := h.DoFile(context.Background(), path); err != nil {
		t.Fatalf("DoFile() error = %v", err)
	}
	if e.Text() != "abcd" {
		t.Errorf("text = %q, want %q", e.Text(), "abcd")
	}

	if err := h.DoFile(context.Background(), filepath.Join(t.TempDir(), "missing.lua")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.lua")
	if err := os.WriteFile(bad, []byte(`this is not lua`), 0o644); err != nil {
		t.Fatal(err)
	}
	var se *ScriptError
	if err := h.DoFile(context.Background(), bad); !errors.As(err, &se) || se.Source != "bad.lua" {
		t.Errorf("expected a ScriptError for bad.lua, got %v", err)
	}
}

func TestClosedHost(t *testing.T) {
	h, _ := newTestHost(t, "")
	h.Close()
	h.Close()

	if err := h.DoString(context.Background(), `x = 1`); !errors.Is(err, ErrHostClosed) {
		t.Errorf("DoString() error = %v, want ErrHostClosed", err)
	}
	if _, err := h.Run(context.Background(), "any"); !errors.Is(err, ErrHostClosed) {
		t.Errorf("Run() error = %v, want ErrHostClosed", err)
	}
}

func TestToGoValue(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	arr := L.NewTable()
	arr.Append(lua.LString("a"))
	arr.Append(lua.LNumber(2))

	tests := []struct {
		name  string
		input lua.LValue
		want  any
	}{
		{"nil", lua.LNil, nil},
		{"bool", lua.LTrue, true},
		{"integer", lua.LNumber(42), int64(42)},
		{"float", lua.LNumber(1.5), 1.5},
		{"string", lua.LString("s"), "s"},
		{"array", arr, []any{"a", int64(2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toGoValue(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("toGoValue() = %#v, want %#v", got, tt.want)
			}
		})
	}

	cyclic := L.NewTable()
	cyclic.RawSetString("self", cyclic)
	if got, ok := toGoValue(cyclic).(map[string]any); !ok || got["self"] != nil {
		t.Errorf("cyclic table = %#v", got)
	}
}
