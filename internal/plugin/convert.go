package plugin

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/tessera/internal/engine/marker"
	"github.com/dshills/tessera/internal/renderer/decoration"
	"github.com/dshills/tessera/internal/renderer/heightcache"
)

// toGoValue converts a Lua value to a Go value. Tables with keys 1..n
// become []any, other tables map[string]any. Functions convert to nil.
func toGoValue(lv lua.LValue) any {
	return toGoValueVisited(lv, make(map[*lua.LTable]bool))
}

func toGoValueVisited(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		return tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	n := t.Len()
	count := 0
	t.ForEach(func(lua.LValue, lua.LValue) { count++ })

	if n > 0 && n == count {
		arr := make([]any, 0, n)
		for i := 1; i <= n; i++ {
			arr = append(arr, toGoValueVisited(t.RawGetInt(i), visited))
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		m[k.String()] = toGoValueVisited(v, visited)
	})
	return m
}

// toLuaValue converts a Go value produced by toGoValue, or a basic Go type,
// back to Lua.
func toLuaValue(L *lua.LState, v any) lua.LValue {
	switch v := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(v)
	case int:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case uint64:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case string:
		return lua.LString(v)
	case []any:
		t := L.NewTable()
		for _, item := range v {
			t.Append(toLuaValue(L, item))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		for k, item := range v {
			t.RawSetString(k, toLuaValue(L, item))
		}
		return t
	default:
		ud := L.NewUserData()
		ud.Value = v
		return ud
	}
}

// markerOptions reads {policy, start_policy, end_policy, invalidate,
// reversed, properties} from an optional table.
func markerOptions(t *lua.LTable) ([]marker.Option, error) {
	if t == nil {
		return nil, nil
	}
	var opts []marker.Option

	policies := []struct {
		key  string
		wrap func(marker.EndPolicy) marker.Option
	}{
		{"policy", marker.WithPolicy},
		{"start_policy", marker.WithStartPolicy},
		{"end_policy", marker.WithEndPolicy},
	}
	for _, p := range policies {
		name, ok := stringField(t, p.key)
		if !ok {
			continue
		}
		policy, ok := marker.ParseEndPolicy(name)
		if !ok {
			return nil, fmt.Errorf("%s %q: %w", p.key, name, ErrInvalidArgument)
		}
		opts = append(opts, p.wrap(policy))
	}

	if name, ok := stringField(t, "invalidate"); ok {
		s, ok := marker.ParseInvalidationStrategy(name)
		if !ok {
			return nil, fmt.Errorf("invalidate %q: %w", name, ErrInvalidArgument)
		}
		opts = append(opts, marker.WithInvalidate(s))
	}
	if lua.LVAsBool(t.RawGetString("reversed")) {
		opts = append(opts, marker.WithReversed())
	}
	if props, ok := t.RawGetString("properties").(*lua.LTable); ok {
		if m, ok := toGoValue(props).(map[string]any); ok {
			opts = append(opts, marker.WithProperties(m))
		}
	}
	return opts, nil
}

// decorationProperties reads decoration settings from an optional table.
// It also returns the layer named by the "layer" key.
func decorationProperties(t *lua.LTable, kind decoration.Kind) (decoration.Properties, decoration.LayerID, error) {
	var props decoration.Properties
	layer := decoration.DefaultLayer
	if t == nil {
		return props, layer, nil
	}

	props.Class, _ = stringField(t, "class")
	if n, ok := t.RawGetString("order").(lua.LNumber); ok {
		props.Order = int(n)
	}
	props.OnlyHead = lua.LVAsBool(t.RawGetString("only_head"))
	props.OnlyEmpty = lua.LVAsBool(t.RawGetString("only_empty"))
	props.OnlyNonEmpty = lua.LVAsBool(t.RawGetString("only_non_empty"))
	props.KeepEmptyLastRow = lua.LVAsBool(t.RawGetString("keep_empty_last_row"))
	props.GutterName, _ = stringField(t, "gutter")
	if item := t.RawGetString("item"); item != lua.LNil {
		props.Item = toGoValue(item)
	}
	if n, ok := t.RawGetString("layer").(lua.LNumber); ok {
		if n < 0 {
			return props, layer, fmt.Errorf("layer %v: %w", n, ErrInvalidArgument)
		}
		layer = decoration.LayerID(n)
	}

	pos, ok := stringField(t, "position")
	if !ok {
		return props, layer, nil
	}
	switch {
	case kind == decoration.KindOverlay && pos == "head":
		props.OverlayPosition = decoration.OverlayHead
	case kind == decoration.KindOverlay && pos == "tail":
		props.OverlayPosition = decoration.OverlayTail
	case kind == decoration.KindBlock && pos == "before":
		props.BlockPosition = heightcache.Before
	case kind == decoration.KindBlock && pos == "after":
		props.BlockPosition = heightcache.After
	default:
		return props, layer, fmt.Errorf("position %q for %s: %w", pos, kind, ErrInvalidArgument)
	}
	return props, layer, nil
}

func stringField(t *lua.LTable, key string) (string, bool) {
	s, ok := t.RawGetString(key).(lua.LString)
	return string(s), ok
}
