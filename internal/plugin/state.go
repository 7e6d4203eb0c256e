package plugin

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// newLuaState creates a Lua state with only the safe standard libraries.
func newLuaState() *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true, // opened selectively below
	})

	// Open base library (print, type, pairs, ipairs, etc.)
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// io, os, debug and package stay closed.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// protect runs fn and turns a Go panic raised inside Lua into an error.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}
