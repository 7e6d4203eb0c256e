package plugin

import (
	"context"
	"log/slog"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/tessera/internal/engine"
)

// Context is handed to a running command.
type Context struct {
	context.Context

	Engine *engine.Engine
	Args   []string
	Logger *slog.Logger

	// Result is the value the command produced, if any.
	Result any
}

// Command is a unit of work run against an engine.
type Command interface {
	Run(ctx *Context) error
}

// CommandFunc adapts a function to Command.
type CommandFunc func(ctx *Context) error

// Run calls f.
func (f CommandFunc) Run(ctx *Context) error {
	return f(ctx)
}

// luaCommand runs a function registered by a script.
type luaCommand struct {
	host   *Host
	fn     *lua.LFunction
	source string
}

func (c *luaCommand) Run(ctx *Context) error {
	L := c.host.L
	args := L.NewTable()
	for _, a := range ctx.Args {
		args.Append(lua.LString(a))
	}

	return c.host.exec(ctx, c.source, func() error {
		if err := L.CallByParam(lua.P{Fn: c.fn, NRet: 1, Protect: true}, args); err != nil {
			return err
		}
		ret := L.Get(-1)
		L.Pop(1)
		ctx.Result = toGoValue(ret)
		return nil
	})
}
