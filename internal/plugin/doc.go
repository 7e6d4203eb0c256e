// Package plugin hosts Lua extensions that drive an editor session.
//
// A Host owns one sandboxed gopher-lua state bound to an engine.Engine.
// Scripts reach the engine through the global "tessera" table, which
// exposes buffer edits, markers, decorations, folds and coordinate
// translation. Markers, decorations and folds are addressed by their
// numeric ids, so scripts may hold on to them across edits.
//
// Rows and columns are zero-based on both sides of the bridge.
//
// Commands are the unit of work. Anything implementing Command can be
// registered with Host.Register; scripts register Lua functions with
// tessera.command(name, fn). Host.Run invokes either kind the same way.
//
// A Host is not safe for concurrent use. Call it from the goroutine that
// owns the engine.
//
// Example script:
//
//	local m = tessera.mark(2, 0, 2, 0)
//	tessera.decorate(m, "block", { position = "after", class = "diff" })
//
//	tessera.command("fold-body", function(args)
//	  local row = tonumber(args[1])
//	  return tessera.fold_rows(row, row + 3)
//	end)
package plugin
