package plugin

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/tessera/internal/engine"
)

// DefaultExecutionTimeout bounds a single script or command run.
const DefaultExecutionTimeout = 5 * time.Second

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithExecutionTimeout bounds each script or command run. Zero disables the
// bound; the caller's context still applies.
func WithExecutionTimeout(d time.Duration) Option {
	return func(h *Host) {
		if d >= 0 {
			h.timeout = d
		}
	}
}

// Host runs Lua scripts and commands against one engine.
type Host struct {
	L      *lua.LState
	engine *engine.Engine
	logger *slog.Logger

	timeout  time.Duration
	commands map[string]Command
	closed   bool
}

// NewHost creates a host bound to e and installs the tessera API.
func NewHost(e *engine.Engine, opts ...Option) *Host {
	h := &Host{
		engine:   e,
		logger:   slog.New(slog.DiscardHandler),
		timeout:  DefaultExecutionTimeout,
		commands: make(map[string]Command),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "plugin")

	h.L = newLuaState()
	h.registerAPI()
	return h
}

// DoString runs a chunk of Lua code.
func (h *Host) DoString(ctx context.Context, code string) error {
	if h.closed {
		return ErrHostClosed
	}
	return h.exec(ctx, "<string>", func() error {
		return h.L.DoString(code)
	})
}

// DoFile runs a Lua file.
func (h *Host) DoFile(ctx context.Context, path string) error {
	if h.closed {
		return ErrHostClosed
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("plugin: read script: %w", err)
	}
	name := filepath.Base(path)
	return h.exec(ctx, name, func() error {
		fn, err := h.L.Load(bytes.NewReader(src), name)
		if err != nil {
			return err
		}
		h.L.Push(fn)
		return h.L.PCall(0, lua.MultRet, nil)
	})
}

// Register adds a command under name.
func (h *Host) Register(name string, cmd Command) error {
	if h.closed {
		return ErrHostClosed
	}
	if name == "" || cmd == nil {
		return fmt.Errorf("plugin: register %q: %w", name, ErrInvalidArgument)
	}
	if _, ok := h.commands[name]; ok {
		return fmt.Errorf("plugin: register %q: %w", name, ErrCommandExists)
	}
	h.commands[name] = cmd
	h.logger.Debug("command registered", "name", name)
	return nil
}

// Unregister removes a command.
func (h *Host) Unregister(name string) bool {
	if _, ok := h.commands[name]; !ok {
		return false
	}
	delete(h.commands, name)
	return true
}

// Commands returns the registered command names in order.
func (h *Host) Commands() []string {
	names := make([]string, 0, len(h.commands))
	for name := range h.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Run runs the command name with args and returns its result.
func (h *Host) Run(ctx context.Context, name string, args ...string) (any, error) {
	if h.closed {
		return nil, ErrHostClosed
	}
	cmd, ok := h.commands[name]
	if !ok {
		return nil, fmt.Errorf("plugin: run %q: %w", name, ErrUnknownCommand)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cctx := &Context{
		Context: ctx,
		Engine:  h.engine,
		Args:    args,
		Logger:  h.logger.With("command", name),
	}
	if err := cmd.Run(cctx); err != nil {
		return nil, fmt.Errorf("plugin: run %q: %w", name, err)
	}
	return cctx.Result, nil
}

// Close releases the Lua state. Later calls fail with ErrHostClosed.
func (h *Host) Close() {
	if h.closed {
		return
	}
	h.closed = true
	h.L.Close()
	clear(h.commands)
}

// exec runs fn with ctx and the execution timeout attached to the Lua
// state. Errors come back as *ScriptError.
func (h *Host) exec(ctx context.Context, source string, fn func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	// Nested runs (a script calling a command) keep the outer context.
	if h.L.Context() == nil {
		h.L.SetContext(ctx)
		defer h.L.RemoveContext()
	}

	err := protect(fn)
	if err == nil {
		return nil
	}
	if cerr := ctx.Err(); cerr != nil {
		err = fmt.Errorf("%w: %v", cerr, err)
	}
	h.logger.Debug("script failed", "source", source, "error", err)
	return &ScriptError{Source: source, Err: err}
}
