package plugin

import (
	"errors"
	"fmt"
)

// Host errors.
var (
	// ErrHostClosed is returned when using a closed host.
	ErrHostClosed = errors.New("plugin host is closed")

	// ErrUnknownCommand is returned when running a command that was never
	// registered.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrCommandExists is returned when registering a name twice.
	ErrCommandExists = errors.New("command already registered")

	// ErrInvalidArgument is returned when a script passes a malformed
	// argument to the editor API.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ScriptError wraps a failure raised while running Lua code.
type ScriptError struct {
	Source string // file path or chunk name
	Err    error
}

// Error implements error.
func (e *ScriptError) Error() string {
	return fmt.Sprintf("plugin: %s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *ScriptError) Unwrap() error {
	return e.Err
}
