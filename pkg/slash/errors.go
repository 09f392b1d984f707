package slash

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateCommand is returned when two commands share a name.
	ErrDuplicateCommand = errors.New("duplicate command name")
	// ErrDuplicateSubCommand is returned when a (group, name) pair repeats.
	ErrDuplicateSubCommand = errors.New("duplicate subcommand")
	// ErrUnknownNamespace is returned when nothing is registered under a namespace.
	ErrUnknownNamespace = errors.New("unknown command namespace")
	// ErrNoResponder is returned when an event carries no reply capability.
	ErrNoResponder = errors.New("event has no responder")
)

// BuildError describes a command that could not be built into the registry.
type BuildError struct {
	Namespace string
	Command   string
	Err       error
}

func (e *BuildError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("build registry %q: %v", e.Namespace, e.Err)
	}
	return fmt.Sprintf("build registry %q: command %q: %v", e.Namespace, e.Command, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a handler.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
