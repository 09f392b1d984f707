package slash

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sort"

	"go.uber.org/zap"

	"interbot/pkg/logger"
)

// entry is a built command with its derived routing data.
type entry struct {
	cmd     Command
	table   *Table
	checks  []Check
	handler HandlerFunc
}

// Registry maps command names to built commands. It is immutable once built
// and safe for concurrent readers.
type Registry struct {
	namespace string
	entries   map[string]*entry
	names     []string
}

// BuildRegistry instantiates every command registered under namespace.
// Any failure aborts the build; a registry is never partially populated.
func BuildRegistry(scanner Scanner, namespace string, log *logger.Logger) (*Registry, error) {
	if log == nil {
		log = logger.NewNop()
	}
	factories, err := scanner.Scan(namespace)
	if err != nil {
		return nil, &BuildError{Namespace: namespace, Err: err}
	}

	r := &Registry{
		namespace: namespace,
		entries:   make(map[string]*entry, len(factories)),
	}
	for i, f := range factories {
		cmd, err := instantiate(f)
		if err != nil {
			return nil, &BuildError{Namespace: namespace, Command: fmt.Sprintf("#%d", i), Err: err}
		}
		e, err := newEntry(cmd)
		if err != nil {
			return nil, &BuildError{Namespace: namespace, Command: cmd.Name(), Err: err}
		}
		name := cmd.Name()
		if _, exists := r.entries[name]; exists {
			return nil, &BuildError{Namespace: namespace, Command: name, Err: ErrDuplicateCommand}
		}
		r.entries[name] = e
		r.names = append(r.names, name)

		log.Debug("Registered command",
			zap.String("command", name),
			zap.Int("subcommands", e.table.Len()),
			zap.Int("checks", len(e.checks)),
		)
	}
	sort.Strings(r.names)

	log.Info("Command registry built",
		zap.String("namespace", namespace),
		zap.Int("commands", len(r.names)),
	)
	return r, nil
}

// instantiate runs a factory, turning a panic into an error.
func instantiate(f Factory) (cmd Command, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			cmd = nil
			err = &PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()
	cmd, err = f()
	if err != nil {
		return nil, err
	}
	if cmd == nil {
		return nil, errors.New("factory returned nil command")
	}
	if cmd.Name() == "" {
		return nil, errors.New("command has empty name")
	}
	return cmd, nil
}

func newEntry(cmd Command) (*entry, error) {
	e := &entry{cmd: cmd}
	if sc, ok := cmd.(SubCommander); ok {
		table, err := NewTable(sc.SubCommands())
		if err != nil {
			return nil, err
		}
		e.table = table
	}
	if ch, ok := cmd.(Checker); ok {
		e.checks = append([]Check(nil), ch.Checks()...)
	}
	if h, ok := cmd.(Handler); ok {
		e.handler = h.Handle
	}
	return e, nil
}

// Namespace returns the namespace the registry was built from.
func (r *Registry) Namespace() string {
	return r.namespace
}

// Lookup returns the command registered under name.
func (r *Registry) Lookup(name string) (Command, bool) {
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.cmd, true
}

// Table returns the subcommand table of name, or nil.
func (r *Registry) Table(name string) *Table {
	if e, ok := r.entries[name]; ok {
		return e.table
	}
	return nil
}

// Commands returns all commands sorted by name.
func (r *Registry) Commands() []Command {
	out := make([]Command, len(r.names))
	for i, name := range r.names {
		out[i] = r.entries[name].cmd
	}
	return out
}

// Len returns the number of commands.
func (r *Registry) Len() int {
	return len(r.names)
}

func (r *Registry) lookupEntry(name string) (*entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}
