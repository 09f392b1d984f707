package slash

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// SubCommand declares one subcommand handler.
type SubCommand struct {
	// Name defaults to the handler's method name.
	Name        string
	Group       string
	Description string
	Handler     HandlerFunc
	Permissions *Permissions
	// Options are the parameters advertised when commands are synced.
	Options []*discordgo.ApplicationCommandOption
}

// Table is the immutable subcommand table of one command.
type Table struct {
	entries []SubCommand
	groups  map[string][]int
}

// NewTable builds a table from declarations. Declarations without a handler
// are skipped. A repeated (group, name) pair is an error.
func NewTable(decls []SubCommand) (*Table, error) {
	t := &Table{groups: make(map[string][]int)}
	for _, d := range decls {
		if d.Handler == nil {
			continue
		}
		if d.Name == "" {
			d.Name = handlerName(d.Handler)
		}
		if d.Name == "" {
			return nil, fmt.Errorf("subcommand in group %q has no name", d.Group)
		}
		for _, i := range t.groups[d.Group] {
			if strings.EqualFold(t.entries[i].Name, d.Name) {
				return nil, fmt.Errorf("%w: group %q name %q", ErrDuplicateSubCommand, d.Group, d.Name)
			}
		}
		t.groups[d.Group] = append(t.groups[d.Group], len(t.entries))
		t.entries = append(t.entries, d)
	}
	return t, nil
}

// Resolve finds the entry for (group, name). Group must match exactly, with
// the empty group as its own bucket; name matches case-insensitively.
func (t *Table) Resolve(group, name string) (SubCommand, bool) {
	if t == nil {
		return SubCommand{}, false
	}
	for _, i := range t.groups[group] {
		if strings.EqualFold(t.entries[i].Name, name) {
			return t.entries[i], true
		}
	}
	return SubCommand{}, false
}

// Entries returns the declarations in declaration order.
func (t *Table) Entries() []SubCommand {
	if t == nil {
		return nil
	}
	out := make([]SubCommand, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of subcommands.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// handlerName derives "Ban" from a method value such as (*Admin).Ban.
func handlerName(fn HandlerFunc) string {
	f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if f == nil {
		return ""
	}
	name := strings.TrimSuffix(f.Name(), "-fm")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	// closures are named func1, func2, ...
	if strings.HasPrefix(name, "func") {
		return ""
	}
	return name
}
