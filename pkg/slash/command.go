// Package slash implements the interaction command registry and dispatcher.
//
// Commands are registered explicitly under a namespace, built once into an
// immutable Registry, and routed per event by a Dispatcher that applies
// checks, resolves subcommands, gates permissions and isolates handler
// failures.
package slash

import (
	"github.com/bwmarrin/discordgo"
)

// Command is the unit of dispatch. Name is the registry key and is
// compared case-sensitively.
type Command interface {
	Name() string
}

// HandlerFunc handles one dispatch. Subcommand handlers are usually method
// values so they run against the owning command instance.
type HandlerFunc func(c *Context) error

// Handler is implemented by commands with a default handler. Commands without
// one reply with a localized "not implemented" notice.
type Handler interface {
	Handle(c *Context) error
}

// SubCommander declares the subcommand table of a command.
type SubCommander interface {
	SubCommands() []SubCommand
}

// Checker declares top-level checks evaluated before any routing.
type Checker interface {
	Checks() []Check
}

// Describer supplies the help text shown in listings and command sync.
type Describer interface {
	Description() string
}

// Definer overrides the application command definition derived from the
// subcommand table.
type Definer interface {
	Definition() *discordgo.ApplicationCommand
}

// Check is a predicate evaluated in order before routing. A false result halts
// the dispatch without a reply.
type Check func(c *Context) bool

// Factory constructs one command. Dependencies are captured by closure.
type Factory func() (Command, error)

// Registration binds a factory to a namespace.
type Registration struct {
	Namespace string
	Factory   Factory
}

// Func adapts a constructor that cannot fail.
func Func[T Command](fn func() T) Factory {
	return func() (Command, error) {
		return fn(), nil
	}
}
