package slash

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type recordingResponder struct {
	mu        sync.Mutex
	replies   []Response
	followUps []Response
	deferred  int
}

func (r *recordingResponder) Reply(_ context.Context, resp Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, resp)
	return nil
}

func (r *recordingResponder) Defer(context.Context, bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deferred++
	return nil
}

func (r *recordingResponder) FollowUp(_ context.Context, resp Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.followUps = append(r.followUps, resp)
	return nil
}

func (r *recordingResponder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.replies) + len(r.followUps)
}

type capturedReport struct {
	err  error
	meta FailureMeta
}

type recordingReporter struct {
	mu      sync.Mutex
	reports []capturedReport
}

func (r *recordingReporter) Report(_ context.Context, err error, meta FailureMeta) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, capturedReport{err: err, meta: meta})
}

func (r *recordingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports)
}

type staticProvider struct {
	user int64
	bot  int64
	err  error
}

func (p staticProvider) Capabilities(_ context.Context, _ *Event, who Scope) (int64, error) {
	if p.err != nil {
		return 0, p.err
	}
	if who == ScopeBot {
		return p.bot, nil
	}
	return p.user, nil
}

var errBoom = errors.New("boom")

type pingCommand struct{ calls int }

func (p *pingCommand) Name() string { return "ping" }

func (p *pingCommand) Handle(c *Context) error {
	p.calls++
	return c.Reply("pong")
}

type statsCommand struct{}

func (statsCommand) Name() string { return "stats" }

func (statsCommand) Handle(*Context) error { return errBoom }

type adminCommand struct {
	defaults int
	bans     int
	kicks    int
	checks   []Check
}

func (a *adminCommand) Name() string { return "admin" }

func (a *adminCommand) Handle(*Context) error {
	a.defaults++
	return nil
}

func (a *adminCommand) Ban(*Context) error {
	a.bans++
	return nil
}

func (a *adminCommand) Kick(*Context) error {
	a.kicks++
	panic("kick exploded")
}

func (a *adminCommand) Checks() []Check { return a.checks }

func (a *adminCommand) SubCommands() []SubCommand {
	return []SubCommand{
		{Group: "user", Handler: a.Ban, Permissions: Require(1 << 2)},
		{Group: "user", Handler: a.Kick},
	}
}

type namedCommand struct {
	name string
	subs []SubCommand
}

func (n namedCommand) Name() string { return n.name }

func (n namedCommand) SubCommands() []SubCommand { return n.subs }

func newTestRegistry(t *testing.T, cmds ...Command) *Registry {
	t.Helper()
	cat := NewCatalog()
	for _, cmd := range cmds {
		cmd := cmd
		cat.Add("test.commands", func() (Command, error) { return cmd, nil })
	}
	reg, err := BuildRegistry(cat, "test.commands", nil)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func newEvent(command string, responder Responder) *Event {
	return &Event{
		ID:        "interaction-1",
		Command:   command,
		ActorID:   "user-1",
		GuildID:   "guild-1",
		ChannelID: "channel-1",
		Locale:    "en-US",
		Responder: responder,
	}
}
