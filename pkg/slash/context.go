package slash

import (
	"context"
	"fmt"
	"sync"
)

// Event is one command interaction as delivered by the gateway.
type Event struct {
	ID          string
	Command     string
	Group       string
	SubCommand  string
	Options     map[string]string
	ActorID     string
	ActorName   string
	GuildID     string
	ChannelID   string
	Locale      string
	GuildLocale string

	// Raw is the transport payload, for capability providers that need it.
	Raw any

	Responder Responder
}

// InGuild reports whether the event originated in a guild.
func (e *Event) InGuild() bool {
	return e.GuildID != ""
}

// Response is a message sent back to the invoking actor.
type Response struct {
	Content   string
	Ephemeral bool
}

// Responder is the reply capability of an event.
type Responder interface {
	Reply(ctx context.Context, resp Response) error
	Defer(ctx context.Context, ephemeral bool) error
	FollowUp(ctx context.Context, resp Response) error
}

// Translator looks up localized strings.
type Translator interface {
	Translate(key, locale string, args ...any) string
}

// LocaleResolver picks the locale a dispatch replies in.
type LocaleResolver interface {
	ResolveLocale(ctx context.Context, ev *Event) string
}

type keyTranslator struct{}

func (keyTranslator) Translate(key, _ string, args ...any) string {
	if len(args) == 0 {
		return key
	}
	return fmt.Sprintf("%s %v", key, args)
}

type eventLocale struct{}

func (eventLocale) ResolveLocale(_ context.Context, ev *Event) string {
	if ev.Locale != "" {
		return ev.Locale
	}
	return ev.GuildLocale
}

// Context carries one dispatch. It is never shared between dispatches.
type Context struct {
	ctx        context.Context
	event      *Event
	locale     string
	translator Translator
	dispatchID string

	mu       sync.Mutex
	answered bool
	deferred bool
}

// NewContext builds a Context. The dispatcher does this; tests may too.
func NewContext(ctx context.Context, ev *Event, locale string, tr Translator) *Context {
	if tr == nil {
		tr = keyTranslator{}
	}
	return &Context{
		ctx:        ctx,
		event:      ev,
		locale:     locale,
		translator: tr,
	}
}

// Context returns the per-dispatch context, bounded by the handler timeout.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Event returns the originating event.
func (c *Context) Event() *Event {
	return c.event
}

// Locale returns the resolved locale.
func (c *Context) Locale() string {
	return c.locale
}

// DispatchID identifies this dispatch in logs, traces and reports.
func (c *Context) DispatchID() string {
	return c.dispatchID
}

// Option returns a named option value, or "" when absent.
func (c *Context) Option(name string) string {
	return c.event.Options[name]
}

// T translates key in the resolved locale.
func (c *Context) T(key string, args ...any) string {
	return c.translator.Translate(key, c.locale, args...)
}

// Reply sends a public message.
func (c *Context) Reply(content string) error {
	return c.Respond(Response{Content: content})
}

// ReplyEphemeral sends a message only the invoking actor can see.
func (c *Context) ReplyEphemeral(content string) error {
	return c.Respond(Response{Content: content, Ephemeral: true})
}

// Respond sends resp as the initial response, or as a follow-up once the
// interaction was answered or deferred.
func (c *Context) Respond(resp Response) error {
	if c.event.Responder == nil {
		return ErrNoResponder
	}
	c.mu.Lock()
	followUp := c.answered || c.deferred
	c.answered = true
	c.mu.Unlock()

	if followUp {
		return c.event.Responder.FollowUp(c.ctx, resp)
	}
	return c.event.Responder.Reply(c.ctx, resp)
}

// Defer acknowledges the interaction so the handler can answer later.
func (c *Context) Defer(ephemeral bool) error {
	if c.event.Responder == nil {
		return ErrNoResponder
	}
	c.mu.Lock()
	if c.answered || c.deferred {
		c.mu.Unlock()
		return nil
	}
	c.deferred = true
	c.mu.Unlock()
	return c.event.Responder.Defer(c.ctx, ephemeral)
}

// FollowUp sends an additional message after the initial response.
func (c *Context) FollowUp(resp Response) error {
	if c.event.Responder == nil {
		return ErrNoResponder
	}
	return c.event.Responder.FollowUp(c.ctx, resp)
}

// Answered reports whether any response was sent or deferred.
func (c *Context) Answered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answered || c.deferred
}
