// Package report delivers captured command failures to logs, traces and the
// event bus.
package report

import (
	"os"
	"time"

	"interbot/pkg/slash"
)

// Failure is the serializable form of a captured handler failure.
type Failure struct {
	DispatchID string    `json:"dispatch_id"`
	Command    string    `json:"command"`
	SubCommand string    `json:"subcommand,omitempty"`
	Group      string    `json:"group,omitempty"`
	ActorID    string    `json:"actor_id"`
	GuildID    string    `json:"guild_id,omitempty"`
	ChannelID  string    `json:"channel_id,omitempty"`
	Locale     string    `json:"locale,omitempty"`
	Error      string    `json:"error"`
	Panicked   bool      `json:"panicked"`
	Stack      string    `json:"stack,omitempty"`
	Host       string    `json:"host"`
	At         time.Time `json:"at"`
}

var hostname = func() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}()

// NewFailure builds a Failure from a dispatcher report.
func NewFailure(err error, meta slash.FailureMeta) Failure {
	at := meta.At
	if at.IsZero() {
		at = time.Now()
	}
	f := Failure{
		DispatchID: meta.DispatchID,
		Command:    meta.Command,
		SubCommand: meta.SubCommand,
		Group:      meta.Group,
		ActorID:    meta.ActorID,
		GuildID:    meta.GuildID,
		ChannelID:  meta.ChannelID,
		Locale:     meta.Locale,
		Panicked:   meta.Panicked,
		Stack:      string(meta.Stack),
		Host:       hostname,
		At:         at,
	}
	if err != nil {
		f.Error = err.Error()
	}
	return f
}

// Target renders "command group subcommand" for messages.
func (f Failure) Target() string {
	target := f.Command
	if f.Group != "" {
		target += " " + f.Group
	}
	if f.SubCommand != "" {
		target += " " + f.SubCommand
	}
	return target
}
