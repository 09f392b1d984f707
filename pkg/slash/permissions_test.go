package slash

import (
	"context"
	"reflect"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestPermissionNames_BitOrder(t *testing.T) {
	got := PermissionNames(discordgo.PermissionManageGuild | discordgo.PermissionBanMembers | discordgo.PermissionKickMembers)
	want := []string{"Kick Members", "Ban Members", "Manage Server"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("PermissionNames = %v, want %v", got, want)
	}
}

func TestPermissionNames_Empty(t *testing.T) {
	if got := PermissionNames(0); len(got) != 0 {
		t.Fatalf("expected no names, got %v", got)
	}
}

func TestGateEvaluate_NilRequirementAllows(t *testing.T) {
	g := NewGate(nil, nil)
	responder := &recordingResponder{}
	c := NewContext(context.Background(), newEvent("x", responder), "", nil)
	if g.Evaluate(c, nil) != Allowed {
		t.Fatalf("expected nil requirement to allow")
	}
	if responder.total() != 0 {
		t.Fatalf("expected no reply")
	}
}

func TestGateEvaluate_NilProviderDenies(t *testing.T) {
	g := NewGate(nil, nil)
	responder := &recordingResponder{}
	c := NewContext(context.Background(), newEvent("x", responder), "", nil)
	if g.Evaluate(c, Require(discordgo.PermissionKickMembers)) != Denied {
		t.Fatalf("expected deny without a provider")
	}
}
