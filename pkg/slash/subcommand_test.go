package slash

import (
	"errors"
	"testing"
)

func TestNewTable_DefaultsNameToMethod(t *testing.T) {
	a := &adminCommand{}
	table, err := NewTable(a.SubCommands())
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	entries := table.Entries()
	if len(entries) != 2 || entries[0].Name != "Ban" || entries[1].Name != "Kick" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestNewTable_SkipsNilHandlers(t *testing.T) {
	table, err := NewTable([]SubCommand{{Name: "ghost"}, {Name: "real", Handler: func(*Context) error { return nil }}})
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	if table.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", table.Len())
	}
	if _, ok := table.Resolve("", "ghost"); ok {
		t.Fatalf("expected nil handler to be excluded")
	}
}

func TestNewTable_DuplicateIsCaseInsensitive(t *testing.T) {
	h := func(*Context) error { return nil }
	_, err := NewTable([]SubCommand{{Name: "List", Handler: h}, {Name: "list", Handler: h}})
	if !errors.Is(err, ErrDuplicateSubCommand) {
		t.Fatalf("expected ErrDuplicateSubCommand, got %v", err)
	}
}

func TestNewTable_SameNameInDifferentGroups(t *testing.T) {
	h := func(*Context) error { return nil }
	_, err := NewTable([]SubCommand{
		{Name: "list", Handler: h},
		{Name: "list", Group: "roles", Handler: h},
	})
	if err != nil {
		t.Fatalf("expected distinct groups to allow same name, got %v", err)
	}
}

func TestNewTable_ClosureNeedsExplicitName(t *testing.T) {
	_, err := NewTable([]SubCommand{{Handler: func(*Context) error { return nil }}})
	if err == nil {
		t.Fatalf("expected error for unnamed closure handler")
	}
}

func TestTableResolve(t *testing.T) {
	h := func(*Context) error { return nil }
	table, err := NewTable([]SubCommand{
		{Name: "ban", Group: "user", Handler: h},
		{Name: "show", Handler: h},
	})
	if err != nil {
		t.Fatalf("new table: %v", err)
	}

	tests := []struct {
		group string
		name  string
		found bool
	}{
		{"user", "ban", true},
		{"user", "BAN", true},
		{"user", "Ban", true},
		{"USER", "ban", false},
		{"", "ban", false},
		{"", "show", true},
		{"", "SHOW", true},
		{"user", "show", false},
		{"missing", "ban", false},
	}
	for _, tt := range tests {
		_, found := table.Resolve(tt.group, tt.name)
		if found != tt.found {
			t.Fatalf("Resolve(%q, %q) found = %v, want %v", tt.group, tt.name, found, tt.found)
		}
	}
}

func TestTableResolve_NilTable(t *testing.T) {
	var table *Table
	if _, ok := table.Resolve("", "x"); ok {
		t.Fatalf("expected nil table to resolve nothing")
	}
}
