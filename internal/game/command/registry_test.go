package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r)
	assert.Len(t, r.Commands(), 10)
}

func TestResolve_CanonicalName(t *testing.T) {
	r := DefaultRegistry()

	cmd, ok := r.Resolve("MOVE")
	assert.True(t, ok)
	assert.Equal(t, "MOVE", cmd.Name)
	assert.Equal(t, HandlerMove, cmd.Handler)
	assert.True(t, cmd.Gated)
}

func TestResolve_Alias(t *testing.T) {
	r := DefaultRegistry()

	cmd, ok := r.Resolve("QUIT")
	assert.True(t, ok)
	assert.Equal(t, "DIE", cmd.Name)
}

func TestResolve_NotFound(t *testing.T) {
	r := DefaultRegistry()

	_, ok := r.Resolve("TELEPORT")
	assert.False(t, ok)
	_, ok = r.Resolve("move")
	assert.False(t, ok, "keywords are matched after uppercasing")
}

func TestResolve_Gating(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		input string
		gated bool
	}{
		{"HELLO", false},
		{"LOOK", false},
		{"SHOUT", false},
		{"DIE", false},
		{"PICKUP", true},
		{"MOVE", true},
		{"ATTACK", true},
		{"GIFT", true},
		{"ENDTURN", true},
		{"SETPLAYERPOS", true},
	}

	for _, tt := range tests {
		cmd, ok := r.Resolve(tt.input)
		require.True(t, ok, "input %q not found", tt.input)
		assert.Equal(t, tt.gated, cmd.Gated, "input %q gating", tt.input)
	}
}

func TestNewRegistry_DuplicateName(t *testing.T) {
	cmds := []Command{
		{Name: "TEST", Handler: "a"},
		{Name: "TEST", Handler: "b"},
	}
	_, err := NewRegistry(cmds)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate command name")
}

func TestNewRegistry_DuplicateAlias(t *testing.T) {
	cmds := []Command{
		{Name: "TEST1", Aliases: []string{"T"}, Handler: "a"},
		{Name: "TEST2", Aliases: []string{"T"}, Handler: "b"},
	}
	_, err := NewRegistry(cmds)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate alias")
}

func TestInCategory(t *testing.T) {
	r := DefaultRegistry()

	assert.Len(t, r.InCategory(CategoryAction), 5)
	assert.Len(t, r.InCategory(CategorySystem), 2)
	assert.Len(t, r.InCategory(CategoryWorld), 1)
	assert.Len(t, r.InCategory(CategoryCommunication), 1)
	assert.Len(t, r.InCategory(CategoryDebug), 1)
	assert.Empty(t, r.InCategory("combat"))
}

func TestCommands_SortedByName(t *testing.T) {
	cmds := DefaultRegistry().Commands()
	for i := 1; i < len(cmds); i++ {
		assert.Less(t, cmds[i-1].Name, cmds[i].Name)
	}
}

func TestNewRegistry_RejectsBadKeywords(t *testing.T) {
	_, err := NewRegistry([]Command{{Name: "move", Handler: "a"}})
	assert.ErrorContains(t, err, "uppercase")

	_, err = NewRegistry([]Command{{Name: "MOVE"}})
	assert.ErrorContains(t, err, "no handler")

	_, err = NewRegistry([]Command{
		{Name: "GO", Handler: "a"},
		{Name: "MOVE", Aliases: []string{"GO"}, Handler: "b"},
	})
	assert.ErrorContains(t, err, "duplicate alias")
}

func TestPropertyAllAliasesResolveToCanonical(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := DefaultRegistry()
		cmds := r.Commands()
		idx := rapid.IntRange(0, len(cmds)-1).Draw(t, "cmd_idx")
		cmd := cmds[idx]

		resolved, ok := r.Resolve(cmd.Name)
		if !ok {
			t.Fatalf("canonical name %q did not resolve", cmd.Name)
		}
		if resolved.Name != cmd.Name {
			t.Fatalf("canonical name %q resolved to %q", cmd.Name, resolved.Name)
		}

		for _, alias := range cmd.Aliases {
			aliasResolved, ok := r.Resolve(alias)
			if !ok {
				t.Fatalf("alias %q did not resolve", alias)
			}
			if aliasResolved.Name != cmd.Name {
				t.Fatalf("alias %q resolved to %q, expected %q", alias, aliasResolved.Name, cmd.Name)
			}
		}
	})
}
