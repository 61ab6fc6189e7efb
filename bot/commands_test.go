package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommands_UniqueAndDescribed(t *testing.T) {
	seen := map[string]bool{}
	for _, cmd := range Commands() {
		assert.False(t, seen[cmd.Name], "duplicate command %s", cmd.Name)
		seen[cmd.Name] = true
		assert.NotEmpty(t, cmd.Description, cmd.Name)
	}

	for _, name := range []string{"games", "play", "history", "balance", "deposit", "withdraw", "transactions", "daily", "bonuses", "missions", "claim", "winners", "stats", "summary"} {
		assert.True(t, seen[name], "missing command %s", name)
	}
}
