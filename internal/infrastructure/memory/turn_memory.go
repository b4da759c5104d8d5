package memory

import (
	"fmt"
	"strings"
	"sync"

	"github.com/yemyatmin/shop-assistant/internal/core/ports"
)

type turn struct {
	user string
	bot  string
}

// TurnMemory keeps the last N completed turns per user in process memory.
// A restart clears it; persistence is deliberately left to the stores that
// actually need it.
type TurnMemory struct {
	mu     sync.Mutex
	window int
	turns  map[string][]turn
}

var _ ports.TurnMemory = (*TurnMemory)(nil)

func NewTurnMemory(window int) *TurnMemory {
	if window <= 0 {
		window = 1
	}
	return &TurnMemory{
		window: window,
		turns:  make(map[string][]turn),
	}
}

// Record stores one completed exchange, evicting the oldest turn once the
// per-user window is full.
func (m *TurnMemory) Record(userID, userMessage, botMessage string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := append(m.turns[userID], turn{user: userMessage, bot: botMessage})
	if len(history) > m.window {
		history = history[len(history)-m.window:]
	}
	m.turns[userID] = history
}

// Render returns the user's recent turns as a labeled block for prompt
// assembly, or "" when the user has no history yet.
func (m *TurnMemory) Render(userID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := m.turns[userID]
	if len(history) == 0 {
		return ""
	}

	var b strings.Builder
	for i, t := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "User: %s\nAssistant: %s", t.user, t.bot)
	}
	return b.String()
}
