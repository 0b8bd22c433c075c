package assistant

import (
	"context"
	"sync"

	"ats-agent-go/internal/types"
)

// ChatMemory stores per-session conversation transcripts. Implementations
// bound the transcript themselves; History never returns more than the
// configured number of recent messages.
type ChatMemory interface {
	History(ctx context.Context, sessionID string) ([]types.ChatMessage, error)
	Append(ctx context.Context, sessionID string, msgs ...types.ChatMessage) error
	Clear(ctx context.Context, sessionID string) error
}

// InMemoryChatMemory is a process-local ChatMemory for tests and single-node
// deployments without Redis.
type InMemoryChatMemory struct {
	mu          sync.Mutex
	maxMessages int
	sessions    map[string][]types.ChatMessage
}

func NewInMemoryChatMemory(maxMessages int) *InMemoryChatMemory {
	return &InMemoryChatMemory{
		maxMessages: maxMessages,
		sessions:    make(map[string][]types.ChatMessage),
	}
}

func (m *InMemoryChatMemory) History(ctx context.Context, sessionID string) ([]types.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.sessions[sessionID]
	out := make([]types.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (m *InMemoryChatMemory) Append(ctx context.Context, sessionID string, msgs ...types.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := append(m.sessions[sessionID], msgs...)
	if m.maxMessages > 0 && len(all) > m.maxMessages {
		all = all[len(all)-m.maxMessages:]
	}
	m.sessions[sessionID] = all
	return nil
}

func (m *InMemoryChatMemory) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}
