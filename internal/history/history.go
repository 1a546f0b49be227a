package history

import "sync"

// Role values for conversation turns, matching the completion API wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// systemPrompt is prepended to every conversation sent to the backend. It is
// never stored, so /clear cannot remove it.
const systemPrompt = "You are a helpful AI assistant responding via iMessage. " +
	"Keep responses concise and conversational. Use emojis sparingly but appropriately."

// Turn is a single exchanged message in a conversation.
type Turn struct {
	Role    string
	Content string
}

// Store keeps a bounded, per-correspondent conversation history for the
// lifetime of the process. Each correspondent's history is capped at
// 2 × maxHistory turns; oldest turns are evicted first.
type Store struct {
	maxHistory int

	mu            sync.Mutex
	conversations map[string][]Turn
}

// New creates a store keeping at most maxHistory exchanges (2 × maxHistory
// turns) per correspondent.
func New(maxHistory int) *Store {
	return &Store{
		maxHistory:    maxHistory,
		conversations: make(map[string][]Turn),
	}
}

// AppendUser records an inbound message from the correspondent.
func (s *Store) AppendUser(correspondent, text string) {
	s.append(correspondent, Turn{Role: RoleUser, Content: text})
}

// AppendAssistant records a reply sent to the correspondent.
func (s *Store) AppendAssistant(correspondent, text string) {
	s.append(correspondent, Turn{Role: RoleAssistant, Content: text})
}

// For returns the conversation to send to the backend: the fixed system turn
// followed by the retained turns in chronological order. The returned slice is
// a copy.
func (s *Store) For(correspondent string) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.conversations[correspondent]
	out := make([]Turn, 0, len(stored)+1)
	out = append(out, Turn{Role: RoleSystem, Content: systemPrompt})
	return append(out, stored...)
}

// Clear drops all history for the correspondent.
func (s *Store) Clear(correspondent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, correspondent)
}

// Active returns the number of correspondents with non-empty history.
func (s *Store) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

func (s *Store) append(correspondent string, turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.conversations[correspondent], turn)
	if limit := s.maxHistory * 2; len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	s.conversations[correspondent] = turns
}
