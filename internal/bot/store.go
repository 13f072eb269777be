package bot

import (
	"sync"

	"github.com/j0lvera/neuranest/internal/chat"
)

// History represents a chat history between a user and the bot
type History struct {
	Turns []chat.RawTurn
	mu    sync.Mutex
}

// Store keeps the most recent turns of every chat in memory.
// Telegram does not send history with updates, so this is the only place it lives.
type Store struct {
	history  map[int64]*History // Map of chat ID to conversation
	capacity int
	mu       sync.RWMutex
}

// NewStore creates a conversation store keeping at most capacity turns per chat
func NewStore(capacity int) *Store {
	if capacity < 0 {
		capacity = 0
	}
	return &Store{
		history:  make(map[int64]*History),
		capacity: capacity,
	}
}

// AddUserMessage adds a user message to the conversation history
func (s *Store) AddUserMessage(chatID int64, content string) {
	s.add(chatID, chat.RawTurn{Sender: chat.UserSender, Text: content})
}

// AddBotMessage adds a bot message to the conversation history
func (s *Store) AddBotMessage(chatID int64, content string) {
	s.add(chatID, chat.RawTurn{Sender: BotSender, Text: content})
}

func (s *Store) add(chatID int64, turn chat.RawTurn) {
	if s.capacity == 0 {
		return
	}

	s.mu.Lock()
	conv, exists := s.history[chatID]
	if !exists {
		conv = &History{}
		s.history[chatID] = conv
	}
	s.mu.Unlock()

	conv.mu.Lock()
	defer conv.mu.Unlock()

	conv.Turns = append(conv.Turns, turn)
	if over := len(conv.Turns) - s.capacity; over > 0 {
		// drop the oldest turns
		conv.Turns = append(conv.Turns[:0], conv.Turns[over:]...)
	}
}

// History returns a copy of the stored turns for a chat, oldest first
func (s *Store) History(chatID int64) []chat.RawTurn {
	s.mu.RLock()
	conv, exists := s.history[chatID]
	s.mu.RUnlock()
	if !exists {
		return []chat.RawTurn{}
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()

	return append([]chat.RawTurn{}, conv.Turns...)
}

// Clear clears the conversation history for a chat
func (s *Store) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.history, chatID)
}

// Length returns the number of turns stored for a chat
func (s *Store) Length(chatID int64) int {
	s.mu.RLock()
	conv, exists := s.history[chatID]
	s.mu.RUnlock()
	if !exists {
		return 0
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()

	return len(conv.Turns)
}
