package bot

import (
	"fmt"
	"sync"
	"testing"

	"github.com/j0lvera/neuranest/internal/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreKeepsOrder(t *testing.T) {
	s := NewStore(10)

	s.AddUserMessage(1, "hello")
	s.AddBotMessage(1, "hi there")
	s.AddUserMessage(2, "other chat")

	assert.Equal(t, []chat.RawTurn{
		{Sender: "user", Text: "hello"},
		{Sender: "bot", Text: "hi there"},
	}, s.History(1))
	assert.Equal(t, 1, s.Length(2))
	assert.Equal(t, 0, s.Length(3))
	assert.Empty(t, s.History(3))
}

func TestStoreCapacity(t *testing.T) {
	s := NewStore(4)

	for i := 0; i < 9; i++ {
		s.AddUserMessage(1, fmt.Sprintf("m%d", i))
	}

	history := s.History(1)
	require.Len(t, history, 4)
	assert.Equal(t, "m5", history[0].Text)
	assert.Equal(t, "m8", history[3].Text)
}

func TestStoreZeroCapacity(t *testing.T) {
	s := NewStore(0)
	s.AddUserMessage(1, "hello")
	assert.Equal(t, 0, s.Length(1))
}

func TestStoreHistoryIsACopy(t *testing.T) {
	s := NewStore(4)
	s.AddUserMessage(1, "hello")

	history := s.History(1)
	history[0].Text = "changed"

	assert.Equal(t, "hello", s.History(1)[0].Text)
}

func TestStoreClear(t *testing.T) {
	s := NewStore(4)
	s.AddUserMessage(1, "hello")
	s.Clear(1)
	assert.Equal(t, 0, s.Length(1))
}

func TestStoreConcurrentWrites(t *testing.T) {
	s := NewStore(1000)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.AddUserMessage(7, "x")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 500, s.Length(7))
}
