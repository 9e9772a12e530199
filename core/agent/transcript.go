package agent

import (
	"sync"
	"time"

	"SpectraFM/model"
)

// Transcript is the append-only chat history.
type Transcript struct {
	mu       sync.RWMutex
	messages []model.ChatMessage
	now      func() time.Time
}

func NewTranscript() *Transcript {
	return &Transcript{now: time.Now}
}

func (t *Transcript) Append(sender model.Sender, text string) model.ChatMessage {
	msg := model.ChatMessage{Sender: sender, Text: text, CreatedAt: t.now()}
	t.mu.Lock()
	t.messages = append(t.messages, msg)
	t.mu.Unlock()
	return msg
}

// Messages returns a copy of the whole history, oldest first.
func (t *Transcript) Messages() []model.ChatMessage {
	return t.Recent(0)
}

// Recent returns up to n latest messages, oldest first. n <= 0 means all.
func (t *Transcript) Recent(n int) []model.ChatMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	start := 0
	if n > 0 && len(t.messages) > n {
		start = len(t.messages) - n
	}
	return append([]model.ChatMessage(nil), t.messages[start:]...)
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}
