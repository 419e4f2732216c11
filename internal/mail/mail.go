package mail

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Message is a mail sent to the forum moderators.
type Message struct {
	Subject string
	Body    string
}

// Mailer delivers messages to the moderators.
type Mailer interface {
	MailModerators(ctx context.Context, subject, body string) error
}

// MemoryMailer stores messages in-memory for tests.
type MemoryMailer struct {
	mu   sync.Mutex
	msgs []Message
}

func NewMemoryMailer() *MemoryMailer { return &MemoryMailer{} }

func (m *MemoryMailer) MailModerators(_ context.Context, subject, body string) error {
	m.mu.Lock()
	m.msgs = append(m.msgs, Message{Subject: subject, Body: body})
	m.mu.Unlock()
	return nil
}

func (m *MemoryMailer) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.msgs))
	copy(out, m.msgs)
	return out
}

// LogMailer writes messages to a structured log instead of sending them.
type LogMailer struct {
	Log zerolog.Logger
}

func (l LogMailer) MailModerators(_ context.Context, subject, body string) error {
	l.Log.Info().Str("subject", subject).Str("body", body).Msg("mail to moderators")
	return nil
}
