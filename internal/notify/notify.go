// Package notify delivers shopper-facing notifications.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prbretas/JEWELRY/internal/domain"
)

// Notifier receives notifications for a session.
type Notifier interface {
	Notify(ctx context.Context, sessionID string, n domain.Notification)
}

// Log writes notifications to the structured log.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a notifier that logs every notification.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(ctx context.Context, sessionID string, n domain.Notification) {
	level := slog.LevelInfo
	switch n.Severity {
	case domain.SeverityError:
		level = slog.LevelError
	case domain.SeverityWarning:
		level = slog.LevelWarn
	}
	l.logger.Log(ctx, level, "notification",
		slog.String("session_id", sessionID),
		slog.String("severity", string(n.Severity)),
		slog.String("message", n.Message),
	)
}

// DefaultInboxSize bounds the pending notifications kept per session.
const DefaultInboxSize = 20

// Inbox queues notifications per session until the UI drains them. When a
// session's queue is full the oldest notification is dropped.
type Inbox struct {
	mu      sync.Mutex
	size    int
	pending map[string][]domain.Notification
}

// NewInbox creates an inbox holding at most size notifications per session.
func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = DefaultInboxSize
	}
	return &Inbox{size: size, pending: make(map[string][]domain.Notification)}
}

func (b *Inbox) Notify(_ context.Context, sessionID string, n domain.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	q := append(b.pending[sessionID], n)
	if len(q) > b.size {
		q = q[len(q)-b.size:]
	}
	b.pending[sessionID] = q
}

// Drain returns and removes the pending notifications of a session, oldest
// first. It never returns nil.
func (b *Inbox) Drain(sessionID string) []domain.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	q := b.pending[sessionID]
	delete(b.pending, sessionID)
	if q == nil {
		return []domain.Notification{}
	}
	return q
}

// Forget drops everything queued for a session.
func (b *Inbox) Forget(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pending, sessionID)
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, sessionID string, n domain.Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, sessionID, n)
	}
}
