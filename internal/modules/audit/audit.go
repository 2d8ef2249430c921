package audit

import (
	"context"
	"time"

	"gatekeeper-bot/internal/storage"

	"go.uber.org/zap"
)

const (
	LevelInfo = "INFO"
	LevelWarn = "WARN"
	LevelCrit = "CRIT"
)

// Logger records activity both durably and to the process log. A store
// failure is logged and swallowed; auditing never fails the action it traces.
type Logger struct {
	store  *storage.Store
	logger *zap.Logger
}

func NewLogger(store *storage.Store, logger *zap.Logger) *Logger {
	return &Logger{store: store, logger: logger}
}

func (l *Logger) Log(ctx context.Context, level, chatID, userID, event, details string) {
	entry := storage.AuditLog{
		ChatID:    chatID,
		UserID:    userID,
		Level:     level,
		Event:     event,
		Details:   details,
		CreatedAt: time.Now(),
	}
	if l.store != nil {
		if err := l.store.AddAuditLog(ctx, entry); err != nil {
			l.logger.Error("audit write failed", zap.Error(err))
		}
	}
	l.logger.Info("audit", zap.String("level", level), zap.String("chat_id", chatID), zap.String("user_id", userID), zap.String("event", event), zap.String("details", details))
}
