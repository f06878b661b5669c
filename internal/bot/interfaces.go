package bot

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tikgrab/tikgrab/internal/tiktok"
)

// Logger defines the logging interface used by Bot
type Logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	Info(msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	Warn(msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// Telegram defines the chat-transport surface used by Bot.
// *tgbotapi.BotAPI satisfies it directly.
type Telegram interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	SendMediaGroup(config tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Resolver defines the content-resolution API surface used by Bot
type Resolver interface {
	Resolve(ctx context.Context, url string) (tiktok.Content, error)
	Download(ctx context.Context, url string, kind tiktok.MediaKind) (tiktok.Asset, error)
}

// Limiter gates inbound events per user
type Limiter interface {
	CheckAndRecord(ctx context.Context, userID int64) bool
	UsageInfo(ctx context.Context, userID int64) (used, remaining int64)
}

// slogAdapter wraps *slog.Logger to return our Logger interface from With()
type slogAdapter struct {
	*slog.Logger
}

func (l *slogAdapter) With(args ...any) Logger {
	return &slogAdapter{Logger: l.Logger.With(args...)}
}

// NewLogger wraps a *slog.Logger to implement the Logger interface
func NewLogger(log *slog.Logger) Logger {
	return &slogAdapter{Logger: log}
}
