package usecase

import (
	"context"

	"zaptalk/internal/domain"
)

// StatusStore is the per-chat enable flag.
type StatusStore interface {
	IsEnabled(ctx context.Context, chatID int64) (bool, error)
	Enable(ctx context.Context, chatID int64) error
	Disable(ctx context.Context, chatID int64) error
}

// Generator completes a prompt with the language model.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Messenger is the chat transport.
type Messenger interface {
	SendTyping(ctx context.Context, chatID int64) error
	SendText(ctx context.Context, chatID int64, replyTo int, text string, links [][]domain.Link) error
	SendDocument(ctx context.Context, chatID int64, replyTo int, name string, content []byte) error
	MemberStatus(ctx context.Context, chatID, userID int64) (string, error)
}
