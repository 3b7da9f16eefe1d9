package usecase

import (
	"context"
	"errors"
	"strings"

	"zaptalk/internal/domain"
	"zaptalk/internal/metrics"
)

// GateDecision is the outcome of the reply gate.
type GateDecision string

const (
	GateAdmitted         GateDecision = "admitted"
	GateNotReply         GateDecision = "not_reply"
	GateNotBotReply      GateDecision = "not_bot_reply"
	GateChatDisabled     GateDecision = "chat_disabled"
	GateStoreUnavailable GateDecision = "store_unavailable"
	GateEmptyText        GateDecision = "empty_text"
)

// ReplyGate decides whether a message should reach the persona responder.
type ReplyGate struct {
	store StatusStore
}

func NewReplyGate(store StatusStore) (*ReplyGate, error) {
	if store == nil {
		return nil, errors.New("usecase: status store must not be nil")
	}
	return &ReplyGate{store: store}, nil
}

// Evaluate checks, in order: the message is a reply, the reply targets botID, the chat is
// enabled, and the message carries text. A store failure denies admission and is returned.
func (g *ReplyGate) Evaluate(ctx context.Context, msg domain.IncomingMessage, botID int64) (GateDecision, error) {
	decision, err := g.evaluate(ctx, msg, botID)
	metrics.GateDecisionsTotal.WithLabelValues(string(decision)).Inc()
	return decision, err
}

func (g *ReplyGate) evaluate(ctx context.Context, msg domain.IncomingMessage, botID int64) (GateDecision, error) {
	if msg.ReplyTo == nil {
		return GateNotReply, nil
	}
	if msg.ReplyTo.SenderID == 0 || msg.ReplyTo.SenderID != botID {
		return GateNotBotReply, nil
	}
	enabled, err := g.store.IsEnabled(ctx, msg.ChatID)
	if err != nil {
		return GateStoreUnavailable, newError(ErrorStoreUnavailable, "status_lookup_error", err)
	}
	if !enabled {
		return GateChatDisabled, nil
	}
	if strings.TrimSpace(msg.Text) == "" {
		return GateEmptyText, nil
	}
	return GateAdmitted, nil
}
