package usecase

import (
	"context"
	"errors"
	"log/slog"

	"zaptalk/internal/domain"
	"zaptalk/internal/metrics"
)

// Dispatcher routes each inbound message to the command router or, through the
// reply gate, to the persona responder.
type Dispatcher struct {
	router    *CommandRouter
	gate      *ReplyGate
	responder *PersonaResponder
	botID     int64
}

func NewDispatcher(router *CommandRouter, gate *ReplyGate, responder *PersonaResponder, botID int64) (*Dispatcher, error) {
	if router == nil {
		return nil, errors.New("usecase: command router must not be nil")
	}
	if gate == nil {
		return nil, errors.New("usecase: reply gate must not be nil")
	}
	if responder == nil {
		return nil, errors.New("usecase: persona responder must not be nil")
	}
	if botID == 0 {
		return nil, errors.New("usecase: bot id must not be zero")
	}
	return &Dispatcher{router: router, gate: gate, responder: responder, botID: botID}, nil
}

// Handle processes one inbound message. Returned errors are for logging only; any
// user-facing message has already been sent.
func (d *Dispatcher) Handle(ctx context.Context, msg domain.IncomingMessage) error {
	if msg.IsCommand() {
		metrics.UpdatesTotal.WithLabelValues("command").Inc()
		return d.router.Route(ctx, msg)
	}
	metrics.UpdatesTotal.WithLabelValues("message").Inc()

	decision, err := d.gate.Evaluate(ctx, msg, d.botID)
	if err != nil {
		slog.WarnContext(ctx, "reply gate failed closed", "chat_id", msg.ChatID, "err", err)
		return err
	}
	if decision != GateAdmitted {
		slog.DebugContext(ctx, "message not admitted", "chat_id", msg.ChatID, "decision", decision)
		return nil
	}

	reply, err := d.responder.Respond(ctx, msg)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "persona reply sent",
		"chat_id", msg.ChatID,
		"mode", reply.Mode,
		"fallback", reply.Fallback,
		"chars", len([]rune(reply.Text)),
	)
	return nil
}
