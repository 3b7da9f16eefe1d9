package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"zaptalk/internal/domain"
	"zaptalk/internal/metrics"
)

const (
	// MaxInlineChars matches Telegram's single-message limit.
	MaxInlineChars    = 4096
	DocumentName      = "response.txt"
	defaultLLMTimeout = 30 * time.Second
)

type httpStatusCoder interface {
	HTTPStatusCode() int
}

type ResponderConfig struct {
	Persona   Persona
	Fallbacks []string
	Timeout   time.Duration
}

// PersonaResponder turns an admitted message into an in-character reply.
type PersonaResponder struct {
	llm       Generator
	out       Messenger
	persona   Persona
	fallbacks []string
	timeout   time.Duration
	pick      func(n int) int
}

func NewPersonaResponder(llm Generator, out Messenger, cfg ResponderConfig) (*PersonaResponder, error) {
	if llm == nil {
		return nil, errors.New("usecase: generator must not be nil")
	}
	if out == nil {
		return nil, errors.New("usecase: messenger must not be nil")
	}
	fallbacks := make([]string, 0, len(cfg.Fallbacks))
	for _, f := range cfg.Fallbacks {
		if f = strings.TrimSpace(f); f != "" {
			fallbacks = append(fallbacks, f)
		}
	}
	if len(fallbacks) == 0 {
		return nil, errors.New("usecase: fallback pool must not be empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultLLMTimeout
	}
	return &PersonaResponder{
		llm:       llm,
		out:       out,
		persona:   cfg.Persona,
		fallbacks: fallbacks,
		timeout:   cfg.Timeout,
		pick:      rand.Intn,
	}, nil
}

// Respond shows the typing indicator, generates a reply for msg, and delivers it.
func (r *PersonaResponder) Respond(ctx context.Context, msg domain.IncomingMessage) (domain.PersonaReply, error) {
	if err := r.out.SendTyping(ctx, msg.ChatID); err != nil {
		slog.WarnContext(ctx, "typing indicator failed", "chat_id", msg.ChatID, "err", err)
	}

	gen := r.generate(ctx, msg.Text)
	if !gen.OK() {
		slog.WarnContext(ctx, "llm generation failed", "chat_id", msg.ChatID, "reason", gen.Reason, "err", gen.Err)
	}
	reply := r.compose(gen)

	if err := r.deliver(ctx, msg, reply); err != nil {
		return reply, newError(ErrorUpstream, "delivery_error", err)
	}
	return reply, nil
}

// generate makes exactly one bounded model call and reports it as a Generation.
func (r *PersonaResponder) generate(ctx context.Context, text string) domain.Generation {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := time.Now()
	out, err := r.llm.Generate(ctx, buildPrompt(r.persona, text))
	metrics.GenerationDuration.Observe(time.Since(started).Seconds())

	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded):
		return domain.Failed("llm_timeout", err)
	case err != nil:
		if status, ok := upstreamStatusCode(err); ok && status == http.StatusTooManyRequests {
			return domain.Failed("llm_rate_limited", err)
		}
		return domain.Failed("llm_error", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return domain.Failed("llm_empty_output", nil)
	}
	return domain.Generated(out)
}

func (r *PersonaResponder) compose(gen domain.Generation) domain.PersonaReply {
	if !gen.OK() {
		metrics.GenerationsTotal.WithLabelValues("fallback").Inc()
		return domain.PersonaReply{
			Text:     r.fallbacks[r.pick(len(r.fallbacks))],
			Mode:     domain.DeliveryInline,
			Fallback: true,
		}
	}
	metrics.GenerationsTotal.WithLabelValues("success").Inc()
	mode := domain.DeliveryInline
	if utf8.RuneCountInString(gen.Text) > MaxInlineChars {
		mode = domain.DeliveryDocument
	}
	return domain.PersonaReply{Text: gen.Text, Mode: mode}
}

func (r *PersonaResponder) deliver(ctx context.Context, msg domain.IncomingMessage, reply domain.PersonaReply) error {
	metrics.DeliveriesTotal.WithLabelValues(string(reply.Mode)).Inc()
	if reply.Mode == domain.DeliveryDocument {
		return r.out.SendDocument(ctx, msg.ChatID, msg.MessageID, DocumentName, []byte(reply.Text))
	}
	return r.out.SendText(ctx, msg.ChatID, msg.MessageID, reply.Text, nil)
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}
