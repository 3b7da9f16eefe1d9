package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"zaptalk/internal/domain"
	"zaptalk/internal/integrations/telegram"
	"zaptalk/internal/metrics"
)

// UpdateSource yields updates until ctx is done and then closes the channel.
type UpdateSource interface {
	Updates(ctx context.Context, pollTimeout time.Duration) <-chan tgbotapi.Update
}

type Dispatcher interface {
	Handle(ctx context.Context, msg domain.IncomingMessage) error
}

// Poller feeds long-polled updates to the dispatcher, running at most limit handlers at once.
type Poller struct {
	source      UpdateSource
	dispatcher  Dispatcher
	limit       int
	pollTimeout time.Duration
}

func New(source UpdateSource, d Dispatcher, limit int, pollTimeout time.Duration) (*Poller, error) {
	if source == nil {
		return nil, errors.New("poller: update source must not be nil")
	}
	if d == nil {
		return nil, errors.New("poller: dispatcher must not be nil")
	}
	if limit < 1 {
		return nil, errors.New("poller: limit must be positive")
	}
	return &Poller{source: source, dispatcher: d, limit: limit, pollTimeout: pollTimeout}, nil
}

// Run blocks until ctx is done and every in-flight handler has returned. Handlers run
// on a context detached from ctx so a shutdown lets them finish their reply.
func (p *Poller) Run(ctx context.Context) error {
	var g errgroup.Group
	g.SetLimit(p.limit)
	handlerCtx := context.WithoutCancel(ctx)

	for u := range p.source.Updates(ctx, p.pollTimeout) {
		msg, ok := telegram.IncomingFromUpdate(u)
		if !ok {
			metrics.UpdatesTotal.WithLabelValues("ignored").Inc()
			continue
		}
		updateID := u.UpdateID
		g.Go(func() error {
			if err := p.dispatcher.Handle(handlerCtx, msg); err != nil {
				slog.ErrorContext(handlerCtx, "update handling failed", "update_id", updateID, "chat_id", msg.ChatID, "err", err)
			}
			return nil
		})
	}

	slog.InfoContext(handlerCtx, "polling stopped, waiting for in-flight updates")
	return g.Wait()
}
