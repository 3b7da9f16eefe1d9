package handler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"zaptalk/internal/domain"
	"zaptalk/internal/integrations/telegram"
	"zaptalk/internal/usecase"
)

const (
	correlationHeader = "X-Correlation-Id"
	secretHeader      = "X-Telegram-Bot-Api-Secret-Token"
)

// Dispatcher handles one inbound chat message.
type Dispatcher interface {
	Handle(ctx context.Context, msg domain.IncomingMessage) error
}

// Handler receives Telegram webhook calls through API Gateway.
type Handler struct {
	dispatcher Dispatcher
	secret     string
}

type okResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// NewHandler returns a webhook handler. An empty secret disables the secret token check.
func NewHandler(d Dispatcher, secret string) (*Handler, error) {
	if d == nil {
		return nil, errors.New("handler: dispatcher must not be nil")
	}
	return &Handler{dispatcher: d, secret: strings.TrimSpace(secret)}, nil
}

// Handle answers 200 for every update it accepted, whether or not it produced a reply,
// so Telegram does not redeliver it.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := header(req.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	log := slog.Default().With("correlation_id", correlationID)

	if h.secret != "" {
		got := header(req.Headers, secretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			log.WarnContext(ctx, "webhook secret mismatch")
			return jsonResponse(http.StatusUnauthorized, correlationID, errorResponse{
				Error:  string(usecase.ErrorUnauthorized),
				Reason: "secret_token_mismatch",
			}), nil
		}
	}

	var update tgbotapi.Update
	if err := json.Unmarshal([]byte(req.Body), &update); err != nil {
		log.WarnContext(ctx, "undecodable update", "err", err)
		return jsonResponse(http.StatusBadRequest, correlationID, errorResponse{
			Error:  string(usecase.ErrorInvalidInput),
			Reason: "invalid_update",
		}), nil
	}

	msg, ok := telegram.IncomingFromUpdate(update)
	if !ok {
		log.DebugContext(ctx, "update ignored", "update_id", update.UpdateID)
		return jsonResponse(http.StatusOK, correlationID, okResponse{OK: true}), nil
	}

	if err := h.dispatcher.Handle(ctx, msg); err != nil {
		var usecaseErr *usecase.Error
		if errors.As(err, &usecaseErr) {
			log.ErrorContext(ctx, "update handling failed",
				"update_id", update.UpdateID,
				"chat_id", msg.ChatID,
				"code", usecaseErr.Code,
				"reason", usecaseErr.Reason,
				"err", err,
			)
		} else {
			log.ErrorContext(ctx, "update handling failed", "update_id", update.UpdateID, "chat_id", msg.ChatID, "err", err)
		}
	}
	return jsonResponse(http.StatusOK, correlationID, okResponse{OK: true}), nil
}

func header(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func jsonResponse(status int, correlationID string, body any) events.APIGatewayProxyResponse {
	b, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		b = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: string(b),
	}
}
