package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"cleanservice/internal/mail"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeEmailSend = "email:send"

type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Kind    string `json:"kind"`
}

func NewEmailTask(payload EmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEmailSend, data), nil
}

// Handler processes queued tasks in the worker.
type Handler struct {
	sender mail.Sender
	logger *zap.Logger
}

func NewHandler(sender mail.Sender, logger *zap.Logger) *Handler {
	return &Handler{sender: sender, logger: logger}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeEmailSend, h.HandleEmailSend)
}

func (h *Handler) HandleEmailSend(ctx context.Context, t *asynq.Task) error {
	var payload EmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	if payload.To == "" {
		return fmt.Errorf("email task without recipient: %w", asynq.SkipRetry)
	}

	if err := h.sender.Send(ctx, payload.To, payload.Subject, payload.HTML); err != nil {
		h.logger.Warn("email delivery failed",
			zap.String("kind", payload.Kind),
			zap.String("to", payload.To),
			zap.Error(err),
		)
		return err
	}

	h.logger.Info("email delivered", zap.String("kind", payload.Kind), zap.String("to", payload.To))
	return nil
}
