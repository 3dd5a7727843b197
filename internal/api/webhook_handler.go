package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/api/dto"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/domain"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/service/queue"
	"github.com/Samer-Is/ig-shop-agent-v2/pkg/logger"
)

//go:generate mockery --name WebhookVerifier --output ../mocks
type WebhookVerifier interface {
	VerifySubscription(mode, verifyToken string) error
	VerifySignature(body []byte, signature string) error
}

// WebhookHandler owns the synchronous half of the pipeline: handshake,
// signature check, envelope parsing and the immediate ack. Everything after
// the ack happens on the queue.
type WebhookHandler struct {
	*BaseHandler
	verifier WebhookVerifier
	queue    queue.Queue
	logger   *logger.Logger
}

func NewWebhookHandler(verifier WebhookVerifier, q queue.Queue, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		queue:    q,
		logger:   logger,
	}
}

// VerifyWebhook godoc
// @Summary Instagram webhook subscription handshake
// @Description Echoes hub.challenge when the mode and verify token match
// @Tags webhooks
// @Produce plain
// @Success 200 {string} string "challenge"
// @Failure 403 {object} dto.Error
// @Router /webhooks/instagram [get]
func (h *WebhookHandler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	challenge := c.Query("hub.challenge")
	verifyToken := c.Query("hub.verify_token")

	if err := h.verifier.VerifySubscription(mode, verifyToken); err != nil {
		h.logger.Warn("Webhook verification rejected", zap.String("mode", mode))
		c.JSON(http.StatusForbidden, dto.Error{Error: "Webhook verification failed"})
		return
	}

	h.logger.Info("Instagram webhook verified")
	c.String(http.StatusOK, challenge)
}

// HandleWebhook godoc
// @Summary Instagram webhook event delivery
// @Description Verifies the signature, acks immediately and processes the batch in the background
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} dto.WebhookAck
// @Failure 400 {object} dto.Error
// @Failure 403 {object} dto.Error
// @Router /webhooks/instagram [post]
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: "Failed to read request body"})
		return
	}

	signature := c.GetHeader("X-Hub-Signature")
	if signature == "" {
		c.JSON(http.StatusBadRequest, dto.Error{Error: "Missing signature"})
		return
	}

	if err := h.verifier.VerifySignature(body, signature); err != nil {
		h.logger.Warn("Webhook signature mismatch", zap.Int("body_len", len(body)))
		c.JSON(http.StatusForbidden, dto.Error{Error: "Invalid signature"})
		return
	}

	var payload domain.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: "Malformed webhook payload"})
		return
	}

	// Ack must not wait on merchant lookup, the LLM or dispatch. A full
	// queue is logged and the delivery still acked: the platform contract
	// is fire-and-forget.
	if err := h.queue.Enqueue(c.Request.Context(), &payload); err != nil {
		h.logger.Error("Failed to enqueue webhook payload", err,
			zap.Int("entries", len(payload.Entry)))
	}

	c.JSON(http.StatusOK, dto.WebhookAck{Status: "success", Message: "Webhook received"})
}
