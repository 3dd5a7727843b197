package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/domain"
	"github.com/Samer-Is/ig-shop-agent-v2/pkg/logger"
)

//go:generate mockery --name MerchantDirectory --output ../mocks
type MerchantDirectory interface {
	FindByPageID(ctx context.Context, pageID string) (*domain.Merchant, error)
	IncrementUsage(ctx context.Context, merchantID string) error
}

//go:generate mockery --name ResponseGenerator --output ../mocks
type ResponseGenerator interface {
	GenerateResponse(ctx context.Context, messageText, senderID string, merchant *domain.Merchant) string
}

// Dispatcher sends a generated reply back through the messaging platform.
// Implementations report acceptance as a boolean and never raise past this
// boundary; false means "not sent, do not count".
//
//go:generate mockery --name Dispatcher --output ../mocks
type Dispatcher interface {
	SendMessage(ctx context.Context, recipientID, text string, merchant *domain.Merchant) bool
}

// ConversationPublisher feeds the merchant dashboard's live stream. Publishing
// is best-effort; failures are logged and ignored.
type ConversationPublisher interface {
	Publish(ctx context.Context, event *domain.ConversationEvent) error
}

// WebhookService drives the inbound-event pipeline: signature verification,
// tenant resolution, quota admission, reply generation and dispatch.
type WebhookService struct {
	appSecret        string
	verifyToken      string
	enforceSignature bool
	merchants        MerchantDirectory
	generator        ResponseGenerator
	dispatcher       Dispatcher
	publisher        ConversationPublisher
	logger           *logger.Logger
}

func NewWebhookService(
	appSecret string,
	verifyToken string,
	enforceSignature bool,
	merchants MerchantDirectory,
	generator ResponseGenerator,
	dispatcher Dispatcher,
	publisher ConversationPublisher,
	logger *logger.Logger,
) *WebhookService {
	return &WebhookService{
		appSecret:        appSecret,
		verifyToken:      verifyToken,
		enforceSignature: enforceSignature,
		merchants:        merchants,
		generator:        generator,
		dispatcher:       dispatcher,
		publisher:        publisher,
		logger:           logger,
	}
}

// VerifySubscription implements the GET handshake: the challenge may be
// echoed back iff the mode is "subscribe" and the token matches.
func (s *WebhookService) VerifySubscription(mode, verifyToken string) error {
	if mode == "subscribe" && verifyToken == s.verifyToken {
		return nil
	}
	return ErrVerificationFailed
}

// VerifySignature recomputes HMAC-SHA1 over the raw body with the app secret
// and compares it against the header value in constant time. Enforcement is
// deliberately limited to production deployments; in other modes the check is
// skipped so local tunnels and test harnesses can deliver unsigned payloads.
func (s *WebhookService) VerifySignature(body []byte, signature string) error {
	if !s.enforceSignature {
		return nil
	}

	mac := hmac.New(sha1.New, []byte(s.appSecret))
	mac.Write(body)
	expected := "sha1=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// ProcessPayload runs the background half of the pipeline for one delivery.
// It is the error boundary for the whole batch: entries and events fail
// independently, and a panic anywhere below is caught here so the worker
// never dies with the process.
func (s *WebhookService) ProcessPayload(ctx context.Context, payload *domain.WebhookPayload) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("Panic while processing webhook payload: %v", r)
		}
	}()

	for _, entry := range payload.Entry {
		s.processEntry(ctx, entry)
	}
}

func (s *WebhookService) processEntry(ctx context.Context, entry domain.Entry) {
	merchant, err := s.merchants.FindByPageID(ctx, entry.ID)
	if err != nil {
		// Unknown pages are skipped, never failed: the platform retries
		// entire deliveries and the sibling entries must still process.
		s.logger.Warn("No merchant for webhook entry, skipping",
			zap.String("page_id", entry.ID),
			zap.Error(err))
		return
	}

	if !merchant.CanSendMessage() {
		s.logger.Warn("Merchant over quota or inactive, skipping entry",
			zap.String("merchant_id", merchant.ID),
			zap.Int("count", merchant.MonthlyMessageCount),
			zap.Int("limit", merchant.MonthlyMessageLimit),
			zap.Bool("active", merchant.IsActive))
		return
	}

	// Delivery order within one entry is kept for log coherence.
	for _, event := range entry.Messaging {
		s.processMessageEvent(ctx, event, merchant)
	}
}

func (s *WebhookService) processMessageEvent(ctx context.Context, event domain.MessagingEvent, merchant *domain.Merchant) {
	senderID := event.Sender.ID
	messageText := event.Message.Text

	if senderID == "" || messageText == "" {
		s.logger.Warn("Malformed messaging event, skipping",
			zap.String("merchant_id", merchant.ID),
			zap.String("mid", event.Message.MID))
		return
	}

	s.logger.Info("Processing inbound message",
		zap.String("merchant_id", merchant.ID),
		zap.String("sender_id", senderID),
		zap.String("mid", event.Message.MID))

	reply := s.generator.GenerateResponse(ctx, messageText, senderID, merchant)
	if reply == "" {
		s.logger.Warn("No reply generated, skipping dispatch",
			zap.String("merchant_id", merchant.ID),
			zap.String("sender_id", senderID))
		return
	}

	delivered := s.dispatcher.SendMessage(ctx, senderID, reply, merchant)
	if delivered {
		// Counted only after a successful send. The send and the increment
		// are two separate calls, so a crash in between under-counts; that
		// weak guarantee is accepted.
		if err := s.merchants.IncrementUsage(ctx, merchant.ID); err != nil {
			s.logger.Error("Failed to increment message count", err,
				zap.String("merchant_id", merchant.ID))
		}
	} else {
		s.logger.Warn("Dispatch failed, usage not counted",
			zap.String("merchant_id", merchant.ID),
			zap.String("sender_id", senderID))
	}

	s.publishConversationEvent(ctx, merchant.ID, senderID, messageText, reply, delivered)
}

func (s *WebhookService) publishConversationEvent(ctx context.Context, merchantID, senderID, messageText, reply string, delivered bool) {
	if s.publisher == nil {
		return
	}

	event := &domain.ConversationEvent{
		MerchantID:  merchantID,
		SenderID:    senderID,
		MessageText: messageText,
		ReplyText:   reply,
		Delivered:   delivered,
		Timestamp:   time.Now().Unix(),
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish conversation event",
			zap.String("merchant_id", merchantID),
			zap.Error(err))
	}
}
