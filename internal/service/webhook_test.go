package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/domain"
	"github.com/Samer-Is/ig-shop-agent-v2/pkg/logger"
)

type MockMerchantDirectory struct {
	mock.Mock
}

func (m *MockMerchantDirectory) FindByPageID(ctx context.Context, pageID string) (*domain.Merchant, error) {
	args := m.Called(ctx, pageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Merchant), args.Error(1)
}

func (m *MockMerchantDirectory) IncrementUsage(ctx context.Context, merchantID string) error {
	args := m.Called(ctx, merchantID)
	return args.Error(0)
}

type MockResponseGenerator struct {
	mock.Mock
}

func (m *MockResponseGenerator) GenerateResponse(ctx context.Context, messageText, senderID string, merchant *domain.Merchant) string {
	args := m.Called(ctx, messageText, senderID, merchant)
	return args.String(0)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) SendMessage(ctx context.Context, recipientID, text string, merchant *domain.Merchant) bool {
	args := m.Called(ctx, recipientID, text, merchant)
	return args.Bool(0)
}

type MockConversationPublisher struct {
	mock.Mock
}

func (m *MockConversationPublisher) Publish(ctx context.Context, event *domain.ConversationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type WebhookServiceTestSuite struct {
	suite.Suite
	merchants  *MockMerchantDirectory
	generator  *MockResponseGenerator
	dispatcher *MockDispatcher
	publisher  *MockConversationPublisher
	service    *WebhookService
}

const (
	testAppSecret   = "test_app_secret"
	testVerifyToken = "test_verify_token"
)

func (s *WebhookServiceTestSuite) SetupTest() {
	s.merchants = new(MockMerchantDirectory)
	s.generator = new(MockResponseGenerator)
	s.dispatcher = new(MockDispatcher)
	s.publisher = new(MockConversationPublisher)

	s.service = NewWebhookService(
		testAppSecret,
		testVerifyToken,
		true,
		s.merchants,
		s.generator,
		s.dispatcher,
		s.publisher,
		logger.NewNop(),
	)
}

func TestWebhookService(t *testing.T) {
	suite.Run(t, new(WebhookServiceTestSuite))
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	return "sha1=" + hex.EncodeToString(mac.Sum(nil))
}

func activeMerchant() *domain.Merchant {
	return &domain.Merchant{
		ID:                  "merchant1",
		InstagramPageID:     "page1",
		BusinessName:        "Cool Shop",
		IsActive:            true,
		MonthlyMessageCount: 10,
		MonthlyMessageLimit: 1000,
	}
}

func payloadWith(events ...domain.MessagingEvent) *domain.WebhookPayload {
	return &domain.WebhookPayload{
		Object: "instagram",
		Entry: []domain.Entry{
			{ID: "page1", Messaging: events},
		},
	}
}

func textEvent(senderID, text string) domain.MessagingEvent {
	return domain.MessagingEvent{
		Sender:    domain.Participant{ID: senderID},
		Recipient: domain.Participant{ID: "page1"},
		Message:   domain.InboundMessage{MID: "mid." + senderID, Text: text},
	}
}

func (s *WebhookServiceTestSuite) TestVerifySubscription() {
	s.NoError(s.service.VerifySubscription("subscribe", testVerifyToken))
	s.ErrorIs(s.service.VerifySubscription("subscribe", "wrong_token"), ErrVerificationFailed)
	s.ErrorIs(s.service.VerifySubscription("unsubscribe", testVerifyToken), ErrVerificationFailed)
	s.ErrorIs(s.service.VerifySubscription("", ""), ErrVerificationFailed)
}

func (s *WebhookServiceTestSuite) TestVerifySignature_Valid() {
	body := []byte(`{"object":"instagram","entry":[]}`)
	s.NoError(s.service.VerifySignature(body, sign(testAppSecret, body)))
}

func (s *WebhookServiceTestSuite) TestVerifySignature_WrongSecret() {
	body := []byte(`{"object":"instagram","entry":[]}`)
	s.ErrorIs(s.service.VerifySignature(body, sign("other_secret", body)), ErrInvalidSignature)
}

func (s *WebhookServiceTestSuite) TestVerifySignature_MutatedBody() {
	body := []byte(`{"object":"instagram","entry":[]}`)
	signature := sign(testAppSecret, body)

	// Any single-byte change to the body must invalidate the signature
	for i := range body {
		mutated := make([]byte, len(body))
		copy(mutated, body)
		mutated[i] ^= 0x01
		s.ErrorIs(s.service.VerifySignature(mutated, signature), ErrInvalidSignature)
	}
}

func (s *WebhookServiceTestSuite) TestVerifySignature_MutatedHeader() {
	body := []byte(`{"object":"instagram","entry":[]}`)

	s.ErrorIs(s.service.VerifySignature(body, "sha1=deadbeef"), ErrInvalidSignature)
	s.ErrorIs(s.service.VerifySignature(body, ""), ErrInvalidSignature)
	// Digest without the scheme prefix does not match either
	s.ErrorIs(s.service.VerifySignature(body, sign(testAppSecret, body)[5:]), ErrInvalidSignature)
}

func (s *WebhookServiceTestSuite) TestVerifySignature_NotEnforced() {
	relaxed := NewWebhookService(
		testAppSecret, testVerifyToken, false,
		s.merchants, s.generator, s.dispatcher, s.publisher, logger.NewNop(),
	)

	// Outside production the check is skipped entirely
	s.NoError(relaxed.VerifySignature([]byte("anything"), "sha1=bogus"))
	s.NoError(relaxed.VerifySignature([]byte("anything"), ""))
}

func (s *WebhookServiceTestSuite) TestProcessPayload_HappyPath() {
	ctx := context.Background()
	merchant := activeMerchant()

	s.merchants.On("FindByPageID", ctx, "page1").Return(merchant, nil)
	s.generator.On("GenerateResponse", ctx, "hello", "user1", merchant).Return("Hi there!")
	s.dispatcher.On("SendMessage", ctx, "user1", "Hi there!", merchant).Return(true)
	s.merchants.On("IncrementUsage", ctx, "merchant1").Return(nil)
	s.publisher.On("Publish", ctx, mock.AnythingOfType("*domain.ConversationEvent")).Return(nil)

	s.service.ProcessPayload(ctx, payloadWith(textEvent("user1", "hello")))

	s.merchants.AssertExpectations(s.T())
	s.generator.AssertExpectations(s.T())
	s.dispatcher.AssertExpectations(s.T())
	s.publisher.AssertExpectations(s.T())
}

func (s *WebhookServiceTestSuite) TestProcessPayload_UnknownPageSkipped() {
	ctx := context.Background()

	// Lookup is read-only; an unknown page never enrolls a merchant
	s.merchants.On("FindByPageID", ctx, "page1").Return(nil, ErrMerchantNotFound)

	s.service.ProcessPayload(ctx, payloadWith(textEvent("user1", "hello")))

	s.generator.AssertNotCalled(s.T(), "GenerateResponse", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	s.dispatcher.AssertNotCalled(s.T(), "SendMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	s.merchants.AssertNotCalled(s.T(), "IncrementUsage", mock.Anything, mock.Anything)
}

func (s *WebhookServiceTestSuite) TestProcessPayload_QuotaExhausted() {
	ctx := context.Background()
	merchant := activeMerchant()
	merchant.MonthlyMessageCount = 1000

	s.merchants.On("FindByPageID", ctx, "page1").Return(merchant, nil)

	s.service.ProcessPayload(ctx, payloadWith(textEvent("user1", "hello")))

	s.generator.AssertNotCalled(s.T(), "GenerateResponse", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	s.dispatcher.AssertNotCalled(s.T(), "SendMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *WebhookServiceTestSuite) TestProcessPayload_LastQuotaSlot() {
	ctx := context.Background()
	merchant := activeMerchant()
	merchant.MonthlyMessageCount = 999

	s.merchants.On("FindByPageID", ctx, "page1").Return(merchant, nil)
	s.generator.On("GenerateResponse", ctx, "hello", "user1", merchant).Return("Hi!")
	s.dispatcher.On("SendMessage", ctx, "user1", "Hi!", merchant).Return(true)
	s.merchants.On("IncrementUsage", ctx, "merchant1").Return(nil)
	s.publisher.On("Publish", ctx, mock.Anything).Return(nil)

	// 999 of 1000 still admits the event; the increment lands on 1000
	s.service.ProcessPayload(ctx, payloadWith(textEvent("user1", "hello")))

	s.merchants.AssertExpectations(s.T())
	s.dispatcher.AssertExpectations(s.T())
}

func (s *WebhookServiceTestSuite) TestProcessPayload_InactiveMerchant() {
	ctx := context.Background()
	merchant := activeMerchant()
	merchant.IsActive = false

	s.merchants.On("FindByPageID", ctx, "page1").Return(merchant, nil)

	s.service.ProcessPayload(ctx, payloadWith(textEvent("user1", "hello")))

	s.generator.AssertNotCalled(s.T(), "GenerateResponse", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *WebhookServiceTestSuite) TestProcessPayload_MalformedEventSkipsSiblings() {
	ctx := context.Background()
	merchant := activeMerchant()

	s.merchants.On("FindByPageID", ctx, "page1").Return(merchant, nil)
	s.generator.On("GenerateResponse", ctx, "valid text", "user2", merchant).Return("Reply")
	s.dispatcher.On("SendMessage", ctx, "user2", "Reply", merchant).Return(true)
	s.merchants.On("IncrementUsage", ctx, "merchant1").Return(nil)
	s.publisher.On("Publish", ctx, mock.Anything).Return(nil)

	// Empty text and empty sender are skipped; the valid sibling still processes
	s.service.ProcessPayload(ctx, payloadWith(
		textEvent("user1", ""),
		domain.MessagingEvent{Message: domain.InboundMessage{Text: "no sender"}},
		textEvent("user2", "valid text"),
	))

	s.generator.AssertNumberOfCalls(s.T(), "GenerateResponse", 1)
	s.dispatcher.AssertNumberOfCalls(s.T(), "SendMessage", 1)
}

func (s *WebhookServiceTestSuite) TestProcessPayload_EmptyReplySkipsDispatch() {
	ctx := context.Background()
	merchant := activeMerchant()

	s.merchants.On("FindByPageID", ctx, "page1").Return(merchant, nil)
	s.generator.On("GenerateResponse", ctx, "hello", "user1", merchant).Return("")

	s.service.ProcessPayload(ctx, payloadWith(textEvent("user1", "hello")))

	s.dispatcher.AssertNotCalled(s.T(), "SendMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	s.merchants.AssertNotCalled(s.T(), "IncrementUsage", mock.Anything, mock.Anything)
}

func (s *WebhookServiceTestSuite) TestProcessPayload_DispatchFailureNotCounted() {
	ctx := context.Background()
	merchant := activeMerchant()

	s.merchants.On("FindByPageID", ctx, "page1").Return(merchant, nil)
	s.generator.On("GenerateResponse", ctx, "hello", "user1", merchant).Return("Hi!")
	s.dispatcher.On("SendMessage", ctx, "user1", "Hi!", merchant).Return(false)
	s.publisher.On("Publish", ctx, mock.MatchedBy(func(e *domain.ConversationEvent) bool {
		return !e.Delivered
	})).Return(nil)

	s.service.ProcessPayload(ctx, payloadWith(textEvent("user1", "hello")))

	// Failed sends never consume quota
	s.merchants.AssertNotCalled(s.T(), "IncrementUsage", mock.Anything, mock.Anything)
	s.publisher.AssertExpectations(s.T())
}

func (s *WebhookServiceTestSuite) TestProcessPayload_MultipleEntriesIndependent() {
	ctx := context.Background()
	merchant := activeMerchant()

	payload := &domain.WebhookPayload{
		Object: "instagram",
		Entry: []domain.Entry{
			{ID: "unknown_page", Messaging: []domain.MessagingEvent{textEvent("user1", "hi")}},
			{ID: "page1", Messaging: []domain.MessagingEvent{textEvent("user2", "hello")}},
		},
	}

	s.merchants.On("FindByPageID", ctx, "unknown_page").Return(nil, ErrMerchantNotFound)
	s.merchants.On("FindByPageID", ctx, "page1").Return(merchant, nil)
	s.generator.On("GenerateResponse", ctx, "hello", "user2", merchant).Return("Hi!")
	s.dispatcher.On("SendMessage", ctx, "user2", "Hi!", merchant).Return(true)
	s.merchants.On("IncrementUsage", ctx, "merchant1").Return(nil)
	s.publisher.On("Publish", ctx, mock.Anything).Return(nil)

	// An entry for an unknown page does not poison the rest of the batch
	s.service.ProcessPayload(ctx, payload)

	s.dispatcher.AssertNumberOfCalls(s.T(), "SendMessage", 1)
}

func (s *WebhookServiceTestSuite) TestProcessPayload_NilPublisher() {
	ctx := context.Background()
	merchant := activeMerchant()

	svc := NewWebhookService(
		testAppSecret, testVerifyToken, true,
		s.merchants, s.generator, s.dispatcher, nil, logger.NewNop(),
	)

	s.merchants.On("FindByPageID", ctx, "page1").Return(merchant, nil)
	s.generator.On("GenerateResponse", ctx, "hello", "user1", merchant).Return("Hi!")
	s.dispatcher.On("SendMessage", ctx, "user1", "Hi!", merchant).Return(true)
	s.merchants.On("IncrementUsage", ctx, "merchant1").Return(nil)

	s.NotPanics(func() {
		svc.ProcessPayload(ctx, payloadWith(textEvent("user1", "hello")))
	})
}

func (s *WebhookServiceTestSuite) TestProcessPayload_RecoversFromPanic() {
	ctx := context.Background()

	s.merchants.On("FindByPageID", ctx, "page1").Run(func(mock.Arguments) {
		panic("storage blew up")
	}).Return(nil, nil)

	s.NotPanics(func() {
		s.service.ProcessPayload(ctx, payloadWith(textEvent("user1", "hello")))
	})
}
