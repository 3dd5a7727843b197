package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/config"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/domain"
	"github.com/Samer-Is/ig-shop-agent-v2/pkg/logger"
)

const (
	openaiChatCompletionsURL = "https://api.openai.com/v1/chat/completions"

	// busyResponse is the user-facing apology for provider rate limiting.
	// Transient overload gets an apology, not silence.
	busyResponse = "I'm currently busy helping other customers. Please try again in a moment."
)

// AIService generates conversational replies through the OpenAI chat
// completions API with a hard wall-clock budget per call.
type AIService struct {
	apiKey          string
	baseURL         string
	model           string
	maxTokens       int
	temperature     float64
	defaultResponse string
	client          *http.Client
	logger          *logger.Logger
}

func NewAIService(cfg *config.Config, log *logger.Logger) *AIService {
	return &AIService{
		apiKey:          cfg.OpenAIAPIKey,
		baseURL:         openaiChatCompletionsURL,
		model:           cfg.OpenAIModel,
		maxTokens:       cfg.OpenAIMaxTokens,
		temperature:     cfg.OpenAITemperature,
		defaultResponse: cfg.DefaultAIResponse,
		client:          &http.Client{Timeout: config.ExternalCallTimeout},
		logger:          log,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type openaiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// GenerateResponse produces a reply for one inbound DM. The failure handling
// is differentiated on purpose:
//   - provider rate limit        -> fixed busy apology (still dispatched)
//   - invalid request (4xx)      -> configured default fallback (still dispatched)
//   - transport/5xx/empty choice -> empty string, pipeline skips dispatch
func (s *AIService) GenerateResponse(ctx context.Context, messageText, senderID string, merchant *domain.Merchant) string {
	systemPrompt := BuildSystemPrompt(merchant)
	userMessage := FormatUserMessage(senderID, messageText)

	reply, status, err := s.callOpenAI(ctx, systemPrompt, userMessage)
	switch {
	case err != nil:
		s.logger.Warn("OpenAI call failed",
			zap.String("merchant_id", merchant.ID),
			zap.Error(err))
		return ""
	case status == http.StatusTooManyRequests:
		s.logger.Warn("OpenAI rate limit reached", zap.String("merchant_id", merchant.ID))
		return busyResponse
	case status >= 400 && status < 500:
		s.logger.Warn("OpenAI rejected request",
			zap.String("merchant_id", merchant.ID),
			zap.Int("status", status))
		return s.defaultResponse
	case status != http.StatusOK:
		s.logger.Warn("OpenAI returned unexpected status",
			zap.String("merchant_id", merchant.ID),
			zap.Int("status", status))
		return ""
	case reply == "":
		s.logger.Warn("OpenAI returned no choices", zap.String("merchant_id", merchant.ID))
		return ""
	}

	return reply
}

func (s *AIService) callOpenAI(ctx context.Context, systemPrompt, userMessage string) (string, int, error) {
	reqBody := chatCompletionRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", 0, fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("chat completion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to read chat response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr openaiErrorResponse
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Error.Message != "" {
			s.logger.Warnf("OpenAI error response: %s (%s)", apiErr.Error.Message, apiErr.Error.Type)
		}
		return "", resp.StatusCode, nil
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to decode chat response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", resp.StatusCode, nil
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), resp.StatusCode, nil
}
