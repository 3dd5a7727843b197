package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samer-Is/ig-shop-agent-v2/pkg/logger"
)

const testDefaultResponse = "I'm sorry, I'm currently unavailable. Please try again later."

func newTestAIService(baseURL string) *AIService {
	return &AIService{
		apiKey:          "test-key",
		baseURL:         baseURL,
		model:           "gpt-4o",
		maxTokens:       1500,
		temperature:     0.7,
		defaultResponse: testDefaultResponse,
		client:          &http.Client{Timeout: 2 * time.Second},
		logger:          logger.NewNop(),
	}
}

func completionBody(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	encoded, _ := json.Marshal(resp)
	return string(encoded)
}

func TestGenerateResponse_Success(t *testing.T) {
	var gotReq chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("  Hello from the shop!  ")))
	}))
	defer server.Close()

	svc := newTestAIService(server.URL)
	merchant := testMerchant()

	reply := svc.GenerateResponse(context.Background(), "how much?", "user1", merchant)

	assert.Equal(t, "Hello from the shop!", reply)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Contains(t, gotReq.Messages[0].Content, "Cool Shop")
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Equal(t, "Customer (ID: user1) says: how much?", gotReq.Messages[1].Content)
	assert.Equal(t, "gpt-4o", gotReq.Model)
}

func TestGenerateResponse_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests"}}`))
	}))
	defer server.Close()

	svc := newTestAIService(server.URL)

	// Rate limiting gets the busy apology, which is still dispatched
	reply := svc.GenerateResponse(context.Background(), "hi", "user1", testMerchant())
	assert.Equal(t, busyResponse, reply)
}

func TestGenerateResponse_InvalidRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid request","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	svc := newTestAIService(server.URL)

	// Invalid requests fall back to the configured default reply
	reply := svc.GenerateResponse(context.Background(), "hi", "user1", testMerchant())
	assert.Equal(t, testDefaultResponse, reply)
}

func TestGenerateResponse_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := newTestAIService(server.URL)

	// Provider outages yield no reply; the pipeline skips dispatch
	reply := svc.GenerateResponse(context.Background(), "hi", "user1", testMerchant())
	assert.Equal(t, "", reply)
}

func TestGenerateResponse_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	svc := newTestAIService(server.URL)

	reply := svc.GenerateResponse(context.Background(), "hi", "user1", testMerchant())
	assert.Equal(t, "", reply)
}

func TestGenerateResponse_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	svc := newTestAIService(server.URL)

	reply := svc.GenerateResponse(context.Background(), "hi", "user1", testMerchant())
	assert.Equal(t, "", reply)
}

func TestGenerateResponse_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Hold the request well past the caller's deadline, but return on our
		// own so server.Close does not wait on a stuck handler.
		select {
		case <-r.Context().Done():
		case <-time.After(500 * time.Millisecond):
		}
	}))
	defer server.Close()

	svc := newTestAIService(server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	reply := svc.GenerateResponse(ctx, "hi", "user1", testMerchant())
	assert.Equal(t, "", reply)
}
