package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/config"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/domain"
	"github.com/Samer-Is/ig-shop-agent-v2/pkg/logger"
)

const (
	graphAPIBaseURL = "https://graph.instagram.com/v18.0"
	oauthTokenURL   = "https://api.instagram.com/oauth/access_token"
	oauthAuthURL    = "https://api.instagram.com/oauth/authorize"
)

// InstagramService talks to the Instagram Graph API: outbound DM dispatch,
// OAuth code exchange and page info lookups. Every call carries the shared
// external-call timeout.
type InstagramService struct {
	appID        string
	appSecret    string
	redirectURI  string
	graphBaseURL string
	tokenURL     string
	demoMode     bool
	client       *http.Client
	logger       *logger.Logger
}

func NewInstagramService(cfg *config.Config, log *logger.Logger) *InstagramService {
	return &InstagramService{
		appID:        cfg.MetaAppID,
		appSecret:    cfg.MetaAppSecret,
		redirectURI:  cfg.OAuthRedirectURI,
		graphBaseURL: graphAPIBaseURL,
		tokenURL:     oauthTokenURL,
		demoMode:     !cfg.IsProduction(),
		client:       &http.Client{Timeout: config.ExternalCallTimeout},
		logger:       log,
	}
}

type sendMessagePayload struct {
	Recipient   domain.Participant `json:"recipient"`
	Message     outboundMessage    `json:"message"`
	AccessToken string             `json:"access_token"`
}

type outboundMessage struct {
	Text string `json:"text"`
}

// SendMessage dispatches one reply through the Graph send API and reports
// whether the provider accepted it. Transport errors and non-success statuses
// are logged and collapsed to false; they never propagate past this boundary.
// Outside production the send is simulated and always succeeds.
func (s *InstagramService) SendMessage(ctx context.Context, recipientID, text string, merchant *domain.Merchant) bool {
	if s.demoMode {
		s.logger.Info("Simulated Instagram send",
			zap.String("recipient_id", recipientID),
			zap.String("merchant_id", merchant.ID),
			zap.Int("text_len", len(text)))
		return true
	}

	payload := sendMessagePayload{
		Recipient:   domain.Participant{ID: recipientID},
		Message:     outboundMessage{Text: text},
		AccessToken: s.deriveAccessToken(merchant),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("Failed to marshal send payload", err)
		return false
	}

	endpoint := s.graphBaseURL + "/me/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		s.logger.Error("Failed to build send request", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("Instagram send request failed", err,
			zap.String("recipient_id", recipientID))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		s.logger.Warn("Instagram send rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", respBody))
		return false
	}

	return true
}

// IGUserInfo is the subset of the Graph profile the relay needs.
type IGUserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
}

// ExchangeCodeForToken swaps an OAuth authorization code for a short-lived
// access token.
func (s *InstagramService) ExchangeCodeForToken(ctx context.Context, code string) (string, error) {
	form := url.Values{
		"client_id":     {s.appID},
		"client_secret": {s.appSecret},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {s.redirectURI},
		"code":          {code},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrOAuthExchange, resp.StatusCode, body)
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("%w: no access token in response", ErrOAuthExchange)
	}

	return result.AccessToken, nil
}

// GetUserInfo fetches the authenticated user's id and username.
func (s *InstagramService) GetUserInfo(ctx context.Context, accessToken string) (*IGUserInfo, error) {
	endpoint := fmt.Sprintf("%s/me?fields=id,username&access_token=%s", s.graphBaseURL, url.QueryEscape(accessToken))
	return s.fetchUserInfo(ctx, endpoint)
}

// GetPageInfo fetches the business page profile behind an access token.
func (s *InstagramService) GetPageInfo(ctx context.Context, accessToken string) (*IGUserInfo, error) {
	endpoint := fmt.Sprintf("%s/me?fields=id,username,name&access_token=%s", s.graphBaseURL, url.QueryEscape(accessToken))
	return s.fetchUserInfo(ctx, endpoint)
}

func (s *InstagramService) fetchUserInfo(ctx context.Context, endpoint string) (*IGUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build user info request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user info request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read user info response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info lookup failed: status %d: %s", resp.StatusCode, body)
	}

	var info IGUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to decode user info response: %w", err)
	}

	return &info, nil
}

// SetupWebhookSubscription subscribes the app to message events for a page.
func (s *InstagramService) SetupWebhookSubscription(ctx context.Context, accessToken string) bool {
	endpoint := fmt.Sprintf("%s/me/subscribed_apps?subscribed_fields=messages,messaging_postbacks&access_token=%s",
		s.graphBaseURL, url.QueryEscape(accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		s.logger.Error("Failed to build webhook subscription request", err)
		return false
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("Webhook subscription request failed", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		s.logger.Warn("Webhook subscription rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", respBody))
		return false
	}

	return true
}

// AuthURL assembles the OAuth authorization URL the frontend redirects to.
func (s *InstagramService) AuthURL(state string) string {
	return fmt.Sprintf("%s?client_id=%s&redirect_uri=%s&scope=user_profile,user_media&response_type=code&state=%s",
		oauthAuthURL, s.appID, url.QueryEscape(s.redirectURI), url.QueryEscape(state))
}

// deriveAccessToken resolves the send credential for a merchant. Only a
// one-way hash is stored, so real deployments must source the live token
// from the platform-managed token store.
// TODO: wire the token store lookup once token storage moves off hashes.
func (s *InstagramService) deriveAccessToken(merchant *domain.Merchant) string {
	return "demo_access_token_v2"
}
