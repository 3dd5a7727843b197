package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/api/dto"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/domain"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/middleware"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/service"
	"github.com/Samer-Is/ig-shop-agent-v2/pkg/logger"
)

//go:generate mockery --name OAuthClient --output ../mocks
type OAuthClient interface {
	ExchangeCodeForToken(ctx context.Context, code string) (string, error)
	GetUserInfo(ctx context.Context, accessToken string) (*service.IGUserInfo, error)
	AuthURL(state string) string
}

//go:generate mockery --name MerchantEnroller --output ../mocks
type MerchantEnroller interface {
	ResolveOrCreate(ctx context.Context, pageID, pageName, rawToken string) (*domain.Merchant, error)
	GetByID(ctx context.Context, id string) (*domain.Merchant, error)
}

type AuthHandler struct {
	*BaseHandler
	oauth     OAuthClient
	merchants MerchantEnroller
	auth      *middleware.AuthMiddleware
	logger    *logger.Logger
}

func NewAuthHandler(oauth OAuthClient, merchants MerchantEnroller, auth *middleware.AuthMiddleware, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		oauth:     oauth,
		merchants: merchants,
		auth:      auth,
		logger:    logger,
	}
}

// InstagramCallback godoc
// @Summary Instagram OAuth callback
// @Description Exchanges the auth code, enrolls or refreshes the merchant and returns a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.InstagramAuthRequest true "OAuth callback payload"
// @Success 200 {object} dto.InstagramAuthResponse
// @Failure 400 {object} dto.Error
// @Router /auth/instagram/callback [post]
func (h *AuthHandler) InstagramCallback(c *gin.Context) {
	var req dto.InstagramAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}

	ctx := h.RequestCtx(c)

	accessToken, err := h.oauth.ExchangeCodeForToken(ctx, req.Code)
	if err != nil {
		h.logger.Error("OAuth code exchange failed", err)
		c.JSON(http.StatusBadRequest, dto.Error{Error: "Authentication failed"})
		return
	}

	userInfo, err := h.oauth.GetUserInfo(ctx, accessToken)
	if err != nil {
		h.logger.Error("Failed to fetch Instagram user info", err)
		c.JSON(http.StatusBadRequest, dto.Error{Error: "Failed to get Instagram user info"})
		return
	}
	if userInfo.ID == "" {
		c.JSON(http.StatusBadRequest, dto.Error{Error: "Failed to get Instagram page ID"})
		return
	}

	pageName := userInfo.Username
	if pageName == "" {
		pageName = "Unknown"
	}

	merchant, err := h.merchants.ResolveOrCreate(ctx, userInfo.ID, pageName, accessToken)
	if err != nil {
		h.logger.Error("Merchant enrollment failed", err)
		c.JSON(http.StatusInternalServerError, dto.Error{Error: "Failed to enroll merchant"})
		return
	}

	sessionToken, err := h.auth.GenerateToken(merchant.ID, merchant.InstagramPageID, string(merchant.SubscriptionTier))
	if err != nil {
		h.logger.Error("Failed to mint session token", err)
		c.JSON(http.StatusInternalServerError, dto.Error{Error: "Failed to create session"})
		return
	}

	c.JSON(http.StatusOK, dto.InstagramAuthResponse{
		AccessToken:  sessionToken,
		MerchantID:   merchant.ID,
		PageName:     merchant.PageName,
		BusinessName: merchant.BusinessName,
	})
}

// AuthURL godoc
// @Summary Instagram OAuth authorization URL
// @Tags auth
// @Produce json
// @Success 200 {object} dto.AuthURLResponse
// @Router /auth/instagram/auth-url [get]
func (h *AuthHandler) AuthURL(c *gin.Context) {
	state := c.DefaultQuery("state", "igshop_v2_auth_state")
	c.JSON(http.StatusOK, dto.AuthURLResponse{
		AuthURL: h.oauth.AuthURL(state),
		State:   state,
	})
}

// Me godoc
// @Summary Current authenticated merchant
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.MerchantResponse
// @Failure 401 {object} dto.Error
// @Failure 404 {object} dto.Error
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	merchantID := c.GetString("merchant_id")
	if merchantID == "" {
		c.JSON(http.StatusUnauthorized, dto.Error{Error: "Invalid token"})
		return
	}

	merchant, err := h.merchants.GetByID(h.RequestCtx(c), merchantID)
	if err != nil {
		c.JSON(http.StatusNotFound, dto.Error{Error: "Merchant not found"})
		return
	}

	c.JSON(http.StatusOK, dto.ToMerchantResponse(merchant))
}

// Refresh godoc
// @Summary Refresh the session token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.TokenResponse
// @Failure 401 {object} dto.Error
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	merchantID := c.GetString("merchant_id")
	pageID := c.GetString("page_id")
	if merchantID == "" {
		c.JSON(http.StatusUnauthorized, dto.Error{Error: "Invalid token"})
		return
	}

	merchant, err := h.merchants.GetByID(h.RequestCtx(c), merchantID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, dto.Error{Error: "Invalid token"})
		return
	}

	newToken, err := h.auth.GenerateToken(merchant.ID, pageID, string(merchant.SubscriptionTier))
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.Error{Error: "Failed to refresh session"})
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken: newToken,
		TokenType:   "bearer",
		ExpiresIn:   h.auth.ExpirySeconds(),
	})
}
