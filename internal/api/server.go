package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/config"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/middleware"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/service"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/service/pubsub"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/service/queue"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/service/storage"
	"github.com/Samer-Is/ig-shop-agent-v2/pkg/logger"
)

type Server struct {
	webhook    *WebhookHandler
	auth       *AuthHandler
	merchant   *MerchantHandler
	websocket  *WebSocketHandler
	authMW     *middleware.AuthMiddleware
	rateLimit  *middleware.RateLimitMiddleware
	validation *middleware.ValidationMiddleware
	rateBudget int
}

func NewServer(
	cfg *config.Config,
	webhookService *service.WebhookService,
	merchantService *service.MerchantService,
	aiService *service.AIService,
	instagramService *service.InstagramService,
	q queue.Queue,
	imageStore *storage.ImageStore,
	authMW *middleware.AuthMiddleware,
	rateLimit *middleware.RateLimitMiddleware,
	validation *middleware.ValidationMiddleware,
	logger *logger.Logger,
	pubsub *pubsub.RedisPubSub,
) *Server {
	return &Server{
		webhook:    NewWebhookHandler(webhookService, q, logger),
		auth:       NewAuthHandler(instagramService, merchantService, authMW, logger),
		merchant:   NewMerchantHandler(merchantService, aiService, imageStore, cfg.OpenAIModel, logger),
		websocket:  NewWebSocketHandler(logger, pubsub),
		authMW:     authMW,
		rateLimit:  rateLimit,
		validation: validation,
		rateBudget: cfg.GlobalRateLimit,
	}
}

// SetupWebhookRoutes registers the platform-facing endpoints on the bare
// router. Deliveries come from Meta, not merchants, so neither session auth
// nor the dashboard rate budget applies; admission is the signature check.
func (s *Server) SetupWebhookRoutes(router *gin.Engine) {
	webhooks := router.Group("/webhooks")
	{
		webhooks.GET("/instagram", s.webhook.VerifyWebhook)
		webhooks.POST("/instagram", s.webhook.HandleWebhook)
	}
}

func (s *Server) SetupRoutes(api *gin.RouterGroup) {
	api.Use(s.validation.ValidateRequestSize(10 * 1024 * 1024)) // 10MB max
	api.Use(s.validation.ValidateContentType("application/json", "multipart/form-data"))
	api.Use(s.rateLimit.GlobalRateLimit(s.rateBudget))

	{
		auth := api.Group("/auth")
		{
			auth.POST("/instagram/callback", s.auth.InstagramCallback)
			auth.GET("/instagram/auth-url", s.auth.AuthURL)
			auth.GET("/me", s.authMW.JWTAuth(), s.auth.Me)
			auth.POST("/refresh", s.authMW.JWTAuth(), s.auth.Refresh)
		}

		merchants := api.Group("/merchants", s.authMW.JWTAuth())
		{
			merchants.GET("/profile", s.merchant.GetProfile)
			merchants.PUT("/profile", s.merchant.UpdateProfile)
			merchants.GET("/catalog", s.merchant.GetCatalog)
			merchants.PUT("/catalog", s.merchant.ReplaceCatalog)
			merchants.POST("/catalog", s.merchant.AddProduct)
			merchants.PUT("/catalog/:index", s.merchant.UpdateProduct)
			merchants.DELETE("/catalog/:index", s.merchant.RemoveProduct)
			merchants.POST("/catalog/:index/image", s.merchant.UploadProductImage)
			merchants.POST("/test-ai", s.merchant.TestAI)
			merchants.GET("/analytics", s.merchant.Analytics)
			merchants.GET("/subscription", s.merchant.Subscription)
			merchants.GET("/conversations/stream", s.websocket.HandleWebSocket)
		}
	}
}

// StartWebSocketHub starts the hub that fans conversation events out to
// connected dashboard clients.
func (s *Server) StartWebSocketHub() {
	go s.websocket.Start()
}

func (s *Server) StopWebSocketHub() {
	s.websocket.Stop()
}
