package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/api/dto"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/domain"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/service"
	"github.com/Samer-Is/ig-shop-agent-v2/pkg/logger"
)

//go:generate mockery --name MerchantManager --output ../mocks
type MerchantManager interface {
	GetByID(ctx context.Context, id string) (*domain.Merchant, error)
	UpdateProfile(ctx context.Context, id string, update service.ProfileUpdate) (*domain.Merchant, error)
	ReplaceCatalog(ctx context.Context, id string, catalog []domain.Product) error
	AddProduct(ctx context.Context, id string, product domain.Product) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, id string, index int, product domain.Product) ([]domain.Product, error)
	RemoveProduct(ctx context.Context, id string, index int) ([]domain.Product, error)
	SetProductImage(ctx context.Context, id string, index int, imageURL string) ([]domain.Product, error)
}

// ReplyTester runs the response generator against a dashboard-supplied
// message without touching quota.
type ReplyTester interface {
	GenerateResponse(ctx context.Context, messageText, senderID string, merchant *domain.Merchant) string
}

type ImageUploader interface {
	UploadProductImage(ctx context.Context, merchantID string, body io.Reader, contentType string) (string, error)
}

type MerchantHandler struct {
	*BaseHandler
	merchants MerchantManager
	tester    ReplyTester
	images    ImageUploader
	modelName string
	logger    *logger.Logger
}

func NewMerchantHandler(merchants MerchantManager, tester ReplyTester, images ImageUploader, modelName string, logger *logger.Logger) *MerchantHandler {
	return &MerchantHandler{
		merchants: merchants,
		tester:    tester,
		images:    images,
		modelName: modelName,
		logger:    logger,
	}
}

func (h *MerchantHandler) merchantID(c *gin.Context) (string, bool) {
	merchantID := c.GetString("merchant_id")
	if merchantID == "" {
		c.JSON(http.StatusUnauthorized, dto.Error{Error: "Invalid token"})
		return "", false
	}
	return merchantID, true
}

func (h *MerchantHandler) loadMerchant(c *gin.Context) (*domain.Merchant, bool) {
	merchantID, ok := h.merchantID(c)
	if !ok {
		return nil, false
	}

	merchant, err := h.merchants.GetByID(h.RequestCtx(c), merchantID)
	if err != nil {
		if errors.Is(err, service.ErrMerchantNotFound) {
			c.JSON(http.StatusNotFound, dto.Error{Error: "Merchant not found"})
		} else {
			c.JSON(http.StatusInternalServerError, dto.Error{Error: err.Error()})
		}
		return nil, false
	}
	return merchant, true
}

// GetProfile godoc
// @Summary Get merchant profile
// @Tags merchants
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.MerchantResponse
// @Failure 401 {object} dto.Error
// @Router /merchants/profile [get]
func (h *MerchantHandler) GetProfile(c *gin.Context) {
	merchant, ok := h.loadMerchant(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ToMerchantResponse(merchant))
}

// UpdateProfile godoc
// @Summary Update merchant profile
// @Tags merchants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.UpdateProfileRequest true "Profile fields to update"
// @Success 200 {object} dto.MerchantResponse
// @Failure 400 {object} dto.Error
// @Router /merchants/profile [put]
func (h *MerchantHandler) UpdateProfile(c *gin.Context) {
	merchantID, ok := h.merchantID(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}

	merchant, err := h.merchants.UpdateProfile(h.RequestCtx(c), merchantID, service.ProfileUpdate{
		BusinessName:        req.BusinessName,
		BusinessDescription: req.BusinessDescription,
		BusinessCategory:    req.BusinessCategory,
		WorkingHours:        req.WorkingHours,
		ContactInfo:         req.ContactInfo,
		AIPersonality:       req.AIPersonality,
		DefaultLanguage:     req.DefaultLanguage,
		FallbackLanguage:    req.FallbackLanguage,
		CustomInstructions:  req.CustomInstructions,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.Error{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.ToMerchantResponse(merchant))
}

// GetCatalog godoc
// @Summary Get product catalog
// @Tags merchants
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.CatalogResponse
// @Router /merchants/catalog [get]
func (h *MerchantHandler) GetCatalog(c *gin.Context) {
	merchant, ok := h.loadMerchant(c)
	if !ok {
		return
	}

	catalog := merchant.ProductCatalog
	if catalog == nil {
		catalog = []domain.Product{}
	}
	c.JSON(http.StatusOK, dto.CatalogResponse{Products: catalog})
}

// ReplaceCatalog godoc
// @Summary Replace the entire product catalog
// @Tags merchants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ReplaceCatalogRequest true "New catalog"
// @Success 200 {object} dto.CatalogResponse
// @Failure 400 {object} dto.Error
// @Router /merchants/catalog [put]
func (h *MerchantHandler) ReplaceCatalog(c *gin.Context) {
	merchantID, ok := h.merchantID(c)
	if !ok {
		return
	}

	var req dto.ReplaceCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}

	catalog := dto.ToProducts(req.Products)
	if err := h.merchants.ReplaceCatalog(h.RequestCtx(c), merchantID, catalog); err != nil {
		c.JSON(http.StatusInternalServerError, dto.Error{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.CatalogResponse{Products: catalog})
}

// AddProduct godoc
// @Summary Add a product to the catalog
// @Tags merchants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ProductRequest true "Product"
// @Success 201 {object} dto.CatalogResponse
// @Failure 400 {object} dto.Error
// @Router /merchants/catalog [post]
func (h *MerchantHandler) AddProduct(c *gin.Context) {
	merchantID, ok := h.merchantID(c)
	if !ok {
		return
	}

	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}

	catalog, err := h.merchants.AddProduct(h.RequestCtx(c), merchantID, dto.ToProduct(req))
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.Error{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, dto.CatalogResponse{Products: catalog})
}

// UpdateProduct godoc
// @Summary Update one catalog product
// @Tags merchants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param index path int true "Catalog position"
// @Param body body dto.ProductRequest true "Product"
// @Success 200 {object} dto.CatalogResponse
// @Failure 400 {object} dto.Error
// @Failure 404 {object} dto.Error
// @Router /merchants/catalog/{index} [put]
func (h *MerchantHandler) UpdateProduct(c *gin.Context) {
	merchantID, ok := h.merchantID(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: "Invalid catalog index"})
		return
	}

	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}

	catalog, err := h.merchants.UpdateProduct(h.RequestCtx(c), merchantID, index, dto.ToProduct(req))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, dto.Error{Error: "Product not found"})
		} else {
			c.JSON(http.StatusInternalServerError, dto.Error{Error: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, dto.CatalogResponse{Products: catalog})
}

// RemoveProduct godoc
// @Summary Remove one catalog product
// @Tags merchants
// @Produce json
// @Security BearerAuth
// @Param index path int true "Catalog position"
// @Success 200 {object} dto.CatalogResponse
// @Failure 404 {object} dto.Error
// @Router /merchants/catalog/{index} [delete]
func (h *MerchantHandler) RemoveProduct(c *gin.Context) {
	merchantID, ok := h.merchantID(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: "Invalid catalog index"})
		return
	}

	catalog, err := h.merchants.RemoveProduct(h.RequestCtx(c), merchantID, index)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, dto.Error{Error: "Product not found"})
		} else {
			c.JSON(http.StatusInternalServerError, dto.Error{Error: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, dto.CatalogResponse{Products: catalog})
}

// UploadProductImage godoc
// @Summary Upload a product image
// @Description Stores the image in S3 and attaches its URL to the catalog entry
// @Tags merchants
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param index path int true "Catalog position"
// @Param image formData file true "Image file"
// @Success 200 {object} dto.CatalogResponse
// @Failure 400 {object} dto.Error
// @Router /merchants/catalog/{index}/image [post]
func (h *MerchantHandler) UploadProductImage(c *gin.Context) {
	merchantID, ok := h.merchantID(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: "Invalid catalog index"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: "Missing image file"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: "Failed to read image file"})
		return
	}
	defer file.Close()

	ctx := h.RequestCtx(c)
	imageURL, err := h.images.UploadProductImage(ctx, merchantID, file, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		h.logger.Error("Product image upload failed", err)
		c.JSON(http.StatusInternalServerError, dto.Error{Error: "Failed to upload image"})
		return
	}

	catalog, err := h.merchants.SetProductImage(ctx, merchantID, index, imageURL)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, dto.Error{Error: "Product not found"})
		} else {
			c.JSON(http.StatusInternalServerError, dto.Error{Error: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, dto.CatalogResponse{Products: catalog})
}

// TestAI godoc
// @Summary Dry-run the response generator
// @Tags merchants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.TestAIRequest true "Test message"
// @Success 200 {object} dto.TestAIResponse
// @Failure 400 {object} dto.Error
// @Router /merchants/test-ai [post]
func (h *MerchantHandler) TestAI(c *gin.Context) {
	merchant, ok := h.loadMerchant(c)
	if !ok {
		return
	}

	var req dto.TestAIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}

	reply := h.tester.GenerateResponse(h.RequestCtx(c), req.Message, "test_user", merchant)

	c.JSON(http.StatusOK, dto.TestAIResponse{
		Status:       "success",
		TestInput:    req.Message,
		AIResponse:   reply,
		BusinessName: merchant.BusinessName,
		ModelUsed:    h.modelName,
	})
}

// Analytics godoc
// @Summary Merchant usage analytics
// @Tags merchants
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.AnalyticsResponse
// @Router /merchants/analytics [get]
func (h *MerchantHandler) Analytics(c *gin.Context) {
	merchant, ok := h.loadMerchant(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ToAnalyticsResponse(merchant))
}

// Subscription godoc
// @Summary Merchant subscription standing
// @Tags merchants
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SubscriptionResponse
// @Router /merchants/subscription [get]
func (h *MerchantHandler) Subscription(c *gin.Context) {
	merchant, ok := h.loadMerchant(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ToSubscriptionResponse(merchant))
}
