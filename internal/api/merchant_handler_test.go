package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/api/dto"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/domain"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/service"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/utils"
	"github.com/Samer-Is/ig-shop-agent-v2/pkg/logger"
)

type MockMerchantManager struct {
	mock.Mock
}

func (m *MockMerchantManager) GetByID(ctx context.Context, id string) (*domain.Merchant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Merchant), args.Error(1)
}

func (m *MockMerchantManager) UpdateProfile(ctx context.Context, id string, update service.ProfileUpdate) (*domain.Merchant, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Merchant), args.Error(1)
}

func (m *MockMerchantManager) ReplaceCatalog(ctx context.Context, id string, catalog []domain.Product) error {
	args := m.Called(ctx, id, catalog)
	return args.Error(0)
}

func (m *MockMerchantManager) AddProduct(ctx context.Context, id string, product domain.Product) ([]domain.Product, error) {
	args := m.Called(ctx, id, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockMerchantManager) UpdateProduct(ctx context.Context, id string, index int, product domain.Product) ([]domain.Product, error) {
	args := m.Called(ctx, id, index, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockMerchantManager) RemoveProduct(ctx context.Context, id string, index int) ([]domain.Product, error) {
	args := m.Called(ctx, id, index)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockMerchantManager) SetProductImage(ctx context.Context, id string, index int, imageURL string) ([]domain.Product, error) {
	args := m.Called(ctx, id, index, imageURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

type MockReplyTester struct {
	mock.Mock
}

func (m *MockReplyTester) GenerateResponse(ctx context.Context, messageText, senderID string, merchant *domain.Merchant) string {
	args := m.Called(ctx, messageText, senderID, merchant)
	return args.String(0)
}

type MockImageUploader struct {
	mock.Mock
}

func (m *MockImageUploader) UploadProductImage(ctx context.Context, merchantID string, body io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, merchantID, body, contentType)
	return args.String(0), args.Error(1)
}

type MerchantHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockManager  *MockMerchantManager
	mockTester   *MockReplyTester
	mockUploader *MockImageUploader
	handler      *MerchantHandler
}

func (s *MerchantHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.mockManager = new(MockMerchantManager)
	s.mockTester = new(MockReplyTester)
	s.mockUploader = new(MockImageUploader)
	s.handler = NewMerchantHandler(s.mockManager, s.mockTester, s.mockUploader, "gpt-4o", logger.NewNop())

	// Stand-in for the auth middleware
	s.router.Use(func(c *gin.Context) {
		c.Set(string(utils.MerchantIDKey), "merchant1")
	})

	s.router.GET("/merchants/profile", s.handler.GetProfile)
	s.router.PUT("/merchants/profile", s.handler.UpdateProfile)
	s.router.GET("/merchants/catalog", s.handler.GetCatalog)
	s.router.PUT("/merchants/catalog/:index", s.handler.UpdateProduct)
	s.router.DELETE("/merchants/catalog/:index", s.handler.RemoveProduct)
	s.router.POST("/merchants/test-ai", s.handler.TestAI)
	s.router.GET("/merchants/analytics", s.handler.Analytics)
	s.router.GET("/merchants/subscription", s.handler.Subscription)
}

func TestMerchantHandler(t *testing.T) {
	suite.Run(t, new(MerchantHandlerTestSuite))
}

func storedMerchant() *domain.Merchant {
	return &domain.Merchant{
		ID:                  "merchant1",
		InstagramPageID:     "page1",
		PageName:            "cool_shop",
		BusinessName:        "Cool Shop",
		SubscriptionTier:    domain.TierStarter,
		MonthlyMessageCount: 250,
		MonthlyMessageLimit: 1000,
		IsActive:            true,
		ProductCatalog: []domain.Product{
			{Name: "Blue Shirt", Price: "15 JOD", Availability: "In stock"},
		},
	}
}

func (s *MerchantHandlerTestSuite) TestGetProfile_Success() {
	s.mockManager.On("GetByID", mock.Anything, "merchant1").Return(storedMerchant(), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/merchants/profile", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)

	var resp dto.MerchantResponse
	s.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("merchant1", resp.ID)
	s.Equal("Cool Shop", resp.BusinessName)
	s.mockManager.AssertExpectations(s.T())
}

func (s *MerchantHandlerTestSuite) TestGetProfile_NotFound() {
	s.mockManager.On("GetByID", mock.Anything, "merchant1").Return(nil, service.ErrMerchantNotFound)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/merchants/profile", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusNotFound, w.Code)
}

func (s *MerchantHandlerTestSuite) TestUpdateProfile_Success() {
	updated := storedMerchant()
	updated.BusinessName = "Cooler Shop"

	s.mockManager.On("UpdateProfile", mock.Anything, "merchant1", mock.MatchedBy(func(u service.ProfileUpdate) bool {
		return u.BusinessName == "Cooler Shop"
	})).Return(updated, nil)

	body, _ := json.Marshal(dto.UpdateProfileRequest{BusinessName: "Cooler Shop"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPut, "/merchants/profile", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)

	var resp dto.MerchantResponse
	s.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("Cooler Shop", resp.BusinessName)
	s.mockManager.AssertExpectations(s.T())
}

func (s *MerchantHandlerTestSuite) TestGetCatalog_Success() {
	s.mockManager.On("GetByID", mock.Anything, "merchant1").Return(storedMerchant(), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/merchants/catalog", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)

	var resp dto.CatalogResponse
	s.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().Len(resp.Products, 1)
	s.Equal("Blue Shirt", resp.Products[0].Name)
}

func (s *MerchantHandlerTestSuite) TestUpdateProduct_BadIndex() {
	body, _ := json.Marshal(dto.ProductRequest{Name: "Hat"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPut, "/merchants/catalog/abc", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusBadRequest, w.Code)
	s.mockManager.AssertNotCalled(s.T(), "UpdateProduct", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *MerchantHandlerTestSuite) TestRemoveProduct_NotFound() {
	s.mockManager.On("RemoveProduct", mock.Anything, "merchant1", 7).Return(nil, service.ErrProductNotFound)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodDelete, "/merchants/catalog/7", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusNotFound, w.Code)
	s.mockManager.AssertExpectations(s.T())
}

func (s *MerchantHandlerTestSuite) TestTestAI_Success() {
	merchant := storedMerchant()
	s.mockManager.On("GetByID", mock.Anything, "merchant1").Return(merchant, nil)
	s.mockTester.On("GenerateResponse", mock.Anything, "do you ship?", "test_user", merchant).
		Return("Yes, we ship everywhere!")

	body, _ := json.Marshal(dto.TestAIRequest{Message: "do you ship?"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/merchants/test-ai", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)

	var resp dto.TestAIResponse
	s.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("success", resp.Status)
	s.Equal("Yes, we ship everywhere!", resp.AIResponse)
	s.Equal("gpt-4o", resp.ModelUsed)
	s.mockTester.AssertExpectations(s.T())
}

func (s *MerchantHandlerTestSuite) TestAnalytics_Success() {
	s.mockManager.On("GetByID", mock.Anything, "merchant1").Return(storedMerchant(), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/merchants/analytics", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)

	var resp dto.AnalyticsResponse
	s.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(250, resp.MessagesThisMonth)
	s.Equal(1000, resp.MessageLimit)
	s.Equal(1, resp.ProductsCount)
	s.Equal("Active", resp.AccountStatus)
}

func (s *MerchantHandlerTestSuite) TestSubscription_Success() {
	s.mockManager.On("GetByID", mock.Anything, "merchant1").Return(storedMerchant(), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/merchants/subscription", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)

	var resp dto.SubscriptionResponse
	s.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("starter", resp.CurrentTier)
	s.Equal(29, resp.TierPrice)
	s.Equal(750, resp.MessagesRemaining)
	s.True(resp.CanSendMessages)
}

func (s *MerchantHandlerTestSuite) TestMissingMerchantID() {
	router := gin.New()
	router.GET("/merchants/profile", s.handler.GetProfile)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/merchants/profile", nil)
	router.ServeHTTP(w, req)

	s.Equal(http.StatusUnauthorized, w.Code)
	s.mockManager.AssertNotCalled(s.T(), "GetByID", mock.Anything, mock.Anything)
}
