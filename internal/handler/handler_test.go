package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/bazaarhub/negotiation-backend/internal/handler"
	"github.com/bazaarhub/negotiation-backend/internal/middleware"
	"github.com/bazaarhub/negotiation-backend/internal/repository"
	"github.com/bazaarhub/negotiation-backend/internal/routes"
	"github.com/bazaarhub/negotiation-backend/internal/service"
	"github.com/bazaarhub/negotiation-backend/internal/testutil"
	"github.com/bazaarhub/negotiation-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

type apiClient struct {
	t      *testing.T
	router *gin.Engine
	jwt    *jwt.Manager
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	requirementRepo := repository.NewRequirementRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	negotiation := repository.NewNegotiationRepository(db, 5)
	moderator := service.NewModerator(service.NewStaticRuleSource(domain.ModerationRules{Enabled: true, BlockPhone: true}))

	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), nil, nil)
	contact := service.NewContactService(requirementRepo, offerRepo, profileRepo, notifications)

	h := &routes.Handlers{
		Requirement:  handler.NewRequirementHandler(service.NewRequirementService(requirementRepo, offerRepo, notifications, moderator)),
		Offer:        handler.NewOfferHandler(service.NewOfferService(requirementRepo, offerRepo, negotiation, profileRepo, notifications, moderator)),
		Auction:      handler.NewAuctionHandler(service.NewAuctionService(negotiation, requirementRepo, offerRepo, notifications, service.DefaultMinOffers)),
		Contact:      handler.NewContactHandler(contact),
		Chat:         handler.NewChatHandler(service.NewChatService(repository.NewMessageRepository(db), requirementRepo, contact, notifications, moderator, nil)),
		Notification: handler.NewNotificationHandler(notifications),
		Profile:      handler.NewProfileHandler(service.NewProfileService(profileRepo)),
	}

	m := jwt.NewManager("test-secret", 3600, 7200)
	router := gin.New()
	routes.Setup(router, h, m)
	return &apiClient{t: t, router: router, jwt: m}
}

func (a *apiClient) do(method, path, userID, role string, body interface{}) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := a.jwt.GenerateAccessToken(userID, role)
		require.NoError(a.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (a *apiClient) createRequirement(buyerID string) string {
	a.t.Helper()
	code, env := a.do(http.MethodPost, "/api/v1/requirements", buyerID, middleware.RoleBuyer, gin.H{
		"city": "Pune", "category": "appliances", "product_name": "Split AC 1.5 ton", "quantity": 2,
	})
	require.Equal(a.t, http.StatusCreated, code)
	var req domain.Requirement
	require.NoError(a.t, json.Unmarshal(env.Data, &req))
	return req.ID
}

func (a *apiClient) offer(requirementID, sellerID string, price interface{}) (int, envelope) {
	return a.do(http.MethodPost, "/api/v1/requirements/"+requirementID+"/offers", sellerID, middleware.RoleSeller, gin.H{"price": price})
}

func TestNegotiationFlowOverHTTP(t *testing.T) {
	api := newAPI(t)
	reqID := api.createRequirement("buyer-1")

	for seller, price := range map[string]string{"seller-1": "500", "seller-2": "450", "seller-3": "480"} {
		code, _ := api.offer(reqID, seller, price)
		require.Equal(t, http.StatusCreated, code, seller)
	}

	t.Run("재제출은 200", func(t *testing.T) {
		code, _ := api.offer(reqID, "seller-1", "490")
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("판매자는 경매 시작 불가", func(t *testing.T) {
		code, env := api.do(http.MethodPost, "/api/v1/requirements/"+reqID+"/auction/start", "seller-1", middleware.RoleSeller, nil)
		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, "FORBIDDEN", env.Error.Code)
	})

	code, env := api.do(http.MethodPost, "/api/v1/requirements/"+reqID+"/auction/start", "buyer-1", middleware.RoleBuyer, nil)
	require.Equal(t, http.StatusOK, code)
	var status domain.AuctionStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, domain.AuctionActive, status.State)

	t.Run("최저가 이상은 409", func(t *testing.T) {
		code, env := api.offer(reqID, "seller-4", "460")
		require.Equal(t, http.StatusConflict, code)
		assert.Equal(t, "PRICE_NOT_COMPETITIVE", env.Error.Code)

		var details struct {
			CurrentLowest decimal.Decimal `json:"current_lowest_price"`
		}
		require.NoError(t, json.Unmarshal(env.Error.Details, &details))
		assert.True(t, details.CurrentLowest.Equal(decimal.NewFromInt(450)), details.CurrentLowest.String())
	})

	t.Run("최저가 미만은 수락", func(t *testing.T) {
		code, _ := api.offer(reqID, "seller-4", "430")
		assert.Equal(t, http.StatusCreated, code)

		_, env := api.do(http.MethodGet, "/api/v1/requirements/"+reqID+"/auction", "", "", nil)
		var status domain.AuctionStatus
		require.NoError(t, json.Unmarshal(env.Data, &status))
		assert.True(t, status.CurrentLowestPrice.Decimal.Equal(decimal.NewFromInt(430)))
	})
}

func TestInsufficientOffersOverHTTP(t *testing.T) {
	api := newAPI(t)
	reqID := api.createRequirement("buyer-1")
	api.offer(reqID, "seller-1", "500")
	api.offer(reqID, "seller-2", "450")

	code, env := api.do(http.MethodPost, "/api/v1/requirements/"+reqID+"/auction/start", "buyer-1", middleware.RoleBuyer, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "INSUFFICIENT_OFFERS", env.Error.Code)
}

func TestPriceBinding(t *testing.T) {
	api := newAPI(t)
	reqID := api.createRequirement("buyer-1")

	for _, price := range []interface{}{"0", "-5", "12.345", "abc", nil} {
		code, env := api.offer(reqID, "seller-1", price)
		assert.Equal(t, http.StatusBadRequest, code, "price %v", price)
		assert.False(t, env.Success)
		require.NotNil(t, env.Error)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code, "price %v", price)
	}

	_, env := api.offer(reqID, "seller-1", "12.345")
	var details struct {
		Field string `json:"field"`
	}
	require.NoError(t, json.Unmarshal(env.Error.Details, &details))
	assert.Equal(t, "price", details.Field)

	code, _ := api.offer(reqID, "seller-1", 99.5)
	assert.Equal(t, http.StatusCreated, code)
}

func TestChatRequiresContact(t *testing.T) {
	api := newAPI(t)
	reqID := api.createRequirement("buyer-1")
	api.offer(reqID, "seller-1", "500")
	messages := "/api/v1/requirements/" + reqID + "/chats/seller-1/messages"

	code, env := api.do(http.MethodPost, messages, "seller-1", middleware.RoleSeller, gin.H{"body": "hello"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "CHAT_NOT_ENABLED", env.Error.Code)

	code, _ = api.do(http.MethodPut, "/api/v1/requirements/"+reqID+"/offers/seller-1/contact", "buyer-1", middleware.RoleBuyer, gin.H{"enabled": true})
	require.Equal(t, http.StatusOK, code)

	code, _ = api.do(http.MethodPost, messages, "seller-1", middleware.RoleSeller, gin.H{"body": "hello"})
	assert.Equal(t, http.StatusCreated, code)
}

func TestAuthAndNotFound(t *testing.T) {
	api := newAPI(t)

	code, _ := api.do(http.MethodPost, "/api/v1/requirements", "", "", gin.H{"city": "Pune"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := api.do(http.MethodGet, "/api/v1/requirements/missing", "", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	code, _ = api.do(http.MethodPost, "/api/v1/offers/any/remove", "seller-1", middleware.RoleSeller, gin.H{"reason": "spam"})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRoleGuards(t *testing.T) {
	api := newAPI(t)
	reqID := api.createRequirement("buyer-1")

	cases := []struct {
		name   string
		method string
		path   string
		role   string
		body   interface{}
	}{
		{"판매자는 요청 생성 불가", http.MethodPost, "/api/v1/requirements", middleware.RoleSeller, gin.H{"city": "Pune", "category": "electronics", "product_name": "TV"}},
		{"구매자는 견적 제출 불가", http.MethodPost, "/api/v1/requirements/" + reqID + "/offers", middleware.RoleBuyer, gin.H{"price": "500"}},
		{"중재자는 견적 제출 불가", http.MethodPost, "/api/v1/requirements/" + reqID + "/offers", middleware.RoleModerator, gin.H{"price": "500"}},
		{"역할 없는 견적 제출 불가", http.MethodPost, "/api/v1/requirements/" + reqID + "/offers", "", gin.H{"price": "500"}},
		{"판매자는 연락 허용 불가", http.MethodPut, "/api/v1/requirements/" + reqID + "/contact", middleware.RoleSeller, gin.H{"enabled": true}},
		{"판매자는 경매 중지 불가", http.MethodPost, "/api/v1/requirements/" + reqID + "/auction/stop", middleware.RoleSeller, nil},
		{"구매자는 내 견적 조회 불가", http.MethodGet, "/api/v1/me/offers", middleware.RoleBuyer, nil},
		{"판매자는 내 요청 조회 불가", http.MethodGet, "/api/v1/me/requirements", middleware.RoleSeller, nil},
		{"중재자는 환경설정 불가", http.MethodGet, "/api/v1/me/preferences", middleware.RoleModerator, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, env := api.do(tc.method, tc.path, "user-1", tc.role, tc.body)
			assert.Equal(t, http.StatusForbidden, code)
			require.NotNil(t, env.Error)
			assert.Equal(t, "FORBIDDEN", env.Error.Code)
		})
	}

	code, _ := api.do(http.MethodGet, "/api/v1/me/preferences", "seller-1", middleware.RoleSeller, nil)
	assert.Equal(t, http.StatusOK, code)
}
