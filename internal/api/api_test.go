package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"tap_miniapp/internal/middleware"
	"tap_miniapp/internal/model"
	"tap_miniapp/internal/service"
	"tap_miniapp/internal/service/mocks"
	"tap_miniapp/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testBotToken = "7012345678:AAFakeTokenForHandlerTests"
	adminID      = int64(1)
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServices struct {
	users   *mocks.MockUserService
	ledger  *mocks.MockLedgerService
	catalog *mocks.MockCatalogService
}

func (s testServices) assertExpectations(t *testing.T) {
	s.users.AssertExpectations(t)
	s.ledger.AssertExpectations(t)
	s.catalog.AssertExpectations(t)
}

type stubAvatars struct {
	path string
	err  error
}

func (s stubAvatars) AvatarFilePath(context.Context, int64) (string, error) {
	return s.path, s.err
}

func newTestRouter(avatars AvatarFetcher) (*gin.Engine, testServices) {
	svc := testServices{
		users:   &mocks.MockUserService{},
		ledger:  &mocks.MockLedgerService{},
		catalog: &mocks.MockCatalogService{},
	}

	a := auth.NewTelegramAuth(auth.Config{
		BotToken:         testBotToken,
		MaxAge:           time.Hour,
		EnforceFreshness: true,
	})
	authz := middleware.NewAuthorization(middleware.Config{
		EnforceOwnership: true,
		AdminIDs:         []int64{adminID},
	})

	router := gin.New()
	router.Use(RequestLogger())
	v1 := router.Group("/api/v1")
	NewUserRoutes(v1, svc.users, svc.catalog, avatars, a, authz)
	NewLedgerRoutes(v1, svc.ledger, a, authz)
	NewCatalogRoutes(v1, svc.catalog, a)

	return router, svc
}

func initDataHeader(telegramID int64, token string) string {
	values := map[string]string{
		"query_id":  "AAHdF6IQAAAAAN0XohDhrOrc",
		"user":      fmt.Sprintf(`{"id":%d,"first_name":"Test","username":"tester"}`, telegramID),
		"auth_date": strconv.FormatInt(time.Now().Unix(), 10),
	}

	q := url.Values{}
	for k, v := range values {
		q.Set(k, v)
	}
	q.Set("hash", auth.Sign(values, token))
	return "tma " + q.Encode()
}

func doRequest(router *gin.Engine, method, path, body string, principal int64) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if principal != 0 {
		req.Header.Set(auth.HeaderName, initDataHeader(principal, testBotToken))
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var out errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestAuthRejections(t *testing.T) {
	router, svc := newTestRouter(nil)

	w := doRequest(router, http.MethodGet, "/api/v1/users/42", "", 0)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "MalformedHeader", decodeError(t, w).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/42", nil)
	req.Header.Set(auth.HeaderName, initDataHeader(42, "9999999999:AAOtherToken"))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "InvalidSignature", decodeError(t, w).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/42", nil)
	req.Header.Set(auth.HeaderName, "tma")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MalformedHeader", decodeError(t, w).Code)

	svc.assertExpectations(t)
}

func TestOnboard(t *testing.T) {
	joined := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	referrer := int64(7)

	tests := []struct {
		name           string
		path           string
		mockSetup      func(svc testServices)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "Onboard with referrer",
			path: "/api/v1/users/?referrer_id=7",
			mockSetup: func(svc testServices) {
				svc.users.On("Onboard", mock.Anything, int64(42), mock.MatchedBy(func(r *int64) bool {
					return r != nil && *r == 7
				})).Return(&model.User{
					TelegramID: 42,
					BoostsInfo: model.BoostsInfo{},
					JoinedAt:   joined,
					IsActive:   true,
					ReferrerID: &referrer,
				}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Malformed referrer",
			path:           "/api/v1/users/?referrer_id=abc",
			mockSetup:      func(svc testServices) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   codeInvalidRequest,
		},
		{
			name: "Already onboarded",
			path: "/api/v1/users/",
			mockSetup: func(svc testServices) {
				svc.users.On("Onboard", mock.Anything, int64(42), (*int64)(nil)).
					Return(nil, service.ErrAlreadyExists)
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "AlreadyExists",
		},
		{
			name: "Storage down",
			path: "/api/v1/users/",
			mockSetup: func(svc testServices) {
				svc.users.On("Onboard", mock.Anything, int64(42), (*int64)(nil)).
					Return(nil, fmt.Errorf("%w: %w", service.ErrStorageUnavailable, assert.AnError))
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   "StorageUnavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, svc := newTestRouter(nil)
			tt.mockSetup(svc)

			w := doRequest(router, http.MethodPost, tt.path, "", 42)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Code)
			} else {
				var out userResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
				assert.Equal(t, int64(42), out.TelegramID)
				require.NotNil(t, out.ReferrerID)
				assert.Equal(t, int64(7), *out.ReferrerID)
			}

			svc.assertExpectations(t)
		})
	}
}

func TestGetUser(t *testing.T) {
	router, svc := newTestRouter(nil)
	svc.users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(&model.User{
		TelegramID: 42,
		Balance:    20,
		BoostsInfo: model.BoostsInfo{"tap": {ID: 1, Level: 2, MaxLevel: 5, UpgradeCostPerLevel: decimal.NewFromInt(5)}},
		IsActive:   true,
	}, nil)
	svc.users.On("GetUserByTelegramID", mock.Anything, int64(43)).Return(nil, service.ErrUserNotFound)

	w := doRequest(router, http.MethodGet, "/api/v1/users/42", "", 42)
	require.Equal(t, http.StatusOK, w.Code)
	var out userResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, int64(20), out.Balance)
	assert.Equal(t, 2, out.BoostsInfo["tap"].Level)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = doRequest(router, http.MethodGet, "/api/v1/users/43", "", 42)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/users/43", "", adminID)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "UserNotFound", decodeError(t, w).Code)

	svc.assertExpectations(t)
}

func TestUpgradeBoost(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockSetup      func(svc testServices)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "Upgrade",
			body: `{"target_level":2}`,
			mockSetup: func(svc testServices) {
				svc.ledger.On("UpgradeBoost", mock.Anything, int64(42), int64(1), 2).Return(&model.BoostUpgrade{
					BalanceChange: model.BalanceChange{UserTelegramID: 42, Balance: 5, Delta: -15},
					BoostID:       1,
					BoostName:     "tap",
					PreviousLevel: 1,
					Level:         2,
					Cost:          15,
				}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Insufficient balance",
			body: `{"target_level":2}`,
			mockSetup: func(svc testServices) {
				svc.ledger.On("UpgradeBoost", mock.Anything, int64(42), int64(1), 2).
					Return(nil, service.ErrInsufficientBalance)
			},
			expectedStatus: http.StatusPaymentRequired,
			expectedCode:   "InsufficientBalance",
		},
		{
			name: "Level out of range",
			body: `{"target_level":0}`,
			mockSetup: func(svc testServices) {
				svc.ledger.On("UpgradeBoost", mock.Anything, int64(42), int64(1), 0).
					Return(nil, service.ErrInvalidLevel)
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "InvalidLevel",
		},
		{
			name:           "Missing target level",
			body:           `{}`,
			mockSetup:      func(svc testServices) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   codeInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, svc := newTestRouter(nil)
			tt.mockSetup(svc)

			w := doRequest(router, http.MethodPost, "/api/v1/users/42/boosts/1/upgrade", tt.body, 42)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Code)
			} else {
				assert.JSONEq(t, `{
					"telegram_id": 42,
					"balance": 5,
					"delta": -15,
					"boost_id": 1,
					"boost_name": "tap",
					"previous_level": 1,
					"level": 2,
					"cost": 15
				}`, w.Body.String())
			}

			svc.assertExpectations(t)
		})
	}
}

func TestCompleteTask(t *testing.T) {
	router, svc := newTestRouter(nil)
	svc.ledger.On("CompleteTask", mock.Anything, int64(42), int64(3)).Return(&model.TaskReward{
		BalanceChange: model.BalanceChange{UserTelegramID: 42, Balance: 350, Delta: 250},
		TaskID:        3,
		Reward:        250,
	}, nil).Once()
	svc.ledger.On("CompleteTask", mock.Anything, int64(42), int64(3)).
		Return(nil, service.ErrAlreadyCompleted).Once()

	w := doRequest(router, http.MethodPost, "/api/v1/users/42/tasks/3/complete", "", 42)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"telegram_id":42,"balance":350,"delta":250,"task_id":3,"reward":250}`, w.Body.String())

	w = doRequest(router, http.MethodPost, "/api/v1/users/42/tasks/3/complete", "", 42)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "AlreadyCompleted", decodeError(t, w).Code)

	w = doRequest(router, http.MethodPost, "/api/v1/users/43/tasks/3/complete", "", 42)
	assert.Equal(t, http.StatusForbidden, w.Code)

	svc.assertExpectations(t)
}

func TestAdjustBalance(t *testing.T) {
	router, svc := newTestRouter(nil)
	svc.ledger.On("AdjustBalance", mock.Anything, int64(42), int64(-30)).Return(&model.BalanceChange{
		UserTelegramID: 42,
		Balance:        70,
		Delta:          -30,
	}, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/admin/users/42/balance", `{"delta":-30}`, adminID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"telegram_id":42,"balance":70,"delta":-30}`, w.Body.String())

	w = doRequest(router, http.MethodPost, "/api/v1/admin/users/42/balance", `{"delta":-30}`, 42)
	assert.Equal(t, http.StatusForbidden, w.Code)

	svc.assertExpectations(t)
}

func TestCatalog(t *testing.T) {
	router, svc := newTestRouter(nil)
	svc.catalog.On("ListBoosts", mock.Anything).Return([]*model.Boost{{
		ID:           1,
		Name:         "tap",
		BaseCost:     10,
		CostPerLevel: decimal.NewFromFloat(2.5),
		MaxLevel:     5,
	}}, nil)
	svc.catalog.On("ListTasks", mock.Anything).Return([]*model.Task{{ID: 3, Name: "follow", Reward: 250}}, nil)
	svc.catalog.On("GetCompletedTasks", mock.Anything, int64(42)).Return([]*model.TaskCompletion{
		{UserTelegramID: 42, TaskID: 3, CompletedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
	}, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/boosts", "", 42)
	require.Equal(t, http.StatusOK, w.Code)
	var boosts []boostResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &boosts))
	require.Len(t, boosts, 1)
	assert.Equal(t, "tap", boosts[0].Name)
	assert.True(t, boosts[0].CostPerLevel.Equal(decimal.NewFromFloat(2.5)))

	w = doRequest(router, http.MethodGet, "/api/v1/tasks", "", 42)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":3,"name":"follow","description":"","icon":"","reward":250}]`, w.Body.String())

	w = doRequest(router, http.MethodGet, "/api/v1/users/42/tasks", "", 42)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"task_id":3,"completed_at":"2024-06-01T00:00:00Z"}]`, w.Body.String())

	svc.assertExpectations(t)
}

func TestGetUserAvatar(t *testing.T) {
	router, svc := newTestRouter(stubAvatars{err: ErrNoAvatar})
	svc.users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(&model.User{TelegramID: 42}, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/users/42/avatar", "", 42)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "AvatarNotFound", decodeError(t, w).Code)

	router, svc = newTestRouter(stubAvatars{path: "photos/file_0.jpg"})
	svc.users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(&model.User{TelegramID: 42}, nil)

	w = doRequest(router, http.MethodGet, "/api/v1/users/42/avatar", "", 42)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"avatar_file_path":"photos/file_0.jpg"}`, w.Body.String())

	router, _ = newTestRouter(nil)
	w = doRequest(router, http.MethodGet, "/api/v1/users/42/avatar", "", 42)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
