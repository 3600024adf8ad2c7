package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/feedback-hub/config"
	"github.com/oksasatya/feedback-hub/internal/container"
	"github.com/oksasatya/feedback-hub/internal/domain/entity"
	"github.com/oksasatya/feedback-hub/internal/infrastructure/treestore"
	"github.com/oksasatya/feedback-hub/internal/interface/middleware"
	"github.com/oksasatya/feedback-hub/internal/testutil"
	"github.com/oksasatya/feedback-hub/pkg/helpers"
	"github.com/oksasatya/feedback-hub/pkg/validation"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	helpers.PasswordCost = bcrypt.MinCost
	validation.Init()
	os.Exit(m.Run())
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

type api struct {
	t      *testing.T
	engine *gin.Engine
	c      *container.Container
	cookie []*http.Cookie
}

func newAPI(t *testing.T, rate int) *api {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
	cfg := &config.Config{
		AppName:             "feedback-hub",
		StoreDriver:         config.StoreMemory,
		StoreOpTimeout:      time.Second,
		StoreTxnMaxAttempts: 100,
		JWTAccessSecret:     "a",
		JWTRefreshSecret:    "r",
		AccessTTL:           time.Minute,
		RefreshTTL:          time.Hour,
		RateLimitPerMinute:  rate,
		DebugMetricsEnabled: true,
	}
	c := container.New(cfg, testutil.QuietLogger(), container.Infra{Backend: treestore.NewMemoryBackend(), Redis: rdb})

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.RealIP())
	reg := NewRegistry(engine)
	InitModules(reg, c)
	reg.RegisterAll()
	return &api{t: t, engine: engine, c: c}
}

func (a *api) do(method, path string, body any) (int, envelope) {
	a.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range a.cookie {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	if cks := w.Result().Cookies(); len(cks) > 0 {
		a.cookie = cks
	}
	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (a *api) rawGet(path string) (int, string) {
	a.t.Helper()
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w.Code, w.Body.String()
}

func createUser(t *testing.T, a *api, email string) int64 {
	t.Helper()
	code, env := a.do(http.MethodPost, "/api/users", map[string]any{
		"email": email, "name": "N", "phoneNumber": "+15550100", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var u struct {
		UserID int64 `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &u))
	return u.UserID
}

func TestFeedbackFlow(t *testing.T) {
	a := newAPI(t, 0)
	reviewer := createUser(t, a, "r@b.com")
	recipient := createUser(t, a, "p@b.com")
	assert.Equal(t, int64(1), reviewer)
	assert.Equal(t, int64(2), recipient)

	code, env := a.do(http.MethodPost, "/api/feedbacks", map[string]any{
		"reviewerId": reviewer, "recipientId": recipient, "feedbackText": "great", "grade": 4,
	})
	require.Equal(t, http.StatusCreated, code)
	var fb entity.Feedback
	require.NoError(t, json.Unmarshal(env.Data, &fb))
	assert.Equal(t, "Feedback created successfully with ID: "+fb.FeedbackID, env.Message)

	code, env = a.do(http.MethodGet, "/api/users/2", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"averageRating":4`)
	assert.Contains(t, string(env.Data), `"numberReviewers":1`)
	assert.NotContains(t, string(env.Data), "hashedPassword")

	code, env = a.do(http.MethodGet, "/api/feedbacks/recipient/2", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), fb.FeedbackID)

	code, env = a.do(http.MethodGet, "/api/feedbacks/reviewer/2", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))

	code, env = a.do(http.MethodDelete, "/api/feedbacks/"+fb.FeedbackID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Feedback deletion requested for ID: "+fb.FeedbackID, env.Message)

	_, env = a.do(http.MethodGet, "/api/users/2", nil)
	assert.Contains(t, string(env.Data), `"numberReviewers":0`)

	code, env = a.do(http.MethodGet, "/api/feedbacks/"+fb.FeedbackID, nil)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "No feedback found with the provided ID: "+fb.FeedbackID, env.Message)
}

func TestCreateFeedback_BadRequests(t *testing.T) {
	a := newAPI(t, 0)
	createUser(t, a, "r@b.com")

	code, env := a.do(http.MethodPost, "/api/feedbacks", map[string]any{
		"reviewerId": 1, "recipientId": 1, "feedbackText": "x", "grade": 9,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(env.Error), "grade")
	assert.Contains(t, string(env.Error), "recipientId")

	code, env = a.do(http.MethodPost, "/api/feedbacks", map[string]any{
		"reviewerId": 1, "recipientId": 9, "feedbackText": "x", "grade": 3,
	})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Recipient ID does not exist: 9", env.Message)
}

func TestUserRoutes(t *testing.T) {
	a := newAPI(t, 0)
	id := createUser(t, a, "a@b.com")

	code, env := a.do(http.MethodPut, "/api/users/1", map[string]any{"name": "Renamed"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "User updated successfully with ID: 1", env.Message)

	code, env = a.do(http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "Renamed")

	code, _ = a.do(http.MethodGet, "/api/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = a.do(http.MethodGet, "/api/users/search?q=a", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data), "no index configured")

	code, env = a.do(http.MethodDelete, "/api/users/1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "User deletion requested for ID: 1", env.Message)

	code, env = a.do(http.MethodDelete, "/api/users/1", nil)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "User with ID: 1 does not exist.", env.Message)
	_ = id

	code, _ = a.do(http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAuthRoutes(t *testing.T) {
	a := newAPI(t, 0)
	createUser(t, a, "a@b.com")
	createUser(t, a, "b@b.com")

	code, _ := a.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = a.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "a@b.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = a.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "a@b.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, code)

	code, env := a.do(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"email":"a@b.com"`)

	code, _ = a.do(http.MethodPost, "/api/users/2/promote", nil)
	assert.Equal(t, http.StatusForbidden, code)

	require.NoError(t, a.c.UserService.Promote(context.Background(), 1))
	code, _ = a.do(http.MethodPost, "/api/auth/refresh", nil)
	require.Equal(t, http.StatusOK, code)
	code, env = a.do(http.MethodPost, "/api/users/2/promote", nil)
	require.Equal(t, http.StatusOK, code, env.Message)

	u, err := a.c.Users.GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdministrator, u.Role)

	code, _ = a.do(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = a.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestWriteRateLimit(t *testing.T) {
	a := newAPI(t, 1)
	createUser(t, a, "a@b.com")

	code, env := a.do(http.MethodPost, "/api/users", map[string]any{
		"email": "b@b.com", "name": "N", "phoneNumber": "+15550100", "password": "secret123",
	})
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "rate limit exceeded", env.Message)

	code, _ = a.do(http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestDebugVars(t *testing.T) {
	a := newAPI(t, 0)
	createUser(t, a, "a@b.com")

	req := httptest.NewRequest(http.MethodGet, "/api/debug/vars", nil)
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "orchestration_stages"))
}

func TestEmptyListsCarryEmptyData(t *testing.T) {
	a := newAPI(t, 0)

	for _, path := range []string{
		"/api/users",
		"/api/feedbacks",
		"/api/feedbacks/reviewer/7",
		"/api/feedbacks/recipient/7",
		"/api/users/search?q=nobody",
	} {
		code, body := a.rawGet(path)
		require.Equal(t, http.StatusOK, code, path)
		assert.Contains(t, body, `"data":[]`, path)
	}
}

func TestSearchRejectsBadSize(t *testing.T) {
	a := newAPI(t, 0)

	for _, size := range []string{"ten", "0", "-1"} {
		code, env := a.do(http.MethodGet, "/api/users/search?q=a&size="+size, nil)
		assert.Equal(t, http.StatusBadRequest, code, size)
		assert.Contains(t, string(env.Error), "size", size)
	}

	code, _ := a.do(http.MethodGet, "/api/users/search?q=a&size=5", nil)
	assert.Equal(t, http.StatusOK, code)
}
