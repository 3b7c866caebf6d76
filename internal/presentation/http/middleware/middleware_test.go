package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/receipts-api/internal/domain/entity"
	"github.com/sangkips/receipts-api/pkg/utils"
)

type memoryKeys struct {
	mu      sync.Mutex
	keys    map[string]*entity.IdempotencyKey
	lookErr error
}

func newMemoryKeys() *memoryKeys {
	return &memoryKeys{keys: make(map[string]*entity.IdempotencyKey)}
}

func (m *memoryKeys) GetByKey(_ context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookErr != nil {
		return nil, m.lookErr
	}
	return m.keys[userID.String()+"/"+key], nil
}

func (m *memoryKeys) Create(_ context.Context, ikey *entity.IdempotencyKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[ikey.UserID.String()+"/"+ikey.Key] = ikey
	return nil
}

func (m *memoryKeys) DeleteExpired(context.Context, time.Time) error { return nil }

func (m *memoryKeys) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}

type countingObserver struct{ n int }

func (o *countingObserver) ObserveRateLimited() { o.n++ }

func withUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

func post(router *gin.Engine, path, body, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func newIdempotentRouter(repo *memoryKeys, now func() time.Time, status *int, calls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(withUser(uuid.MustParse("11111111-1111-1111-1111-111111111111")))
	handler := func(c *gin.Context) {
		*calls++
		c.JSON(*status, gin.H{"call": *calls})
	}
	idempotent := Idempotency(IdempotencyConfig{Repo: repo, TTL: time.Hour, Now: now})
	router.POST("/receipts", idempotent, handler)
	router.POST("/receipts/bulk-sync", idempotent, handler)
	return router
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	repo := newMemoryKeys()
	status, calls := http.StatusCreated, 0
	router := newIdempotentRouter(repo, time.Now, &status, &calls)

	first := post(router, "/receipts", `{"n":1}`, "k1")
	second := post(router, "/receipts", `{"n":1}`, "k1")

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(IdempotentReplayedHeader))
	assert.Empty(t, first.Header().Get(IdempotentReplayedHeader))
}

func TestIdempotency_DifferentBodyConflicts(t *testing.T) {
	repo := newMemoryKeys()
	status, calls := http.StatusCreated, 0
	router := newIdempotentRouter(repo, time.Now, &status, &calls)

	post(router, "/receipts", `{"n":1}`, "k1")
	w := post(router, "/receipts", `{"n":2}`, "k1")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotency_OtherEndpointConflicts(t *testing.T) {
	repo := newMemoryKeys()
	status, calls := http.StatusCreated, 0
	router := newIdempotentRouter(repo, time.Now, &status, &calls)

	post(router, "/receipts", `{"n":1}`, "k1")
	w := post(router, "/receipts/bulk-sync", `{"n":1}`, "k1")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "different endpoint")
	assert.Empty(t, w.Header().Get(IdempotentReplayedHeader))
	assert.Equal(t, 1, calls)
}

func TestIdempotency_FailuresAreNotStored(t *testing.T) {
	repo := newMemoryKeys()
	status, calls := http.StatusUnprocessableEntity, 0
	router := newIdempotentRouter(repo, time.Now, &status, &calls)

	post(router, "/receipts", `{"n":1}`, "k1")
	assert.Equal(t, 0, repo.len())

	status = http.StatusCreated
	w := post(router, "/receipts", `{"n":1}`, "k1")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, repo.len())
}

func TestIdempotency_ExpiredKeyRunsAgain(t *testing.T) {
	repo := newMemoryKeys()
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	status, calls := http.StatusCreated, 0
	router := newIdempotentRouter(repo, func() time.Time { return now }, &status, &calls)

	post(router, "/receipts", `{}`, "k1")
	now = now.Add(2 * time.Hour)
	w := post(router, "/receipts", `{}`, "k1")

	assert.Equal(t, 2, calls)
	assert.Empty(t, w.Header().Get(IdempotentReplayedHeader))
}

func TestIdempotency_PassThrough(t *testing.T) {
	repo := newMemoryKeys()
	status, calls := http.StatusCreated, 0
	router := newIdempotentRouter(repo, time.Now, &status, &calls)

	post(router, "/receipts", `{}`, "")
	post(router, "/receipts", `{}`, "")
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, repo.len())

	repo.lookErr = errors.New("store down")
	w := post(router, "/receipts", `{}`, "k2")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 3, calls)
}

func TestRateLimiter_PerKeyBuckets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &countingObserver{}
	limiter := NewBusinessRateLimiter(RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 1, Observer: observer})
	t.Cleanup(limiter.Stop)

	userA, userB := uuid.New(), uuid.New()
	current := userA
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(UserIDKey, current)
		c.Next()
	}, limiter.Middleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		return w
	}

	assert.Equal(t, http.StatusOK, get().Code)
	limited := get()
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "0", limited.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, 1, observer.n)

	current = userB
	assert.Equal(t, http.StatusOK, get().Code)
	assert.Equal(t, 2, limiter.Size())
}

func TestRateLimiter_Cleanup(t *testing.T) {
	limiter := NewBusinessRateLimiter(RateLimiterConfig{EntryTTL: time.Minute})
	t.Cleanup(limiter.Stop)

	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	limiter.getLimiter(uuid.New())
	now = now.Add(30 * time.Second)
	limiter.getLimiter(uuid.New())

	now = now.Add(45 * time.Second)
	limiter.cleanup()

	assert.Equal(t, 1, limiter.Size())
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwtManager := utils.NewJWTManager("test-secret", time.Hour)
	userID := uuid.New()
	token, err := jwtManager.GenerateAccessToken(userID, "owner@example.com", true)
	require.NoError(t, err)

	router := gin.New()
	router.Use(AuthMiddleware(jwtManager))
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  c.MustGet(UserIDKey).(uuid.UUID).String(),
			"is_staff": c.GetBool(IsStaffKey),
		})
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"user_id":"`+userID.String()+`","is_staff":true}`, w.Body.String())
			}
		})
	}
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestLogger(nil))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
}
