package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"collab-service/internal/logging"
	"collab-service/internal/mocks"
	"collab-service/internal/models"
	"collab-service/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type sessionFixture struct {
	store   *session.RedisStore
	cookies *session.CookieCodec
	mr      *miniredis.Miniredis
}

func newSessionFixture(t *testing.T) sessionFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return sessionFixture{
		store:   session.NewRedisStore(client, time.Hour),
		cookies: session.NewCookieCodec("secret", time.Hour, false),
		mr:      mr,
	}
}

func (f sessionFixture) cookieFor(t *testing.T, userID string) *http.Cookie {
	t.Helper()
	sess, err := f.store.Create(context.Background(), models.User{ID: userID})
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	require.NoError(t, f.cookies.Write(rec, sess.ID))
	return rec.Result().Cookies()[0]
}

func guardedRouter(f sessionFixture, users UserExistenceChecker) *gin.Engine {
	logger := logging.Discard()
	router := gin.New()
	router.Use(SessionResolver(f.store, f.cookies, logger))
	router.GET("/private", AccessGuard(users, logger), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": c.GetString(UserIDKey)})
	})
	return router
}

func TestAccessGuardRejectsMissingSession(t *testing.T) {
	f := newSessionFixture(t)
	users := new(mocks.UserRepositoryMock)

	rec := httptest.NewRecorder()
	guardedRouter(f, users).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/private", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"UNAUTHORIZED"`)
	users.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
}

func TestAccessGuardRejectsDeletedUser(t *testing.T) {
	f := newSessionFixture(t)
	users := new(mocks.UserRepositoryMock)
	users.On("Exists", mock.Anything, "u1").Return(false, nil)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(f.cookieFor(t, "u1"))
	rec := httptest.NewRecorder()
	guardedRouter(f, users).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	users.AssertExpectations(t)
}

func TestAccessGuardChecksExistenceEveryRequest(t *testing.T) {
	f := newSessionFixture(t)
	users := new(mocks.UserRepositoryMock)
	users.On("Exists", mock.Anything, "u1").Return(true, nil).Once()
	users.On("Exists", mock.Anything, "u1").Return(false, nil).Once()

	router := guardedRouter(f, users)
	cookie := f.cookieFor(t, "u1")

	first := httptest.NewRequest(http.MethodGet, "/private", nil)
	first.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"userId":"u1"}`, rec.Body.String())

	second := httptest.NewRequest(http.MethodGet, "/private", nil)
	second.AddCookie(cookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, second)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	users.AssertExpectations(t)
}

func TestAccessGuardLookupFailure(t *testing.T) {
	f := newSessionFixture(t)
	users := new(mocks.UserRepositoryMock)
	users.On("Exists", mock.Anything, "u1").Return(false, errors.New("db down"))

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(f.cookieFor(t, "u1"))
	rec := httptest.NewRecorder()
	guardedRouter(f, users).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestSessionResolverRenewsCookie(t *testing.T) {
	f := newSessionFixture(t)
	users := new(mocks.UserRepositoryMock)
	users.On("Exists", mock.Anything, "u1").Return(true, nil)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(f.cookieFor(t, "u1"))
	rec := httptest.NewRecorder()
	guardedRouter(f, users).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.Equal(t, 3600, cookies[0].MaxAge)
}

func TestSessionResolverIgnoresTamperedCookie(t *testing.T) {
	f := newSessionFixture(t)
	users := new(mocks.UserRepositoryMock)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "garbage"})
	rec := httptest.NewRecorder()
	guardedRouter(f, users).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimiterRejectsBurst(t *testing.T) {
	limiter := NewRateLimiter(1, 2, logging.Discard())
	router := gin.New()
	router.POST("/login", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	limiter.Prune(-time.Minute)
	assert.Empty(t, limiter.visitors)
}

func limitedRouter(t *testing.T, limiter *RateLimiter, trusted []string) *gin.Engine {
	t.Helper()
	router := gin.New()
	require.NoError(t, router.SetTrustedProxies(trusted))
	router.POST("/login", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestRateLimiterIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	router := limitedRouter(t, NewRateLimiter(1, 5, logging.Discard()), nil)

	admitted := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			admitted++
		}
	}
	assert.Equal(t, 5, admitted)
}

func TestRateLimiterKeysOnForwardedForBehindTrustedProxy(t *testing.T) {
	router := limitedRouter(t, NewRateLimiter(1, 1, logging.Discard()), []string{"10.1.0.1"})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.1.0.1:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	router := gin.New()
	router.Use(CORS("http://localhost:3000/"))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDPropagates(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), RequestLogger(logging.Discard()))
	router.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "req-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "req-1", rec.Body.String())
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-Id"))
}
