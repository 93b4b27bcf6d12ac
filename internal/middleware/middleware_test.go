package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domainUser "robot-dispatch/internal/domain/user"
	"robot-dispatch/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "middleware-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func withBearer(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func whoami() *gin.Engine {
	r := gin.New()
	r.GET("/whoami", AuthMiddleware(secret), func(c *gin.Context) {
		userID, isUser := CurrentUserID(c)
		robotID, isRobot := CurrentRobotID(c)
		c.JSON(http.StatusOK, gin.H{
			"role":     CurrentRole(c),
			"user":     userID,
			"is_user":  isUser,
			"robot":    robotID,
			"is_robot": isRobot,
		})
	})
	return r
}

func TestAuthMiddlewareUserToken(t *testing.T) {
	id := uuid.New()
	pair, err := utils.GenerateUserToken(id, "a@example.com", domainUser.RoleAdmin, secret, 1)
	require.NoError(t, err)

	rec := serve(whoami(), withBearer(pair.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"role":"admin"`)
	assert.Contains(t, body, id.String())
	assert.Contains(t, body, `"is_user":true`)
	assert.Contains(t, body, `"is_robot":false`)
}

func TestAuthMiddlewareRobotToken(t *testing.T) {
	id := uuid.New()
	pair, err := utils.GenerateRobotToken(id, secret, 1)
	require.NoError(t, err)

	rec := serve(whoami(), withBearer(pair.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"role":"robot"`)
	assert.Contains(t, body, `"is_robot":true`)
	assert.Contains(t, body, `"is_user":false`)
}

func TestAuthMiddlewareRejects(t *testing.T) {
	foreign, err := utils.GenerateUserToken(uuid.New(), "a@example.com", domainUser.RoleUser, "other-secret", 1)
	require.NoError(t, err)

	cases := map[string]*http.Request{
		"missing header": withBearer(""),
		"wrong secret":   withBearer(foreign.AccessToken),
		"garbage":        withBearer("abc.def.ghi"),
	}
	basic := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	basic.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	cases["wrong scheme"] = basic

	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			rec := serve(whoami(), req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"code":"UNAUTHORIZED"`)
		})
	}
}

func TestRoleGuards(t *testing.T) {
	build := func(guard gin.HandlerFunc) *gin.Engine {
		r := gin.New()
		r.GET("/whoami", AuthMiddleware(secret), guard, func(c *gin.Context) { c.Status(http.StatusNoContent) })
		return r
	}

	userPair, err := utils.GenerateUserToken(uuid.New(), "u@example.com", domainUser.RoleUser, secret, 1)
	require.NoError(t, err)
	adminPair, err := utils.GenerateUserToken(uuid.New(), "a@example.com", domainUser.RoleAdmin, secret, 1)
	require.NoError(t, err)
	robotPair, err := utils.GenerateRobotToken(uuid.New(), secret, 1)
	require.NoError(t, err)

	tests := []struct {
		name  string
		guard gin.HandlerFunc
		token string
		want  int
	}{
		{"admin route admits admin", AdminOnly(), adminPair.AccessToken, http.StatusNoContent},
		{"admin route refuses user", AdminOnly(), userPair.AccessToken, http.StatusForbidden},
		{"admin route refuses robot", AdminOnly(), robotPair.AccessToken, http.StatusForbidden},
		{"robot route admits robot", RobotOnly(), robotPair.AccessToken, http.StatusNoContent},
		{"robot route refuses admin", RobotOnly(), adminPair.AccessToken, http.StatusForbidden},
		{"user routes admit user", UsersOnly(), userPair.AccessToken, http.StatusNoContent},
		{"user routes admit admin", UsersOnly(), adminPair.AccessToken, http.StatusNoContent},
		{"user routes refuse robot", UsersOnly(), robotPair.AccessToken, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(build(tt.guard), withBearer(tt.token))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 0.001, 2)
	r := gin.New()
	r.GET("/ping", RateLimitMiddleware(rl), func(c *gin.Context) { c.Status(http.StatusOK) })

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(r, req).Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	// buckets are per client
	assert.Equal(t, http.StatusOK, call("10.0.0.2"))
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/id", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/id", nil))
	generated := rec.Header().Get(RequestIDHeader)
	require.NotEmpty(t, generated)
	assert.Equal(t, generated, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(RequestIDHeader, "trace-42")
	rec = serve(r, req)
	assert.Equal(t, "trace-42", rec.Header().Get(RequestIDHeader))
}

func TestRequestSizeLimit(t *testing.T) {
	r := gin.New()
	r.POST("/upload", RequestSizeLimitMiddleware(16), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("x", 64)))
	rec := serve(r, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "PAYLOAD_TOO_LARGE")

	req = httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("small"))
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeadersMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
