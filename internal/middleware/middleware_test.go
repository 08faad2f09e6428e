package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tuition-center-api/internal/models"
	appErrors "github.com/noah-isme/tuition-center-api/pkg/errors"
)

type authStub struct {
	teachers map[string]*models.Teacher
}

func (a *authStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if token == "expired" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token expired")
	}
	return &models.JWTClaims{TeacherID: token, IsAdmin: true, IsVerified: true}, nil
}

func (a *authStub) ResolvePrincipal(ctx context.Context, claims *models.JWTClaims) (*models.Teacher, error) {
	teacher, ok := a.teachers[claims.TeacherID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
	}
	if !teacher.CanAuthenticate() {
		return nil, appErrors.ErrInactiveAccount
	}
	return teacher, nil
}

func newGateRouter(auth Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	authed := router.Group("/", Authenticate(auth))
	authed.GET("/me", ok)
	authed.GET("/students", RequireVerified(), ok)
	authed.GET("/admin", RequireAdmin(), ok)
	return router
}

func serve(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestGateAnonymousAndUnverified(t *testing.T) {
	auth := &authStub{teachers: map[string]*models.Teacher{
		"pending":  {ID: "pending", IsActive: true},
		"verified": {ID: "verified", IsActive: true, IsVerified: true},
		"admin":    {ID: "admin", IsActive: true, IsAdmin: true},
	}}
	router := newGateRouter(auth)

	rec := serve(router, http.MethodGet, "/students", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(router, http.MethodGet, "/me", "pending")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, http.MethodGet, "/students", "pending")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "ACCOUNT_NOT_VERIFIED", errorCode(t, rec))

	rec = serve(router, http.MethodGet, "/students", "verified")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, http.MethodGet, "/students", "admin")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGateAdminIgnoresTokenFlags(t *testing.T) {
	auth := &authStub{teachers: map[string]*models.Teacher{
		"verified": {ID: "verified", IsActive: true, IsVerified: true},
		"admin":    {ID: "admin", IsActive: true, IsAdmin: true},
	}}
	router := newGateRouter(auth)

	rec := serve(router, http.MethodGet, "/admin", "verified")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))

	rec = serve(router, http.MethodGet, "/admin", "admin")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGateRevocationTakesEffectOnNextRequest(t *testing.T) {
	teacher := &models.Teacher{ID: "t-1", IsActive: true, IsVerified: true}
	router := newGateRouter(&authStub{teachers: map[string]*models.Teacher{"t-1": teacher}})

	rec := serve(router, http.MethodGet, "/students", "t-1")
	require.Equal(t, http.StatusOK, rec.Code)

	teacher.IsActive = false
	rec = serve(router, http.MethodGet, "/students", "t-1")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "ACCOUNT_INACTIVE", errorCode(t, rec))
}

func TestAuthenticateRejectsMalformedHeaders(t *testing.T) {
	router := newGateRouter(&authStub{teachers: map[string]*models.Teacher{}})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(router, http.MethodGet, "/me", "expired")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(router, http.MethodGet, "/me", "ghost")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type counterStub struct {
	counts map[string]int64
	err    error
}

func (c *counterStub) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if c.err != nil {
		return 0, 0, c.err
	}
	c.counts[key]++
	return c.counts[key], 30 * time.Second, nil
}

type blockedStub struct {
	routes []string
}

func (b *blockedStub) RecordRateLimited(route string) {
	b.routes = append(b.routes, route)
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	counter := &counterStub{counts: map[string]int64{}}
	observer := &blockedStub{}
	router := gin.New()
	router.POST("/auth/login", RateLimit(counter, observer, RateLimitConfig{Requests: 2, Window: time.Minute}, nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		rec := serve(router, http.MethodPost, "/auth/login", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := serve(router, http.MethodPost, "/auth/login", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "RATE_LIMITED", errorCode(t, rec))
	assert.Equal(t, []string{"/auth/login"}, observer.routes)
}

func TestRateLimitFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auth/login", RateLimit(&counterStub{err: errors.New("redis down")}, nil, RateLimitConfig{Requests: 1, Window: time.Minute}, nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		rec := serve(router, http.MethodPost, "/auth/login", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

type observerStub struct {
	paths    []string
	statuses []int
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.paths = append(o.paths, path)
	o.statuses = append(o.statuses, status)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &observerStub{}
	router := gin.New()
	router.Use(Metrics(observer))
	router.GET("/students/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	serve(router, http.MethodGet, "/students/abc", "")
	serve(router, http.MethodGet, "/nowhere", "")

	assert.Equal(t, []string{"/students/:id", "unmatched"}, observer.paths)
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNotFound}, observer.statuses)
}

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) Create(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func TestAuditRecordsSuccessfulRequestsOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	writer := &auditStub{}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextPrincipalKey, &models.Teacher{ID: "admin-1"})
		c.Next()
	})
	router.PUT("/contributors/:id", Audit(writer, models.AuditActionContributorUpdate, "contributors", nil), func(c *gin.Context) {
		if c.Param("id") == "missing" {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusOK)
	})

	serve(router, http.MethodPut, "/contributors/c-1", "")
	serve(router, http.MethodPut, "/contributors/missing", "")

	require.Len(t, writer.logs, 1)
	log := writer.logs[0]
	assert.Equal(t, models.AuditActionContributorUpdate, log.Action)
	require.NotNil(t, log.ActorID)
	assert.Equal(t, "admin-1", *log.ActorID)
	require.NotNil(t, log.ResourceID)
	assert.Equal(t, "c-1", *log.ResourceID)
}
