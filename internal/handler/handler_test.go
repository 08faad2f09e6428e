package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tuition-center-api/internal/middleware"
	"github.com/noah-isme/tuition-center-api/internal/models"
	appErrors "github.com/noah-isme/tuition-center-api/pkg/errors"
)

type envelope struct {
	Data       json.RawMessage    `json:"data"`
	Error      *appErrors.Error   `json:"error"`
	Pagination *models.Pagination `json:"pagination"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func withPrincipal(c *gin.Context, teacher *models.Teacher) {
	c.Set(middleware.ContextPrincipalKey, teacher)
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func performRequest(router *gin.Engine, method, path, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type tokenAuthStub struct {
	teachers map[string]*models.Teacher
}

func (a *tokenAuthStub) ValidateToken(token string) (*models.JWTClaims, error) {
	return &models.JWTClaims{TeacherID: token}, nil
}

func (a *tokenAuthStub) ResolvePrincipal(ctx context.Context, claims *models.JWTClaims) (*models.Teacher, error) {
	teacher, ok := a.teachers[claims.TeacherID]
	if !ok {
		return nil, appErrors.ErrUnauthorized
	}
	if !teacher.CanAuthenticate() {
		return nil, appErrors.ErrInactiveAccount
	}
	return teacher, nil
}

func ginParam(key, value string) gin.Param {
	return gin.Param{Key: key, Value: value}
}

func newGateTeachers() map[string]*models.Teacher {
	return map[string]*models.Teacher{
		"pending":  {ID: "pending", IsActive: true},
		"verified": {ID: "verified", IsActive: true, IsVerified: true},
		"admin":    {ID: "admin", IsActive: true, IsAdmin: true},
	}
}
