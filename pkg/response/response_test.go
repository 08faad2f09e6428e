package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/tuition-center-api/pkg/errors"
)

func TestErrorMasksServerFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, appErrors.Internal(errors.New("pq: connection refused"), "failed to mark attendance"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.NotContains(t, w.Body.String(), "failed to mark attendance")
	require.Len(t, c.Errors, 1)
	assert.Contains(t, c.Errors[0].Error(), "connection refused")

	var env struct {
		Error appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, appErrors.ErrInternal.Code, env.Error.Code)
	assert.Equal(t, appErrors.ErrInternal.Message, env.Error.Message)
}

func TestErrorKeepsClientMessages(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, appErrors.Clone(appErrors.ErrDuplicateRecord, "attendance already marked for this day"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "DUPLICATE_RECORD")
	assert.Contains(t, w.Body.String(), "attendance already marked for this day")
	assert.Empty(t, c.Errors)
}

func TestUnknownErrorsBecomeInternal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}
