package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func serve(header string) (*httptest.ResponseRecorder, string) {
	gin.SetMode(gin.TestMode)
	var seen string
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(HeaderKey, header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, seen
}

func TestPropagatesIncomingID(t *testing.T) {
	w, seen := serve("abc-123")
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderKey))
}

func TestGeneratesID(t *testing.T) {
	_, seen := serve("")
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)

	_, seen = serve(strings.Repeat("x", 500))
	_, err = uuid.Parse(seen)
	assert.NoError(t, err)
}
