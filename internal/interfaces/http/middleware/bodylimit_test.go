package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/familyreg/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bodyLimitRouter(limit int64, overrides map[string]int64) *gin.Engine {
	r := gin.New()
	r.Use(BodyLimitWithOverrides(limit, overrides))
	echo := func(c *gin.Context) {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too large")
			return
		}
		c.String(http.StatusOK, "%d", len(data))
	}
	r.PUT("/registrations/:id/house", echo)
	r.POST("/registrations/:id/photo", echo)
	return r
}

func TestBodyLimit(t *testing.T) {
	r := bodyLimitRouter(100, map[string]int64{"/registrations/:id/photo": 1000})

	t.Run("allows request within limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/registrations/x/house", strings.NewReader("small body")))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "10", w.Body.String())
	})

	t.Run("rejects declared length over limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/registrations/x/house", strings.NewReader(strings.Repeat("x", 200))))

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeRequestTooLarge, resp.Error.Code)
	})

	t.Run("caps chunked bodies", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/registrations/x/house", bytes.NewReader(bytes.Repeat([]byte("x"), 200)))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("override raises the limit for photo upload", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/registrations/x/photo", strings.NewReader(strings.Repeat("x", 500))))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "500", w.Body.String())
	})
}

func TestBodyLimit_Disabled(t *testing.T) {
	r := bodyLimitRouter(0, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/registrations/x/house", strings.NewReader(strings.Repeat("x", 5000))))

	assert.Equal(t, http.StatusOK, w.Code)
}
