package router

import (
	"net/http"
	"testing"
	"time"

	"github.com/familyreg/backend/internal/infrastructure/auth"
	"github.com/familyreg/backend/internal/infrastructure/config"
	"github.com/familyreg/backend/internal/interfaces/http/dto"
	"github.com/familyreg/backend/internal/interfaces/http/handler"
	"github.com/familyreg/backend/internal/interfaces/http/middleware"
	"github.com/familyreg/backend/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.Routes())
	assert.Empty(t, r.Setup())
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(func(c *gin.Context) {
		c.Header("X-API", "1")
		c.Next()
	})

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.Register(group).Setup()

	w := testutil.Do(t, engine, http.MethodGet, "/api/v1/test/ping", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, "1", w.Header().Get("X-API"))

	// API middleware stays off routes mounted outside the prefix
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	w = testutil.Do(t, engine, http.MethodGet, "/health", nil, nil)
	assert.Empty(t, w.Header().Get("X-API"))
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name", func(t *testing.T) {
		g := NewDomainGroup("registrations", "/registrations")
		assert.Equal(t, "registrations", g.Name())
	})

	t.Run("registers each method", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.GET("/items", func(c *gin.Context) { c.String(http.StatusOK, "list") }).
			POST("/items", func(c *gin.Context) { c.String(http.StatusCreated, "created") }).
			PUT("/items/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) }).
			DELETE("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		g.RegisterRoutes(engine.Group("/api/v1"))

		tests := []struct {
			method string
			path   string
			status int
			body   string
		}{
			{http.MethodGet, "/api/v1/test/items", http.StatusOK, "list"},
			{http.MethodPost, "/api/v1/test/items", http.StatusCreated, "created"},
			{http.MethodPut, "/api/v1/test/items/7", http.StatusOK, "7"},
			{http.MethodDelete, "/api/v1/test/items/7", http.StatusNoContent, ""},
		}
		for _, tt := range tests {
			w := testutil.Do(t, engine, tt.method, tt.path, nil, nil)
			assert.Equal(t, tt.status, w.Code, "%s %s", tt.method, tt.path)
			assert.Equal(t, tt.body, w.Body.String(), "%s %s", tt.method, tt.path)
		}
	})

	t.Run("applies middleware to subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("admin", "/admin").Use(func(c *gin.Context) {
			c.Header("X-Group", "admin")
			c.Next()
		})
		g.Group("families", "/families").GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "families")
		})
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := testutil.Do(t, engine, http.MethodGet, "/api/v1/admin/families", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "families", w.Body.String())
		assert.Equal(t, "admin", w.Header().Get("X-Group"))
	})
}

func TestChain_DoesNotAlias(t *testing.T) {
	base := make([]gin.HandlerFunc, 1, 4)
	base[0] = func(*gin.Context) {}

	a := chain(base, one(func(*gin.Context) {}))
	b := chain(base, one(func(*gin.Context) {}), one(nil))
	require.Len(t, a, 2)
	require.Len(t, b, 2)

	a[0] = nil
	assert.NotNil(t, b[0])
	assert.NotNil(t, base[0])
}

// route table fixtures. Handlers are never reached in these tests because
// the echoRole middleware stops every request before them.

func testJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "router-test-secret-at-least-32-chars",
		RefreshSecret:          "router-test-refresh-secret-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "familyreg-test",
		MaxRefreshCount:        3,
	})
}

func accessToken(t *testing.T, svc *auth.JWTService, role auth.Role) string {
	t.Helper()
	pair, err := svc.GenerateTokenPair(auth.GenerateTokenInput{
		Subject: uuid.New(),
		Role:    role,
		Name:    "Test",
	})
	require.NoError(t, err)
	return pair.AccessToken
}

const roleHeader = "X-Probe-Role"

// echoRole answers 204 and reports the role it saw, proving the request passed
// the guards in front of it.
func echoRole(c *gin.Context) {
	c.Header(roleHeader, string(middleware.GetJWTRole(c)))
	c.AbortWithStatus(http.StatusNoContent)
}

func setupRoutes(t *testing.T, guards Guards) *gin.Engine {
	t.Helper()
	engine := gin.New()
	r := NewRouter(engine)
	Register(r, Handlers{
		Registration: handler.NewRegistrationHandler(nil, nil),
		Auth:         handler.NewAuthHandler(nil),
		Family:       handler.NewFamilyHandler(nil, nil),
		Stats:        handler.NewStatsHandler(nil),
		System:       handler.NewSystemHandler("test", "0.0.0"),
	}, guards)
	r.Setup()
	return engine
}

func TestRegister_RouteTable(t *testing.T) {
	jwtService := testJWTService()
	engine := setupRoutes(t, Guards{
		Authenticate: middleware.JWTAuthMiddleware(jwtService),
		Request:      []gin.HandlerFunc{echoRole},
	})

	registered := make(map[string]bool)
	for _, route := range engine.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	expected := []string{
		"POST /api/v1/registrations",
		"GET /api/v1/registrations/:id",
		"PUT /api/v1/registrations/:id/house",
		"POST /api/v1/registrations/:id/next",
		"POST /api/v1/registrations/:id/back",
		"POST /api/v1/registrations/:id/goto/:step",
		"POST /api/v1/registrations/:id/members",
		"PUT /api/v1/registrations/:id/members/:index",
		"POST /api/v1/registrations/:id/members/:index/edit",
		"DELETE /api/v1/registrations/:id/members/:index",
		"POST /api/v1/registrations/:id/modal/save",
		"POST /api/v1/registrations/:id/modal/cancel",
		"PUT /api/v1/registrations/:id/contact",
		"POST /api/v1/registrations/:id/photo",
		"POST /api/v1/registrations/:id/photo/confirm",
		"DELETE /api/v1/registrations/:id/photo",
		"POST /api/v1/registrations/:id/submit",
		"POST /api/v1/registrations/:id/reset",
		"POST /api/v1/auth/household/login",
		"POST /api/v1/auth/admin/login",
		"POST /api/v1/auth/refresh",
		"POST /api/v1/auth/logout",
		"GET /api/v1/me/family",
		"GET /api/v1/admin/families",
		"GET /api/v1/admin/families/export.csv",
		"GET /api/v1/admin/families/export.xlsx",
		"GET /api/v1/admin/families/export.pdf",
		"GET /api/v1/admin/families/:id",
		"PUT /api/v1/admin/families/:id",
		"DELETE /api/v1/admin/families/:id",
		"GET /api/v1/admin/families/:id/photo-url",
		"GET /api/v1/stats",
		"GET /api/v1/system/info",
		"GET /api/v1/system/ping",
	}
	for _, route := range expected {
		assert.True(t, registered[route], "missing route %s", route)
	}
	assert.Len(t, registered, len(expected))
}

func TestRouter_RoutesMatchMounted(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	Register(r, Handlers{
		Registration: handler.NewRegistrationHandler(nil, nil),
		Auth:         handler.NewAuthHandler(nil),
		Family:       handler.NewFamilyHandler(nil, nil),
		Stats:        handler.NewStatsHandler(nil),
		System:       handler.NewSystemHandler("test", "0.0.0"),
	}, Guards{Authenticate: echoRole})

	listed := r.Routes()
	assert.Equal(t, listed, r.Setup())

	var mounted []Route
	for _, route := range engine.Routes() {
		mounted = append(mounted, Route{Method: route.Method, Path: route.Path})
	}
	assert.ElementsMatch(t, mounted, listed)
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "/api/v1/admin", joinPath("/api/v1", "/admin"))
	assert.Equal(t, "/api/v1/admin", joinPath("/api/v1/admin", ""))
	assert.Equal(t, "/api/v1/admin/", joinPath("/api/v1", "/admin/"))
	assert.Equal(t, "/api/v1/admin/families/:id", joinPath("/api/v1/admin", "/families/:id"))
}

func TestRegister_Guards(t *testing.T) {
	jwtService := testJWTService()
	engine := setupRoutes(t, Guards{
		Authenticate: middleware.JWTAuthMiddleware(jwtService),
		Request:      []gin.HandlerFunc{echoRole},
	})
	family := map[string]string{"Authorization": "Bearer " + accessToken(t, jwtService, auth.RoleFamily)}
	admin := map[string]string{"Authorization": "Bearer " + accessToken(t, jwtService, auth.RoleAdmin)}

	tests := []struct {
		name    string
		method  string
		path    string
		headers map[string]string
		status  int
		code    string
		role    string
	}{
		{"wizard is public", http.MethodPost, "/api/v1/registrations", nil, http.StatusNoContent, "", ""},
		{"stats are public", http.MethodGet, "/api/v1/stats", nil, http.StatusNoContent, "", ""},
		{"login is public", http.MethodPost, "/api/v1/auth/household/login", nil, http.StatusNoContent, "", ""},
		{"logout needs a token", http.MethodPost, "/api/v1/auth/logout", nil, http.StatusUnauthorized, dto.ErrCodeTokenInvalid, ""},
		{"logout sees the caller", http.MethodPost, "/api/v1/auth/logout", family, http.StatusNoContent, "", "family"},
		{"household needs a token", http.MethodGet, "/api/v1/me/family", nil, http.StatusUnauthorized, dto.ErrCodeTokenInvalid, ""},
		{"household rejects admins", http.MethodGet, "/api/v1/me/family", admin, http.StatusForbidden, dto.ErrCodeForbidden, ""},
		{"household admits families", http.MethodGet, "/api/v1/me/family", family, http.StatusNoContent, "", "family"},
		{"admin needs a token", http.MethodGet, "/api/v1/admin/families", nil, http.StatusUnauthorized, dto.ErrCodeTokenInvalid, ""},
		{"admin rejects families", http.MethodGet, "/api/v1/admin/families/export.csv", family, http.StatusForbidden, dto.ErrCodeForbidden, ""},
		{"admin admits admins", http.MethodDelete, "/api/v1/admin/families/" + uuid.NewString(), admin, http.StatusNoContent, "", "admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.Do(t, engine, tt.method, tt.path, nil, tt.headers)
			if tt.code != "" {
				testutil.AssertErrorResponse(t, w, tt.status, tt.code)
				return
			}
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.role, w.Header().Get(roleHeader))
		})
	}
}

func TestRegister_AuthRateLimitCoversCredentialRoutes(t *testing.T) {
	throttled := func(c *gin.Context) {
		c.AbortWithStatus(http.StatusTooManyRequests)
	}
	engine := setupRoutes(t, Guards{
		Authenticate:  middleware.JWTAuthMiddleware(testJWTService()),
		AuthRateLimit: throttled,
		Request:       []gin.HandlerFunc{echoRole},
	})

	for _, path := range []string{"/api/v1/auth/household/login", "/api/v1/auth/admin/login", "/api/v1/auth/refresh"} {
		w := testutil.Do(t, engine, http.MethodPost, path, nil, nil)
		assert.Equal(t, http.StatusTooManyRequests, w.Code, path)
	}

	w := testutil.Do(t, engine, http.MethodPost, "/api/v1/registrations", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRegister_SystemRoutes(t *testing.T) {
	engine := setupRoutes(t, Guards{
		Authenticate: middleware.JWTAuthMiddleware(testJWTService()),
	})

	w := testutil.Do(t, engine, http.MethodGet, "/api/v1/system/ping", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	ping := testutil.DecodeData[handler.PingResponse](t, w)
	assert.Equal(t, "pong", ping.Message)

	w = testutil.Do(t, engine, http.MethodGet, "/api/v1/system/info", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := testutil.DecodeData[handler.SystemInfoResponse](t, w)
	assert.Equal(t, "test", info.Name)
	assert.Equal(t, "0.0.0", info.Version)
}
