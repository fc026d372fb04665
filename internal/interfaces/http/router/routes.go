package router

import (
	"github.com/familyreg/backend/internal/infrastructure/auth"
	"github.com/familyreg/backend/internal/interfaces/http/handler"
	"github.com/familyreg/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers are the HTTP handlers mounted under the API prefix
type Handlers struct {
	Registration *handler.RegistrationHandler
	Auth         *handler.AuthHandler
	Family       *handler.FamilyHandler
	Stats        *handler.StatsHandler
	System       *handler.SystemHandler
}

// Guards are the middleware the route table places around handlers.
//
// Authenticate verifies the bearer token. AuthRateLimit, when set, throttles
// the login and refresh routes. Request runs on every API route after
// authentication, so it sees the caller's claims where there are any.
type Guards struct {
	Authenticate  gin.HandlerFunc
	AuthRateLimit gin.HandlerFunc
	Request       []gin.HandlerFunc
}

// chain returns a fresh slice so route stacks never share a backing array
func chain(parts ...[]gin.HandlerFunc) []gin.HandlerFunc {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make([]gin.HandlerFunc, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func one(h gin.HandlerFunc) []gin.HandlerFunc {
	if h == nil {
		return nil
	}
	return []gin.HandlerFunc{h}
}

// Register mounts the API route table on r
func Register(r *Router, h Handlers, g Guards) {
	r.Register(registrationRoutes(h.Registration, g))
	r.Register(authRoutes(h.Auth, g))
	r.Register(householdRoutes(h.Family, g))
	r.Register(adminRoutes(h.Family, g))
	r.Register(statsRoutes(h.Stats, g))
	r.Register(systemRoutes(h.System, g))
}

// registrationRoutes is the public wizard. Drafts are addressed by their ID.
func registrationRoutes(h *handler.RegistrationHandler, g Guards) *DomainGroup {
	dg := NewDomainGroup("registrations", "/registrations").Use(g.Request...)

	dg.POST("", h.Start)
	dg.GET("/:id", h.Get)
	dg.PUT("/:id/house", h.SetHouse)
	dg.POST("/:id/next", h.Next)
	dg.POST("/:id/back", h.Back)
	dg.POST("/:id/goto/:step", h.GoToStep)
	dg.POST("/:id/members", h.AddMember)
	dg.PUT("/:id/members/:index", h.UpdateInlineMember)
	dg.POST("/:id/members/:index/edit", h.EditMember)
	dg.DELETE("/:id/members/:index", h.RemoveMember)
	dg.POST("/:id/modal/save", h.SaveModal)
	dg.POST("/:id/modal/cancel", h.CancelModal)
	dg.PUT("/:id/contact", h.SetPrimaryContact)
	dg.POST("/:id/photo", h.UploadPhoto)
	dg.POST("/:id/photo/confirm", h.ConfirmPhoto)
	dg.DELETE("/:id/photo", h.DiscardPhoto)
	dg.POST("/:id/submit", h.Submit)
	dg.POST("/:id/reset", h.Reset)

	return dg
}

func authRoutes(h *handler.AuthHandler, g Guards) *DomainGroup {
	dg := NewDomainGroup("auth", "/auth")
	limited := chain(one(g.AuthRateLimit), g.Request)

	dg.POST("/household/login", chain(limited, one(h.HouseholdLogin))...)
	dg.POST("/admin/login", chain(limited, one(h.AdminLogin))...)
	dg.POST("/refresh", chain(limited, one(h.RefreshToken))...)
	dg.POST("/logout", chain(one(g.Authenticate), g.Request, one(h.Logout))...)

	return dg
}

func householdRoutes(h *handler.FamilyHandler, g Guards) *DomainGroup {
	dg := NewDomainGroup("household", "/me").
		Use(g.Authenticate, middleware.RequireRole(auth.RoleFamily)).
		Use(g.Request...)

	dg.GET("/family", h.MyFamily)

	return dg
}

func adminRoutes(h *handler.FamilyHandler, g Guards) *DomainGroup {
	dg := NewDomainGroup("admin", "/admin").
		Use(g.Authenticate, middleware.RequireRole(auth.RoleAdmin)).
		Use(g.Request...)

	families := dg.Group("families", "/families")
	families.GET("", h.List)
	families.GET("/export.csv", h.ExportCSV)
	families.GET("/export.xlsx", h.ExportXLSX)
	families.GET("/export.pdf", h.ExportPDF)
	families.GET("/:id", h.Get)
	families.PUT("/:id", h.Update)
	families.DELETE("/:id", h.Delete)
	families.GET("/:id/photo-url", h.PhotoURL)

	return dg
}

func statsRoutes(h *handler.StatsHandler, g Guards) *DomainGroup {
	dg := NewDomainGroup("stats", "/stats").Use(g.Request...)
	dg.GET("", h.Stats)
	return dg
}

func systemRoutes(h *handler.SystemHandler, g Guards) *DomainGroup {
	dg := NewDomainGroup("system", "/system").Use(g.Request...)
	dg.GET("/info", h.GetSystemInfo)
	dg.GET("/ping", h.Ping)
	return dg
}
