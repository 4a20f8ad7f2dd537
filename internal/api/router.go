package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/printproxy/console/docs"
	"github.com/printproxy/console/internal/api/handler"
	"github.com/printproxy/console/internal/api/middleware"
	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/ports"
	"github.com/printproxy/console/internal/infrastructure/http/handlers"
)

// Deps carries everything the router wires into handlers. Mongo, Redis,
// Audit and AuditLog may be nil when the matching store is disabled.
type Deps struct {
	Log        zerolog.Logger
	Auth       ports.AuthService
	Workspaces handler.WorkspaceSource
	Cookies    handler.CookieConfig

	Audit    ports.AuditRecorder
	AuditLog ports.AuditRepository

	Mongo    *mongo.Database
	Redis    *redis.Client
	Upstream handlers.UpstreamPinger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echoprometheus.NewMiddleware("console"))
	e.Use(middleware.Session(d.Auth, d.Log))

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Mongo, d.Redis, d.Upstream)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	registerPages(e)

	requireAuth := middleware.RequireAuth()
	e.GET("/api-docs/*", echoSwagger.WrapHandler, requireAuth, middleware.RequirePermission(domain.PermAPIDocsView))

	registerAPI(e.Group("/api"), d)
	return e
}

func registerPages(e *echo.Echo) {
	pages := handler.NewPageHandler(Pages)
	for _, p := range Pages {
		if p.Name == PageNotFound {
			continue
		}
		var mw []echo.MiddlewareFunc
		switch {
		case p.Name == PageLogin:
			mw = append(mw, middleware.GuestOnly())
		case p.RequiresAuth:
			mw = append(mw, middleware.RequireAuth())
			if p.Permission != "" {
				mw = append(mw, middleware.RequirePermission(p.Permission))
			}
		}
		e.GET(p.Path, pages.Show(p), mw...)
	}
	e.GET("/*", pages.NotFound(pageByName(PageNotFound)))
}

func registerAPI(api *echo.Group, d Deps) {
	if d.Audit != nil {
		api.Use(middleware.Audit(d.Audit))
	}
	requireAuth := middleware.RequireAuth()
	can := middleware.RequirePermission

	// --- Auth ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Workspaces, d.Cookies)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)
	api.POST("/auth/refresh", authHandler.Refresh, requireAuth)
	api.GET("/auth/me", authHandler.Me, requireAuth)
	api.GET("/auth/permissions", authHandler.Permissions)
	api.GET("/auth/check", authHandler.Check)

	// --- Navigation ---
	pageHandler := handler.NewPageHandler(Pages)
	dashboardHandler := handler.NewDashboardHandler(d.Workspaces)
	api.GET("/menu", pageHandler.Menu)
	api.GET("/dashboard", dashboardHandler.Summary, requireAuth)

	// --- Printers ---
	printerHandler := handler.NewPrinterHandler(d.Workspaces)
	printers := api.Group("/printers", requireAuth)
	printers.GET("", printerHandler.List, can(domain.PermPrinterView))
	printers.GET("/default", printerHandler.Default, can(domain.PermPrinterView))
	printers.POST("/refresh-all", printerHandler.RefreshAll, can(domain.PermPrinterSync))
	printers.GET("/:id", printerHandler.Get, can(domain.PermPrinterView))
	printers.GET("/:id/capabilities", printerHandler.Capabilities, can(domain.PermPrinterView))
	printers.POST("", printerHandler.Create, can(domain.PermPrinterManage))
	printers.PUT("/:id", printerHandler.Update, can(domain.PermPrinterManage))
	printers.DELETE("/:id", printerHandler.Delete, can(domain.PermPrinterManage))
	printers.POST("/:id/test", printerHandler.Test, can(domain.PermPrinterManage))
	printers.POST("/:id/set-default", printerHandler.SetDefault, can(domain.PermPrinterSetDefault))
	printers.POST("/:id/refresh", printerHandler.Refresh, can(domain.PermPrinterSync))

	// --- Jobs ---
	jobHandler := handler.NewJobHandler(d.Workspaces)
	jobs := api.Group("/jobs", requireAuth)
	jobs.GET("", jobHandler.List, can(domain.PermJobView))
	jobs.GET("/:id", jobHandler.Get, can(domain.PermJobView))
	jobs.GET("/:id/preview", jobHandler.Preview, can(domain.PermJobPreview))
	jobs.POST("", jobHandler.Submit, can(domain.PermJobCreate))
	jobs.POST("/:id/resubmit", jobHandler.Resubmit, can(domain.PermJobCreate))
	jobs.POST("/:id/cancel", jobHandler.Cancel, can(domain.PermJobCancel))
	jobs.DELETE("/:id", jobHandler.Delete, can(domain.PermJobCancel))
	jobs.POST("/batch-cancel", jobHandler.BatchCancel, can(domain.PermJobCancel))
	jobs.POST("/batch-delete", jobHandler.BatchDelete, can(domain.PermJobCancel))

	// --- Logs ---
	logHandler := handler.NewLogHandler(d.Workspaces)
	streamHandler := handler.NewLogStreamHandler(d.Workspaces, d.Log)
	logs := api.Group("/logs", requireAuth)
	logs.GET("", logHandler.List, can(domain.PermLogView))
	logs.GET("/stats", logHandler.Stats, can(domain.PermLogView))
	logs.GET("/health", logHandler.Health, can(domain.PermLogView))
	logs.GET("/stream", streamHandler.Stream, can(domain.PermLogView))
	logs.GET("/export", logHandler.Export, can(domain.PermLogExport))
	logs.POST("/realtime", logHandler.RealTime, can(domain.PermLogView))
	logs.POST("/clear", logHandler.Clear, can(domain.PermSystemManage))
	logs.GET("/:id", logHandler.Get, can(domain.PermLogView))

	// --- Audit ---
	if d.AuditLog != nil {
		auditHandler := handler.NewAuditHandler(d.AuditLog)
		api.GET("/audit", auditHandler.List, requireAuth, can(domain.PermSystemManage))
	}
}
