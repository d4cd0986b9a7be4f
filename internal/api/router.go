package api

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/bolingo/onboarding-bot/docs"
	"github.com/bolingo/onboarding-bot/internal/api/handler"
	"github.com/bolingo/onboarding-bot/internal/api/middleware"
	"github.com/bolingo/onboarding-bot/internal/core/domain"
	"github.com/bolingo/onboarding-bot/internal/core/initdata"
	"github.com/bolingo/onboarding-bot/internal/core/ports"
	"github.com/bolingo/onboarding-bot/internal/pkg/config"
)

const limiterIdleTTL = 10 * time.Minute

// Dependencies are the collaborators the HTTP layer is wired with.
type Dependencies struct {
	Config     *config.Config
	Onboarding ports.OnboardingService
	Users      ports.UserRepository
	ChatQueue  ports.ChatEventQueue
	// Dedup is optional; without it redelivered updates are replayed.
	Dedup handler.UpdateDeduplicator
	// Readiness lists the configured external dependencies by name.
	Readiness map[string]handler.Pinger
	// Registerer receives the HTTP metrics; defaults to the global registry.
	Registerer prometheus.Registerer
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	cfg := deps.Config

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)
	e.IPExtractor = echo.ExtractIPFromXFFHeader()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	registerer := deps.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "bolingo",
		Registerer: registerer,
	}))

	// --- Operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Readiness)

	e.GET("/health", healthHandler.Liveness)           // liveness
	e.GET("/health/ready", readinessHandler.Readiness) // readiness
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Chat platform webhook (trusted transport, optional shared secret) ---
	webhookHandler := handler.NewWebhookHandler(deps.ChatQueue, deps.Dedup, cfg.Telegram.WebhookSecret, deps.Log)
	e.POST("/webhook", webhookHandler.Receive, echomiddleware.BodyLimit("1M"))

	// --- Mini-app API (signed init data) ---
	verifier := initdata.Verifier{BotToken: cfg.Telegram.BotToken, MaxAge: cfg.Telegram.InitDataTTL}
	limiter := middleware.NewLimiterStore(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst, limiterIdleTTL)
	miniAppHandler := handler.NewMiniAppHandler(deps.Onboarding)

	apiGroup := e.Group("/api",
		echomiddleware.BodyLimit("64K"),
		middleware.RateLimit(limiter),
		middleware.InitData(verifier, deps.Log),
	)
	apiGroup.POST("/generate-description", miniAppHandler.GenerateDescription)
	apiGroup.POST("/update-profile", miniAppHandler.UpdateProfile)

	// --- Admin API (operator JWT) ---
	if cfg.JWTSecret != "" {
		adminHandler := handler.NewAdminHandler(deps.Users)
		admin := e.Group("/admin", middleware.AdminAuth(cfg.JWTSecret), middleware.RBAC(domain.RoleAdmin))
		admin.GET("/users/:id", adminHandler.GetUser)
		admin.DELETE("/users/:id", adminHandler.DeleteUser)
	}

	// --- Mini-app static files ---
	if cfg.StaticDir != "" {
		e.Static("/app", cfg.StaticDir)
		e.GET("/", func(c echo.Context) error {
			return c.File(filepath.Join(cfg.StaticDir, "index.html"))
		})
	} else {
		e.GET("/", func(c echo.Context) error {
			return c.JSON(http.StatusOK, map[string]string{"status": "Bolingo backend is running"})
		})
	}

	return e
}

// requestLogger writes one zerolog line per request. Headers are never
// logged: they carry init data and tokens.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURIPath:   true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			switch {
			case v.Status >= http.StatusInternalServerError:
				ev = log.Error().Err(v.Error)
			case v.Status >= http.StatusBadRequest:
				ev = log.Warn()
			}
			ev.Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
