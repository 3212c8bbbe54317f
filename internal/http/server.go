package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/auth"
	"github.com/jmehdipour/inventory-sim/internal/config"
	"github.com/jmehdipour/inventory-sim/internal/delay"
	"github.com/jmehdipour/inventory-sim/internal/http/middleware"
	"github.com/jmehdipour/inventory-sim/internal/logger"
	"github.com/jmehdipour/inventory-sim/internal/ratelimit"
	"github.com/jmehdipour/inventory-sim/internal/repository"
	"github.com/jmehdipour/inventory-sim/internal/service/query"
	"github.com/jmehdipour/inventory-sim/internal/util"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the collaborators the server routes to. Usage and UsageRepo are
// optional; without them usage is neither recorded nor reported.
type Deps struct {
	Tokens    *auth.TokenService
	Auth      *auth.Authenticator
	Limiter   ratelimit.Limiter
	Delay     delay.Policy
	Query     *query.Service
	Usage     middleware.UsageSink
	UsageRepo repository.UsageRepository

	// Now drives rate-limit buckets and the delay peak window; default time.Now.
	Now func() time.Time
}

type Server struct{ e *echo.Echo }

func NewServer(cfg config.Config, d Deps) *Server {
	if d.Delay == nil {
		d.Delay = delay.Noop{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	// echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(echoLogLevel(cfg.Log.Level))
	e.Server.ReadTimeout = cfg.HTTP.ReadTimeout
	e.Server.WriteTimeout = cfg.HTTP.WriteTimeout

	e.Use(
		middleware.ProcessingTime(),
		echoMid.Recover(),
		echoMid.RequestIDWithConfig(echoMid.RequestIDConfig{Generator: util.New}),
		echoMid.RequestLoggerWithConfig(echoMid.RequestLoggerConfig{
			LogStatus:    true,
			LogURI:       true,
			LogMethod:    true,
			LogLatency:   true,
			LogRequestID: true,
			LogError:     true,
			HandleError:  true,
			LogValuesFunc: func(c echo.Context, v echoMid.RequestLoggerValues) error {
				fields := []zap.Field{
					zap.String("method", v.Method),
					zap.String("uri", v.URI),
					zap.Int("status", v.Status),
					zap.Duration("latency", v.Latency),
					zap.String("request_id", v.RequestID),
				}
				if v.Error != nil {
					fields = append(fields, zap.Error(v.Error))
				}
				logger.Log.Info("request", fields...)
				return nil
			},
		}),
	)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// middlewares
	authMW := middleware.JWTAuth(d.Tokens)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Limiter: d.Limiter,
		Now:     d.Now,
	})
	guarded := []echo.MiddlewareFunc{authMW}
	if d.Usage != nil {
		guarded = append(guarded, middleware.UsageRecorder(d.Usage))
	}
	guarded = append(guarded, rlMW)
	withDelay := append(guarded[:len(guarded):len(guarded)], middleware.Delay(d.Delay, d.Now))

	// routes, served both at the root and under /api
	for _, prefix := range []string{"", "/api"} {
		g := e.Group(prefix)
		g.GET("/health", healthHandler(time.Now))
		g.POST("/login", loginHandler(d.Auth))
		g.GET("/inventory", inventoryHandler(d.Query, cfg.Inventory), withDelay...)
		if d.UsageRepo != nil {
			g.GET("/usage", listUsageHandler(d.UsageRepo), guarded...)
		}
	}

	return &Server{e: e}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Start(addr string) error {
	logger.Log.Info("http: listening", zap.String("addr", addr))
	err := s.e.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }

func echoLogLevel(level string) log.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG
	case "info":
		return log.INFO
	case "warn", "warning":
		return log.WARN
	case "off":
		return log.OFF
	default:
		return log.ERROR
	}
}
