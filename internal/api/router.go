package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/99minutos/shipment-lifecycle/internal/api/handler"
	"github.com/99minutos/shipment-lifecycle/internal/api/middleware"
	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Log       zerolog.Logger
	JWTSecret string

	Shipments  ports.ShipmentService
	Rates      ports.RateService
	Events     ports.EventService
	Dispatcher handler.EventDispatcher
	Webhooks   ports.WebhookService
	Lifecycle  ports.LifecycleService

	// Readiness holds one ping per external dependency.
	Readiness map[string]handler.PingFunc
	// Registerer receives the HTTP metrics; nil means the default registry.
	Registerer prometheus.Registerer
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
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "shipping",
		Subsystem:  "http",
		Registerer: d.Registerer,
	}))

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Readiness)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Handlers ---
	shipmentHandler := handler.NewShipmentHandler(d.Shipments)
	rateHandler := handler.NewRateHandler(d.Rates)
	eventHandler := handler.NewEventHandler(d.Events, d.Dispatcher)
	webhookHandler := handler.NewWebhookHandler(d.Webhooks)
	lifecycleHandler := handler.NewLifecycleHandler(d.Lifecycle)

	v1 := e.Group("/v1")

	// Public.
	v1.POST("/rates", rateHandler.Quote)
	v1.GET("/track/:tracking_number", shipmentHandler.Track)

	authed := v1.Group("", middleware.Auth(d.JWTSecret))

	clients := middleware.RBAC(domain.RoleClient, domain.RoleAdmin)
	authed.POST("/shipments", shipmentHandler.Create, clients)
	authed.GET("/shipments/:id", shipmentHandler.Get, clients)
	authed.POST("/shipments/:id/cancel", shipmentHandler.Cancel, clients)

	authed.POST("/webhooks", webhookHandler.Register, clients)
	authed.GET("/webhooks", webhookHandler.List, clients)
	authed.DELETE("/webhooks/:id", webhookHandler.Delete, clients)

	carriers := middleware.RBAC(domain.RoleCarrier, domain.RoleAdmin)
	authed.POST("/events", eventHandler.Receive, carriers)
	authed.POST("/events/batch", eventHandler.ReceiveBatch, carriers)

	admins := middleware.RBAC(domain.RoleAdmin)
	authed.GET("/webhooks/deliveries/abandoned", webhookHandler.ListAbandoned, admins)
	authed.POST("/admin/shipments/:id/transitions", lifecycleHandler.Transition, admins)
	authed.GET("/admin/shipments/:id/history", lifecycleHandler.History, admins)
	authed.GET("/admin/shipments/:id/consistency", lifecycleHandler.Verify, admins)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
