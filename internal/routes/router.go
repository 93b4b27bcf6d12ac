package routes

import (
	"context"
	"net/http"
	"time"

	"robot-dispatch/internal/config"
	"robot-dispatch/internal/delivery/http/handler"
	"robot-dispatch/internal/events"
	"robot-dispatch/internal/logger"
	"robot-dispatch/internal/middleware"
	"robot-dispatch/internal/usecase/dispatch"
	"robot-dispatch/internal/usecase/fleet"
	"robot-dispatch/internal/usecase/node"
	"robot-dispatch/internal/usecase/order"
	"robot-dispatch/internal/usecase/robot"
	"robot-dispatch/internal/usecase/user"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck reports whether one backing service is reachable.
type HealthCheck func(ctx context.Context) error

// Services bundles everything the router wires into handlers.
type Services struct {
	Users    *user.Service
	Nodes    *node.Service
	Orders   *order.Service
	Dispatch *dispatch.Service
	Fleet    *fleet.Service
	Robots   *robot.Service

	// Events backs the admin event stream; nil disables it.
	Events *events.Hub

	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer     prometheus.Gatherer
	HealthChecks map[string]HealthCheck
	RateLimiter  *middleware.RateLimiter
}

func SetupRoutes(cfg *config.Config, svc Services) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))
	if svc.RateLimiter != nil {
		router.Use(middleware.RateLimitMiddleware(svc.RateLimiter))
	}

	router.GET("/health", healthHandler(svc.HealthChecks))
	if svc.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(svc.Gatherer, promhttp.HandlerOpts{})))
	}

	userHandler := handler.NewUserHandler(svc.Users)
	nodeHandler := handler.NewNodeHandler(svc.Nodes)
	orderHandler := handler.NewOrderHandler(svc.Orders, svc.Dispatch)
	dispatchHandler := handler.NewDispatchHandler(svc.Dispatch)
	robotHandler := handler.NewRobotHandler(svc.Robots)
	fleetHandler := handler.NewFleetHandler(svc.Fleet, svc.Robots)

	v1 := router.Group("/api/v1")
	{
		userHandler.RegisterRoutes(v1)
		robotHandler.RegisterRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
		{
			people := protected.Group("")
			people.Use(middleware.UsersOnly())
			{
				userHandler.RegisterProfileRoutes(people)
				nodeHandler.RegisterRoutes(people)
				orderHandler.RegisterRoutes(people)
				robotHandler.RegisterLiveRoutes(people)
			}

			admin := protected.Group("/admin")
			admin.Use(middleware.AdminOnly())
			{
				nodeHandler.RegisterAdminRoutes(admin)
				dispatchHandler.RegisterAdminRoutes(admin)
				robotHandler.RegisterAdminRoutes(admin)
				if svc.Events != nil {
					handler.NewEventsHandler(svc.Events).RegisterAdminRoutes(admin)
				}
			}

			robots := protected.Group("")
			robots.Use(middleware.RobotOnly())
			{
				fleetHandler.RegisterRobotRoutes(robots)
			}
		}
	}

	logger.Info("All routes initialized")
	return router
}

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "unhealthy"
		}
		c.JSON(status, gin.H{"status": state, "checks": results})
	}
}
