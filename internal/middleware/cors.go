package middleware

import (
	"time"

	"robot-dispatch/internal/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func CORSMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	if len(cfg.AllowedMethods) > 0 {
		corsConfig.AllowMethods = cfg.AllowedMethods
	}
	corsConfig.AddAllowHeaders("Authorization", RequestIDHeader)
	corsConfig.AddAllowHeaders(cfg.AllowedHeaders...)
	corsConfig.ExposeHeaders = append([]string{RequestIDHeader}, cfg.ExposedHeaders...)
	// credentials cannot be combined with a wildcard origin
	corsConfig.AllowCredentials = cfg.AllowCredentials && !corsConfig.AllowAllOrigins
	if cfg.MaxAge > 0 {
		corsConfig.MaxAge = time.Duration(cfg.MaxAge) * time.Second
	}

	return cors.New(corsConfig)
}
