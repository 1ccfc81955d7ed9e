package routes

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/ChrisHK/system-monitor-sub001/internal/core/container"
	"github.com/ChrisHK/system-monitor-sub001/internal/middleware"
	"github.com/ChrisHK/system-monitor-sub001/pkg/security"
)

func RegisterPublicRoutes(router *gin.Engine, container *container.Container) {
	container.LoginHandler.RegisterRoutes(router)
}

func RegisterProtectedRoutes(router *gin.Engine, container *container.Container) {
	protectedRoutes := router.Group("")
	protectedRoutes.Use(security.JWTMiddleware())

	container.AssetHandler.RegisterRoutes(protectedRoutes)
	container.StoreHandler.RegisterRoutes(protectedRoutes)
	container.MoveHandler.RegisterRoutes(protectedRoutes)
	container.OrderHandler.RegisterRoutes(protectedRoutes)
	container.OutboundHandler.RegisterRoutes(protectedRoutes)
	container.SalesHandler.RegisterRoutes(protectedRoutes)
	container.RMAHandler.RegisterRoutes(protectedRoutes)
	container.RegistryHandler.RegisterRoutes(protectedRoutes)
	container.UserHandler.RegisterRoutes(protectedRoutes)
}

func RegisterUtilityRoutes(router *gin.Engine) {
	router.GET("/health", middleware.HealthCheckMiddleware())

	openapiFilePath := "./docs/index.html"
	if _, err := os.Stat(openapiFilePath); err == nil {
		router.GET("/openapi.html", func(c *gin.Context) {
			c.File(openapiFilePath)
		})
		log.Println("Route docs/index.html registered successfully.")
	} else {
		log.Printf("Warning: %s not found. Route /openapi.html will not be registered.\n", openapiFilePath)
	}
}
