package restapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter configures and returns the Gin router.
func SetupRouter(positionHandler *PositionHandler, operationHandler *OperationHandler, allowedOrigins []string) *gin.Engine {
	router := gin.Default()

	corsCfg := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsCfg.AllowOrigins = allowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	router.Use(cors.New(corsCfg))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/positions/:address", positionHandler.GetPositionHandler)
		v1.POST("/operations/:op", operationHandler.ExecuteOperationHandler)
	}

	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger UI over the static spec file.
	router.StaticFile("/docs/swagger.yaml", "./docs/swagger.yaml")
	swaggerURL := ginSwagger.URL("/docs/swagger.yaml")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, swaggerURL))

	return router
}
