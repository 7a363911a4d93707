package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/meshboard/meshgate/internal/middleware"
	"github.com/meshboard/meshgate/internal/pkg/response"
)

type RouterDeps struct {
	Shares       *ShareHandler
	Roles        *RoleHandler
	Gate         middleware.GateConfig
	RedeemWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.Use(middleware.Gate(deps.Gate))

	api.GET("/healthz", func(c *gin.Context) {
		response.Success(c, gin.H{})
	})
	api.GET("/share/:key", deps.Shares.Resolve)

	userGroup := api.Group("")
	userGroup.Use(middleware.RequireUser())
	userGroup.POST("/share/generate", deps.Shares.Generate)
	userGroup.POST("/share/redeem", middleware.RateLimit(deps.RedeemWindow), deps.Shares.Redeem)
	userGroup.POST("/tenant-roles/bulk", deps.Roles.Bulk)

	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.RequireServiceOrBotControl())
	adminGroup.GET("/resource-shares", deps.Shares.AdminList)
	adminGroup.DELETE("/resource-shares", deps.Shares.AdminDelete)
}
