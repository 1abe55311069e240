package approuters

import (
	"crewline/internal/configuration"
	"crewline/internal/handler"

	"github.com/gin-gonic/gin"
)

func GroupRouters(router *gin.Engine, container *configuration.Container) {
	groupRoute := router.Group("/cl/api/groups")
	groupRoute.Use(handler.AuthMiddleware(container.Tokens))
	{
		groupRoute.POST("", container.GroupHandler.Create)
		groupRoute.GET("", container.GroupHandler.ListMine)
		groupRoute.GET("/:id", container.GroupHandler.Get)
		groupRoute.POST("/:id/members", container.GroupHandler.AddMembers)
		groupRoute.DELETE("/:id/members/:userId", container.GroupHandler.RemoveMember)
		groupRoute.PUT("/:id/settings", container.GroupHandler.UpdateSettings)
		groupRoute.DELETE("/:id", container.GroupHandler.Delete)
	}
}
