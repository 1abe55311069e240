package approuters

import (
	"crewline/internal/configuration"
	"crewline/internal/handler"

	"github.com/gin-gonic/gin"
)

func MessageRouters(router *gin.Engine, container *configuration.Container) {
	messageRoute := router.Group("/cl/api/messages")
	messageRoute.Use(handler.AuthMiddleware(container.Tokens))
	{
		messageRoute.POST("", container.MessageHandler.Send)
		messageRoute.GET("/users", container.MessageHandler.ListMessagableUsers)
		messageRoute.POST("/upload", container.MessageHandler.UploadAttachment)
		messageRoute.GET("/:chatId", container.MessageHandler.List)
		messageRoute.PUT("/:messageId/read", container.MessageHandler.MarkRead)
		messageRoute.DELETE("/:messageId", container.MessageHandler.Delete)
	}
}
