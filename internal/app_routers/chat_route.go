package approuters

import (
	"crewline/internal/configuration"
	"crewline/internal/handler"

	"github.com/gin-gonic/gin"
)

func ChatRouters(router *gin.Engine, container *configuration.Container) {
	chatRoute := router.Group("/cl/api/chat")
	chatRoute.Use(handler.AuthMiddleware(container.Tokens))
	{
		chatRoute.POST("/direct", container.ChatHandler.CreateDirectChat)
		chatRoute.GET("/user-chats", container.ChatHandler.GetUserChats)
		chatRoute.GET("/:chatId", container.ChatHandler.GetChat)
		chatRoute.PUT("/:chatId/read", container.ChatHandler.MarkChatRead)
		chatRoute.DELETE("/:chatId", container.ChatHandler.DeleteChat)
	}
}
