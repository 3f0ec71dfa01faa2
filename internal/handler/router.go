package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/documind/documind/internal/middleware"
)

type RouterDeps struct {
	Auth      *AuthHandler
	Chats     *ChatHandler
	Messages  *MessageHandler
	Files     *FileHandler
	Shares    *ShareHandler
	JWTSecret []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/auth/register", deps.Auth.Register)
	api.POST("/auth/login", deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.POST("/chats", deps.Chats.Create)
	authGroup.GET("/chats", deps.Chats.List)
	authGroup.GET("/chats/:id", deps.Chats.Get)
	authGroup.DELETE("/chats/:id", deps.Chats.Delete)

	authGroup.POST("/chats/:id/file", deps.Files.Upload)
	authGroup.GET("/chats/:id/file", deps.Files.Status)

	// Every send costs a model call; throttle per user and route.
	turnGroup := authGroup.Group("")
	turnGroup.Use(middleware.RateLimit(time.Second))
	turnGroup.POST("/chats/:id/messages", deps.Messages.Send)
	turnGroup.POST("/chats/:id/messages/stream", deps.Messages.Stream)

	authGroup.POST("/chats/:id/share", deps.Shares.Create)
	authGroup.POST("/shares/:public_id/consume", deps.Shares.Consume)

	api.GET("/public/shares/:public_id", deps.Shares.PublicGet)
	api.GET("/files/:key", deps.Files.Get)
}
