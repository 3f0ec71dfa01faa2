package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/documind/documind/internal/pkg/response"
	"github.com/documind/documind/internal/service"
)

type ShareHandler struct {
	chats *service.ChatService
}

func NewShareHandler(chats *service.ChatService) *ShareHandler {
	return &ShareHandler{chats: chats}
}

func (h *ShareHandler) Create(c *gin.Context) {
	publicID, err := h.chats.CreateShare(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"public_id": publicID})
}

// PublicGet returns a shared snapshot without authentication.
func (h *ShareHandler) PublicGet(c *gin.Context) {
	snapshot, err := h.chats.GetShared(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, snapshot)
}

// Consume clones a shared snapshot into a new chat for the caller.
func (h *ShareHandler) Consume(c *gin.Context) {
	chat, err := h.chats.ConsumeShare(c.Request.Context(), getUserID(c), c.Param("public_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, chat)
}
