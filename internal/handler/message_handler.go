package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/documind/documind/internal/pkg/errcode"
	"github.com/documind/documind/internal/pkg/response"
	"github.com/documind/documind/internal/service"
)

type MessageHandler struct {
	chats *service.ChatService
	rag   *service.RAGService
}

func NewMessageHandler(chats *service.ChatService, rag *service.RAGService) *MessageHandler {
	return &MessageHandler{chats: chats, rag: rag}
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

// Send runs one blocking turn and returns the persisted assistant message.
func (h *MessageHandler) Send(c *gin.Context) {
	chatID, text, ok := h.bindTurn(c)
	if !ok {
		return
	}
	message, err := h.rag.HandleTurn(c.Request.Context(), chatID, text)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, message)
}

// Stream runs one turn over Server-Sent Events.
//
// Event types:
//   - delta: partial assistant text {"text": "..."}
//   - done:  the persisted assistant message
//   - error: terminal failure {"message": "..."}
func (h *MessageHandler) Stream(c *gin.Context) {
	chatID, text, ok := h.bindTurn(c)
	if !ok {
		return
	}

	events, err := h.rag.HandleTurnStream(c.Request.Context(), chatID, text)
	if err != nil {
		handleError(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	for ev := range events {
		switch {
		case ev.Err != nil:
			writeSSE(c, "error", gin.H{"message": ev.Err.Error()})
			return
		case ev.Message != nil:
			writeSSE(c, "done", ev.Message)
		default:
			writeSSE(c, "delta", gin.H{"text": ev.Delta})
		}
	}
}

func (h *MessageHandler) bindTurn(c *gin.Context) (string, string, bool) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return "", "", false
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		response.Error(c, errcode.ErrInvalid, "text is required")
		return "", "", false
	}
	chatID := c.Param("id")
	// Ownership check up front so an unauthorized caller never reaches
	// the generation pipeline.
	if _, _, err := h.chats.Get(c.Request.Context(), getUserID(c), chatID); err != nil {
		handleError(c, err)
		return "", "", false
	}
	return chatID, text, true
}

func writeSSE(c *gin.Context, event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	_, _ = c.Writer.WriteString("event: " + event + "\n")
	_, _ = c.Writer.WriteString("data: " + string(payload) + "\n\n")
	c.Writer.Flush()
}
