package handler

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/documind/documind/internal/pkg/errcode"
	"github.com/documind/documind/internal/pkg/response"
	"github.com/documind/documind/internal/service"
)

// 25 MiB, matching the largest document the extraction pipeline is
// expected to handle in memory.
const maxUploadSize = 25 << 20

type FileHandler struct {
	chats *service.ChatService
}

func NewFileHandler(chats *service.ChatService) *FileHandler {
	return &FileHandler{chats: chats}
}

// Upload attaches a document to a chat and schedules indexing.
func (h *FileHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	if file.Size > maxUploadSize {
		response.Error(c, errcode.ErrInvalidFile, "file too large")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()
	data, err := io.ReadAll(opened)
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to read file")
		return
	}

	attached, err := h.chats.AttachFile(c.Request.Context(), getUserID(c), c.Param("id"), file.Filename, data)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, attached)
}

// Status reports the attached file's metadata including its index state,
// so clients can poll until the document is ready for questions.
func (h *FileHandler) Status(c *gin.Context) {
	chat, _, err := h.chats.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	if chat.File == nil {
		response.Error(c, errcode.ErrNotFound, "no file attached")
		return
	}
	response.Success(c, chat.File)
}

// Get serves a stored document by key.
func (h *FileHandler) Get(c *gin.Context) {
	key := c.Param("key")
	if key == "" || strings.Contains(key, "/") || strings.Contains(key, "\\") {
		c.Status(http.StatusBadRequest)
		return
	}
	file, err := h.chats.OpenFile(c.Request.Context(), key)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	defer file.Close()
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	_, _ = io.Copy(c.Writer, file)
}
