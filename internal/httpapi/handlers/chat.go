package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gopherchat/gopherchat/internal/chat"
	"github.com/gopherchat/gopherchat/internal/common"
	"github.com/gopherchat/gopherchat/internal/httpapi/middleware"
)

type chatReq struct {
	Message string `json:"message"`
}

func (h *Handler) Chat(c *gin.Context) {
	ident, ok := middleware.Identity(c)
	if !ok {
		common.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}

	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid json")
		return
	}

	reply, err := h.ChatSvc.Send(c.Request.Context(), ident.UserID, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			common.Error(c, http.StatusBadRequest, "message cannot be empty")
			return
		}
		h.Log.Error("chat relay failed", "user_id", ident.UserID, "error", err)
		common.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func (h *Handler) History(c *gin.Context) {
	ident, ok := middleware.Identity(c)
	if !ok {
		common.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil {
		size = 10
	}

	result, err := h.ChatSvc.History(c.Request.Context(), ident.UserID, page, size)
	if err != nil {
		h.Log.Error("history query failed", "user_id", ident.UserID, "error", err)
		common.Error(c, http.StatusInternalServerError, "failed to load history")
		return
	}

	c.JSON(http.StatusOK, result)
}
