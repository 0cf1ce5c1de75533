package handlers

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/gopherchat/gopherchat/internal/chat"
	"github.com/gopherchat/gopherchat/internal/config"
	"github.com/gopherchat/gopherchat/internal/store/redisstore"
)

type Handler struct {
	DB      *gorm.DB
	Cfg     config.Config
	Revoked *redisstore.Store // nil when revocation is disabled
	ChatSvc *chat.Service
	Log     *slog.Logger
}

func NewHandler(db *gorm.DB, cfg config.Config, revoked *redisstore.Store, chatSvc *chat.Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{DB: db, Cfg: cfg, Revoked: revoked, ChatSvc: chatSvc, Log: log}
}
