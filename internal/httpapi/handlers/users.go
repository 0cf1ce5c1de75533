package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gopherchat/gopherchat/internal/auth"
	"github.com/gopherchat/gopherchat/internal/common"
	"github.com/gopherchat/gopherchat/internal/httpapi/middleware"
	"github.com/gopherchat/gopherchat/internal/models"
)

func (h *Handler) Index(c *gin.Context) {
	ident, loggedIn := middleware.Identity(c)
	c.HTML(http.StatusOK, "index.html", gin.H{
		"LoggedIn": loggedIn,
		"Username": ident.Username,
	})
}

func (h *Handler) RegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", nil)
}

func (h *Handler) Register(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	if username == "" || password == "" {
		common.Error(c, http.StatusBadRequest, "username and password are required")
		return
	}

	var cnt int64
	if err := h.DB.Model(&models.User{}).Where("username = ?", username).Count(&cnt).Error; err != nil {
		common.Error(c, http.StatusInternalServerError, "failed to check username")
		return
	}
	if cnt > 0 {
		common.Error(c, http.StatusBadRequest, "username already taken")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		common.Error(c, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user := models.User{Username: username, PasswordHash: hash}
	if err := h.DB.Create(&user).Error; err != nil {
		// the unique index backstops a concurrent registration that slipped
		// past the check above
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			common.Error(c, http.StatusBadRequest, "username already taken")
			return
		}
		common.Error(c, http.StatusInternalServerError, "failed to create user")
		return
	}

	h.Log.Info("user registered", "user_id", user.ID, "username", user.Username)
	c.Redirect(http.StatusFound, "/login")
}

func (h *Handler) LoginPage(c *gin.Context) {
	if _, loggedIn := middleware.Identity(c); loggedIn {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.HTML(http.StatusOK, "login.html", nil)
}

func (h *Handler) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	if username == "" || password == "" {
		common.Error(c, http.StatusBadRequest, "username and password are required")
		return
	}

	var user models.User
	if err := h.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Error(c, http.StatusBadRequest, "unknown username")
			return
		}
		common.Error(c, http.StatusInternalServerError, "failed to load user")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		common.Error(c, http.StatusUnauthorized, "wrong password")
		return
	}

	ident := auth.Identity{UserID: user.ID, Username: user.Username}
	token, _, err := auth.SignSession(h.Cfg.SessionSecret, ident, h.Cfg.SessionTTL)
	if err != nil {
		common.Error(c, http.StatusInternalServerError, "failed to sign session")
		return
	}

	c.SetCookie(auth.SessionCookie, token, int(h.Cfg.SessionTTL/time.Second), "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) Logout(c *gin.Context) {
	if token, err := c.Cookie(auth.SessionCookie); err == nil && token != "" && h.Revoked != nil {
		if sess, err := auth.ParseSession(h.Cfg.SessionSecret, token); err == nil {
			if err := h.Revoked.RevokeSession(c.Request.Context(), sess.TokenID, time.Until(sess.ExpiresAt)); err != nil {
				h.Log.Warn("revoke session failed", "error", err)
			}
		}
	}

	c.SetCookie(auth.SessionCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}
