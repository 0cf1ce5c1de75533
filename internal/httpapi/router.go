package httpapi

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gopherchat/gopherchat/internal/chat"
	"github.com/gopherchat/gopherchat/internal/common"
	"github.com/gopherchat/gopherchat/internal/config"
	"github.com/gopherchat/gopherchat/internal/httpapi/handlers"
	"github.com/gopherchat/gopherchat/internal/httpapi/middleware"
	"github.com/gopherchat/gopherchat/internal/store/redisstore"
)

//go:embed templates/*.html
var templateFS embed.FS

func NewRouter(db *gorm.DB, cfg config.Config, revoked *redisstore.Store, chatSvc *chat.Service, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.SessionIdentity(cfg.SessionSecret, revoked))

	r.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	r.NoRoute(func(c *gin.Context) {
		common.Error(c, http.StatusNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Error(c, http.StatusMethodNotAllowed, "method not allowed")
	})

	h := handlers.NewHandler(db, cfg, revoked, chatSvc, log)

	r.GET("/", h.Index)
	r.GET("/register", h.RegisterPage)
	r.POST("/register", h.Register)
	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.GET("/logout", h.Logout)

	authed := r.Group("/")
	authed.Use(middleware.AuthRequired())
	authed.POST("/chat", h.Chat)
	authed.GET("/history", h.History)

	return r
}
