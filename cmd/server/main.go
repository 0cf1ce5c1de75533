package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gopherchat/gopherchat/internal/ai"
	"github.com/gopherchat/gopherchat/internal/chat"
	"github.com/gopherchat/gopherchat/internal/config"
	"github.com/gopherchat/gopherchat/internal/db"
	"github.com/gopherchat/gopherchat/internal/httpapi"
	"github.com/gopherchat/gopherchat/internal/models"
	"github.com/gopherchat/gopherchat/internal/store/rabbitmq"
	"github.com/gopherchat/gopherchat/internal/store/redisstore"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	cfg := config.Load()

	gdb, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Error("open database", "error", err)
		os.Exit(1)
	}
	if err := gdb.AutoMigrate(&models.User{}, &chat.Record{}); err != nil {
		log.Error("migrate database", "error", err)
		os.Exit(1)
	}

	reg := ai.NewRegistry()
	reg.Register("openai", func(model string) (ai.Provider, error) {
		if strings.TrimSpace(model) == "" {
			model = cfg.OpenAIModel
		}
		return ai.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, model), nil
	})
	reg.Register("ollama", func(model string) (ai.Provider, error) {
		if strings.TrimSpace(model) == "" {
			model = cfg.OllamaModel
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, model), nil
	})

	provider, err := reg.Get(cfg.AIProvider, "")
	if err != nil {
		log.Error("resolve ai provider", "provider", cfg.AIProvider, "error", err)
		os.Exit(1)
	}

	var revoked *redisstore.Store
	if cfg.RedisAddr != "" {
		revoked = redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := revoked.Ping(pingCtx); err != nil {
			log.Error("redis ping", "addr", cfg.RedisAddr, "error", err)
			cancel()
			os.Exit(1)
		}
		cancel()
		defer revoked.Close()
	}

	var events chat.EventPublisher
	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Error("rabbit connect", "error", err)
			os.Exit(1)
		}
		defer pub.Close()
		events = pub
	}

	svc := chat.NewService(chat.NewRepo(gdb), provider, events, log)
	router := httpapi.NewRouter(gdb, cfg, revoked, svc, log)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server started", "addr", cfg.Addr, "provider", cfg.AIProvider, "db", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err)
	}
}
