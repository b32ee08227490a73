package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Stephen-Salano/Spring-Security-example/internal/config"
	"github.com/Stephen-Salano/Spring-Security-example/internal/events"
	"github.com/Stephen-Salano/Spring-Security-example/internal/httpserver"
	"github.com/Stephen-Salano/Spring-Security-example/internal/logging"
	"github.com/Stephen-Salano/Spring-Security-example/internal/middleware"
	"github.com/Stephen-Salano/Spring-Security-example/internal/repo"
	"github.com/Stephen-Salano/Spring-Security-example/internal/service"
	"github.com/Stephen-Salano/Spring-Security-example/internal/tokens"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(initCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers)
		defer producer.Close()
	}

	codec := tokens.New(cfg.JWTSecret)
	gormRepo := &repo.GormRepo{
		DB:         db,
		Codec:      codec,
		RefreshTTL: cfg.RefreshTTL,
	}
	authSvc := &service.AuthService{
		Repo:      gormRepo,
		Codec:     codec,
		AccessTTL: cfg.AccessTTL,
		Producer:  producer,
	}

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: authSvc},
		UserHandler: &httpserver.UserHTTP{},
		Auth:        middleware.NewJWTAuth(codec, gormRepo),
		Logger:      logger,
	})

	go func() {
		if err := e.Start(cfg.ServerAddress); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}
}
