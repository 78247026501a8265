package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/taskhub/internal/config"
	"github.com/taskhub/taskhub/internal/es"
	"github.com/taskhub/taskhub/internal/httpserver"
	"github.com/taskhub/taskhub/internal/logging"
	"github.com/taskhub/taskhub/internal/metrics"
	"github.com/taskhub/taskhub/internal/middleware"
	"github.com/taskhub/taskhub/internal/mykafka"
	"github.com/taskhub/taskhub/internal/repo"
	"github.com/taskhub/taskhub/internal/service"
	"github.com/taskhub/taskhub/internal/tokens"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var producer *mykafka.Producer
	if cfg.KafkaAddress != "" {
		producer = mykafka.NewProducer(strings.Split(cfg.KafkaAddress, ","))
		defer producer.Close()
	}

	store := repo.New(db)

	taskHTTP := &httpserver.TaskHTTP{Repo: store}
	if cfg.ESURL != "" {
		esClient, err := es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		taskHTTP.ES = esClient
	}

	issuer := tokens.NewIssuer(cfg.JWTSecret, cfg.RefreshSecret)
	collector := metrics.NewCollector()

	authSvc := &service.AuthService{
		Repo:       store,
		Issuer:     issuer,
		Producer:   producer,
		Metrics:    collector,
		BcryptCost: cfg.BcryptCost,
	}

	limiter := middleware.NewRateLimiter(30, 10)
	defer limiter.Stop()

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(middleware.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Auth: &httpserver.AuthHTTP{
			Svc:           authSvc,
			SecureCookies: cfg.Production(),
		},
		Tasks:      taskHTTP,
		Categories: &httpserver.CategoryHTTP{Repo: store},
		Users:      &httpserver.UserHTTP{Repo: store},
		Guard:      middleware.NewAuth(issuer),
		Limiter:    limiter,
		Metrics:    collector,
	})

	go func() {
		if err := e.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}
