package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/coursehub/feedback-service/internal/config"
	"github.com/coursehub/feedback-service/internal/es"
	"github.com/coursehub/feedback-service/internal/handlers"
	"github.com/coursehub/feedback-service/internal/httpserver"
	"github.com/coursehub/feedback-service/internal/logging"
	authmw "github.com/coursehub/feedback-service/internal/middleware/auth"
	loggingmw "github.com/coursehub/feedback-service/internal/middleware/logging"
	"github.com/coursehub/feedback-service/internal/mykafka"
	"github.com/coursehub/feedback-service/internal/repo"
	"github.com/coursehub/feedback-service/internal/service"
	"github.com/coursehub/feedback-service/internal/tokens"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var prod *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		brokers := []string{configuration.KAFKA_ADDRESS}
		topics := []string{mykafka.TopicUserEvents, mykafka.TopicFeedbackEvents}
		prod, err = mykafka.NewProducer(brokers, topics)
		if err != nil {
			log.Printf("kafka disabled: %v", err)
			prod = nil
		}
	}

	var esClient *elasticsearch.Client
	if configuration.ES_URL != "" {
		esClient, err = es.NewClient(configuration.ES_URL, configuration.ES_USER, configuration.ES_PASSWORD)
		if err != nil {
			log.Printf("elasticsearch disabled: %v", err)
			esClient = nil
		}
	}

	tokenSvc := &tokens.Service{
		AccessSecret:  []byte(configuration.JWT_ACCESS_SECRET),
		RefreshSecret: []byte(configuration.JWT_REFRESH_SECRET),
		AccessTTL:     configuration.AccessTokenTTL,
		RefreshTTL:    configuration.RefreshTokenTTL,
	}
	r := repo.New(db)
	authSvc := &service.AuthService{Repo: r, Tokens: tokenSvc, Producer: prod}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				n, err := r.DeleteExpiredRefreshTokens(cleanupCtx)
				if err != nil {
					log.Printf("refresh token cleanup error: %v", err)
				} else if n > 0 {
					log.Printf("removed %d expired refresh tokens", n)
				}
			}
		}
	}()

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{configuration.CORS_ORIGIN},
		AllowCredentials: true,
	}))
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(
		rate.Limit(configuration.RateLimit),
	)))
	e.Use(loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		AuthHandler: &handlers.AuthHandler{
			Svc:          authSvc,
			CookieName:   configuration.COOKIE_NAME,
			CookieDomain: configuration.COOKIE_DOMAIN,
			CookieSecure: configuration.CookieSecure,
		},
		CourseHandler:   &handlers.CourseHandler{Repo: r, ES: esClient},
		FeedbackHandler: &handlers.FeedbackHandler{Repo: r, Producer: prod},
		ProfileHandler:  &handlers.ProfileHandler{Repo: r},
		AdminHandler:    &handlers.AdminHandler{Repo: r, Producer: prod},
		SearchHandler:   &handlers.SearchHandler{ES: esClient},
		AuthMiddleware:  authmw.New(tokenSvc, r),
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.LISTEN_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
