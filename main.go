package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/colearn/backend/internal/auth"
	"github.com/colearn/backend/internal/cache"
	"github.com/colearn/backend/internal/classrooms"
	"github.com/colearn/backend/internal/config"
	"github.com/colearn/backend/internal/db"
	"github.com/colearn/backend/internal/folders"
	"github.com/colearn/backend/internal/middleware"
	"github.com/colearn/backend/internal/token"
	"github.com/colearn/backend/internal/users"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm/logger"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func envFile() string {
	if os.Getenv("APP_ENV") == "test" {
		return ".env.test"
	}
	return ".env.local"
}

func main() {
	_ = godotenv.Load(envFile())
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := logger.Info
	if cfg.IsTest() {
		level = logger.Warn
	}
	db.Connect(cfg.DatabaseURL, level)

	auth.Init()
	folders.Init()
	classrooms.Init()

	issuer, err := token.NewIssuer(cfg)
	if err != nil {
		log.Fatal(err)
	}

	rdb := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if rdb != nil {
		defer rdb.Close()
	}
	userCache := cache.NewUserCache(rdb, cfg.UserCacheTTL)

	authStore := auth.NewStore(db.DB)
	manager := classrooms.NewManager(db.DB, issuer)
	folderStore := folders.NewStore(db.DB, manager)

	guard := middleware.AuthMiddleware(issuer, auth.UserInfo{Store: authStore, Cache: userCache})
	limiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
	go sweepVisitors(ctx, limiter)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.Get("/", RootHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Mount("/auth", auth.SetupRoutes(auth.NewHandler(authStore, issuer, cfg), guard, limiter.Middleware))
	r.Mount("/users", users.SetupRoutes(users.NewHandler(authStore, userCache), guard))
	r.Mount("/folders", folders.SetupRoutes(folders.NewHandler(folderStore), guard))
	r.Mount("/classrooms", classrooms.SetupRoutes(classrooms.NewHandler(manager, cfg.DefaultInvitationTTL), guard))

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("Server listening on port :%s...", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func sweepVisitors(ctx context.Context, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep()
		}
	}
}
