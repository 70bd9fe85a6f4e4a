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

	"zainmobiles/backend/internal/cache"
	"zainmobiles/backend/internal/config"
	"zainmobiles/backend/internal/domain"
	"zainmobiles/backend/internal/httpapi"
	"zainmobiles/backend/internal/imagestore"
	"zainmobiles/backend/internal/service"
	"zainmobiles/backend/internal/store"
	"zainmobiles/backend/internal/store/memory"
	pgstore "zainmobiles/backend/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Println("repository: postgres")
		warnIfNoAdmin(ctx, pg)
	} else {
		repo = memory.NewSeeded()
		log.Println("repository: in-memory")
	}

	dashCache := cache.DashboardCache(cache.NoopDashboardCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisDashboardCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			dashCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: noop")
	}

	uploader := imagestore.Uploader(imagestore.Disabled{})
	if cfg.ImageStoreURL != "" {
		uploader = imagestore.NewHTTPUploader(cfg.ImageStoreURL, cfg.ImageStoreKey)
		log.Println("image store: http")
	} else {
		log.Println("image store: disabled")
	}

	svc := service.New(repo, dashCache, uploader,
		cfg.LowStockThreshold, cfg.RecentSalesLimit,
		time.Duration(cfg.DashboardCacheTTLSeconds)*time.Second)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, repo)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("shop backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

// warnIfNoAdmin flags a database that has no admin account, since signup
// only ever creates customers and admins are provisioned out of band.
func warnIfNoAdmin(ctx context.Context, repo store.Repository) {
	users, err := repo.ListUsers(ctx)
	if err != nil {
		log.Printf("could not list users: %v", err)
		return
	}
	for _, user := range users {
		if user.Role == domain.RoleAdmin && user.Active {
			return
		}
	}
	log.Println("WARNING: no active admin account found; admin endpoints will be unreachable")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}
