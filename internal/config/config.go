package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port                     string
	AllowedOrigin            string
	DatabaseURL              string
	RedisAddr                string
	RedisPassword            string
	RedisDB                  int
	AuthSecret               string
	AccessTokenTTLMinutes    int
	LowStockThreshold        int
	RecentSalesLimit         int
	DashboardCacheTTLSeconds int
	ImageStoreURL            string
	ImageStoreKey            string
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}
	lowStock, err := strconv.Atoi(getEnv("LOW_STOCK_THRESHOLD", "5"))
	if err != nil || lowStock < 1 {
		lowStock = 5
	}
	recentSales, err := strconv.Atoi(getEnv("RECENT_SALES_LIMIT", "8"))
	if err != nil || recentSales < 1 {
		recentSales = 8
	}
	dashboardTTL, err := strconv.Atoi(getEnv("DASHBOARD_CACHE_TTL_SECONDS", "30"))
	if err != nil || dashboardTTL < 1 {
		dashboardTTL = 30
	}

	cfg := Config{
		Port:                     getEnv("PORT", "8080"),
		AllowedOrigin:            getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		RedisAddr:                os.Getenv("REDIS_ADDR"),
		RedisPassword:            os.Getenv("REDIS_PASSWORD"),
		RedisDB:                  redisDB,
		AuthSecret:               strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes:    tokenTTL,
		LowStockThreshold:        lowStock,
		RecentSalesLimit:         recentSales,
		DashboardCacheTTLSeconds: dashboardTTL,
		ImageStoreURL:            strings.TrimSpace(os.Getenv("IMAGE_STORE_URL")),
		ImageStoreKey:            strings.TrimSpace(os.Getenv("IMAGE_STORE_KEY")),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
