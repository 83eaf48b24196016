// Package main API Server 入口
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

	"lms-admin/internal/apiserver/adminuser"
	"lms-admin/internal/apiserver/auth"
	"lms-admin/internal/apiserver/server"
	"lms-admin/internal/config"
	"lms-admin/internal/shared/cache"
	cacheredis "lms-admin/internal/shared/cache/redis"
	"lms-admin/internal/shared/delivery"
	"lms-admin/internal/shared/storage/mongostore"
	"lms-admin/pkg/logging"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 切换 YAML）
	cfg := config.Load()
	logger := logging.Default("api-server")

	logger.Info("Starting API Server", "env", string(cfg.Env), "config", cfg.String())

	if cfg.Auth.JWTSecret == "" {
		logger.Error("JWT_SECRET is not set")
		os.Exit(1)
	}

	// 初始化 MongoDB
	store, err := mongostore.NewStore(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("Connected to MongoDB", "db", cfg.MongoDB)

	// 初始化 Redis（重发冷却缓存，未配置则降级为 NoOp）
	var cooldown cache.Cache = cache.NewNoOpCache()
	if cfg.RedisURL != "" {
		redisStore, err := cacheredis.NewStoreFromURL(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Error("Failed to connect to Redis")
			os.Exit(1)
		}
		defer redisStore.Close()
		cooldown = redisStore
		logger.Info("Connected to Redis")
	} else {
		logger.Warn("REDIS_URL not set, OTP resend cooldown disabled")
	}

	// 初始化短信网关（未配置则使用 Mock，验证码仅落库）
	var gateway delivery.Gateway
	if cfg.SMS.APIKey != "" {
		gateway = delivery.NewKarixGateway(cfg.SMS)
	} else {
		logger.Warn("SMS_API_KEY not set, using mock SMS gateway")
		gateway = &delivery.MockGateway{}
	}

	authCfg := auth.Config{
		JWTSecret:     cfg.Auth.JWTSecret,
		UserTokenTTL:  cfg.UserTokenTTL,
		AdminTokenTTL: cfg.AdminTokenTTL,
		DevMode:       cfg.Auth.DevMode,
	}

	// 确保超级管理员存在
	if err := adminuser.EnsureSuperadmin(store, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		logger.WithError(err).Error("Failed to ensure superadmin")
		os.Exit(1)
	}

	h := server.NewHandler(store, gateway, cooldown, authCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	logger.Info("API Server listening", "port", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logger.WithError(err).Error("Server error")
		os.Exit(1)
	}

	fmt.Println("Server stopped")
}
