package main

import (
	"log"
	"net/http"
	"os"
	"time"

	_ "adminpanel/docs" // swagger docs

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"adminpanel/internal/audit"
	"adminpanel/internal/auth"
	"adminpanel/internal/cache"
	"adminpanel/internal/config"
	"adminpanel/internal/db"
	"adminpanel/internal/handler"
	"adminpanel/internal/model"
	"adminpanel/internal/repository"
	"adminpanel/internal/router"
	"adminpanel/internal/service"
)

// @title Admin Panel API
// @version 1.0
// @description Admin-panel backend with JWT authentication, RBAC, statistics and activity logs.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(echomiddleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Drop tables if RESET_DB environment variable is set
	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, dropping all tables...")
		for _, table := range []interface{}{&model.ActivityLog{}, &model.User{}} {
			if err := gormDB.Migrator().DropTable(table); err != nil {
				log.Printf("Warning: Failed to drop table (may not exist): %v", err)
			}
		}
		log.Println("Tables dropped")
	}

	if err := gormDB.AutoMigrate(&model.User{}, &model.ActivityLog{}); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Repositories
	userRepo := repository.NewUserRepository(gormDB)
	logRepo := repository.NewActivityLogRepository(gormDB)

	// Auth components
	tokenService := auth.NewTokenService(
		cfg.AccessSecret,
		cfg.RefreshSecret,
		time.Duration(cfg.AccessTTLMinutes)*time.Minute,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour,
	)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	// Audit pipeline
	recorder := audit.NewRecorder(cfg.AMQPUrl, cfg.AuditQueueEnabled, logRepo)
	if cfg.AuditQueueEnabled {
		go audit.StartConsumer(cfg.AMQPUrl, logRepo)
	}

	// Services
	authService := service.NewAuthService(userRepo, tokenService, hasher, recorder, cacheClient)
	userService := service.NewUserService(userRepo, hasher, recorder, cacheClient)
	statsService := service.NewStatsService(userRepo, logRepo, cacheClient)
	logService := service.NewActivityLogService(logRepo, recorder)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	statsHandler := handler.NewStatsHandler(statsService)
	logHandler := handler.NewActivityLogHandler(logService)

	router.Register(e, tokenService, userRepo, authHandler, userHandler, statsHandler, logHandler)

	if cfg.SwaggerHost != "" {
		log.Printf("Swagger documentation available at: http://%s/swagger/index.html", cfg.SwaggerHost)
	} else {
		log.Printf("Swagger documentation available at: http://localhost:%s/swagger/index.html", cfg.ServerPort)
	}

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
