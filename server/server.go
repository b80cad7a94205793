package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"bglserver/database"
	"bglserver/internal/config"
	"bglserver/matching"
	"bglserver/server/handlers"
	"bglserver/server/middleware"
)

// Server HTTP сервер движка разрешения
type Server struct {
	config     *config.Config
	db         *database.ServiceDB
	engine     *matching.Engine
	httpServer *http.Server
}

// NewServer создает сервер поверх подключенной БД
func NewServer(cfg *config.Config, db *database.ServiceDB) *Server {
	return &Server{
		config: cfg,
		db:     db,
		engine: matching.NewEngine(db, cfg.Matching, cfg.Suggestions),
	}
}

// Engine возвращает движок разрешения (для CLI и тестов)
func (s *Server) Engine() *matching.Engine {
	return s.engine
}

// Start запускает HTTP сервер и блокируется до его остановки
func (s *Server) Start() error {
	handler := s.buildHTTPHandler()

	addr := fmt.Sprintf(":%s", s.config.Port)
	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// Импорт больших .xlsx может идти долго
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Сервер запускается на порту %s", s.config.Port)
	log.Printf("API доступно по адресу: http://localhost%s/api", addr)
	log.Printf("Swagger UI: http://localhost%s/swagger/index.html", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown останавливает сервер, дожидаясь активных запросов
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	log.Println("Остановка HTTP сервера...")
	return s.httpServer.Shutdown(ctx)
}

// buildHTTPHandler собирает gin router с middleware и маршрутами
func (s *Server) buildHTTPHandler() http.Handler {
	// Режим Gin: release по умолчанию, переопределяется через GIN_MODE
	if ginMode := os.Getenv("GIN_MODE"); ginMode == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.GinRequestIDMiddleware())
	router.Use(middleware.GinCORSMiddleware())
	router.Use(middleware.GinGzipMiddleware())
	router.Use(middleware.GinLoggerMiddleware())
	router.Use(middleware.GinRateLimitMiddleware(s.config.RateLimitPerSec, s.config.RateLimitBurst))
	router.Use(gin.Recovery())

	handlers.RegisterSwaggerRoutes(router, s.config.Port)
	s.registerAPIRoutes(router)

	return router
}
