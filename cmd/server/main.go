// @title BGL Resolution Server API
// @version 1.0
// @description API движка разрешения названий поставщиков и банков: генерация кандидатов, детекция конфликтов, авто-принятие, кэш подсказок, обучение.

// @contact.name API Support

// @host localhost:9980
// @BasePath /api
// @schemes http

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bglserver/database"
	"bglserver/internal/config"
	"bglserver/server"
)

func main() {
	log.Println("═══════════════════════════════════════════════════════")
	log.Println("Запуск сервера разрешения поставщиков и банков...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}
	setupLogger(cfg.LogLevel)

	dbConfig := database.DBConfig{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}
	db, err := database.NewServiceDBWithConfig(cfg.DatabasePath, dbConfig)
	if err != nil {
		log.Fatalf("Ошибка создания базы данных: %v", err)
	}
	defer db.Close()
	log.Printf("Используется база данных: %s", cfg.DatabasePath)

	srv := server.NewServer(cfg, db)

	// Graceful shutdown по SIGINT/SIGTERM
	done := make(chan struct{})
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Ошибка остановки сервера: %v", err)
		}
		close(done)
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Ошибка запуска сервера: %v", err)
	}
	<-done
	log.Println("Сервер остановлен")
}

// setupLogger настраивает глобальный slog по уровню из конфигурации
func setupLogger(level string) {
	var slogLevel slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		slogLevel = slog.LevelDebug
	case "WARN":
		slogLevel = slog.LevelWarn
	case "ERROR":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(handler))
}
