// Команда api принимает запросы на запуск синхронизации по HTTP.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/athebyme/gomarket-platform/marketplace-service/config"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/adapters/logger"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/api"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/api/handlers"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/app"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/models"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/security"
	"github.com/athebyme/gomarket-platform/marketplace-service/pkg/interfaces"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("api", pflag.ExitOnError)
	configPath := flags.String("config", "", "путь к файлу конфигурации")
	flags.String("dispatch", "pool", "способ выполнения: inline, pool или kafka")
	flags.String("log-level", "info", "уровень логирования")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		fmt.Printf("Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log, err := logger.NewZapLogger(cfg.LogLevel, cfg.ENV == "production")
	if err != nil {
		fmt.Printf("Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	log.Info("Инициализация сервиса",
		interfaces.LogField{Key: "app_name", Value: cfg.AppName},
		interfaces.LogField{Key: "version", Value: cfg.Version},
		interfaces.LogField{Key: "env", Value: cfg.ENV},
	)

	jwtManager, err := security.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.JWTExpirationMin, cfg.Security.JWTIssuer)
	if err != nil {
		log.Fatal("Ошибка инициализации JWT", interfaces.LogField{Key: "error", Value: err.Error()})
	}

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Ошибка инициализации", interfaces.LogField{Key: "error", Value: err.Error()})
	}

	testCtx, testCancel := context.WithTimeout(ctx, 5*time.Second)
	defer testCancel()
	if err := app.CheckCache(testCtx, application.Cache); err != nil {
		log.Fatal("Ошибка подключения к кэшу", interfaces.LogField{Key: "error", Value: err.Error()})
	}
	log.Info("Соединение с кэшем проверено")

	dispatcher, err := application.Dispatcher(ctx)
	if err != nil {
		log.Fatal("Ошибка инициализации диспетчера", interfaces.LogField{Key: "error", Value: err.Error()})
	}

	syncHandler := handlers.NewSyncHandler(application.SyncService(dispatcher), models.UnitKind(cfg.Sync.Mode), log)
	router := api.SetupRouter(syncHandler, jwtManager, log, api.RouterConfig{
		CORSAllowedOrigins: cfg.Security.CORSAllowOrigins,
		RequestTimeout:     cfg.Server.RequestTimeout,
		MetricsEndpoint:    cfg.Metrics.Endpoint,
	})
	log.Info("Маршрутизатор настроен")

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("Сервер запущен", interfaces.LogField{Key: "address", Value: server.Addr})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Ошибка запуска сервера", interfaces.LogField{Key: "error", Value: err.Error()})
		}
	}()

	go func() {
		<-quit
		log.Info("Получен сигнал завершения, выполняется graceful shutdown...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Ошибка при graceful shutdown", interfaces.LogField{Key: "error", Value: err.Error()})
		}
		log.Info("HTTP сервер остановлен")

		// Единицы, переданные в пул, дорабатывают до закрытия соединений
		if stats, ok := application.WaitPool(); ok {
			log.Info("Пул обработчиков остановлен",
				interfaces.LogField{Key: "handled", Value: stats.Handled},
				interfaces.LogField{Key: "failures", Value: stats.Failures})
		}

		log.Info("Закрытие соединений с зависимостями...")
		application.Close()

		close(done)
	}()

	<-done
	log.Info("Сервер корректно завершил работу")
}
