// Команда worker выполняет единицы синхронизации из Kafka.
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
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/app"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/dispatch"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/metrics"
	"github.com/athebyme/gomarket-platform/marketplace-service/pkg/interfaces"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("worker", pflag.ExitOnError)
	configPath := flags.String("config", "", "путь к файлу конфигурации")
	flags.Int("workers", 4, "число потребителей в группе")
	flags.String("cache", "redis", "кэш карточек: redis или memory")
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
	log.Info("Инициализация воркера",
		interfaces.LogField{Key: "app_name", Value: cfg.AppName + "-worker"},
		interfaces.LogField{Key: "version", Value: cfg.Version},
		interfaces.LogField{Key: "env", Value: cfg.ENV},
		interfaces.LogField{Key: "environment", Value: cfg.Marketplace.Environment},
	)

	// Запускаем HTTP сервер для метрик если они включены
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Endpoint, metrics.Handler())
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		metricsServer = &http.Server{Addr: fmt.Sprintf(":%d", cfg.Metrics.Port), Handler: mux}
		go func() {
			log.Info("Запуск HTTP сервера для метрик",
				interfaces.LogField{Key: "addr", Value: metricsServer.Addr})
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("Ошибка запуска HTTP сервера для метрик",
					interfaces.LogField{Key: "error", Value: err.Error()})
			}
		}()
	}

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Ошибка инициализации", interfaces.LogField{Key: "error", Value: err.Error()})
	}
	defer application.Close()

	if err := app.CheckCache(ctx, application.Cache); err != nil {
		log.Fatal("Ошибка подключения к кэшу", interfaces.LogField{Key: "error", Value: err.Error()})
	}

	messagingClient, err := application.Messaging(ctx)
	if err != nil {
		log.Fatal("Ошибка инициализации системы обмена сообщениями",
			interfaces.LogField{Key: "error", Value: err.Error()})
	}

	handler := dispatch.UnitMessageHandler(application.Units, log)

	// Каждый потребитель группы получает свою часть партиций
	consumers := max(cfg.Sync.Workers, 1)
	unsubscribes := make([]func() error, 0, consumers)
	for i := 0; i < consumers; i++ {
		unsubscribe, err := messagingClient.Subscribe(ctx, cfg.Kafka.SyncTopic, handler)
		if err != nil {
			log.Fatal("Ошибка подписки на единицы синхронизации",
				interfaces.LogField{Key: "topic", Value: cfg.Kafka.SyncTopic},
				interfaces.LogField{Key: "error", Value: err.Error()})
		}
		unsubscribes = append(unsubscribes, unsubscribe)
	}

	log.Info("Воркер запущен и готов к обработке сообщений",
		interfaces.LogField{Key: "topic", Value: cfg.Kafka.SyncTopic},
		interfaces.LogField{Key: "consumers", Value: consumers})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Получен сигнал завершения, выполняется graceful shutdown...")
	cancel()

	for _, unsubscribe := range unsubscribes {
		if err := unsubscribe(); err != nil {
			log.Warn("Ошибка отписки от топика", interfaces.LogField{Key: "error", Value: err.Error()})
		}
	}

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("Ошибка остановки сервера метрик", interfaces.LogField{Key: "error", Value: err.Error()})
		}
	}

	log.Info("Воркер корректно завершил работу")
}
