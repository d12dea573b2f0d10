// Команда sync обновляет остатки или карточки Ozon для профилей продавца.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/athebyme/gomarket-platform/marketplace-service/config"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/adapters/logger"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/app"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/models"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/services"
	"github.com/athebyme/gomarket-platform/marketplace-service/pkg/interfaces"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("sync", pflag.ExitOnError)
	configPath := flags.String("config", "", "путь к файлу конфигурации")
	profile := flags.StringP("profile", "p", "", "ID или название профиля; по умолчанию все активные")
	article := flags.StringP("article", "a", "", "обновить только артикулы, содержащие подстроку")
	quiet := flags.BoolP("quiet", "q", false, "не печатать строку на каждый обработанный вариант")
	flags.String("mode", "stocks", "что синхронизировать: stocks или card")
	flags.String("dispatch", "inline", "способ выполнения: inline, pool или kafka")
	flags.Int("workers", 4, "число параллельных обработчиков для pool")
	flags.String("cache", "redis", "кэш карточек: redis или memory")
	flags.String("log-level", "info", "уровень логирования")
	_ = flags.Parse(os.Args[1:])

	os.Exit(run(*configPath, flags, services.RunOptions{Profile: *profile, Article: *article}, *quiet))
}

func run(configPath string, flags *pflag.FlagSet, opts services.RunOptions, quiet bool) int {
	cfg, err := config.Load(configPath, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки конфигурации: %v\n", err)
		return 1
	}

	log, err := logger.NewZapLogger(cfg.LogLevel, cfg.ENV == "production")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка инициализации логгера: %v\n", err)
		return 1
	}
	defer log.Sync()

	log.Info("Запуск синхронизации",
		interfaces.LogField{Key: "version", Value: cfg.Version},
		interfaces.LogField{Key: "mode", Value: cfg.Sync.Mode},
		interfaces.LogField{Key: "dispatch", Value: cfg.Sync.Dispatch},
		interfaces.LogField{Key: "environment", Value: cfg.Marketplace.Environment},
	)

	// Первый сигнал останавливает запуск между вариантами, второй завершает процесс
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("Ошибка инициализации", interfaces.LogField{Key: "error", Value: err.Error()})
		return 1
	}
	defer application.Close()

	dispatcher, err := application.Dispatcher(ctx)
	if err != nil {
		log.Error("Ошибка инициализации диспетчера", interfaces.LogField{Key: "error", Value: err.Error()})
		return 1
	}

	progress := newConsoleProgress(os.Stdout, quiet)
	opts.Kind = models.UnitKind(cfg.Sync.Mode)

	report, err := application.SyncService(dispatcher).Run(ctx, opts, progress)
	if err != nil {
		if services.IsRunFatal(err) {
			progress.line("ERROR", "%v", err)
		} else {
			log.Error("Ошибка синхронизации", interfaces.LogField{Key: "error", Value: err.Error()})
		}
		return 1
	}

	if stats, ok := application.WaitPool(); ok {
		progress.line("NOTE", "Пул обработал %d вариантов, ошибок %d", stats.Handled, stats.Failures)
	}
	progress.summary(report)

	return 0
}
