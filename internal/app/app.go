// Package app собирает зависимости сервиса из конфигурации. Используется
// командами sync, worker и api.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/athebyme/gomarket-platform/marketplace-service/config"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/adapters/cache"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/adapters/messaging"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/adapters/storage"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/dispatch"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/models"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/naming"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/pricing"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/services"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/i18n"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/marketplace/ozon"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/utils"
	"github.com/athebyme/gomarket-platform/marketplace-service/pkg/interfaces"
	"github.com/shopspring/decimal"
)

// App общие зависимости процессов сервиса
type App struct {
	Config  *config.Config
	Logger  interfaces.LoggerPort
	Storage *storage.PostgresStorage
	Cache   interfaces.CachePort
	// Units обрабатывает единицы синхронизации любого типа
	Units services.UnitHandler

	messaging *messaging.KafkaMessaging
	pool      *dispatch.PoolDispatcher
}

// New подключает хранилище и кэш и собирает обработчики единиц
func New(ctx context.Context, cfg *config.Config, log interfaces.LoggerPort) (*App, error) {
	connStr, err := utils.GenerateConnectionString(
		cfg.Postgres.Host,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
		cfg.Postgres.Port,
		cfg.Postgres.PoolSize,
		cfg.Postgres.Timeout,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации строки подключения базы: %w", err)
	}

	db, err := storage.NewPostgresStorage(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации хранилища: %w", err)
	}
	log.Info("Хранилище инициализировано")

	if cfg.Postgres.Migrate {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ошибка миграции: %w", err)
		}
		log.Info("Миграции применены")
	}

	cacheClient, err := newCache(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка инициализации кэша: %w", err)
	}
	log.Info("Кэш инициализирован", "driver", cfg.Cache.Driver)

	a := &App{
		Config:  cfg,
		Logger:  log,
		Storage: db,
		Cache:   cacheClient,
	}

	units, err := a.buildHandlers()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Units = units

	return a, nil
}

func newCache(ctx context.Context, cfg *config.Config) (interfaces.CachePort, error) {
	if cfg.Cache.Driver == "memory" {
		return cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.CleanupInterval), nil
	}
	return cache.NewRedisCache(ctx, cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
}

// Cards источник карточек с кэшированием
func (a *App) Cards() services.CardResolver {
	return storage.NewCachedCardResolver(a.Storage, a.Cache, a.Config.Cache.TTL, a.Logger)
}

func (a *App) buildHandlers() (services.UnitHandler, error) {
	translator := i18n.Nop()
	if a.Config.I18n.Path != "" {
		catalog, err := i18n.LoadCatalog(a.Config.I18n.Path, a.Config.I18n.Domain)
		if err != nil {
			return nil, err
		}
		translator = catalog
	}

	increment, err := decimal.NewFromString(a.Config.Pricing.RoundIncrement)
	if err != nil {
		return nil, fmt.Errorf("pricing.roundIncrement: %w", err)
	}

	client := ozon.NewClient(ozon.Config{
		BaseURL:     a.Config.Marketplace.BaseURL,
		Environment: models.Environment(a.Config.Marketplace.Environment),
		Timeout:     a.Config.Marketplace.Timeout,
		RateLimit:   a.Config.Marketplace.RateLimit,
		Burst:       a.Config.Marketplace.Burst,
	}, a.Logger)

	cards := a.Cards()
	// Остатки читаются напрямую из хранилища, без кэша карточек
	stocks := services.NewStockSyncHandler(a.Storage, a.Storage,
		ozon.NewStockUpdateRequest(client, a.Logger), a.Logger)
	upserts := services.NewCardSyncHandler(a.Storage, cards, a.Storage,
		ozon.NewCardUpsertRequest(client, naming.NewComposer(translator), pricing.NewMarkup(increment), a.Logger),
		a.Cache, a.Logger)

	return services.NewRouter(stocks, upserts), nil
}

// Messaging подключается к Kafka при первом обращении
func (a *App) Messaging(ctx context.Context) (*messaging.KafkaMessaging, error) {
	if a.messaging != nil {
		return a.messaging, nil
	}

	client, err := messaging.NewKafkaMessaging(messaging.KafkaConfig{
		Brokers:         a.Config.Kafka.Brokers,
		GroupID:         a.Config.Kafka.GroupID,
		ClientID:        a.Config.AppName,
		DeadLetterTopic: a.Config.Kafka.DeadLetterTopic,
	}, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации системы обмена сообщениями: %w", err)
	}

	for _, topic := range []string{a.Config.Kafka.SyncTopic, a.Config.Kafka.DeadLetterTopic} {
		if topic == "" {
			continue
		}
		if err := client.EnsureTopic(ctx, topic, a.Config.Kafka.Partitions, a.Config.Kafka.Replication); err != nil {
			client.Close()
			return nil, err
		}
	}

	a.messaging = client
	a.Logger.Info("Система обмена сообщениями инициализирована")
	return client, nil
}

// Dispatcher создает способ передачи единиц согласно sync.dispatch
func (a *App) Dispatcher(ctx context.Context) (services.Dispatcher, error) {
	switch a.Config.Sync.Dispatch {
	case "pool":
		if a.pool == nil {
			a.pool = dispatch.NewPoolDispatcher(a.Units, a.Config.Sync.Workers, a.Logger)
		}
		return a.pool, nil
	case "kafka":
		client, err := a.Messaging(ctx)
		if err != nil {
			return nil, err
		}
		return dispatch.NewKafkaDispatcher(client, a.Config.Kafka.SyncTopic), nil
	default:
		return dispatch.NewInlineDispatcher(a.Units), nil
	}
}

// SyncService создает оркестратор с блокировкой профилей в кэше
func (a *App) SyncService(dispatcher services.Dispatcher) *services.SyncService {
	return services.NewSyncService(a.Storage, a.Storage, a.Cards(), dispatcher, a.Logger,
		services.WithLocker(a.Cache, a.Config.Cache.LockTTL))
}

// WaitPool дожидается единиц, переданных в пул. Для других способов ничего не делает.
func (a *App) WaitPool() (dispatch.PoolStats, bool) {
	if a.pool == nil {
		return dispatch.PoolStats{}, false
	}
	return a.pool.Wait(), true
}

// Close освобождает соединения
func (a *App) Close() {
	if a.messaging != nil {
		if err := a.messaging.Close(); err != nil {
			a.Logger.Error("Ошибка при закрытии Kafka", "error", err)
		}
	}
	if err := a.Cache.Close(); err != nil {
		a.Logger.Error("Ошибка при закрытии кэша", "error", err)
	}
	if err := a.Storage.Close(); err != nil {
		a.Logger.Error("Ошибка при закрытии БД", "error", err)
	}
}

// CheckCache проверяет запись и чтение кэша
func CheckCache(ctx context.Context, c interfaces.CachePort) error {
	testKey := "test:connection"
	testValue := []byte("test-value")

	if err := c.Set(ctx, testKey, testValue, 10*time.Second); err != nil {
		return fmt.Errorf("ошибка записи в кэш: %w", err)
	}

	value, err := c.Get(ctx, testKey)
	if err != nil {
		return fmt.Errorf("ошибка чтения из кэша: %w", err)
	}
	if string(value) != string(testValue) {
		return fmt.Errorf("некорректное значение из кэша: получено %s, ожидалось %s", value, testValue)
	}

	return c.Delete(ctx, testKey)
}
