package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config содержит все настройки сервиса
type Config struct {
	AppName  string
	Version  string
	LogLevel string
	ENV      string `mapstructure:"env"`

	Server struct {
		Host            string
		Port            int
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
		RequestTimeout  time.Duration // таймаут запуска синхронизации через API
	}

	Postgres struct {
		Host     string
		Port     int
		User     string
		Password string
		DBName   string
		SSLMode  string
		Timeout  time.Duration
		PoolSize int // размер пула соединений
		Migrate  bool
	}

	Redis struct {
		Host     string
		Port     int
		Password string
		DB       int
		Prefix   string
	}

	Cache struct {
		Driver          string        // redis или memory
		TTL             time.Duration // срок жизни карточки в кэше
		CleanupInterval time.Duration
		LockTTL         time.Duration // срок блокировки профиля на время запуска
	}

	Kafka struct {
		Brokers         []string
		GroupID         string
		SyncTopic       string
		DeadLetterTopic string
		Partitions      int
		Replication     int
	}

	Metrics struct {
		Enabled  bool
		Endpoint string
		Port     int
	}

	Security struct {
		JWTSecret        string
		JWTIssuer        string
		JWTExpirationMin time.Duration
		CORSAllowOrigins []string
	}

	Marketplace struct {
		BaseURL     string
		Environment string // production или sandbox
		Timeout     time.Duration
		RateLimit   float64 // запросов в секунду
		Burst       int
	}

	Pricing struct {
		RoundIncrement string // шаг округления цены, десятичное число
	}

	Sync struct {
		Dispatch string // inline, pool или kafka
		Workers  int
		Mode     string // stocks или card
	}

	I18n struct {
		Path   string
		Domain string
	}
}

// flagKeys связывает флаги командной строки с ключами конфигурации
var flagKeys = map[string]string{
	"log-level":   "logLevel",
	"dispatch":    "sync.dispatch",
	"workers":     "sync.workers",
	"mode":        "sync.mode",
	"cache":       "cache.driver",
	"environment": "marketplace.environment",
}

// Load загружает конфигурацию из файла, переменных окружения и флагов.
// Флаги имеют приоритет, если они явно заданы.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Настройка Viper
	if ext := filepath.Ext(configPath); ext != "" {
		v.SetConfigFile(configPath)
	} else {
		configFile := "config"
		if configPath != "" {
			configFile = configPath
		}
		v.SetConfigName(configFile)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("../config")
		v.AddConfigPath("../../config")
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Установка значений по умолчанию
	setDefaults(v)

	// Чтение конфигурационного файла
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		}
		// Продолжаем, если файл не найден, будем использовать только переменные окружения
	}

	// Привязка переменных окружения
	if err := bindEnvVariables(v); err != nil {
		return nil, err
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка десериализации конфигурации: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет значения перечислений
func (c *Config) Validate() error {
	switch c.Marketplace.Environment {
	case "production", "sandbox":
	default:
		return fmt.Errorf("marketplace.environment: неизвестное окружение %q", c.Marketplace.Environment)
	}

	switch c.Sync.Dispatch {
	case "inline", "pool", "kafka":
	default:
		return fmt.Errorf("sync.dispatch: неизвестный способ %q", c.Sync.Dispatch)
	}

	switch c.Sync.Mode {
	case "stocks", "card":
	default:
		return fmt.Errorf("sync.mode: неизвестный режим %q", c.Sync.Mode)
	}

	switch c.Cache.Driver {
	case "redis", "memory":
	default:
		return fmt.Errorf("cache.driver: неизвестный драйвер %q", c.Cache.Driver)
	}

	return nil
}

// IsProduction сообщает, что процесс работает с боевым API маркетплейса
func (c *Config) IsProduction() bool {
	return c.Marketplace.Environment == "production"
}

// setDefaults устанавливает значения по умолчанию
func setDefaults(v *viper.Viper) {
	// Основные настройки
	v.SetDefault("appName", "marketplace-service")
	v.SetDefault("version", "1.0.0")
	v.SetDefault("logLevel", "info")
	v.SetDefault("env", "development")

	// Настройки сервера
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "10m")
	v.SetDefault("server.shutdownTimeout", "15s")
	v.SetDefault("server.requestTimeout", "10m")

	// Настройки Postgres
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "postgres")
	v.SetDefault("postgres.dbname", "marketplace")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timeout", "5s")
	v.SetDefault("postgres.poolSize", 10)
	v.SetDefault("postgres.migrate", false)

	// Настройки Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "marketplace")

	// Настройки кэша
	v.SetDefault("cache.driver", "redis")
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.cleanupInterval", "5m")
	v.SetDefault("cache.lockTTL", "30m")

	// Настройки Kafka
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.groupID", "marketplace-service")
	v.SetDefault("kafka.syncTopic", "marketplace.ozon.sync")
	v.SetDefault("kafka.deadLetterTopic", "marketplace.ozon.sync.dlq")
	v.SetDefault("kafka.partitions", 6)
	v.SetDefault("kafka.replication", 1)

	// Настройки метрик
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.endpoint", "/metrics")
	v.SetDefault("metrics.port", 9100)

	// Настройки безопасности
	v.SetDefault("security.jwtSecret", "")
	v.SetDefault("security.jwtIssuer", "marketplace-service")
	v.SetDefault("security.jwtExpirationMin", "60m")
	v.SetDefault("security.corsAllowOrigins", []string{"*"})

	// Настройки маркетплейса
	v.SetDefault("marketplace.baseURL", "https://api-seller.ozon.ru")
	v.SetDefault("marketplace.environment", "sandbox")
	v.SetDefault("marketplace.timeout", "30s")
	v.SetDefault("marketplace.rateLimit", 10)
	v.SetDefault("marketplace.burst", 1)

	// Настройки цен
	v.SetDefault("pricing.roundIncrement", "10")

	// Настройки синхронизации
	v.SetDefault("sync.dispatch", "inline")
	v.SetDefault("sync.workers", 4)
	v.SetDefault("sync.mode", "stocks")

	// Переводы
	v.SetDefault("i18n.path", "")
	v.SetDefault("i18n.domain", "ozon-products.mapper")
}

// bindEnvVariables привязывает переменные окружения к конфигурации
func bindEnvVariables(v *viper.Viper) error {
	bindings := map[string]string{
		// Основные настройки
		"appName":  "APP_NAME",
		"version":  "APP_VERSION",
		"logLevel": "LOG_LEVEL",
		"env":      "APP_ENV",

		// Настройки сервера
		"server.host": "SERVER_HOST",
		"server.port": "SERVER_PORT",

		// Настройки Postgres
		"postgres.host":     "POSTGRES_HOST",
		"postgres.port":     "POSTGRES_PORT",
		"postgres.user":     "POSTGRES_USER",
		"postgres.password": "POSTGRES_PASSWORD",
		"postgres.dbname":   "POSTGRES_DBNAME",
		"postgres.sslmode":  "POSTGRES_SSLMODE",
		"postgres.poolSize": "POSTGRES_POOL_SIZE",
		"postgres.migrate":  "POSTGRES_MIGRATE",

		// Настройки Redis
		"redis.host":     "REDIS_HOST",
		"redis.port":     "REDIS_PORT",
		"redis.password": "REDIS_PASSWORD",
		"redis.db":       "REDIS_DB",

		"cache.driver": "CACHE_DRIVER",
		"cache.ttl":    "CACHE_TTL",

		// Настройки Kafka
		"kafka.brokers":         "KAFKA_BROKERS",
		"kafka.groupID":         "KAFKA_GROUP_ID",
		"kafka.syncTopic":       "KAFKA_SYNC_TOPIC",
		"kafka.deadLetterTopic": "KAFKA_DEAD_LETTER_TOPIC",

		"metrics.enabled": "METRICS_ENABLED",
		"metrics.port":    "METRICS_PORT",

		// Настройки безопасности
		"security.jwtSecret":        "JWT_SECRET",
		"security.jwtIssuer":        "JWT_ISSUER",
		"security.corsAllowOrigins": "CORS_ALLOW_ORIGINS",

		// Настройки маркетплейса
		"marketplace.baseURL":     "OZON_BASE_URL",
		"marketplace.environment": "OZON_ENVIRONMENT",
		"marketplace.timeout":     "OZON_TIMEOUT",
		"marketplace.rateLimit":   "OZON_RATE_LIMIT",

		"pricing.roundIncrement": "PRICE_ROUND_INCREMENT",

		"sync.dispatch": "SYNC_DISPATCH",
		"sync.workers":  "SYNC_WORKERS",
		"sync.mode":     "SYNC_MODE",

		"i18n.path":   "I18N_PATH",
		"i18n.domain": "I18N_DOMAIN",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("ошибка привязки переменной %s: %w", env, err)
		}
	}
	return nil
}

// bindFlags привязывает известные флаги набора к ключам конфигурации
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("ошибка привязки флага --%s: %w", name, err)
		}
	}
	return nil
}
