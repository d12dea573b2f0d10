// Package ozon реализует запросы Seller API Ozon, необходимые синхронизации:
// создание/обновление карточки и обновление остатков.
package ozon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/models"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/metrics"
	"github.com/athebyme/gomarket-platform/marketplace-service/pkg/interfaces"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api-seller.ozon.ru"

	cardImportPath   = "/v3/product/import"
	stocksUpdatePath = "/v2/products/stocks"
)

// Config настройки клиента
type Config struct {
	BaseURL string
	// Environment окружение процесса; запросы выполняются только в production
	Environment models.Environment
	Timeout     time.Duration
	// RateLimit запросов в секунду; 0 отключает ограничение
	RateLimit float64
	Burst     int
}

// Client HTTP-клиент Seller API. Безопасен для конкурентного использования:
// состояние запроса создается на каждый вызов.
type Client struct {
	baseURL     string
	environment models.Environment
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      interfaces.LoggerPort
}

// NewClient создает клиента Seller API
func NewClient(cfg Config, logger interfaces.LoggerPort) *Client {
	return NewClientWithHTTP(cfg, &http.Client{Timeout: cfg.Timeout}, logger)
}

// NewClientWithHTTP создает клиента с заданным http.Client
func NewClientWithHTTP(cfg Config, httpClient *http.Client, logger interfaces.LoggerPort) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL:     baseURL,
		environment: cfg.Environment,
		httpClient:  httpClient,
		limiter:     limiter,
		logger:      logger,
	}
}

// Executes проверяет, разрешены ли запросы для профиля.
// Нужны production окружение процесса и production профиль.
func (c *Client) Executes(profile models.SellerProfile) bool {
	return c.environment.IsProduction() && profile.Environment.IsProduction()
}

// post отправляет JSON. Закрыть тело ответа обязан вызывающий.
func (c *Client) post(ctx context.Context, profile models.SellerProfile, path string, payload interface{}) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request %s: %w", path, err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	NewProfileAuth(profile).SetApiKey(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordMarketplaceRequest(path, 0, time.Since(start))
		return nil, fmt.Errorf("request %s failed: %w", path, err)
	}
	metrics.RecordMarketplaceRequest(path, resp.StatusCode, time.Since(start))

	return resp, nil
}
