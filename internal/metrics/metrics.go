// Package metrics содержит метрики Prometheus сервиса синхронизации.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	syncResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_results_total",
		Help: "Результаты обработки вариантов продуктов оркестратором",
	}, []string{"profile", "result", "reason"})

	marketplaceRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_requests_total",
		Help: "Количество запросов к API маркетплейса",
	}, []string{"endpoint", "status"})

	marketplaceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "marketplace_request_duration_seconds",
		Help:    "Длительность запросов к API маркетплейса",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	messagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_messages_processed_total",
		Help: "Общее количество обработанных единиц синхронизации",
	}, []string{"kind", "status"})

	messageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "worker_message_processing_duration_seconds",
		Help:    "Длительность обработки единиц синхронизации",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	activeWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "worker_active_goroutines",
		Help: "Количество активных горутин-обработчиков",
	})
)

// RecordSyncResult учитывает результат оркестратора
func RecordSyncResult(profile, result, reason string) {
	syncResults.WithLabelValues(profile, result, reason).Inc()
}

// RecordMarketplaceRequest записывает метрики запроса к маркетплейсу.
// statusCode 0 означает сетевую ошибку, "gated" означает, что запрос не выполнялся.
func RecordMarketplaceRequest(endpoint string, statusCode int, duration time.Duration) {
	marketplaceRequests.WithLabelValues(endpoint, classifyStatus(statusCode)).Inc()
	marketplaceDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordGatedRequest учитывает запрос, пропущенный вне production окружения
func RecordGatedRequest(endpoint string) {
	marketplaceRequests.WithLabelValues(endpoint, "gated").Inc()
}

// TrackUnit отмечает начало обработки единицы; возвращаемая функция завершает учет
func TrackUnit(kind string) func(err error) {
	start := time.Now()
	activeWorkers.Inc()
	return func(err error) {
		activeWorkers.Dec()
		status := "success"
		if err != nil {
			status = "error"
		}
		messagesProcessed.WithLabelValues(kind, status).Inc()
		messageDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}
}

// classifyStatus классифицирует HTTP-статус код в строку.
func classifyStatus(statusCode int) string {
	switch {
	case statusCode == 0:
		return "network_error"
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500 && statusCode < 600:
		return "5xx"
	}
	return strconv.Itoa(statusCode)
}

// Handler возвращает HTTP-обработчик для экспорта метрик Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}
