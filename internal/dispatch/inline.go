// Package dispatch передает единицы синхронизации обработчикам:
// синхронно, через пул горутин или через Kafka.
package dispatch

import (
	"context"

	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/models"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/services"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/metrics"
)

// InlineDispatcher выполняет единицу в вызывающей горутине и возвращает ее ошибку
type InlineDispatcher struct {
	handler services.UnitHandler
}

func NewInlineDispatcher(handler services.UnitHandler) *InlineDispatcher {
	return &InlineDispatcher{handler: handler}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, unit models.SyncUnit) error {
	done := metrics.TrackUnit(string(unit.Kind))
	err := d.handler.Handle(ctx, unit)
	done(err)
	return err
}
