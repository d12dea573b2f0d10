package dispatch

import (
	"context"
	"sync/atomic"

	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/models"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/services"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/metrics"
	"github.com/athebyme/gomarket-platform/marketplace-service/pkg/interfaces"
	"golang.org/x/sync/errgroup"
)

// PoolDispatcher выполняет единицы параллельно, не более workers одновременно.
// Dispatch блокируется, пока нет свободного обработчика. Ошибки единиц не
// отменяют остальные, они логируются и считаются. Принятая единица выполняется
// до конца, даже если контекст вызывающего отменен после Dispatch.
type PoolDispatcher struct {
	handler  services.UnitHandler
	group    errgroup.Group
	failures atomic.Int64
	handled  atomic.Int64
	logger   interfaces.LoggerPort
}

func NewPoolDispatcher(handler services.UnitHandler, workers int, logger interfaces.LoggerPort) *PoolDispatcher {
	if workers < 1 {
		workers = 1
	}
	d := &PoolDispatcher{handler: handler, logger: logger}
	d.group.SetLimit(workers)
	return d
}

func (d *PoolDispatcher) Dispatch(ctx context.Context, unit models.SyncUnit) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx = context.WithoutCancel(ctx)
	d.group.Go(func() error {
		done := metrics.TrackUnit(string(unit.Kind))
		err := d.handler.Handle(ctx, unit)
		done(err)

		d.handled.Add(1)
		if err != nil {
			d.failures.Add(1)
			d.logger.ErrorWithContext(ctx, "Ошибка обработки единицы синхронизации",
				"unit_id", unit.ID.String(),
				"profile_id", unit.ProfileID,
				"article", unit.Article,
				"error", err)
		}
		return nil
	})

	return nil
}

// PoolStats итог работы пула
type PoolStats struct {
	Handled  int64
	Failures int64
}

// Wait дожидается завершения всех переданных единиц
func (d *PoolDispatcher) Wait() PoolStats {
	_ = d.group.Wait()
	return PoolStats{Handled: d.handled.Load(), Failures: d.failures.Load()}
}
