package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/athebyme/gomarket-platform/marketplace-service/internal/adapters/logger"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/adapters/messaging"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/models"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/services"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/metrics"
	"github.com/athebyme/gomarket-platform/marketplace-service/pkg/interfaces"
)

// KafkaDispatcher публикует единицу в топик синхронизации.
// Ключом сообщения служит ID профиля, поэтому единицы профиля попадают в одну партицию.
type KafkaDispatcher struct {
	messaging interfaces.MessagingPort
	topic     string
}

func NewKafkaDispatcher(messaging interfaces.MessagingPort, topic string) *KafkaDispatcher {
	return &KafkaDispatcher{messaging: messaging, topic: topic}
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, unit models.SyncUnit) error {
	payload, err := json.Marshal(unit)
	if err != nil {
		return fmt.Errorf("failed to encode sync unit: %w", err)
	}

	headers := map[string]string{
		messaging.HeaderUnitKind:  string(unit.Kind),
		messaging.HeaderProfileID: unit.ProfileID,
		messaging.HeaderUnitID:    unit.ID.String(),
	}

	if err := d.messaging.PublishWithKey(ctx, d.topic, unit.ProfileID, payload, headers); err != nil {
		return fmt.Errorf("failed to publish sync unit: %w", err)
	}
	return nil
}

// UnitMessageHandler разбирает сообщение топика синхронизации и выполняет единицу.
// Ошибка обработки возвращается консьюмеру.
func UnitMessageHandler(handler services.UnitHandler, log interfaces.LoggerPort) interfaces.MessageHandler {
	return func(ctx context.Context, msg *interfaces.Message) error {
		var unit models.SyncUnit
		if err := json.Unmarshal(msg.Value, &unit); err != nil {
			log.ErrorWithContext(ctx, "Некорректное сообщение синхронизации",
				"message_id", msg.ID, "error", err)
			return fmt.Errorf("failed to decode sync unit: %w", err)
		}

		ctx = context.WithValue(ctx, logger.UnitIDKey, unit.ID.String())
		ctx = context.WithValue(ctx, logger.ProfileIDKey, unit.ProfileID)

		done := metrics.TrackUnit(string(unit.Kind))
		err := handler.Handle(ctx, unit)
		done(err)

		if err != nil {
			log.ErrorWithContext(ctx, "Ошибка обработки единицы синхронизации",
				"unit_id", unit.ID.String(),
				"profile_id", unit.ProfileID,
				"article", unit.Article,
				"error", err)
		}
		return err
	}
}
