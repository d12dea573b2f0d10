package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/models"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/services"
	"github.com/athebyme/gomarket-platform/marketplace-service/pkg/interfaces"
)

// CardSource полная карточка и ее текущие цена и остаток
type CardSource interface {
	services.CardResolver
	FindCardState(ctx context.Context, profileID string, identity models.ProductIdentity) (*models.CardState, error)
}

// CachedCardResolver кэширует описательную часть карточки (название, характеристики,
// габариты). Цена и остаток всегда читаются из источника. Отсутствие карточки
// не кэшируется, чтобы новая карточка была видна при следующем запуске.
type CachedCardResolver struct {
	next   CardSource
	cache  interfaces.CachePort
	ttl    time.Duration
	logger interfaces.LoggerPort
}

func NewCachedCardResolver(next CardSource, cache interfaces.CachePort, ttl time.Duration, logger interfaces.LoggerPort) *CachedCardResolver {
	return &CachedCardResolver{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (r *CachedCardResolver) FindCard(ctx context.Context, profileID string, identity models.ProductIdentity) (*models.CardRecord, error) {
	key := services.CardCacheKey(profileID, identity)

	raw, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		var card models.CardRecord
		if err := json.Unmarshal(raw, &card); err == nil {
			return r.refresh(ctx, key, profileID, identity, &card)
		}
		r.logger.WarnWithContext(ctx, "Некорректная карточка в кэше", "key", key)
	case !errors.Is(err, interfaces.ErrCacheMiss):
		r.logger.WarnWithContext(ctx, "Ошибка чтения кэша карточек", "key", key, "error", err)
	}

	card, err := r.next.FindCard(ctx, profileID, identity)
	if err != nil || card == nil {
		return card, err
	}

	if raw, err := json.Marshal(card); err == nil {
		if err := r.cache.Set(ctx, key, raw, r.ttl); err != nil {
			r.logger.WarnWithContext(ctx, "Ошибка записи кэша карточек", "key", key, "error", err)
		}
	}

	return card, nil
}

// refresh подставляет в карточку из кэша текущие цену и остаток
func (r *CachedCardResolver) refresh(ctx context.Context, key, profileID string, identity models.ProductIdentity, card *models.CardRecord) (*models.CardRecord, error) {
	state, err := r.next.FindCardState(ctx, profileID, identity)
	if err != nil {
		return nil, err
	}
	if state == nil {
		// Карточку удалили, пока она лежала в кэше
		if err := r.cache.Delete(ctx, key); err != nil {
			r.logger.WarnWithContext(ctx, "Не удалось сбросить кэш карточки", "key", key, "error", err)
		}
		return nil, nil
	}

	card.Price = state.Price
	card.Quantity = state.Quantity
	return card, nil
}
