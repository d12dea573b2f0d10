package services

import (
	"context"
	"fmt"

	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/models"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/marketplace/ozon"
	"github.com/athebyme/gomarket-platform/marketplace-service/pkg/interfaces"
)

// StockSyncHandler выполняет единицу синхронизации остатков
type StockSyncHandler struct {
	profiles ProfileRepository
	cards    CardResolver
	stocks   StockUpdater
	logger   interfaces.LoggerPort
}

func NewStockSyncHandler(profiles ProfileRepository, cards CardResolver, stocks StockUpdater, logger interfaces.LoggerPort) *StockSyncHandler {
	return &StockSyncHandler{profiles: profiles, cards: cards, stocks: stocks, logger: logger}
}

// Handle отправляет текущий остаток варианта и разбирает подтверждения.
// Отказ маркетплейса возвращается вызывающему без повторов.
func (h *StockSyncHandler) Handle(ctx context.Context, unit models.SyncUnit) error {
	profile, card, err := loadUnit(ctx, h.profiles, h.cards, unit)
	if err != nil {
		return err
	}

	// Отрицательный остаток в учете отправляем как ноль
	quantity := card.Quantity
	if quantity < 0 {
		quantity = 0
	}

	item := models.StockUpdateItem{
		Article:              card.Article,
		WarehouseID:          profile.WarehouseID,
		Quantity:             quantity,
		MarketplaceProductID: card.MarketplaceProductID,
	}

	acks, err := h.stocks.Update(ctx, *profile, item)
	if err != nil {
		return fmt.Errorf("stock update %s: %w", card.Article, err)
	}
	defer acks.Close()

	if acks.Gated() {
		h.logger.DebugWithContext(ctx, "Остатки не отправлялись: окружение не production",
			"profile_id", profile.ID, "article", card.Article)
		return nil
	}

	logger := h.logger.WithProfile(profile.ID)
	for ack, err := range acks.All() {
		if err != nil {
			return fmt.Errorf("stock update %s: %w", card.Article, err)
		}
		if len(ack.Errors) > 0 {
			for _, e := range ack.Errors {
				logger.WarnWithContext(ctx, "Ozon не обновил остаток",
					"offer_id", ack.OfferID, "code", e.Code, "message", e.Message)
			}
			continue
		}
		logger.InfoWithContext(ctx, fmt.Sprintf("Обновили остатки %s", ack.OfferID),
			"product_id", ack.ProductID, "warehouse_id", ack.WarehouseID, "stock", quantity)
	}

	return nil
}

// CardSyncHandler выполняет единицу выгрузки карточки
type CardSyncHandler struct {
	profiles ProfileRepository
	cards    CardResolver
	writer   CardWriter
	upserter CardUpserter
	cache    interfaces.CachePort
	logger   interfaces.LoggerPort
}

// NewCardSyncHandler создает обработчик карточек. cache может быть nil.
func NewCardSyncHandler(profiles ProfileRepository, cards CardResolver, writer CardWriter, upserter CardUpserter, cache interfaces.CachePort, logger interfaces.LoggerPort) *CardSyncHandler {
	return &CardSyncHandler{profiles: profiles, cards: cards, writer: writer, upserter: upserter, cache: cache, logger: logger}
}

// Handle выгружает карточку и сохраняет присвоенный идентификатор
func (h *CardSyncHandler) Handle(ctx context.Context, unit models.SyncUnit) error {
	profile, card, err := loadUnit(ctx, h.profiles, h.cards, unit)
	if err != nil {
		return err
	}

	result, err := h.upserter.Upsert(ctx, *profile, card)
	if err != nil {
		if _, remote := ozon.ErrorKindOf(err); remote {
			return fmt.Errorf("card upsert %s: %w", card.Article, err)
		}
		return fmt.Errorf("%w: %s: %w", ErrConstruction, card.Article, err)
	}

	if result.Status == ozon.StatusGated {
		h.logger.DebugWithContext(ctx, "Карточка не выгружалась: окружение не production",
			"profile_id", profile.ID, "article", card.Article)
		return nil
	}

	// Идентификатор задачи импорта не является идентификатором товара и не сохраняется
	if result.ProductID != 0 {
		if err := h.writer.SaveMarketplaceProductID(ctx, profile.ID, unit.Identity, result.ProductID); err != nil {
			return fmt.Errorf("failed to save marketplace product id: %w", err)
		}
	}

	if h.cache != nil {
		if err := h.cache.Delete(ctx, CardCacheKey(profile.ID, unit.Identity)); err != nil {
			h.logger.WarnWithContext(ctx, "Не удалось сбросить кэш карточки", "error", err)
		}
	}

	if result.ProductID == 0 {
		h.logger.WithProfile(profile.ID).InfoWithContext(ctx, "Карточка принята в обработку",
			"article", card.Article, "task_id", result.TaskID)
		return nil
	}

	h.logger.WithProfile(profile.ID).InfoWithContext(ctx, "Карточка выгружена",
		"article", card.Article, "product_id", result.ProductID)

	return nil
}

// Router направляет единицу обработчику по ее типу
type Router struct {
	handlers map[models.UnitKind]UnitHandler
}

func NewRouter(stocks, cards UnitHandler) *Router {
	return &Router{handlers: map[models.UnitKind]UnitHandler{
		models.UnitStocks: stocks,
		models.UnitCard:   cards,
	}}
}

func (r *Router) Handle(ctx context.Context, unit models.SyncUnit) error {
	handler, ok := r.handlers[unit.Kind]
	if !ok || handler == nil {
		return fmt.Errorf("%w: %q", ErrUnknownUnit, unit.Kind)
	}
	return handler.Handle(ctx, unit)
}

// CardCacheKey ключ кэша карточки варианта
func CardCacheKey(profileID string, identity models.ProductIdentity) string {
	return "card:" + profileID + ":" + identity.Key()
}

func loadUnit(ctx context.Context, profiles ProfileRepository, cards CardResolver, unit models.SyncUnit) (*models.SellerProfile, *models.CardRecord, error) {
	profile, err := profiles.GetProfile(ctx, unit.ProfileID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrProfileNotFound, unit.ProfileID)
	}

	card, err := cards.FindCard(ctx, unit.ProfileID, unit.Identity)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find card: %w", err)
	}
	if card == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrCardNotFound, unit.Identity.Key())
	}

	return profile, card, nil
}
