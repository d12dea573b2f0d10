package services

import (
	"context"

	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/models"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/marketplace/ozon"
)

// ProfileRepository источник профилей продавцов
type ProfileRepository interface {
	// ListActiveProfiles возвращает активные профили в порядке выдачи
	ListActiveProfiles(ctx context.Context) ([]models.SellerProfile, error)
	// GetProfile возвращает профиль по ID или nil, если его нет
	GetProfile(ctx context.Context, id string) (*models.SellerProfile, error)
}

// IdentityLister перечисляет все локальные варианты продуктов.
// Пустой список означает, что синхронизировать нечего.
type IdentityLister interface {
	ListAllIdentities(ctx context.Context) ([]models.ProductIdentity, error)
}

// CardResolver находит карточку варианта. nil без ошибки означает, что карточки нет.
type CardResolver interface {
	FindCard(ctx context.Context, profileID string, identity models.ProductIdentity) (*models.CardRecord, error)
}

// CardWriter сохраняет идентификатор, присвоенный маркетплейсом
type CardWriter interface {
	SaveMarketplaceProductID(ctx context.Context, profileID string, identity models.ProductIdentity, productID int64) error
}

// Dispatcher передает единицу синхронизации на выполнение.
// Успешная передача не означает успех на стороне маркетплейса.
type Dispatcher interface {
	Dispatch(ctx context.Context, unit models.SyncUnit) error
}

// UnitHandler выполняет единицу синхронизации
type UnitHandler interface {
	Handle(ctx context.Context, unit models.SyncUnit) error
}

// StockUpdater отправляет остаток одной позиции
type StockUpdater interface {
	Update(ctx context.Context, profile models.SellerProfile, item models.StockUpdateItem) (*ozon.StockAcks, error)
}

// CardUpserter выгружает карточку
type CardUpserter interface {
	Upsert(ctx context.Context, profile models.SellerProfile, card *models.CardRecord) (ozon.UpsertResult, error)
}

// Progress получает построчную обратную связь запуска
type Progress interface {
	ProfileStarted(profile models.SellerProfile)
	UnitProcessed(profile models.SellerProfile, result models.SyncResult)
	ProfileFinished(report *models.ProfileReport)
}

// NopProgress ничего не выводит
type NopProgress struct{}

func (NopProgress) ProfileStarted(models.SellerProfile)                   {}
func (NopProgress) UnitProcessed(models.SellerProfile, models.SyncResult) {}
func (NopProgress) ProfileFinished(*models.ProfileReport)                 {}
