package services

import (
	"context"
	"sync"

	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeProfiles struct {
	active []models.SellerProfile
	all    map[string]models.SellerProfile
}

func newFakeProfiles(profiles ...models.SellerProfile) *fakeProfiles {
	f := &fakeProfiles{all: make(map[string]models.SellerProfile)}
	for _, p := range profiles {
		f.all[p.ID] = p
		if p.Active {
			f.active = append(f.active, p)
		}
	}
	return f
}

func (f *fakeProfiles) ListActiveProfiles(context.Context) ([]models.SellerProfile, error) {
	return f.active, nil
}

func (f *fakeProfiles) GetProfile(_ context.Context, id string) (*models.SellerProfile, error) {
	p, ok := f.all[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

type fakeIdentities []models.ProductIdentity

func (f fakeIdentities) ListAllIdentities(context.Context) ([]models.ProductIdentity, error) {
	return f, nil
}

type fakeCards struct {
	mu    sync.Mutex
	cards map[models.ProductIdentity]*models.CardRecord
	saved map[models.ProductIdentity]int64
	calls int
}

func newFakeCards() *fakeCards {
	return &fakeCards{
		cards: make(map[models.ProductIdentity]*models.CardRecord),
		saved: make(map[models.ProductIdentity]int64),
	}
}

// add регистрирует карточку и возвращает идентификатор ее варианта
func (f *fakeCards) add(article string, price int64) models.ProductIdentity {
	id := models.ProductIdentity{ProductID: uuid.New()}
	f.cards[id] = &models.CardRecord{
		Identity:    id,
		Article:     article,
		Price:       decimal.NewFromInt(price),
		Quantity:    5,
		CategoryID:  17027495,
		TypeID:      94765,
		ProductName: "Product " + article,
	}
	return id
}

func (f *fakeCards) FindCard(_ context.Context, _ string, identity models.ProductIdentity) (*models.CardRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	card, ok := f.cards[identity]
	if !ok {
		return nil, nil
	}
	cp := *card
	return &cp, nil
}

func (f *fakeCards) SaveMarketplaceProductID(_ context.Context, _ string, identity models.ProductIdentity, productID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[identity] = productID
	return nil
}

type recordingDispatcher struct {
	units []models.SyncUnit
	err   error
	after func(n int)
}

func (d *recordingDispatcher) Dispatch(_ context.Context, unit models.SyncUnit) error {
	d.units = append(d.units, unit)
	if d.after != nil {
		d.after(len(d.units))
	}
	return d.err
}

type recordingProgress struct {
	started  []string
	units    []models.SyncResult
	finished []*models.ProfileReport
}

func (p *recordingProgress) ProfileStarted(profile models.SellerProfile) {
	p.started = append(p.started, profile.ID)
}

func (p *recordingProgress) UnitProcessed(_ models.SellerProfile, result models.SyncResult) {
	p.units = append(p.units, result)
}

func (p *recordingProgress) ProfileFinished(report *models.ProfileReport) {
	p.finished = append(p.finished, report)
}

func testProfile(id string) models.SellerProfile {
	return models.SellerProfile{
		ID:            id,
		Label:         "Label " + id,
		ClientID:      "client-" + id,
		Token:         "token-" + id,
		Active:        true,
		Environment:   models.EnvironmentProduction,
		MarkupPercent: decimal.NewFromInt(10),
		WarehouseID:   100,
	}
}
