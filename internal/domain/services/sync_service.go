package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/models"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/metrics"
	"github.com/athebyme/gomarket-platform/marketplace-service/pkg/interfaces"
)

const (
	lockKeyPrefix   = "sync:lock:"
	defaultLockTTL  = 30 * time.Minute
	defaultUnitKind = models.UnitStocks
)

// RunOptions параметры запуска синхронизации
type RunOptions struct {
	// Profile ID или название профиля; если пусто, все активные профили
	Profile string
	// Article фильтр по подстроке артикула без учета регистра
	Article string
	Kind    models.UnitKind
}

// SyncService перебирает варианты продуктов профиля и передает их на синхронизацию
type SyncService struct {
	profiles   ProfileRepository
	identities IdentityLister
	cards      CardResolver
	dispatcher Dispatcher
	locker     interfaces.CachePort
	lockTTL    time.Duration
	logger     interfaces.LoggerPort
}

// Option настраивает SyncService
type Option func(*SyncService)

// WithLocker включает блокировку профиля на время запуска
func WithLocker(locker interfaces.CachePort, ttl time.Duration) Option {
	return func(s *SyncService) {
		s.locker = locker
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// NewSyncService создает новый экземпляр SyncService
func NewSyncService(
	profiles ProfileRepository,
	identities IdentityLister,
	cards CardResolver,
	dispatcher Dispatcher,
	logger interfaces.LoggerPort,
	opts ...Option,
) *SyncService {
	s := &SyncService{
		profiles:   profiles,
		identities: identities,
		cards:      cards,
		dispatcher: dispatcher,
		lockTTL:    defaultLockTTL,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run выполняет синхронизацию выбранных профилей.
// Ошибка возвращается только если профили выбрать не удалось; ошибки отдельных
// вариантов попадают в отчет. Отмененный контекст завершает запуск между
// вариантами, отчет при этом содержит уже накопленные результаты.
func (s *SyncService) Run(ctx context.Context, opts RunOptions, progress Progress) (*models.RunReport, error) {
	if progress == nil {
		progress = NopProgress{}
	}
	if opts.Kind == "" {
		opts.Kind = defaultUnitKind
	}

	profiles, err := s.SelectProfiles(ctx, opts.Profile)
	if err != nil {
		return nil, err
	}

	report := &models.RunReport{}
	for _, profile := range profiles {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}

		progress.ProfileStarted(profile)
		profileReport, cancelled := s.runProfile(ctx, profile, opts, progress)
		report.Profiles = append(report.Profiles, profileReport)
		progress.ProfileFinished(profileReport)

		if cancelled {
			report.Cancelled = true
			break
		}
	}

	s.logger.InfoWithContext(ctx, "Синхронизация завершена",
		"profiles", len(report.Profiles),
		"success", report.Success(),
		"failed", report.Failed(),
		"cancelled", report.Cancelled)

	return report, nil
}

// SelectProfiles возвращает профили для обработки. Явный выбор имеет приоритет
// над списком всех активных профилей.
func (s *SyncService) SelectProfiles(ctx context.Context, choice string) ([]models.SellerProfile, error) {
	active, err := s.profiles.ListActiveProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	choice = strings.TrimSpace(choice)
	if choice == "" {
		if len(active) == 0 {
			return nil, ErrNoProfiles
		}
		return active, nil
	}

	for _, p := range active {
		if p.ID == choice || strings.EqualFold(p.Label, choice) {
			return []models.SellerProfile{p}, nil
		}
	}

	// Неактивный профиль можно выбрать только по ID
	profile, err := s.profiles.GetProfile(ctx, choice)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", choice, err)
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, choice)
	}

	return []models.SellerProfile{*profile}, nil
}

// runProfile обрабатывает варианты одного профиля. Второе значение сообщает об отмене.
func (s *SyncService) runProfile(ctx context.Context, profile models.SellerProfile, opts RunOptions, progress Progress) (*models.ProfileReport, bool) {
	report := models.NewProfileReport(profile)
	logger := s.logger.WithProfile(profile.ID)

	// Не даем двум запускам одновременно обрабатывать один профиль
	if s.locker != nil {
		key := lockKeyPrefix + profile.ID
		acquired, err := s.locker.Lock(ctx, key, s.lockTTL)
		if err != nil {
			logger.WarnWithContext(ctx, "Не удалось получить блокировку профиля", "error", err)
			report.Error = err.Error()
			return report, false
		}
		if !acquired {
			logger.WarnWithContext(ctx, "Профиль уже синхронизируется другим процессом")
			report.Locked = true
			return report, false
		}
		defer func() {
			if err := s.locker.Unlock(context.WithoutCancel(ctx), key); err != nil {
				logger.Warn("Не удалось снять блокировку профиля", "error", err)
			}
		}()
	}

	identities, err := s.identities.ListAllIdentities(ctx)
	if err != nil {
		logger.ErrorWithContext(ctx, "Не удалось получить список продуктов", "error", err)
		report.Error = err.Error()
		return report, false
	}
	if len(identities) == 0 {
		logger.WarnWithContext(ctx, "Карточек для обновления не найдено")
		report.NothingToSync = true
		return report, false
	}

	filter := strings.ToLower(strings.TrimSpace(opts.Article))

	for _, identity := range identities {
		if ctx.Err() != nil {
			logger.WarnWithContext(ctx, "Синхронизация профиля прервана", "processed", len(report.Results))
			return report, true
		}

		result, recorded := s.processIdentity(ctx, profile, identity, filter, opts.Kind)
		if !recorded {
			report.FilteredOut++
			continue
		}

		report.Record(result)
		metrics.RecordSyncResult(profile.ID, string(result.Kind), resultReason(result))
		progress.UnitProcessed(profile, result)
	}

	return report, false
}

// processIdentity проверяет вариант и передает его на выполнение.
// false означает, что вариант отсеян фильтром артикула и в отчет не попадает.
func (s *SyncService) processIdentity(ctx context.Context, profile models.SellerProfile, identity models.ProductIdentity, filter string, kind models.UnitKind) (models.SyncResult, bool) {
	card, err := s.cards.FindCard(ctx, profile.ID, identity)
	if err != nil {
		return models.Failed(identity, "", models.ErrorKindLookup, err.Error()), true
	}
	if card == nil {
		return models.Skipped(identity, "", models.ReasonNoCardFound), true
	}

	if filter != "" && !strings.Contains(strings.ToLower(card.Article), filter) {
		return models.SyncResult{}, false
	}

	if !card.HasPrice() {
		return models.Skipped(identity, card.Article, models.ReasonNoPrice), true
	}

	unit := models.NewSyncUnit(kind, profile.ID, identity, card.Article)
	if err := s.dispatcher.Dispatch(ctx, unit); err != nil {
		s.logger.WithProfile(profile.ID).ErrorWithContext(ctx, "Ошибка синхронизации варианта",
			"article", card.Article,
			"unit_id", unit.ID.String(),
			"error", err)
		return models.Failed(identity, card.Article, errorKindOf(err), err.Error()), true
	}

	return models.Enqueued(identity, card.Article), true
}

func resultReason(result models.SyncResult) string {
	if result.Kind == models.ResultFailed {
		return result.ErrorKind
	}
	return string(result.Reason)
}

// IsRunFatal сообщает, что ошибка Run относится к выбору профилей
func IsRunFatal(err error) bool {
	return errors.Is(err, ErrNoProfiles) || errors.Is(err, ErrProfileNotFound)
}
