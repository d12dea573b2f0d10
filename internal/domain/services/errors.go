package services

import (
	"errors"

	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/models"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/marketplace/ozon"
)

var (
	// ErrNoProfiles нет ни одного профиля для синхронизации; запуск прерывается
	ErrNoProfiles = errors.New("no seller profiles available")
	// ErrProfileNotFound явно выбранный профиль не найден
	ErrProfileNotFound = errors.New("seller profile not found")
	// ErrCardNotFound карточка исчезла между постановкой в очередь и выполнением
	ErrCardNotFound = errors.New("card not found")
	// ErrConstruction данные карточки не позволяют собрать запрос
	ErrConstruction = errors.New("cannot build marketplace request")
	// ErrUnknownUnit тип единицы не поддерживается
	ErrUnknownUnit = errors.New("unknown sync unit kind")
)

// errorKindOf относит ошибку выполнения единицы к одному из видов отчета
func errorKindOf(err error) string {
	if kind, ok := ozon.ErrorKindOf(err); ok {
		return string(kind)
	}
	switch {
	case errors.Is(err, ErrConstruction):
		return models.ErrorKindConstruction
	case errors.Is(err, ErrCardNotFound), errors.Is(err, ErrProfileNotFound):
		return models.ErrorKindLookup
	}
	return models.ErrorKindDispatch
}
