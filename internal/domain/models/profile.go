package models

import "github.com/shopspring/decimal"

// Environment целевое окружение маркетплейса
type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentSandbox    Environment = "sandbox"
)

// IsProduction сообщает, разрешены ли запросы к боевому API
func (e Environment) IsProduction() bool {
	return e == EnvironmentProduction
}

// SellerProfile профиль продавца с токеном авторизации Ozon.
// Загружается один раз на запуск синхронизации и не изменяется.
type SellerProfile struct {
	ID          string      `json:"id"`
	Label       string      `json:"label"`
	ClientID    string      `json:"client_id"`
	Token       string      `json:"-"`
	Active      bool        `json:"active"`
	Environment Environment `json:"environment"`
	// MarkupPercent торговая надбавка к цене карточки в процентах
	MarkupPercent decimal.Decimal `json:"markup_percent"`
	WarehouseID   int64           `json:"warehouse_id"`
}
