package models

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductIdentity идентифицирует вариант локального продукта.
// Отсутствующий вариант хранится как uuid.Nil, а не как nil.
type ProductIdentity struct {
	ProductID         uuid.UUID `json:"product_id"`
	OfferConst        uuid.UUID `json:"offer_const"`
	VariationConst    uuid.UUID `json:"variation_const"`
	ModificationConst uuid.UUID `json:"modification_const"`
}

// HasOffer сообщает, задано ли торговое предложение
func (i ProductIdentity) HasOffer() bool { return i.OfferConst != uuid.Nil }

func (i ProductIdentity) HasVariation() bool { return i.VariationConst != uuid.Nil }

func (i ProductIdentity) HasModification() bool { return i.ModificationConst != uuid.Nil }

// Key возвращает стабильное строковое представление кортежа для ключей кэша и сообщений
func (i ProductIdentity) Key() string {
	parts := []string{i.ProductID.String(), "-", "-", "-"}
	if i.HasOffer() {
		parts[1] = i.OfferConst.String()
	}
	if i.HasVariation() {
		parts[2] = i.VariationConst.String()
	}
	if i.HasModification() {
		parts[3] = i.ModificationConst.String()
	}
	return strings.Join(parts, ":")
}

// Dimensions габариты упаковки товара
type Dimensions struct {
	Weight int `json:"weight"` // граммы
	Width  int `json:"width"`  // миллиметры
	Height int `json:"height"`
	Depth  int `json:"depth"`
}

// CardRecord карточка Ozon, собранная из данных локального продукта
type CardRecord struct {
	Identity ProductIdentity `json:"identity"`

	Article  string          `json:"article"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Barcode  string          `json:"barcode,omitempty"`

	CategoryID int64  `json:"category_id"`
	TypeID     int64  `json:"type_id"`
	TypeKey    string `json:"type_key,omitempty"`

	// Attributes сырые характеристики карточки: [{"id": ..., "value": ...}]
	Attributes json.RawMessage `json:"attributes,omitempty"`

	ProductName         string `json:"product_name"`
	OfferValue          string `json:"offer_value,omitempty"`
	OfferPostfix        string `json:"offer_postfix,omitempty"`
	VariationValue      string `json:"variation_value,omitempty"`
	VariationPostfix    string `json:"variation_postfix,omitempty"`
	ModificationValue   string `json:"modification_value,omitempty"`
	ModificationPostfix string `json:"modification_postfix,omitempty"`

	Dimensions Dimensions `json:"dimensions"`
	Images     []string   `json:"images,omitempty"`

	// MarketplaceProductID появляется после первой успешной выгрузки карточки
	MarketplaceProductID *int64 `json:"marketplace_product_id,omitempty"`
}

// HasPrice сообщает, готова ли карточка к синхронизации по цене
func (c *CardRecord) HasPrice() bool {
	return c.Price.IsPositive()
}

// CardState часто меняющиеся поля карточки. Читаются из хранилища при каждом
// обращении, даже если сама карточка взята из кэша.
type CardState struct {
	Price    decimal.Decimal
	Quantity int
}

// StockUpdateItem одна позиция обновления остатков
type StockUpdateItem struct {
	Article              string
	WarehouseID          int64
	Quantity             int
	MarketplaceProductID *int64
}
