package ozon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/attributes"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/models"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/naming"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/pricing"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/metrics"
	"github.com/athebyme/gomarket-platform/marketplace-service/pkg/interfaces"
	"github.com/shopspring/decimal"
)

// CallStatus показывает, выполнялся ли удаленный вызов
type CallStatus string

const (
	StatusExecuted CallStatus = "executed"
	// StatusGated вызов не выполнялся: окружение не production
	StatusGated CallStatus = "gated"
)

const (
	currencyRUB = "RUB"
	defaultVAT  = "0"
)

// UpsertResult результат выгрузки карточки.
// Для StatusExecuted задан ровно один из ProductID и TaskID: TaskID означает,
// что Ozon принял импорт в очередь и идентификатор товара еще не присвоен.
type UpsertResult struct {
	Status    CallStatus
	ProductID int64
	TaskID    int64
}

// AttributeValue значение характеристики в формате Seller API
type AttributeValue struct {
	Value string `json:"value"`
}

// AttributePayload характеристика карточки
type AttributePayload struct {
	ID        string           `json:"id"`
	ComplexID int              `json:"complex_id"`
	Values    []AttributeValue `json:"values"`
}

// CardPayload элемент items запроса /v3/product/import
type CardPayload struct {
	OfferID               string             `json:"offer_id"`
	Name                  string             `json:"name"`
	Price                 string             `json:"price"`
	CurrencyCode          string             `json:"currency_code"`
	VAT                   string             `json:"vat"`
	DescriptionCategoryID int64              `json:"description_category_id"`
	TypeID                int64              `json:"type_id"`
	Barcode               string             `json:"barcode,omitempty"`
	Weight                int                `json:"weight"`
	WeightUnit            string             `json:"weight_unit"`
	Width                 int                `json:"width"`
	Height                int                `json:"height"`
	Depth                 int                `json:"depth"`
	DimensionUnit         string             `json:"dimension_unit"`
	Images                []string           `json:"images"`
	Attributes            []AttributePayload `json:"attributes"`
}

type cardImportRequest struct {
	Items []CardPayload `json:"items"`
}

// CardUpsertRequest создает или обновляет карточку товара в Ozon
type CardUpsertRequest struct {
	client   *Client
	composer *naming.Composer
	markup   pricing.Markup
	logger   interfaces.LoggerPort
}

// NewCardUpsertRequest создает запрос выгрузки карточки
func NewCardUpsertRequest(client *Client, composer *naming.Composer, markup pricing.Markup, logger interfaces.LoggerPort) *CardUpsertRequest {
	return &CardUpsertRequest{
		client:   client,
		composer: composer,
		markup:   markup,
		logger:   logger,
	}
}

// Build собирает тело карточки без обращения к сети.
// Повторный вызов с теми же данными дает тот же результат.
func (r *CardUpsertRequest) Build(profile models.SellerProfile, card *models.CardRecord) (CardPayload, error) {
	if card == nil || !card.HasPrice() {
		return CardPayload{}, ErrNotReady
	}

	price := card.Price
	if profile.MarkupPercent.IsPositive() {
		marked, ok := r.markup.Apply(card.Price, profile.MarkupPercent)
		if !ok {
			return CardPayload{}, ErrNotReady
		}
		price = marked
	}

	name, err := r.composer.Compose(card)
	if err != nil {
		return CardPayload{}, err
	}

	attrs, err := attributes.Parse(card.Attributes)
	if err != nil {
		return CardPayload{}, err
	}

	images := card.Images
	if images == nil {
		images = []string{}
	}

	return CardPayload{
		OfferID:               card.Article,
		Name:                  name,
		Price:                 formatPrice(price),
		CurrencyCode:          currencyRUB,
		VAT:                   defaultVAT,
		DescriptionCategoryID: card.CategoryID,
		TypeID:                card.TypeID,
		Barcode:               card.Barcode,
		Weight:                card.Dimensions.Weight,
		WeightUnit:            "g",
		Width:                 card.Dimensions.Width,
		Height:                card.Dimensions.Height,
		Depth:                 card.Dimensions.Depth,
		DimensionUnit:         "mm",
		Images:                images,
		Attributes:            toAttributePayload(attrs),
	}, nil
}

// Upsert выгружает карточку. В не production окружении возвращает StatusGated
// без сетевого вызова.
func (r *CardUpsertRequest) Upsert(ctx context.Context, profile models.SellerProfile, card *models.CardRecord) (UpsertResult, error) {
	if !r.client.Executes(profile) {
		r.logger.DebugWithContext(ctx, "Выгрузка карточки пропущена: окружение не production",
			"profile_id", profile.ID)
		metrics.RecordGatedRequest(cardImportPath)
		return UpsertResult{Status: StatusGated}, nil
	}

	payload, err := r.Build(profile, card)
	if err != nil {
		return UpsertResult{}, err
	}

	resp, err := r.client.post(ctx, profile, cardImportPath, cardImportRequest{Items: []CardPayload{payload}})
	if err != nil {
		return UpsertResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		remote := rejected(cardImportPath, resp.StatusCode, resp.Body)
		r.logger.ErrorWithContext(ctx, "Ozon отклонил карточку",
			"profile_id", profile.ID,
			"offer_id", payload.OfferID,
			"status", resp.StatusCode,
			"code", remote.Code,
			"message", remote.Message)
		return UpsertResult{}, remote
	}

	var content struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
		return UpsertResult{}, malformed(cardImportPath, resp.StatusCode, "decode body: %v", err)
	}

	productID, taskID, err := parseImportResult(content.Result)
	if err != nil {
		return UpsertResult{}, malformed(cardImportPath, resp.StatusCode, "%v", err)
	}

	return UpsertResult{Status: StatusExecuted, ProductID: productID, TaskID: taskID}, nil
}

// parseImportResult разбирает result. Список содержит идентификаторы товаров,
// берется первый. Объект {"task_id": ...} означает, что импорт поставлен в
// очередь и идентификатор товара еще не известен.
func parseImportResult(raw json.RawMessage) (productID, taskID int64, err error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, 0, fmt.Errorf("result is missing")
	}

	var ids []int64
	if err := json.Unmarshal(raw, &ids); err == nil {
		if len(ids) == 0 {
			return 0, 0, fmt.Errorf("result is empty")
		}
		return ids[0], 0, nil
	}

	var task struct {
		TaskID int64 `json:"task_id"`
	}
	if err := json.Unmarshal(raw, &task); err == nil && task.TaskID != 0 {
		return 0, task.TaskID, nil
	}

	return 0, 0, fmt.Errorf("unexpected result: %s", string(raw))
}

func toAttributePayload(attrs []attributes.Attribute) []AttributePayload {
	out := make([]AttributePayload, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, AttributePayload{
			ID:     a.ID,
			Values: []AttributeValue{{Value: a.Value}},
		})
	}
	return out
}

func formatPrice(price decimal.Decimal) string {
	return price.String()
}
