package ozon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"net/http"

	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/models"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/metrics"
	"github.com/athebyme/gomarket-platform/marketplace-service/pkg/interfaces"
)

// ErrNegativeQuantity остаток не может быть отрицательным
var ErrNegativeQuantity = errors.New("stock quantity must not be negative")

// StockAckError ошибка обновления остатка по одной позиции
type StockAckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StockAck подтверждение обновления остатка одной позиции
type StockAck struct {
	OfferID     string          `json:"offer_id"`
	ProductID   int64           `json:"product_id"`
	WarehouseID int64           `json:"warehouse_id"`
	Updated     bool            `json:"updated"`
	Errors      []StockAckError `json:"errors"`
}

type stockPayload struct {
	OfferID     string `json:"offer_id"`
	ProductID   *int64 `json:"product_id,omitempty"`
	Stock       int    `json:"stock"`
	WarehouseID int64  `json:"warehouse_id"`
}

type stocksRequest struct {
	Stocks []stockPayload `json:"stocks"`
}

// StockUpdateRequest обновляет остаток одной позиции на складе продавца
type StockUpdateRequest struct {
	client *Client
	logger interfaces.LoggerPort
}

func NewStockUpdateRequest(client *Client, logger interfaces.LoggerPort) *StockUpdateRequest {
	return &StockUpdateRequest{client: client, logger: logger}
}

// Update отправляет остаток. Подтверждения читаются лениво через StockAcks.All,
// после чтения тело ответа закрывается. Для не production окружения
// возвращается пустая последовательность с Gated() == true.
func (r *StockUpdateRequest) Update(ctx context.Context, profile models.SellerProfile, item models.StockUpdateItem) (*StockAcks, error) {
	if !r.client.Executes(profile) {
		r.logger.DebugWithContext(ctx, "Обновление остатков пропущено: окружение не production",
			"profile_id", profile.ID)
		metrics.RecordGatedRequest(stocksUpdatePath)
		return &StockAcks{gated: true}, nil
	}

	if item.Quantity < 0 {
		return nil, ErrNegativeQuantity
	}

	payload := stocksRequest{Stocks: []stockPayload{{
		OfferID:     item.Article,
		ProductID:   item.MarketplaceProductID,
		Stock:       item.Quantity,
		WarehouseID: item.WarehouseID,
	}}}

	resp, err := r.client.post(ctx, profile, stocksUpdatePath, payload)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		remote := rejected(stocksUpdatePath, resp.StatusCode, resp.Body)
		r.logger.ErrorWithContext(ctx, "Ozon отклонил обновление остатков",
			"profile_id", profile.ID,
			"offer_id", item.Article,
			"status", resp.StatusCode,
			"code", remote.Code,
			"message", remote.Message)
		return nil, remote
	}

	dec := json.NewDecoder(resp.Body)
	if err := seekArray(dec, "result"); err != nil {
		resp.Body.Close()
		return nil, malformed(stocksUpdatePath, resp.StatusCode, "%v", err)
	}

	return &StockAcks{dec: dec, body: resp.Body, status: resp.StatusCode}, nil
}

// seekArray продвигает декодер до открывающей скобки массива по ключу верхнего уровня
func seekArray(dec *json.Decoder, key string) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("response is not an object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		if name != key {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return err
			}
			continue
		}

		tok, err = dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok && d == '[' {
			return nil
		}
		return errors.New(key + " is not a list")
	}

	return errors.New(key + " is missing")
}

// StockAcks последовательность подтверждений одного ответа.
// Читается один раз: повторный вызов All ничего не возвращает.
type StockAcks struct {
	gated  bool
	dec    *json.Decoder
	body   io.Closer
	status int
	used   bool
	closed bool
}

// Gated сообщает, что вызов не выполнялся
func (a *StockAcks) Gated() bool {
	return a != nil && a.gated
}

// All возвращает подтверждения по мере чтения ответа
func (a *StockAcks) All() iter.Seq2[StockAck, error] {
	return func(yield func(StockAck, error) bool) {
		if a == nil || a.gated || a.used || a.dec == nil {
			return
		}
		a.used = true
		defer a.Close()

		for a.dec.More() {
			var ack StockAck
			if err := a.dec.Decode(&ack); err != nil {
				yield(StockAck{}, malformed(stocksUpdatePath, a.status, "decode ack: %v", err))
				return
			}
			if !yield(ack, nil) {
				return
			}
		}

		if _, err := a.dec.Token(); err != nil {
			yield(StockAck{}, malformed(stocksUpdatePath, a.status, "read list end: %v", err))
		}
	}
}

// Collect читает все подтверждения до первой ошибки
func (a *StockAcks) Collect() ([]StockAck, error) {
	var acks []StockAck
	for ack, err := range a.All() {
		if err != nil {
			return acks, err
		}
		acks = append(acks, ack)
	}
	return acks, nil
}

// Close освобождает тело ответа, если последовательность не дочитана
func (a *StockAcks) Close() error {
	if a == nil || a.closed || a.body == nil {
		return nil
	}
	a.closed = true
	return a.body.Close()
}
