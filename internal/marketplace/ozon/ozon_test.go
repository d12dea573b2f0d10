package ozon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/athebyme/gomarket-platform/marketplace-service/internal/adapters/logger"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/models"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/naming"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

func productionProfile() models.SellerProfile {
	return models.SellerProfile{
		ID:            "p1",
		Label:         "Main",
		ClientID:      "client-1",
		Token:         "secret",
		Active:        true,
		Environment:   models.EnvironmentProduction,
		MarkupPercent: decimal.NewFromInt(10),
		WarehouseID:   77,
	}
}

func newTestClient(t *testing.T, env models.Environment, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := NewClientWithHTTP(Config{BaseURL: srv.URL, Environment: env}, srv.Client(), logger.NewNopLogger())
	return client, &calls
}

func testCard() *models.CardRecord {
	return &models.CardRecord{
		Article:     "PG-2404С1",
		Price:       decimal.NewFromInt(100),
		CategoryID:  17027495,
		TypeID:      94765,
		ProductName: "Triangle TR259",
		Attributes:  json.RawMessage(`[{"id": 4495, "value": "winter"}]`),
		Dimensions:  models.Dimensions{Weight: 9000, Width: 600, Height: 600, Depth: 200},
	}
}

func TestStockUpdateGatedMakesNoCalls(t *testing.T) {
	for _, tc := range []struct {
		name       string
		processEnv models.Environment
		profileEnv models.Environment
	}{
		{"sandbox process", models.EnvironmentSandbox, models.EnvironmentProduction},
		{"sandbox profile", models.EnvironmentProduction, models.EnvironmentSandbox},
	} {
		t.Run(tc.name, func(t *testing.T) {
			client, calls := newTestClient(t, tc.processEnv, func(w http.ResponseWriter, r *http.Request) {})
			profile := productionProfile()
			profile.Environment = tc.profileEnv

			acks, err := NewStockUpdateRequest(client, logger.NewNopLogger()).
				Update(context.Background(), profile, models.StockUpdateItem{Article: "A", Quantity: 3})
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			if !acks.Gated() {
				t.Error("expected gated result")
			}
			got, err := acks.Collect()
			if err != nil || len(got) != 0 {
				t.Errorf("Collect = %v, %v; want empty", got, err)
			}
			if n := atomic.LoadInt32(calls); n != 0 {
				t.Errorf("remote calls = %d, want 0", n)
			}
		})
	}
}

func TestStockUpdateYieldsAcks(t *testing.T) {
	var body stocksRequest
	client, calls := newTestClient(t, models.EnvironmentProduction, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != stocksUpdatePath {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Client-Id") != "client-1" || r.Header.Get("Api-Key") != "secret" {
			t.Errorf("auth headers = %q / %q", r.Header.Get("Client-Id"), r.Header.Get("Api-Key"))
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Write([]byte(`{"meta": {"x": [1, 2]}, "result": [{"offer_id": "A", "product_id": 55, "warehouse_id": 77, "updated": true, "errors": []}]}`))
	})

	productID := int64(55)
	acks, err := NewStockUpdateRequest(client, logger.NewNopLogger()).Update(context.Background(), productionProfile(),
		models.StockUpdateItem{Article: "A", WarehouseID: 77, Quantity: 4, MarketplaceProductID: &productID})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := acks.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("acks = %d, want 1", len(got))
	}
	if got[0].OfferID != "A" || !got[0].Updated || got[0].ProductID != 55 {
		t.Errorf("ack = %+v", got[0])
	}

	if len(body.Stocks) != 1 || body.Stocks[0].Stock != 4 || body.Stocks[0].WarehouseID != 77 || *body.Stocks[0].ProductID != 55 {
		t.Errorf("request body = %+v", body)
	}
	if n := atomic.LoadInt32(calls); n != 1 {
		t.Errorf("remote calls = %d, want 1", n)
	}

	// повторное чтение ничего не возвращает
	again, err := acks.Collect()
	if err != nil || len(again) != 0 {
		t.Errorf("second Collect = %v, %v", again, err)
	}
}

func TestStockUpdateStopsEarly(t *testing.T) {
	client, _ := newTestClient(t, models.EnvironmentProduction, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": [{"offer_id": "A"}, {"offer_id": "B"}, {"offer_id": "C"}]}`))
	})

	acks, err := NewStockUpdateRequest(client, logger.NewNopLogger()).
		Update(context.Background(), productionProfile(), models.StockUpdateItem{Article: "A"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	var seen []string
	for ack, err := range acks.All() {
		if err != nil {
			t.Fatalf("ack error: %v", err)
		}
		seen = append(seen, ack.OfferID)
		if len(seen) == 2 {
			break
		}
	}
	if len(seen) != 2 || seen[1] != "B" {
		t.Errorf("seen = %v", seen)
	}
	if !acks.closed {
		t.Error("body must be closed after early exit")
	}
}

func TestStockUpdateMalformed(t *testing.T) {
	for name, payload := range map[string]string{
		"missing result": `{"items": []}`,
		"null result":    `{"result": null}`,
		"not an object":  `[1, 2]`,
	} {
		t.Run(name, func(t *testing.T) {
			client, _ := newTestClient(t, models.EnvironmentProduction, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(payload))
			})

			_, err := NewStockUpdateRequest(client, logger.NewNopLogger()).
				Update(context.Background(), productionProfile(), models.StockUpdateItem{Article: "A"})
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("err = %v, want ErrMalformedResponse", err)
			}
			if !errors.Is(err, ErrRemoteRejected) {
				t.Error("malformed response must also count as rejection")
			}
		})
	}
}

func TestStockUpdateRejected(t *testing.T) {
	client, _ := newTestClient(t, models.EnvironmentProduction, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code": "OOS", "message": "out of stock"}`))
	})

	_, err := NewStockUpdateRequest(client, logger.NewNopLogger()).
		Update(context.Background(), productionProfile(), models.StockUpdateItem{Article: "A"})
	if !errors.Is(err, ErrRemoteRejected) {
		t.Fatalf("err = %v, want ErrRemoteRejected", err)
	}
	if errors.Is(err, ErrMalformedResponse) {
		t.Error("rejection is not a malformed response")
	}

	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("err is not *RemoteError: %T", err)
	}
	if remote.Code != "OOS" || remote.Message != "out of stock" || remote.StatusCode != http.StatusBadRequest {
		t.Errorf("remote = %+v", remote)
	}
}

func TestStockUpdateNegativeQuantity(t *testing.T) {
	client, calls := newTestClient(t, models.EnvironmentProduction, func(w http.ResponseWriter, r *http.Request) {})

	_, err := NewStockUpdateRequest(client, logger.NewNopLogger()).
		Update(context.Background(), productionProfile(), models.StockUpdateItem{Article: "A", Quantity: -1})
	if !errors.Is(err, ErrNegativeQuantity) {
		t.Fatalf("err = %v", err)
	}
	if *calls != 0 {
		t.Error("no remote call expected")
	}
}

func newUpsert(client *Client) *CardUpsertRequest {
	return NewCardUpsertRequest(client, naming.NewComposer(nil), pricing.NewMarkup(decimal.NewFromInt(10)), logger.NewNopLogger())
}

func TestCardUpsertSubmitsMarkedUpPrice(t *testing.T) {
	var req cardImportRequest
	client, _ := newTestClient(t, models.EnvironmentProduction, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != cardImportPath {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Write([]byte(`{"result": [123456]}`))
	})

	res, err := newUpsert(client).Upsert(context.Background(), productionProfile(), testCard())
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if res.Status != StatusExecuted || res.ProductID != 123456 {
		t.Errorf("result = %+v", res)
	}

	if len(req.Items) != 1 {
		t.Fatalf("items = %d", len(req.Items))
	}
	item := req.Items[0]
	if item.Price != "110" {
		t.Errorf("price = %q, want 110", item.Price)
	}
	if item.Name != "Зимние Triangle TR259" {
		t.Errorf("name = %q", item.Name)
	}
	if item.OfferID != "PG-2404С1" || item.CurrencyCode != "RUB" || item.WeightUnit != "g" || item.DimensionUnit != "mm" {
		t.Errorf("item = %+v", item)
	}
	if len(item.Attributes) != 1 || item.Attributes[0].ID != "4495" || item.Attributes[0].Values[0].Value != "winter" {
		t.Errorf("attributes = %+v", item.Attributes)
	}
}

func TestCardUpsertTaskIDIsNotProductID(t *testing.T) {
	client, _ := newTestClient(t, models.EnvironmentProduction, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": {"task_id": 172549793}}`))
	})

	res, err := newUpsert(client).Upsert(context.Background(), productionProfile(), testCard())
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if res.Status != StatusExecuted || res.ProductID != 0 || res.TaskID != 172549793 {
		t.Errorf("result = %+v", res)
	}
}

func TestCardUpsertZeroMarkupKeepsPrice(t *testing.T) {
	profile := productionProfile()
	profile.MarkupPercent = decimal.Zero
	card := testCard()
	card.Price = decimal.NewFromInt(103)

	payload, err := newUpsert(nil).Build(profile, card)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if payload.Price != "103" {
		t.Errorf("price = %q, want 103", payload.Price)
	}
}

func TestCardUpsertGated(t *testing.T) {
	client, calls := newTestClient(t, models.EnvironmentSandbox, func(w http.ResponseWriter, r *http.Request) {})

	res, err := newUpsert(client).Upsert(context.Background(), productionProfile(), testCard())
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if res.Status != StatusGated {
		t.Errorf("status = %s, want gated", res.Status)
	}
	if *calls != 0 {
		t.Error("no remote call expected")
	}
}

func TestCardUpsertFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"rejected", http.StatusBadRequest, `{"code": 3, "message": "bad category"}`, ErrRemoteRejected},
		{"missing result", http.StatusOK, `{}`, ErrMalformedResponse},
		{"empty result", http.StatusOK, `{"result": []}`, ErrMalformedResponse},
		{"broken json", http.StatusOK, `{"result": [`, ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, models.EnvironmentProduction, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := newUpsert(client).Upsert(context.Background(), productionProfile(), testCard())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCardUpsertNotReady(t *testing.T) {
	client, calls := newTestClient(t, models.EnvironmentProduction, func(w http.ResponseWriter, r *http.Request) {})
	card := testCard()
	card.Price = decimal.Zero

	_, err := newUpsert(client).Upsert(context.Background(), productionProfile(), card)
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}

	card = testCard()
	card.CategoryID = 0
	_, err = newUpsert(client).Upsert(context.Background(), productionProfile(), card)
	if !errors.Is(err, naming.ErrNoName) {
		t.Fatalf("err = %v, want ErrNoName", err)
	}
	if *calls != 0 {
		t.Error("no remote call expected")
	}
}

func TestCardBuildIsDeterministic(t *testing.T) {
	upsert := newUpsert(nil)
	card := testCard()

	first, err := upsert.Build(productionProfile(), card)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	second, _ := upsert.Build(productionProfile(), card)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("payloads differ:\n%s\n%s", a, b)
	}
	if !card.Price.Equal(decimal.NewFromInt(100)) {
		t.Error("Build must not modify the card")
	}
}
