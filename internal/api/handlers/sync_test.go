package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/athebyme/gomarket-platform/marketplace-service/internal/adapters/logger"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/api/middleware"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/models"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/services"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/security"
)

type fakeRunner struct {
	profiles  []models.SellerProfile
	selectErr error
	runErr    error
	lastOpts  *services.RunOptions
}

func (f *fakeRunner) SelectProfiles(_ context.Context, choice string) ([]models.SellerProfile, error) {
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	if choice == "" {
		if len(f.profiles) == 0 {
			return nil, services.ErrNoProfiles
		}
		return f.profiles, nil
	}
	for _, p := range f.profiles {
		if p.ID == choice || p.Label == choice {
			return []models.SellerProfile{p}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", services.ErrProfileNotFound, choice)
}

func (f *fakeRunner) Run(ctx context.Context, opts services.RunOptions, _ services.Progress) (*models.RunReport, error) {
	f.lastOpts = &opts
	if f.runErr != nil {
		return nil, f.runErr
	}
	if _, err := f.SelectProfiles(ctx, opts.Profile); err != nil {
		return nil, err
	}
	return &models.RunReport{Profiles: []*models.ProfileReport{
		{ProfileID: "p1", Success: 2, Failed: 1, Skipped: map[models.SkipReason]int{models.ReasonNoPrice: 1}},
	}}, nil
}

func newRunner() *fakeRunner {
	return &fakeRunner{profiles: []models.SellerProfile{
		{ID: "p1", Label: "Main", Active: true, Token: "secret-token"},
		{ID: "p2", Label: "Second", Active: true},
	}}
}

func doRequest(t *testing.T, h http.HandlerFunc, method, body string, claims *security.Claims) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if claims != nil {
		req = req.WithContext(middleware.WithClaims(req.Context(), claims))
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRunSyncReturnsReport(t *testing.T) {
	runner := newRunner()
	h := NewSyncHandler(runner, models.UnitStocks, logger.NewNopLogger())

	rec := doRequest(t, h.RunSync, http.MethodPost, `{"profile":"p1","article":"PG-"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if runner.lastOpts.Kind != models.UnitStocks || runner.lastOpts.Article != "PG-" {
		t.Fatalf("unexpected options: %+v", runner.lastOpts)
	}

	var resp struct {
		Success bool `json:"success"`
		Meta    struct {
			Success int            `json:"success"`
			Failed  int            `json:"failed"`
			Skipped map[string]int `json:"skipped"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success {
		t.Error("run with failures must not report success")
	}
	if resp.Meta.Success != 2 || resp.Meta.Failed != 1 || resp.Meta.Skipped["no_price"] != 1 {
		t.Errorf("unexpected meta: %+v", resp.Meta)
	}
}

func TestRunSyncErrors(t *testing.T) {
	tests := []struct {
		name   string
		runner *fakeRunner
		body   string
		claims *security.Claims
		want   int
	}{
		{name: "bad mode", runner: newRunner(), body: `{"mode":"prices"}`, want: http.StatusBadRequest},
		{name: "bad json", runner: newRunner(), body: `{`, want: http.StatusBadRequest},
		{name: "unknown profile", runner: newRunner(), body: `{"profile":"nope"}`, want: http.StatusNotFound},
		{name: "no profiles", runner: &fakeRunner{}, body: `{}`, want: http.StatusUnprocessableEntity},
		{name: "storage failure", runner: &fakeRunner{runErr: fmt.Errorf("db down")}, body: `{}`, want: http.StatusInternalServerError},
		{
			name:   "restricted token without profile",
			runner: newRunner(),
			body:   `{}`,
			claims: &security.Claims{Profiles: []string{"p1"}},
			want:   http.StatusForbidden,
		},
		{
			name:   "restricted token foreign profile",
			runner: newRunner(),
			body:   `{"profile":"Second"}`,
			claims: &security.Claims{Profiles: []string{"p1"}},
			want:   http.StatusForbidden,
		},
		{
			name:   "restricted token own profile",
			runner: newRunner(),
			body:   `{"profile":"Main","mode":"card"}`,
			claims: &security.Claims{Profiles: []string{"p1"}},
			want:   http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSyncHandler(tt.runner, models.UnitStocks, logger.NewNopLogger())
			rec := doRequest(t, h.RunSync, http.MethodPost, tt.body, tt.claims)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestListProfilesFiltersByClaims(t *testing.T) {
	h := NewSyncHandler(newRunner(), models.UnitStocks, logger.NewNopLogger())

	rec := doRequest(t, h.ListProfiles, http.MethodGet, "", &security.Claims{Profiles: []string{"p2"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret-token") {
		t.Fatal("profile token leaked into response")
	}

	var resp struct {
		Data []models.SellerProfile `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].ID != "p2" {
		t.Fatalf("unexpected profiles: %+v", resp.Data)
	}
}

func TestListProfilesEmpty(t *testing.T) {
	h := NewSyncHandler(&fakeRunner{}, models.UnitStocks, logger.NewNopLogger())

	rec := doRequest(t, h.ListProfiles, http.MethodGet, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"total":0`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}
