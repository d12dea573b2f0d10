package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/athebyme/gomarket-platform/marketplace-service/internal/api/middleware"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/models"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/services"
	"github.com/athebyme/gomarket-platform/marketplace-service/pkg/interfaces"
	"github.com/go-chi/render"
)

// SyncRunner запускает синхронизацию
type SyncRunner interface {
	Run(ctx context.Context, opts services.RunOptions, progress services.Progress) (*models.RunReport, error)
	SelectProfiles(ctx context.Context, choice string) ([]models.SellerProfile, error)
}

// SyncHandler обработчик запросов синхронизации
type SyncHandler struct {
	runner      SyncRunner
	defaultKind models.UnitKind
	logger      interfaces.LoggerPort
}

// NewSyncHandler создает новый обработчик синхронизации
func NewSyncHandler(runner SyncRunner, defaultKind models.UnitKind, logger interfaces.LoggerPort) *SyncHandler {
	return &SyncHandler{runner: runner, defaultKind: defaultKind, logger: logger}
}

// errorResponse представляет структуру ответа с ошибкой
type errorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// response представляет структуру успешного ответа
type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// SyncRequest тело запроса запуска синхронизации
type SyncRequest struct {
	Profile string          `json:"profile"`
	Article string          `json:"article"`
	Mode    models.UnitKind `json:"mode"`
}

// Bind проверяет тело запроса для render.Bind
func (req *SyncRequest) Bind(_ *http.Request) error {
	switch req.Mode {
	case "", models.UnitStocks, models.UnitCard:
		return nil
	}
	return errors.New("mode must be stocks or card")
}

type syncMeta struct {
	Success   int                       `json:"success"`
	Failed    int                       `json:"failed"`
	Skipped   map[models.SkipReason]int `json:"skipped"`
	Cancelled bool                      `json:"cancelled"`
}

// RunSync обрабатывает запрос на запуск синхронизации
func (h *SyncHandler) RunSync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := render.Bind(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if req.Mode == "" {
		req.Mode = h.defaultKind
	}

	claims, _ := middleware.ClaimsFromContext(r.Context())

	// Токен с ограничением по профилям может запускать только свои профили
	if claims != nil && len(claims.Profiles) > 0 {
		if req.Profile == "" {
			writeError(w, r, http.StatusForbidden, "forbidden", "Токен ограничен профилями: укажите profile")
			return
		}
		profiles, err := h.runner.SelectProfiles(r.Context(), req.Profile)
		if err != nil {
			h.writeRunError(w, r, err)
			return
		}
		for _, p := range profiles {
			if !claims.CanAccessProfile(p.ID) {
				writeError(w, r, http.StatusForbidden, "forbidden", "Нет доступа к профилю "+p.ID)
				return
			}
		}
	}

	report, err := h.runner.Run(r.Context(), services.RunOptions{
		Profile: req.Profile,
		Article: req.Article,
		Kind:    req.Mode,
	}, nil)
	if err != nil {
		h.writeRunError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response{
		Success: report.Failed() == 0 && !report.Cancelled,
		Data:    report,
		Meta: syncMeta{
			Success:   report.Success(),
			Failed:    report.Failed(),
			Skipped:   report.Skipped(),
			Cancelled: report.Cancelled,
		},
	})
}

// ListProfiles возвращает активные профили, доступные токену
func (h *SyncHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.runner.SelectProfiles(r.Context(), "")
	if err != nil && !errors.Is(err, services.ErrNoProfiles) {
		h.logger.ErrorWithContext(r.Context(), "Ошибка получения профилей", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "Не удалось получить профили")
		return
	}

	claims, _ := middleware.ClaimsFromContext(r.Context())
	visible := make([]models.SellerProfile, 0, len(profiles))
	for _, p := range profiles {
		if claims == nil || claims.CanAccessProfile(p.ID) {
			visible = append(visible, p)
		}
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response{Success: true, Data: visible, Meta: map[string]int{"total": len(visible)}})
}

func (h *SyncHandler) writeRunError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrProfileNotFound):
		writeError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, services.ErrNoProfiles):
		writeError(w, r, http.StatusUnprocessableEntity, "no_profiles", "Нет активных профилей продавца")
	default:
		h.logger.ErrorWithContext(r.Context(), "Ошибка запуска синхронизации", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "Не удалось запустить синхронизацию")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: code, Code: status, Message: message})
}
