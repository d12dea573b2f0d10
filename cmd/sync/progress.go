package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/models"
)

// consoleProgress печатает ход синхронизации построчно
type consoleProgress struct {
	mu    sync.Mutex
	out   io.Writer
	quiet bool
}

func newConsoleProgress(out io.Writer, quiet bool) *consoleProgress {
	return &consoleProgress{out: out, quiet: quiet}
}

func (p *consoleProgress) line(level, format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "[%s] %s\n", level, fmt.Sprintf(format, args...))
}

func (p *consoleProgress) ProfileStarted(profile models.SellerProfile) {
	p.line("NOTE", "Профиль %s (%s)", profile.Label, profile.ID)
}

func (p *consoleProgress) UnitProcessed(_ models.SellerProfile, result models.SyncResult) {
	switch result.Kind {
	case models.ResultFailed:
		p.line("ERROR", "%s: %s", articleOf(result), result.Detail)
	case models.ResultSkipped:
		if !p.quiet {
			p.line("WARNING", "%s", skipMessage(result))
		}
	case models.ResultSuccess:
		if !p.quiet {
			p.line("OK", "Обновили %s", articleOf(result))
		}
	}
}

func (p *consoleProgress) ProfileFinished(report *models.ProfileReport) {
	switch {
	case report.Locked:
		p.line("WARNING", "Профиль %s уже синхронизируется, пропущен", report.Label)
	case report.Error != "":
		p.line("ERROR", "Профиль %s: %s", report.Label, report.Error)
	case report.NothingToSync:
		p.line("WARNING", "Карточек для обновления не найдено")
	default:
		p.line("OK", "Профиль %s: успешно %d, ошибок %d, пропущено %d",
			report.Label, report.Success, report.Failed, report.SkippedTotal())
	}
}

// summary печатает итог запуска
func (p *consoleProgress) summary(report *models.RunReport) {
	skipped := report.Skipped()
	p.line("NOTE", "Итого: успешно %d, ошибок %d, без карточки %d, без цены %d",
		report.Success(), report.Failed(),
		skipped[models.ReasonNoCardFound], skipped[models.ReasonNoPrice])
	if report.Cancelled {
		p.line("WARNING", "Синхронизация прервана")
		return
	}
	p.line("OK", "Синхронизация завершена")
}

func skipMessage(result models.SyncResult) string {
	switch result.Reason {
	case models.ReasonNoCardFound:
		return fmt.Sprintf("Карточка %s не найдена", articleOf(result))
	case models.ReasonNoPrice:
		return fmt.Sprintf("У карточки %s нет цены", articleOf(result))
	}
	return fmt.Sprintf("%s пропущен: %s", articleOf(result), result.Reason)
}

func articleOf(result models.SyncResult) string {
	if result.Article != "" {
		return result.Article
	}
	return result.Identity.Key()
}
