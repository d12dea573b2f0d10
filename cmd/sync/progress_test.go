package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/models"
	"github.com/google/uuid"
)

func TestConsoleProgress(t *testing.T) {
	var buf bytes.Buffer
	p := newConsoleProgress(&buf, false)
	profile := models.SellerProfile{ID: "p1", Label: "Main"}
	identity := models.ProductIdentity{ProductID: uuid.New()}

	p.ProfileStarted(profile)
	p.UnitProcessed(profile, models.Enqueued(identity, "PG-1"))
	p.UnitProcessed(profile, models.Skipped(identity, "PG-2", models.ReasonNoPrice))
	p.UnitProcessed(profile, models.Failed(identity, "", models.ErrorKindLookup, "db down"))

	report := models.NewProfileReport(profile)
	report.Record(models.Enqueued(identity, "PG-1"))
	report.Record(models.Skipped(identity, "PG-2", models.ReasonNoPrice))
	p.ProfileFinished(report)
	p.summary(&models.RunReport{Profiles: []*models.ProfileReport{report}})

	out := buf.String()
	for _, want := range []string{
		"[NOTE] Профиль Main (p1)",
		"[ERROR] " + identity.Key() + ": db down",
		"[OK] Профиль Main: успешно 1, ошибок 0, пропущено 1",
		"без цены 1",
		"[OK] Синхронизация завершена",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output misses %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "[OK] Обновили PG-1") || !strings.Contains(out, "[WARNING] У карточки PG-2 нет цены") {
		t.Errorf("every processed product must get a line:\n%s", out)
	}
}

func TestConsoleProgressQuiet(t *testing.T) {
	var buf bytes.Buffer
	p := newConsoleProgress(&buf, true)
	profile := models.SellerProfile{ID: "p1", Label: "Main"}
	identity := models.ProductIdentity{ProductID: uuid.New()}

	p.UnitProcessed(profile, models.Enqueued(identity, "PG-1"))
	p.UnitProcessed(profile, models.Skipped(identity, "", models.ReasonNoCardFound))
	p.UnitProcessed(profile, models.Failed(identity, "PG-3", models.ErrorKindRemoteRejected, "OOS"))

	out := buf.String()
	if strings.Contains(out, "PG-1") || strings.Contains(out, "не найдена") {
		t.Errorf("quiet mode prints only failures:\n%s", out)
	}
	if !strings.Contains(out, "[ERROR] PG-3: OOS") {
		t.Errorf("failure line missing:\n%s", out)
	}
}

func TestConsoleProgressProfileStates(t *testing.T) {
	tests := []struct {
		name   string
		report models.ProfileReport
		want   string
	}{
		{name: "nothing to sync", report: models.ProfileReport{NothingToSync: true}, want: "[WARNING] Карточек для обновления не найдено"},
		{name: "locked", report: models.ProfileReport{Label: "Main", Locked: true}, want: "уже синхронизируется"},
		{name: "error", report: models.ProfileReport{Label: "Main", Error: "boom"}, want: "[ERROR] Профиль Main: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			newConsoleProgress(&buf, false).ProfileFinished(&tt.report)
			if !strings.Contains(buf.String(), tt.want) {
				t.Fatalf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}
