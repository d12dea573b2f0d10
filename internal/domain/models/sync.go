package models

import (
	"time"

	"github.com/google/uuid"
)

// UnitKind тип единицы синхронизации
type UnitKind string

const (
	UnitStocks UnitKind = "stocks"
	UnitCard   UnitKind = "card"
)

// SyncUnit сообщение, передаваемое в очередь на обработку
type SyncUnit struct {
	ID        uuid.UUID       `json:"id"`
	Kind      UnitKind        `json:"kind"`
	ProfileID string          `json:"profile_id"`
	Identity  ProductIdentity `json:"identity"`
	Article   string          `json:"article"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewSyncUnit создает единицу синхронизации для варианта продукта
func NewSyncUnit(kind UnitKind, profileID string, identity ProductIdentity, article string) SyncUnit {
	return SyncUnit{
		ID:        uuid.New(),
		Kind:      kind,
		ProfileID: profileID,
		Identity:  identity,
		Article:   article,
		CreatedAt: time.Now().UTC(),
	}
}

type ResultKind string

const (
	ResultSuccess ResultKind = "success"
	ResultSkipped ResultKind = "skipped"
	ResultFailed  ResultKind = "failed"
)

type SkipReason string

const (
	ReasonEnqueued    SkipReason = "enqueued"
	ReasonNoCardFound SkipReason = "no_card_found"
	ReasonNoPrice     SkipReason = "no_price"
)

// Типы ошибок обработки единицы
const (
	ErrorKindLookup         = "lookup"
	ErrorKindConstruction   = "construction"
	ErrorKindRemoteRejected = "remote_rejected"
	ErrorKindMalformed      = "malformed_response"
	ErrorKindDispatch       = "dispatch"
)

// SyncResult результат обработки одного варианта продукта
type SyncResult struct {
	Kind      ResultKind      `json:"kind"`
	Reason    SkipReason      `json:"reason,omitempty"`
	ErrorKind string          `json:"error_kind,omitempty"`
	Detail    string          `json:"detail,omitempty"`
	Article   string          `json:"article,omitempty"`
	Identity  ProductIdentity `json:"identity"`
}

func Enqueued(identity ProductIdentity, article string) SyncResult {
	return SyncResult{Kind: ResultSuccess, Reason: ReasonEnqueued, Identity: identity, Article: article}
}

func Skipped(identity ProductIdentity, article string, reason SkipReason) SyncResult {
	return SyncResult{Kind: ResultSkipped, Reason: reason, Identity: identity, Article: article}
}

func Failed(identity ProductIdentity, article, errorKind, detail string) SyncResult {
	return SyncResult{Kind: ResultFailed, ErrorKind: errorKind, Detail: detail, Identity: identity, Article: article}
}

// ProfileReport итог синхронизации одного профиля
type ProfileReport struct {
	ProfileID     string             `json:"profile_id"`
	Label         string             `json:"label"`
	NothingToSync bool               `json:"nothing_to_sync,omitempty"`
	Locked        bool               `json:"locked,omitempty"`
	Error         string             `json:"error,omitempty"`
	Success       int                `json:"success"`
	Failed        int                `json:"failed"`
	Skipped       map[SkipReason]int `json:"skipped,omitempty"`
	FilteredOut   int                `json:"filtered_out"`
	Results       []SyncResult       `json:"results,omitempty"`
}

// NewProfileReport создает пустой отчет профиля
func NewProfileReport(profile SellerProfile) *ProfileReport {
	return &ProfileReport{
		ProfileID: profile.ID,
		Label:     profile.Label,
		Skipped:   make(map[SkipReason]int),
	}
}

// Record учитывает результат обработки варианта
func (r *ProfileReport) Record(result SyncResult) {
	switch result.Kind {
	case ResultSuccess:
		r.Success++
	case ResultSkipped:
		r.Skipped[result.Reason]++
	case ResultFailed:
		r.Failed++
	}
	r.Results = append(r.Results, result)
}

// SkippedTotal общее число пропущенных вариантов
func (r *ProfileReport) SkippedTotal() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}

// RunReport итог запуска синхронизации по всем профилям
type RunReport struct {
	Profiles  []*ProfileReport `json:"profiles"`
	Cancelled bool             `json:"cancelled,omitempty"`
}

func (r *RunReport) Success() int {
	total := 0
	for _, p := range r.Profiles {
		total += p.Success
	}
	return total
}

func (r *RunReport) Failed() int {
	total := 0
	for _, p := range r.Profiles {
		total += p.Failed
	}
	return total
}

// Skipped суммирует пропуски по причинам
func (r *RunReport) Skipped() map[SkipReason]int {
	total := make(map[SkipReason]int)
	for _, p := range r.Profiles {
		for reason, n := range p.Skipped {
			total[reason] += n
		}
	}
	return total
}
