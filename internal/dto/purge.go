package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/portal-cidadao-api/internal/models"
)

// PurgeRequest is the body of POST /admin/purge-demandas.
type PurgeRequest struct {
	DryRun      *bool    `json:"dryRun"`
	Email       string   `json:"email"`
	Descricao   string   `json:"descricao"`
	Status      []string `json:"status" validate:"omitempty,dive,omitempty,oneof=aberta em_andamento resolvida"`
	DataInicial string   `json:"dataInicial"`
	DataFinal   string   `json:"dataFinal"`
}

// Filter converts the request into a PurgeFilter. A missing dryRun means preview.
func (r PurgeRequest) Filter() (models.PurgeFilter, error) {
	filter := models.PurgeFilter{
		DryRun:    r.DryRun == nil || *r.DryRun,
		Email:     r.Email,
		Descricao: r.Descricao,
		Status:    r.Status,
	}
	var err error
	if filter.From, err = ParseDateBound(r.DataInicial); err != nil {
		return filter, fmt.Errorf("dataInicial: %w", err)
	}
	if filter.To, err = ParseDateBound(r.DataFinal); err != nil {
		return filter, fmt.Errorf("dataFinal: %w", err)
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return filter, fmt.Errorf("dataFinal must not precede dataInicial")
	}
	return filter, nil
}

// PurgePreviewResponse is returned for a dry run.
type PurgePreviewResponse struct {
	OK     bool                    `json:"ok"`
	DryRun bool                    `json:"dryRun"`
	Count  int                     `json:"count"`
	Sample []models.PurgeCandidate `json:"sample"`
}

// PurgeExecuteResponse is returned after an execution.
type PurgeExecuteResponse struct {
	OK            bool `json:"ok"`
	DryRun        bool `json:"dryRun"`
	Deleted       int  `json:"deleted"`
	RemovedPhotos int  `json:"removedPhotos"`
}

// PurgeErrorResponse carries the failure message and, when deletion stopped part way, the counts reached.
type PurgeErrorResponse struct {
	Error         string `json:"error"`
	Deleted       *int   `json:"deleted,omitempty"`
	RemovedPhotos *int   `json:"removedPhotos,omitempty"`
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// ParseDateBound accepts an ISO date or timestamp. Blank input yields nil.
func ParseDateBound(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", raw)
}
