package dto

import (
	"fmt"
	"strings"

	"github.com/noah-isme/portal-cidadao-api/internal/models"
)

// CreateDemandaRequest is a citizen submission.
type CreateDemandaRequest struct {
	Categoria   string          `json:"categoria" validate:"required,max=100"`
	Descricao   *string         `json:"descricao" validate:"omitempty,max=2000"`
	FotoURL     *string         `json:"foto_url" validate:"omitempty,url"`
	Localizacao LocalizacaoBody `json:"localizacao"`
	Endereco    *string         `json:"endereco" validate:"omitempty,max=300"`
	Bairro      *string         `json:"bairro" validate:"omitempty,max=120"`
}

// LocalizacaoBody is a coordinate pair.
type LocalizacaoBody struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

// UpdateStatusRequest changes the status of a demanda.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=aberta em_andamento resolvida"`
}

// ListDemandasQuery binds the dashboard listing query string.
type ListDemandasQuery struct {
	Status    []string `form:"status"`
	Categoria string   `form:"categoria"`
	Bairro    string   `form:"bairro"`
	Search    string   `form:"q"`
	From      string   `form:"from"`
	To        string   `form:"to"`
	Page      int      `form:"page"`
	PageSize  int      `form:"page_size"`
	SortBy    string   `form:"sort_by"`
	SortOrder string   `form:"sort_order"`
	Format    string   `form:"format"`
}

// Filter converts the query into a DemandaFilter. Status accepts repeated or comma separated values.
func (q ListDemandasQuery) Filter() (models.DemandaFilter, error) {
	filter := models.DemandaFilter{
		Categoria: strings.TrimSpace(q.Categoria),
		Bairro:    strings.TrimSpace(q.Bairro),
		Search:    strings.TrimSpace(q.Search),
		Page:      q.Page,
		PageSize:  q.PageSize,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	}
	for _, raw := range q.Status {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				filter.Status = append(filter.Status, models.DemandaStatus(part))
			}
		}
	}
	var err error
	if filter.From, err = ParseDateBound(q.From); err != nil {
		return filter, fmt.Errorf("from: %w", err)
	}
	if filter.To, err = ParseDateBound(q.To); err != nil {
		return filter, fmt.Errorf("to: %w", err)
	}
	return filter, nil
}
