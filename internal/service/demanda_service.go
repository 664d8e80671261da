package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-cidadao-api/internal/dto"
	"github.com/noah-isme/portal-cidadao-api/internal/models"
	appErrors "github.com/noah-isme/portal-cidadao-api/pkg/errors"
)

type demandaRepository interface {
	Create(ctx context.Context, d *models.Demanda) error
	FindByID(ctx context.Context, id string) (*models.Demanda, error)
	UpdateStatus(ctx context.Context, d *models.Demanda) error
	List(ctx context.Context, filter models.DemandaFilter) ([]models.Demanda, int, error)
}

type demandaNotifier interface {
	NotifyNewDemanda(d models.Demanda)
}

// DemandaService handles citizen submissions and administrator triage.
type DemandaService struct {
	repo      demandaRepository
	notifier  demandaNotifier
	cache     cacheInvalidator
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewDemandaService constructs a DemandaService. notifier, cache and audit are optional.
func NewDemandaService(repo demandaRepository, notifier demandaNotifier, cache cacheInvalidator, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *DemandaService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DemandaService{
		repo:      repo,
		notifier:  notifier,
		cache:     cache,
		audit:     audit,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Create stores a new demanda in the aberta state. Anonymous submissions are allowed.
func (s *DemandaService) Create(ctx context.Context, actor *models.Identity, req dto.CreateDemandaRequest) (*models.Demanda, error) {
	req.Categoria = strings.TrimSpace(req.Categoria)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid demanda payload")
	}

	d := &models.Demanda{
		FotoURL:     blankToNil(req.FotoURL),
		Categoria:   req.Categoria,
		Descricao:   blankToNil(req.Descricao),
		Localizacao: models.Location{Lat: *req.Localizacao.Lat, Lng: *req.Localizacao.Lng},
		Endereco:    blankToNil(req.Endereco),
		Bairro:      blankToNil(req.Bairro),
		DataCriacao: s.now().UTC(),
		Status:      models.StatusAberta,
	}
	if actor != nil && actor.UserID != "" {
		userID := actor.UserID
		d.UserID = &userID
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, appErrors.Internal(err, "failed to create demanda")
	}
	s.invalidateDashboard(ctx)
	if s.notifier != nil {
		s.notifier.NotifyNewDemanda(*d)
	}
	return d, nil
}

// UpdateStatus moves a demanda to a new status keeping data_resolucao consistent.
func (s *DemandaService) UpdateStatus(ctx context.Context, actor *models.Identity, id string, req dto.UpdateStatusRequest) (*models.Demanda, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status")
	}

	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "demanda not found")
		}
		return nil, appErrors.Internal(err, "failed to load demanda")
	}

	previous := d.Status
	d.ApplyStatus(models.DemandaStatus(req.Status), s.now())
	if err := s.repo.UpdateStatus(ctx, d); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "demanda not found")
		}
		return nil, appErrors.Internal(err, "failed to update demanda status")
	}

	s.invalidateDashboard(ctx)
	s.recordStatusChange(ctx, actor, d, previous)
	return d, nil
}

// List returns a page of demandas and its pagination metadata.
func (s *DemandaService) List(ctx context.Context, filter models.DemandaFilter) ([]models.Demanda, *models.Pagination, error) {
	for _, status := range filter.Status {
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
		}
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 500 {
		filter.PageSize = 50
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list demandas")
	}
	if items == nil {
		items = []models.Demanda{}
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

func (s *DemandaService) invalidateDashboard(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, dashboardCachePattern)
	}
}

func (s *DemandaService) recordStatusChange(ctx context.Context, actor *models.Identity, d *models.Demanda, previous models.DemandaStatus) {
	if s.audit == nil {
		return
	}
	oldValues, _ := json.Marshal(map[string]interface{}{"status": previous})
	newValues, _ := json.Marshal(map[string]interface{}{"status": d.Status, "data_resolucao": d.DataResolucao})
	id := d.ID
	entry := &models.AuditLog{
		Action:     models.AuditActionStatusChange,
		Resource:   "demandas",
		ResourceID: &id,
		OldValues:  oldValues,
		NewValues:  newValues,
	}
	if actor != nil {
		userID := actor.UserID
		entry.UserID = &userID
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("status change audit failed", zap.String("demanda_id", d.ID), zap.Error(err))
	}
}

func blankToNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
