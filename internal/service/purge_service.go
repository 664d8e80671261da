package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/portal-cidadao-api/internal/models"
	appErrors "github.com/noah-isme/portal-cidadao-api/pkg/errors"
)

type purgeRecordStore interface {
	CountMatching(ctx context.Context, c models.DemandaCriteria) (int, error)
	PageMatching(ctx context.Context, c models.DemandaCriteria, limit, offset int) ([]models.PurgeCandidate, error)
	DeleteByIDs(ctx context.Context, ids []string) (int, error)
}

type purgeUserDirectory interface {
	FindUserIDsByEmail(ctx context.Context, fragment string) ([]string, error)
}

type photoStore interface {
	ObjectPath(publicURL string) (string, bool)
	Remove(ctx context.Context, paths []string) (int, error)
}

type purgeLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

type auditWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// PurgeConfig bounds the purge pages and batches.
type PurgeConfig struct {
	PageSize    int
	BatchSize   int
	SampleLimit int
	LockTTL     time.Duration
}

// PurgeServiceParams groups constructor dependencies.
type PurgeServiceParams struct {
	Records purgeRecordStore
	Users   purgeUserDirectory
	Photos  photoStore
	Roles   roleResolver
	Locks   purgeLocker
	Audit   auditWriter
	Cache   cacheInvalidator
	Metrics *MetricsService
	Logger  *zap.Logger
	Config  PurgeConfig
}

// PurgeService previews and executes irreversible bulk removal of demandas and their photos.
type PurgeService struct {
	records purgeRecordStore
	users   purgeUserDirectory
	photos  photoStore
	roles   roleResolver
	locks   purgeLocker
	audit   auditWriter
	cache   cacheInvalidator
	metrics *MetricsService
	logger  *zap.Logger
	cfg     PurgeConfig
}

// NewPurgeService constructs a PurgeService with default page, batch and sample sizes.
func NewPurgeService(params PurgeServiceParams) *PurgeService {
	cfg := params.Config
	if cfg.PageSize <= 0 {
		cfg.PageSize = 1000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	if cfg.SampleLimit <= 0 {
		cfg.SampleLimit = 50
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 15 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if params.Locks == nil {
		params.Locks = noopLocker{}
	}
	return &PurgeService{
		records: params.Records,
		users:   params.Users,
		photos:  params.Photos,
		roles:   params.Roles,
		locks:   params.Locks,
		audit:   params.Audit,
		cache:   params.Cache,
		metrics: params.Metrics,
		logger:  logger.With(zap.String("component", "purge")),
		cfg:     cfg,
	}
}

// Authorize resolves actor's role and rejects anyone but a developer.
func (s *PurgeService) Authorize(ctx context.Context, actor *models.Identity) error {
	if actor == nil || actor.UserID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "not authenticated")
	}
	user := s.roles.Resolve(ctx, actor)
	if user == nil || user.Role != models.RoleDev {
		return appErrors.Clone(appErrors.ErrForbidden, "access denied: developers only")
	}
	return nil
}

// Run previews or executes a purge for actor. Only developers may purge.
//
// When record deletion fails part way the returned result carries the counts
// reached so far alongside the error.
func (s *PurgeService) Run(ctx context.Context, actor *models.Identity, filter models.PurgeFilter) (*models.PurgeResult, error) {
	if err := s.Authorize(ctx, actor); err != nil {
		return nil, err
	}

	filter = filter.Normalize()
	criteria := models.DemandaCriteria{
		Descricao: filter.Descricao,
		Status:    filter.Status,
		From:      filter.From,
		To:        filter.To,
	}
	if filter.Email != "" {
		ids, err := s.users.FindUserIDsByEmail(ctx, filter.Email)
		if err != nil {
			return nil, s.fail(filter.DryRun, err)
		}
		if len(ids) == 0 {
			s.metrics.RecordPurge(filter.DryRun, false, 0, 0)
			return &models.PurgeResult{DryRun: filter.DryRun, Sample: []models.PurgeCandidate{}}, nil
		}
		criteria.UserIDs = ids
	}

	if filter.DryRun {
		return s.preview(ctx, criteria)
	}
	return s.execute(ctx, actor, filter, criteria)
}

func (s *PurgeService) preview(ctx context.Context, criteria models.DemandaCriteria) (*models.PurgeResult, error) {
	count, err := s.records.CountMatching(ctx, criteria)
	if err != nil {
		return nil, s.fail(true, err)
	}
	sample := []models.PurgeCandidate{}
	if count > 0 {
		rows, err := s.records.PageMatching(ctx, criteria, s.cfg.SampleLimit, 0)
		if err != nil {
			return nil, s.fail(true, err)
		}
		sample = append(sample, rows...)
	}
	s.metrics.RecordPurge(true, false, 0, 0)
	return &models.PurgeResult{DryRun: true, Count: count, Sample: sample}, nil
}

func (s *PurgeService) execute(ctx context.Context, actor *models.Identity, filter models.PurgeFilter, criteria models.DemandaCriteria) (*models.PurgeResult, error) {
	release, err := s.locks.Acquire(ctx, filter.Fingerprint(), s.cfg.LockTTL)
	switch {
	case errors.Is(err, appErrors.ErrLockHeld):
		return nil, appErrors.Clone(appErrors.ErrConflict, "a purge with the same filter is already running")
	case err != nil:
		s.logger.Warn("purge lock unavailable, continuing unguarded", zap.Error(err))
	default:
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("purge lock release failed", zap.Error(err))
			}
		}()
	}

	ids, paths, err := s.collect(ctx, criteria)
	if err != nil {
		return nil, s.fail(false, err)
	}
	result := &models.PurgeResult{}
	if len(ids) == 0 {
		s.metrics.RecordPurge(false, false, 0, 0)
		return result, nil
	}

	result.RemovedPhotos = s.removePhotos(ctx, paths)

	for _, batch := range chunk(ids, s.cfg.BatchSize) {
		deleted, err := s.records.DeleteByIDs(ctx, batch)
		if err != nil {
			s.logger.Error("purge aborted while deleting demandas",
				zap.Int("deleted", result.Deleted),
				zap.Int("removed_photos", result.RemovedPhotos),
				zap.Error(err))
			s.finish(ctx, actor, filter, result, err)
			return result, appErrors.Internal(err, err.Error())
		}
		result.Deleted += deleted
	}

	s.finish(ctx, actor, filter, result, nil)
	return result, nil
}

// collect pages through every match before anything is deleted.
func (s *PurgeService) collect(ctx context.Context, criteria models.DemandaCriteria) ([]string, []string, error) {
	var ids, paths []string
	for offset := 0; ; offset += s.cfg.PageSize {
		page, err := s.records.PageMatching(ctx, criteria, s.cfg.PageSize, offset)
		if err != nil {
			return nil, nil, err
		}
		for _, row := range page {
			ids = append(ids, row.ID)
			if row.FotoURL == nil {
				continue
			}
			if path, ok := s.photos.ObjectPath(*row.FotoURL); ok {
				paths = append(paths, path)
			}
		}
		if len(page) < s.cfg.PageSize {
			return ids, paths, nil
		}
	}
}

func (s *PurgeService) removePhotos(ctx context.Context, paths []string) int {
	removed := 0
	for i, batch := range chunk(paths, s.cfg.BatchSize) {
		n, err := s.photos.Remove(ctx, batch)
		if err != nil {
			s.logger.Warn("photo batch removal failed, skipping", zap.Int("batch", i), zap.Int("size", len(batch)), zap.Error(err))
			s.metrics.RecordPhotoBatchFailure()
			continue
		}
		removed += n
	}
	return removed
}

func (s *PurgeService) finish(ctx context.Context, actor *models.Identity, filter models.PurgeFilter, result *models.PurgeResult, cause error) {
	s.metrics.RecordPurge(false, cause != nil, result.Deleted, result.RemovedPhotos)
	s.logger.Info("purge executed",
		zap.String("user_id", actor.UserID),
		zap.Int("deleted", result.Deleted),
		zap.Int("removed_photos", result.RemovedPhotos),
		zap.Bool("failed", cause != nil))

	if result.Deleted > 0 && s.cache != nil {
		_ = s.cache.Invalidate(ctx, dashboardCachePattern)
	}
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"filter": map[string]interface{}{
			"email":       filter.Email,
			"descricao":   filter.Descricao,
			"status":      filter.Status,
			"dataInicial": filter.From,
			"dataFinal":   filter.To,
		},
		"deleted":       result.Deleted,
		"removedPhotos": result.RemovedPhotos,
		"failed":        cause != nil,
	})
	userID := actor.UserID
	entry := &models.AuditLog{
		UserID:    &userID,
		Action:    models.AuditActionPurge,
		Resource:  "demandas",
		NewValues: payload,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.audit.Create(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("purge audit log failed", zap.Error(err))
	}
}

func (s *PurgeService) fail(dryRun bool, err error) error {
	s.metrics.RecordPurge(dryRun, true, 0, 0)
	return appErrors.Internal(err, err.Error())
}

type noopLocker struct{}

func (noopLocker) Acquire(context.Context, string, time.Duration) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

func chunk(items []string, size int) [][]string {
	if len(items) == 0 {
		return nil
	}
	out := make([][]string, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}
