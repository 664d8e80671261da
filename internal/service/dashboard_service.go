package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/portal-cidadao-api/internal/models"
	appErrors "github.com/noah-isme/portal-cidadao-api/pkg/errors"
)

const (
	dashboardCacheKey     = "dashboard:stats"
	dashboardCachePattern = "dashboard:*"
	evolutionMonths       = 6
)

type dashboardRepository interface {
	StatusTotals(ctx context.Context) (*models.StatusTotals, error)
	CountByCategory(ctx context.Context) ([]models.CategoryCount, error)
	MonthlyEvolution(ctx context.Context, since time.Time) ([]models.MonthlyEvolution, error)
}

// DashboardService composes administrator statistics.
type DashboardService struct {
	repo   dashboardRepository
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(repo dashboardRepository, cache *CacheService, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, cache: cache, ttl: ttl, logger: logger, now: time.Now}
}

// Stats returns dashboard statistics and whether they came from cache.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, bool, error) {
	var cached models.DashboardStats
	if hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	totals, err := s.repo.StatusTotals(ctx)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to load dashboard totals")
	}
	categories, err := s.repo.CountByCategory(ctx)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to load category breakdown")
	}
	since := monthStart(s.now()).AddDate(0, -(evolutionMonths - 1), 0)
	evolution, err := s.repo.MonthlyEvolution(ctx, since)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to load monthly evolution")
	}

	stats := &models.DashboardStats{
		TotalDemandas:        totals.Total,
		DemandasAbertas:      totals.Abertas,
		DemandasEmAndamento:  totals.EmAndamento,
		DemandasResolvidas:   totals.Resolvidas,
		TempoMedioResolucao:  roundTo(totals.AvgResolutionDays, 1),
		DemandasPorCategoria: nonNil(categories),
		EvolucaoMensal:       fillMonths(evolution, since, evolutionMonths),
	}

	if err := s.cache.Set(ctx, dashboardCacheKey, stats, s.ttl); err != nil {
		s.logger.Debug("dashboard cache write skipped", zap.Error(err))
	}
	return stats, false, nil
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// fillMonths returns one entry per month starting at since, with zeroes for gaps.
func fillMonths(rows []models.MonthlyEvolution, since time.Time, months int) []models.MonthlyEvolution {
	byMonth := make(map[string]models.MonthlyEvolution, len(rows))
	for _, row := range rows {
		byMonth[row.Mes] = row
	}
	out := make([]models.MonthlyEvolution, 0, months)
	for i := 0; i < months; i++ {
		key := since.AddDate(0, i, 0).Format("2006-01")
		row, ok := byMonth[key]
		if !ok {
			row = models.MonthlyEvolution{Mes: key}
		}
		out = append(out, row)
	}
	return out
}

func nonNil(rows []models.CategoryCount) []models.CategoryCount {
	if rows == nil {
		return []models.CategoryCount{}
	}
	return rows
}

func roundTo(v float64, places int) float64 {
	pow := 1.0
	for i := 0; i < places; i++ {
		pow *= 10
	}
	if v < 0 {
		return float64(int64(v*pow-0.5)) / pow
	}
	return float64(int64(v*pow+0.5)) / pow
}
