package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/portal-cidadao-api/internal/dto"
	appErrors "github.com/noah-isme/portal-cidadao-api/pkg/errors"
)

const maxGeocodeBody = 1 << 20

// GeocodingConfig points the proxy at a Nominatim instance.
type GeocodingConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	CacheTTL  time.Duration
}

// GeocodingService proxies reverse geocoding lookups to Nominatim and caches the answers.
type GeocodingService struct {
	client *http.Client
	cache  *CacheService
	cfg    GeocodingConfig
	logger *zap.Logger
}

// NewGeocodingService constructs a GeocodingService. A nil client gets one bounded by cfg.Timeout.
func NewGeocodingService(client *http.Client, cache *CacheService, cfg GeocodingConfig, logger *zap.Logger) *GeocodingService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Portal-Cidadao/1.0 (+localhost; dev)"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeocodingService{client: client, cache: cache, cfg: cfg, logger: logger}
}

// Reverse returns the Nominatim JSON for a coordinate and whether it was served from cache.
func (s *GeocodingService) Reverse(ctx context.Context, q dto.ReverseGeocodeQuery) (json.RawMessage, bool, error) {
	lat, err := parseCoordinate(q.Lat, 90)
	if err != nil {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "lat and lon are required")
	}
	lon, err := parseCoordinate(q.Lon, 180)
	if err != nil {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "lat and lon are required")
	}
	zoom := strings.TrimSpace(q.Zoom)
	if zoom == "" {
		zoom = "18"
	}
	if z, err := strconv.Atoi(zoom); err != nil || z < 0 || z > 18 {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "zoom must be between 0 and 18")
	}
	lang := strings.TrimSpace(q.Lang)
	if lang == "" {
		lang = "pt-BR"
	}

	latStr := strconv.FormatFloat(lat, 'f', 6, 64)
	lonStr := strconv.FormatFloat(lon, 'f', 6, 64)
	key := fmt.Sprintf("geocode:reverse:%s:%s:%s:%s", latStr, lonStr, zoom, lang)

	var cached json.RawMessage
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, true, nil
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", latStr)
	params.Set("lon", lonStr)
	params.Set("zoom", zoom)
	params.Set("addressdetails", "1")
	params.Set("accept-language", lang)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to build geocoding request")
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrBadGateway.Code, appErrors.ErrBadGateway.Status, "geocoding service unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxGeocodeBody))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrBadGateway.Code, appErrors.ErrBadGateway.Status, "failed to read geocoding response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("nominatim error", zap.Int("status", resp.StatusCode), zap.ByteString("body", truncateBytes(body, 512)))
		return nil, false, appErrors.Clone(appErrors.ErrBadGateway, fmt.Sprintf("nominatim returned status %d", resp.StatusCode))
	}
	if !json.Valid(body) {
		return nil, false, appErrors.Clone(appErrors.ErrBadGateway, "nominatim returned invalid json")
	}

	payload := json.RawMessage(body)
	_ = s.cache.Set(ctx, key, payload, s.cfg.CacheTTL)
	return payload, false, nil
}

func parseCoordinate(raw string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if v < -limit || v > limit {
		return 0, fmt.Errorf("coordinate %v out of range", v)
	}
	return v, nil
}

func truncateBytes(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
