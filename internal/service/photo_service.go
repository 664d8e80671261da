package service

import (
	"context"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-cidadao-api/internal/dto"
	appErrors "github.com/noah-isme/portal-cidadao-api/pkg/errors"
)

type photoBucket interface {
	Upload(ctx context.Context, objectPath string, r io.Reader) (string, error)
	PublicURL(objectPath string) string
}

// PhotoUpload is a received multipart file.
type PhotoUpload struct {
	Filename string
	Size     int64
	MimeType string
	Content  io.ReadSeeker
}

// PhotoServiceConfig limits accepted uploads.
type PhotoServiceConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
	Prefix       string
}

// PhotoService stores demanda photos in the public bucket.
type PhotoService struct {
	bucket  photoBucket
	maxSize int64
	mimeSet map[string]string
	prefix  string
	logger  *zap.Logger
}

var extensionByMime = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// NewPhotoService constructs a PhotoService.
func NewPhotoService(bucket photoBucket, cfg PhotoServiceConfig, logger *zap.Logger) *PhotoService {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "demandas"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	mimeSet := make(map[string]string, len(cfg.AllowedMIMEs))
	for _, m := range cfg.AllowedMIMEs {
		m = strings.ToLower(strings.TrimSpace(m))
		mimeSet[m] = extensionByMime[m]
	}
	return &PhotoService{bucket: bucket, maxSize: cfg.MaxFileSize, mimeSet: mimeSet, prefix: cfg.Prefix, logger: logger}
}

// Upload validates and stores the photo, returning its object path and public URL.
func (s *PhotoService) Upload(ctx context.Context, upload PhotoUpload) (*dto.UploadFotoResponse, error) {
	if upload.Size > s.maxSize {
		return nil, appErrors.Clone(appErrors.ErrTooLarge, "file exceeds maximum size")
	}
	mimeType, err := detectMime(upload)
	if err != nil {
		return nil, err
	}
	ext, allowed := s.mimeSet[mimeType]
	if !allowed {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file type not allowed")
	}
	if ext == "" {
		ext = extensionFromName(upload.Filename)
	}

	objectPath := path.Join(s.prefix, uuid.NewString()+"."+ext)
	stored, err := s.bucket.Upload(ctx, objectPath, upload.Content)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to store photo")
	}
	s.logger.Info("photo stored", zap.String("path", stored), zap.String("mime", mimeType), zap.Int64("size", upload.Size))
	return &dto.UploadFotoResponse{Path: stored, PublicURL: s.bucket.PublicURL(stored)}, nil
}

// detectMime sniffs the content; the client supplied type only breaks a tie with octet-stream.
func detectMime(upload PhotoUpload) (string, error) {
	if upload.Content == nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	header := make([]byte, 512)
	n, err := upload.Content.Read(header)
	if err != nil && err != io.EOF {
		return "", appErrors.Internal(err, "failed to inspect file")
	}
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return "", appErrors.Internal(err, "failed to reset upload stream")
	}
	if n == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "empty file")
	}
	detected := http.DetectContentType(header[:n])
	if detected == "application/octet-stream" && upload.MimeType != "" {
		detected = upload.MimeType
	}
	if i := strings.IndexByte(detected, ';'); i >= 0 {
		detected = detected[:i]
	}
	return strings.ToLower(strings.TrimSpace(detected)), nil
}

func extensionFromName(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	if ext == "" {
		return "jpg"
	}
	return ext
}
