package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/portal-cidadao-api/internal/dto"
	"github.com/noah-isme/portal-cidadao-api/internal/service"
	appErrors "github.com/noah-isme/portal-cidadao-api/pkg/errors"
	"github.com/noah-isme/portal-cidadao-api/pkg/response"
	"github.com/noah-isme/portal-cidadao-api/pkg/storage"
)

type photoUploader interface {
	Upload(ctx context.Context, upload service.PhotoUpload) (*dto.UploadFotoResponse, error)
}

type objectReader interface {
	Name() string
	Open(objectPath string) (*os.File, error)
}

// PhotoHandler accepts demanda photos and serves the public bucket.
type PhotoHandler struct {
	uploader photoUploader
	bucket   objectReader
}

// NewPhotoHandler constructs the handler.
func NewPhotoHandler(uploader photoUploader, bucket objectReader) *PhotoHandler {
	return &PhotoHandler{uploader: uploader, bucket: bucket}
}

// Upload godoc
// @Summary Upload a demanda photo
// @Tags Fotos
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Photo"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /upload-foto [post]
func (h *PhotoHandler) Upload(c *gin.Context) {
	if h.uploader == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "photo storage not configured"))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	reader, ok := src.(io.ReadSeeker)
	if !ok {
		buf, readErr := io.ReadAll(src)
		if readErr != nil {
			response.Error(c, appErrors.Wrap(readErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file"))
			return
		}
		reader = bytes.NewReader(buf)
	}
	upload := service.PhotoUpload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Content:  reader,
	}
	stored, err := h.uploader.Upload(c.Request.Context(), upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, stored)
}

// Serve streams an object from the public bucket.
func (h *PhotoHandler) Serve(c *gin.Context) {
	if h.bucket == nil || c.Param("bucket") != h.bucket.Name() {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "object not found"))
		return
	}
	objectPath := strings.TrimPrefix(c.Param("path"), "/")
	file, err := h.bucket.Open(objectPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, storage.ErrInvalidPath) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "object not found"))
			return
		}
		response.Error(c, appErrors.Internal(err, "failed to open object"))
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil || info.IsDir() {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "object not found"))
		return
	}
	contentType := mime.TypeByExtension(path.Ext(objectPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}
