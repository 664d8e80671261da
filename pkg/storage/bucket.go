package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// PublicPathPrefix is the URL path under which public bucket objects are served.
// Public URLs have the shape <base>/storage/v1/object/public/<bucket>/<object path>.
const PublicPathPrefix = "/storage/v1/object/public/"

// ErrInvalidPath is returned for object paths escaping the bucket root.
var ErrInvalidPath = errors.New("invalid object path")

// Bucket persists public objects on disk under <dir>/<bucket>.
type Bucket struct {
	name          string
	baseDir       string
	publicBaseURL string
}

// NewBucket ensures the bucket directory exists and returns a handle.
func NewBucket(dir, name, publicBaseURL string) (*Bucket, error) {
	if dir == "" {
		dir = "./storage"
	}
	if name == "" {
		name = "fotos"
	}
	baseDir := filepath.Join(dir, name)
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create bucket directory: %w", err)
	}
	return &Bucket{
		name:          name,
		baseDir:       baseDir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// Name returns the bucket name.
func (b *Bucket) Name() string {
	return b.name
}

// Upload streams r into objectPath, creating parent directories as needed.
func (b *Bucket) Upload(ctx context.Context, objectPath string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target, err := b.resolve(objectPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare object directory: %w", err)
	}
	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("write object: %w", err)
	}
	return cleanObjectPath(objectPath), nil
}

// Open returns a read-only handle for the stored object.
func (b *Bucket) Open(objectPath string) (*os.File, error) {
	target, err := b.resolve(objectPath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	return file, nil
}

// Remove deletes a batch of objects and reports how many existed. Objects that
// are already gone are ignored. The call fails as a whole if any path is
// invalid or any removal errors.
func (b *Bucket) Remove(ctx context.Context, objectPaths []string) (int, error) {
	targets := make([]string, 0, len(objectPaths))
	for _, p := range objectPaths {
		target, err := b.resolve(p)
		if err != nil {
			return 0, fmt.Errorf("remove %q: %w", p, err)
		}
		targets = append(targets, target)
	}

	var errs []error
	removed := 0
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		err := os.Remove(target)
		switch {
		case err == nil:
			removed++
		case !os.IsNotExist(err):
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return removed, fmt.Errorf("remove objects: %w", errors.Join(errs...))
	}
	return removed, nil
}

// PublicURL returns the public URL for an object.
func (b *Bucket) PublicURL(objectPath string) string {
	return b.publicBaseURL + PublicPathPrefix + b.name + "/" + cleanObjectPath(objectPath)
}

// ObjectPath extracts the object path from a public URL of this bucket.
// It reports false when the URL carries no object of this bucket.
func (b *Bucket) ObjectPath(publicURL string) (string, bool) {
	return ObjectPathFromURL(publicURL, b.name)
}

// ObjectPathFromURL locates the public prefix of bucket in publicURL and returns
// everything after it.
func ObjectPathFromURL(publicURL, bucket string) (string, bool) {
	if publicURL == "" {
		return "", false
	}
	marker := PublicPathPrefix + bucket + "/"
	idx := strings.Index(publicURL, marker)
	if idx == -1 {
		return "", false
	}
	rest := publicURL[idx+len(marker):]
	if cut := strings.IndexAny(rest, "?#"); cut != -1 {
		rest = rest[:cut]
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}

func (b *Bucket) resolve(objectPath string) (string, error) {
	cleaned := cleanObjectPath(objectPath)
	if cleaned == "" || cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", ErrInvalidPath
	}
	return filepath.Join(b.baseDir, filepath.FromSlash(cleaned)), nil
}

func cleanObjectPath(objectPath string) string {
	return strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(objectPath)), "/")
}
