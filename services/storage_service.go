package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	storage "github.com/supabase-community/storage-go"

	"github.com/vnkhanh/mente-abundante-backend/apperr"
	"github.com/vnkhanh/mente-abundante-backend/logger"
)

type UploadKind string

const (
	UploadImage UploadKind = "image"
	UploadVideo UploadKind = "video"
)

const (
	maxImageBytes = 5 << 20
	maxVideoBytes = 500 << 20

	// MaxUploadRequestBytes caps a whole upload request: the largest file
	// plus room for the multipart envelope.
	MaxUploadRequestBytes = maxVideoBytes + 1<<20
)

const (
	StorageSupabase = "supabase"
	StorageS3       = "s3"
)

type StorageConfig struct {
	// Driver is "supabase" (default) or "s3".
	Driver string

	URL    string
	Key    string
	Bucket string

	S3 S3Config
}

type putFunc func(ctx context.Context, objectPath string, body io.ReadSeeker, contentType string) error

// StorageService puts section images and uploaded videos in a bucket and
// hands back their public URL.
type StorageService struct {
	driver    string
	put       putFunc
	publicURL func(objectPath string) string
	log       *logger.Logger
}

func NewStorageService(cfg StorageConfig, log *logger.Logger) (*StorageService, error) {
	s := &StorageService{driver: cfg.Driver, log: log.With("service", "StorageService")}
	if s.driver == "" {
		s.driver = StorageSupabase
	}

	switch s.driver {
	case StorageSupabase:
		baseURL := strings.TrimRight(cfg.URL, "/")
		bucket := cfg.Bucket
		s.publicURL = func(objectPath string) string {
			return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", baseURL, bucket, objectPath)
		}
		if baseURL != "" && cfg.Key != "" {
			client := storage.NewClient(baseURL+"/storage/v1", cfg.Key, nil)
			s.put = func(_ context.Context, objectPath string, body io.ReadSeeker, contentType string) error {
				_, err := client.UploadFile(bucket, objectPath, body, storage.FileOptions{ContentType: &contentType})
				return err
			}
		}
	case StorageS3:
		backend, err := newS3Backend(cfg.S3)
		if err != nil {
			return nil, err
		}
		s.publicURL = backend.publicURL
		if backend.configured() {
			s.put = backend.put
		}
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	return s, nil
}

func (s *StorageService) Enabled() bool { return s.put != nil }

func (s *StorageService) Upload(ctx context.Context, kind UploadKind, fh *multipart.FileHeader) (string, error) {
	if !s.Enabled() {
		return "", apperr.Internal(fmt.Errorf("%s storage not configured", s.driver))
	}
	if fh == nil {
		return "", apperr.Validation("Archivo requerido")
	}
	contentType := fh.Header.Get("Content-Type")
	var prefix string
	var limit int64
	switch kind {
	case UploadImage:
		prefix, limit = "images", maxImageBytes
	case UploadVideo:
		prefix, limit = "videos", maxVideoBytes
	default:
		return "", apperr.Validation("Tipo de archivo inválido")
	}
	if !strings.HasPrefix(contentType, string(kind)+"/") {
		return "", apperr.Validation(fmt.Sprintf("El archivo debe ser de tipo %s", kind))
	}
	if fh.Size > limit {
		return "", apperr.Validation("El archivo excede el tamaño permitido")
	}

	file, err := fh.Open()
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("open upload: %w", err))
	}
	defer file.Close()

	objectPath := objectName(prefix, fh.Filename)
	if err := s.put(ctx, objectPath, file, contentType); err != nil {
		return "", apperr.Internal(fmt.Errorf("upload %s: %w", objectPath, err))
	}
	s.log.Info("file uploaded", "driver", s.driver, "path", objectPath, "bytes", fh.Size)
	return s.PublicURL(objectPath), nil
}

func (s *StorageService) PublicURL(objectPath string) string {
	return s.publicURL(objectPath)
}

// objectName keeps a readable slug of the original name and adds a short
// random suffix so re-uploads never overwrite.
func objectName(prefix, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := slug.Make(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	if base == "" {
		base = "archivo"
	}
	return fmt.Sprintf("%s/%s-%s%s", prefix, base, uuid.NewString()[:8], ext)
}
