package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-center-api/internal/dto"
	appErrors "github.com/noah-isme/tuition-center-api/pkg/errors"
	"github.com/noah-isme/tuition-center-api/pkg/storage"
)

type streamStorage interface {
	SaveStream(filename string, r io.Reader, maxBytes int64) (string, error)
}

// UploadConfig bounds avatar uploads.
type UploadConfig struct {
	PublicPath   string
	MaxBytes     int64
	AllowedMIMEs []string
}

// UploadService stores avatar images and returns their public URLs.
type UploadService struct {
	storage streamStorage
	logger  *zap.Logger
	cfg     UploadConfig
	allowed map[string]string
}

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// NewUploadService constructs the upload service.
func NewUploadService(store streamStorage, logger *zap.Logger, cfg UploadConfig) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 2 * 1024 * 1024
	}
	if cfg.PublicPath == "" {
		cfg.PublicPath = "/uploads"
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"image/jpeg", "image/png", "image/webp"}
	}
	allowed := make(map[string]string, len(cfg.AllowedMIMEs))
	for _, mime := range cfg.AllowedMIMEs {
		if ext, ok := imageExtensions[mime]; ok {
			allowed[mime] = ext
		}
	}
	return &UploadService{storage: store, logger: logger, cfg: cfg, allowed: allowed}
}

// SaveAvatar sniffs the content type from the first bytes, rejects anything
// that is not an allowed image, and stores the file under a random name.
func (s *UploadService) SaveAvatar(ctx context.Context, r io.Reader, declaredSize int64) (*dto.UploadResponse, error) {
	if declaredSize > s.cfg.MaxBytes {
		return nil, s.tooLarge()
	}

	buffered := bufio.NewReaderSize(r, 512)
	head, err := buffered.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, appErrors.Validation(err, "unable to read upload")
	}
	if len(head) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is empty")
	}
	contentType := http.DetectContentType(head)
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	ext, ok := s.allowed[contentType]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported file type %s", contentType))
	}

	name := fmt.Sprintf("avatars/%s.%s", uuid.NewString(), ext)
	if _, err := s.storage.SaveStream(name, buffered, s.cfg.MaxBytes); err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, s.tooLarge()
		}
		return nil, appErrors.Internal(err, "failed to store upload")
	}

	size := declaredSize
	if size <= 0 {
		size = int64(len(head))
	}
	return &dto.UploadResponse{
		URL:         strings.TrimRight(s.cfg.PublicPath, "/") + "/" + name,
		ContentType: contentType,
		Size:        size,
	}, nil
}

func (s *UploadService) tooLarge() *appErrors.Error {
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxBytes))
}
