package photo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/field-booking-backend/internal/field"
	"github.com/nekogravitycat/field-booking-backend/internal/pkg/storage"
)

const (
	DefaultMaxBytes = 10 << 20
	thumbnailBox    = 320
)

// UploadInput is a single image upload for a field.
type UploadInput struct {
	FieldID    string
	UploadedBy string
	Filename   string
	Content    io.Reader
}

type Service interface {
	Upload(ctx context.Context, in UploadInput) (*Photo, error)
	Get(ctx context.Context, id string) (*Photo, error)
	ListByField(ctx context.Context, fieldID string) ([]*Photo, error)
	// Open streams the original image. The caller closes the reader.
	Open(ctx context.Context, id string) (io.ReadCloser, *Photo, error)
	OpenThumbnail(ctx context.Context, id string) (io.ReadCloser, *Photo, error)
	Delete(ctx context.Context, id string) error
}

// FieldGetter resolves the field a photo is attached to.
type FieldGetter interface {
	GetByID(ctx context.Context, id string) (*field.Field, error)
}

type service struct {
	repo     Repository
	fields   FieldGetter
	store    storage.Storage
	maxBytes int64
	logger   zerolog.Logger
}

func NewService(repo Repository, fields FieldGetter, store storage.Storage, maxBytes int64, logger zerolog.Logger) Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &service{
		repo:     repo,
		fields:   fields,
		store:    store,
		maxBytes: maxBytes,
		logger:   logger.With().Str("module", "photo").Logger(),
	}
}

func (s *service) Upload(ctx context.Context, in UploadInput) (*Photo, error) {
	if _, err := s.fields.GetByID(ctx, in.FieldID); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(in.Content, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload failed: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok {
		return nil, ErrUnsupportedType
	}

	thumb, err := storage.Thumbnail(bytes.NewReader(data), thumbnailBox, thumbnailBox)
	if err != nil {
		return nil, ErrNotAnImage
	}

	p := &Photo{
		ID:          uuid.NewString(),
		FieldID:     in.FieldID,
		UploadedBy:  in.UploadedBy,
		Filename:    in.Filename,
		ContentType: contentType,
		Size:        int64(len(data)),
	}
	p.StoragePath = fmt.Sprintf("photos/%s/%s%s", p.FieldID, p.ID, ext)
	thumbPath := fmt.Sprintf("photos/%s/%s_thumb.jpg", p.FieldID, p.ID)

	if err := s.store.Save(ctx, p.StoragePath, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("save photo failed: %w", err)
	}
	if err := s.store.Save(ctx, thumbPath, bytes.NewReader(thumb)); err != nil {
		s.logger.Warn().Err(err).Str("photo_id", p.ID).Msg("failed to save thumbnail")
	} else {
		p.ThumbnailPath = &thumbPath
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.removeBlobs(ctx, p)
		return nil, err
	}

	s.logger.Info().Str("photo_id", p.ID).Str("field_id", p.FieldID).Int64("size", p.Size).Msg("photo uploaded")
	return p, nil
}

func (s *service) Get(ctx context.Context, id string) (*Photo, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListByField(ctx context.Context, fieldID string) ([]*Photo, error) {
	if _, err := s.fields.GetByID(ctx, fieldID); err != nil {
		return nil, err
	}
	return s.repo.ListByField(ctx, fieldID)
}

func (s *service) Open(ctx context.Context, id string) (io.ReadCloser, *Photo, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, p.StoragePath)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open photo failed: %w", err)
	}
	return rc, p, nil
}

func (s *service) OpenThumbnail(ctx context.Context, id string) (io.ReadCloser, *Photo, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if p.ThumbnailPath == nil {
		return nil, nil, ErrThumbnailNotFound
	}
	rc, err := s.store.Open(ctx, *p.ThumbnailPath)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, ErrThumbnailNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open thumbnail failed: %w", err)
	}
	return rc, p, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.removeBlobs(ctx, p)
	s.logger.Info().Str("photo_id", id).Msg("photo deleted")
	return nil
}

// removeBlobs is best effort; a leftover blob is unreachable once its row is gone.
func (s *service) removeBlobs(ctx context.Context, p *Photo) {
	paths := []string{p.StoragePath}
	if p.ThumbnailPath != nil {
		paths = append(paths, *p.ThumbnailPath)
	}
	for _, path := range paths {
		if err := s.store.Delete(ctx, path); err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("failed to remove photo blob")
		}
	}
}
