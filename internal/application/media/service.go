package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/pullup-coach/internal/application"
	domain "github.com/bryanwahyu/pullup-coach/internal/domain/media"
)

const (
	VideoRoute     = "/api/video/"
	ThumbnailRoute = "/api/thumbnail/"
)

// Service manages the example video library.
type Service struct {
	Repo       domain.Repository
	Videos     domain.ObjectStore
	Thumbnails domain.ObjectStore
	Prober     domain.Prober
	Clock      application.Clock
	Log        *zap.Logger

	TempDir           string
	AllowedExtensions []string
}

type UploadCommand struct {
	Name       string
	Annotation string
	Filename   string
	Body       io.Reader
}

// Upload stores a new example video with its thumbnail and records it.
// Stored files are removed again when the record cannot be written.
func (s *Service) Upload(ctx context.Context, cmd UploadCommand) (*domain.Video, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if cmd.Body == nil || cmd.Filename == "" {
		return nil, fmt.Errorf("%w: file is required", domain.ErrInvalidInput)
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(cmd.Filename)), ".")
	if !s.allowed(ext) {
		return nil, fmt.Errorf("%w: unsupported file type %q", domain.ErrInvalidInput, ext)
	}

	tmp, err := os.CreateTemp(s.TempDir, "media-*."+ext)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, cmd.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if size == 0 {
		return nil, fmt.Errorf("%w: file is empty", domain.ErrInvalidInput)
	}

	duration, err := s.Prober.Duration(ctx, tmpPath)
	if err != nil {
		s.Log.Warn("probe duration failed", zap.String("file", cmd.Filename), zap.Error(err))
	}
	thumbPath := tmpPath + ".jpg"
	defer os.Remove(thumbPath)
	if err := s.Prober.Thumbnail(ctx, tmpPath, thumbPath); err != nil {
		return nil, fmt.Errorf("generate thumbnail: %w", err)
	}

	base := strings.ReplaceAll(uuid.New().String(), "-", "")
	videoKey := base + "." + ext
	thumbKey := base + ".jpg"

	if err := s.Videos.PutFile(ctx, tmpPath, videoKey); err != nil {
		return nil, fmt.Errorf("store video: %w", err)
	}
	if err := s.Thumbnails.PutFile(ctx, thumbPath, thumbKey); err != nil {
		s.cleanup(ctx, videoKey, "")
		return nil, fmt.Errorf("store thumbnail: %w", err)
	}

	v := &domain.Video{
		Name:       name,
		Annotation: strings.TrimSpace(cmd.Annotation),
		Size:       size,
		URL:        VideoRoute + videoKey,
		Duration:   duration,
		Thumbnail:  ThumbnailRoute + thumbKey,
		CreatedAt:  s.Clock.Now(),
	}
	id, err := s.Repo.Create(ctx, v)
	if err != nil {
		s.cleanup(ctx, videoKey, thumbKey)
		return nil, fmt.Errorf("save video record: %w", err)
	}
	v.ID = id
	s.Log.Info("example video uploaded", zap.Int64("id", id), zap.String("file", videoKey), zap.Int64("size", size))
	return v, nil
}

func (s *Service) List(ctx context.Context) ([]*domain.Video, error) {
	return s.Repo.List(ctx)
}

// OpenVideo opens a stored video by its generated file name.
func (s *Service) OpenVideo(ctx context.Context, name string) (domain.Object, error) {
	if !validKey(name) {
		return nil, domain.ErrNotFound
	}
	return s.Videos.Open(ctx, name)
}

// OpenThumbnail opens a stored thumbnail by its generated file name.
func (s *Service) OpenThumbnail(ctx context.Context, name string) (domain.Object, error) {
	if !validKey(name) {
		return nil, domain.ErrNotFound
	}
	return s.Thumbnails.Open(ctx, name)
}

func (s *Service) allowed(ext string) bool {
	for _, a := range s.AllowedExtensions {
		if strings.EqualFold(strings.TrimPrefix(a, "."), ext) {
			return ext != ""
		}
	}
	return false
}

func (s *Service) cleanup(ctx context.Context, videoKey, thumbKey string) {
	ctx = context.WithoutCancel(ctx)
	if videoKey != "" {
		if err := s.Videos.Remove(ctx, videoKey); err != nil {
			s.Log.Warn("remove video failed", zap.String("file", videoKey), zap.Error(err))
		}
	}
	if thumbKey != "" {
		if err := s.Thumbnails.Remove(ctx, thumbKey); err != nil {
			s.Log.Warn("remove thumbnail failed", zap.String("file", thumbKey), zap.Error(err))
		}
	}
}

// validKey accepts only flat names such as "3f2a...e1.mp4".
func validKey(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}
