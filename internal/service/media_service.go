package service

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/mansoorceksport/tripdesk/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	thumbnailWidth   = 300
	thumbnailQuality = 80
	thumbnailDir     = "thumbs"
	defaultFolder    = "packages"
)

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
}

var folderPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*(/[a-z0-9][a-z0-9_-]*)*$`)

// MediaService stores package photos and videos in the blob store.
// Public ids are object keys: "<folder>/<uuid><ext>".
type MediaService struct {
	files    domain.FileRepository
	maxBytes int64
}

func NewMediaService(files domain.FileRepository, maxBytes int64) *MediaService {
	return &MediaService{files: files, maxBytes: maxBytes}
}

// UploadImage stores the original and a 300px wide JPEG thumbnail
func (s *MediaService) UploadImage(ctx context.Context, data []byte, filename, folder string) (*domain.MediaAsset, error) {
	ctx, span := tracer.Start(ctx, "MediaService.UploadImage",
		trace.WithAttributes(attribute.Int("file.bytes", len(data))),
	)
	defer span.End()

	ext, contentType, err := s.checkFile(data, filename, imageTypes)
	if err != nil {
		return nil, err
	}
	folder, err = cleanFolder(folder)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, domain.NewValidationError("file", "is not a readable image")
	}

	var thumb bytes.Buffer
	resized := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	if err := imaging.Encode(&thumb, resized, imaging.JPEG, imaging.JPEGQuality(thumbnailQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	publicID := folder + "/" + uuid.NewString() + ext
	url, err := s.files.Upload(ctx, data, publicID, contentType)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	thumbURL, err := s.files.Upload(ctx, thumb.Bytes(), thumbnailKey(publicID), "image/jpeg")
	if err != nil {
		span.RecordError(err)
		_ = s.files.Delete(ctx, publicID)
		return nil, err
	}

	bounds := img.Bounds()
	return &domain.MediaAsset{
		PublicID:     publicID,
		SecureURL:    url,
		ThumbnailURL: thumbURL,
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
		Bytes:        len(data),
		Format:       strings.TrimPrefix(ext, "."),
		ResourceType: domain.ResourceImage,
	}, nil
}

func (s *MediaService) UploadVideo(ctx context.Context, data []byte, filename, folder string) (*domain.MediaAsset, error) {
	ctx, span := tracer.Start(ctx, "MediaService.UploadVideo",
		trace.WithAttributes(attribute.Int("file.bytes", len(data))),
	)
	defer span.End()

	ext, contentType, err := s.checkFile(data, filename, videoTypes)
	if err != nil {
		return nil, err
	}
	folder, err = cleanFolder(folder)
	if err != nil {
		return nil, err
	}

	publicID := folder + "/" + uuid.NewString() + ext
	url, err := s.files.Upload(ctx, data, publicID, contentType)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return &domain.MediaAsset{
		PublicID:     publicID,
		SecureURL:    url,
		Bytes:        len(data),
		Format:       strings.TrimPrefix(ext, "."),
		ResourceType: domain.ResourceVideo,
	}, nil
}

// DeleteImage removes the original and its thumbnail
func (s *MediaService) DeleteImage(ctx context.Context, publicID string) error {
	if err := s.checkPublicID(publicID, imageTypes); err != nil {
		return err
	}
	if err := s.mustExist(ctx, publicID); err != nil {
		return err
	}
	return s.files.Delete(ctx, publicID, thumbnailKey(publicID))
}

func (s *MediaService) DeleteVideo(ctx context.Context, publicID string) error {
	if err := s.checkPublicID(publicID, videoTypes); err != nil {
		return err
	}
	if err := s.mustExist(ctx, publicID); err != nil {
		return err
	}
	return s.files.Delete(ctx, publicID)
}

func (s *MediaService) checkFile(data []byte, filename string, allowed map[string]string) (ext, contentType string, err error) {
	if len(data) == 0 {
		return "", "", domain.NewValidationError("file", "is empty")
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", "", domain.NewValidationError("file", fmt.Sprintf("exceeds %d bytes", s.maxBytes))
	}
	ext = strings.ToLower(path.Ext(filename))
	contentType, ok := allowed[ext]
	if !ok {
		return "", "", domain.NewValidationError("file", fmt.Sprintf("type %q is not allowed", ext))
	}
	return ext, contentType, nil
}

func (s *MediaService) checkPublicID(publicID string, allowed map[string]string) error {
	dir, file := path.Split(publicID)
	if file == "" || strings.Contains(publicID, "..") || !folderPattern.MatchString(strings.TrimSuffix(dir, "/")) {
		return domain.NewValidationError("publicId", "is malformed")
	}
	if _, ok := allowed[strings.ToLower(path.Ext(file))]; !ok {
		return domain.NewValidationError("publicId", "has an unexpected extension")
	}
	return nil
}

func (s *MediaService) mustExist(ctx context.Context, publicID string) error {
	ok, err := s.files.Exists(ctx, publicID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAssetNotFound
	}
	return nil
}

// thumbnailKey maps "packages/abc.png" to "packages/thumbs/abc.jpg"
func thumbnailKey(publicID string) string {
	dir, file := path.Split(publicID)
	return dir + thumbnailDir + "/" + strings.TrimSuffix(file, path.Ext(file)) + ".jpg"
}

func cleanFolder(folder string) (string, error) {
	folder = strings.Trim(strings.ToLower(strings.TrimSpace(folder)), "/")
	if folder == "" {
		return defaultFolder, nil
	}
	if !folderPattern.MatchString(folder) {
		return "", domain.NewValidationError("folder", "may only contain lowercase letters, digits, dashes and slashes")
	}
	return folder, nil
}
