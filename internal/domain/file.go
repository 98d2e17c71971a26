package domain

import (
	"context"
)

// Media resource types
const (
	ResourceImage = "image"
	ResourceVideo = "video"
)

// MediaAsset describes an uploaded image or video
type MediaAsset struct {
	PublicID     string `json:"publicId"`
	SecureURL    string `json:"secureUrl"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Bytes        int    `json:"bytes"`
	Format       string `json:"format"`
	ResourceType string `json:"resourceType"`
}

// FileRepository defines the interface for file storage operations
type FileRepository interface {
	// Upload saves a file and returns its access URL
	Upload(ctx context.Context, file []byte, filename string, contentType string) (string, error)
	// Delete removes the given keys; missing keys are not an error
	Delete(ctx context.Context, filenames ...string) error
	// Exists reports whether a key is present
	Exists(ctx context.Context, filename string) (bool, error)
}
