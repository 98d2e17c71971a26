package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/mansoorceksport/tripdesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadImage_StoresOriginalAndThumbnail(t *testing.T) {
	files := newMemFiles()
	svc := NewMediaService(files, 0)

	asset, err := svc.UploadImage(context.Background(), testPNG(t, 600, 400), "Beach.PNG", "packages/surf")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(asset.PublicID, "packages/surf/"))
	assert.True(t, strings.HasSuffix(asset.PublicID, ".png"))
	assert.Equal(t, 600, asset.Width)
	assert.Equal(t, 400, asset.Height)
	assert.Equal(t, "png", asset.Format)
	assert.Equal(t, domain.ResourceImage, asset.ResourceType)
	assert.Equal(t, "image/png", files.types[asset.PublicID])

	thumbKey := thumbnailKey(asset.PublicID)
	require.Contains(t, files.files, thumbKey)
	assert.Equal(t, "image/jpeg", files.types[thumbKey])
	assert.Contains(t, asset.ThumbnailURL, thumbKey)

	thumb, err := imaging.Decode(bytes.NewReader(files.files[thumbKey]))
	require.NoError(t, err)
	assert.Equal(t, 300, thumb.Bounds().Dx())
	assert.Equal(t, 200, thumb.Bounds().Dy())
}

func TestUploadImage_Rejections(t *testing.T) {
	svc := NewMediaService(newMemFiles(), 1<<20)
	ctx := context.Background()

	tests := []struct {
		name     string
		data     []byte
		filename string
		folder   string
	}{
		{"empty", nil, "a.png", ""},
		{"extension", testPNG(t, 4, 4), "a.bmp", ""},
		{"not an image", []byte("hello"), "a.png", ""},
		{"too large", make([]byte, 2<<20), "a.png", ""},
		{"folder traversal", testPNG(t, 4, 4), "a.png", "../etc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UploadImage(ctx, tt.data, tt.filename, tt.folder)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestUploadVideo(t *testing.T) {
	files := newMemFiles()
	svc := NewMediaService(files, 0)

	asset, err := svc.UploadVideo(context.Background(), []byte("fake mp4 bytes"), "clip.mp4", "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(asset.PublicID, "packages/"))
	assert.Equal(t, domain.ResourceVideo, asset.ResourceType)
	assert.Equal(t, "video/mp4", files.types[asset.PublicID])

	_, err = svc.UploadVideo(context.Background(), []byte("x"), "clip.avi", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeleteImage_RemovesThumbnail(t *testing.T) {
	files := newMemFiles()
	svc := NewMediaService(files, 0)
	ctx := context.Background()

	asset, err := svc.UploadImage(ctx, testPNG(t, 50, 50), "a.png", "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteImage(ctx, asset.PublicID))
	assert.Empty(t, files.files)

	assert.ErrorIs(t, svc.DeleteImage(ctx, asset.PublicID), domain.ErrAssetNotFound)
	assert.ErrorIs(t, svc.DeleteImage(ctx, "../secret.png"), domain.ErrValidation)
	assert.ErrorIs(t, svc.DeleteVideo(ctx, asset.PublicID), domain.ErrValidation)
}

func TestThumbnailKey(t *testing.T) {
	assert.Equal(t, "packages/thumbs/abc.jpg", thumbnailKey("packages/abc.png"))
	assert.Equal(t, "a/b/thumbs/x.jpg", thumbnailKey("a/b/x.jpeg"))
}
