package handler

import (
	"fmt"
	"io"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/tripdesk/internal/domain"
	"github.com/mansoorceksport/tripdesk/internal/service"
)

type MediaHandler struct {
	mediaService *service.MediaService
	maxUploadMB  int64
}

func NewMediaHandler(mediaService *service.MediaService, maxUploadMB int64) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
		maxUploadMB:  maxUploadMB,
	}
}

// UploadImage POST /v1/admin/media/images (multipart: file, folder)
func (h *MediaHandler) UploadImage(c *fiber.Ctx) error {
	data, filename, err := h.readUpload(c)
	if err != nil {
		return respondError(c, err)
	}

	asset, err := h.mediaService.UploadImage(c.UserContext(), data, filename, c.FormValue("folder"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(asset)
}

// UploadVideo POST /v1/admin/media/videos (multipart: file, folder)
func (h *MediaHandler) UploadVideo(c *fiber.Ctx) error {
	data, filename, err := h.readUpload(c)
	if err != nil {
		return respondError(c, err)
	}

	asset, err := h.mediaService.UploadVideo(c.UserContext(), data, filename, c.FormValue("folder"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(asset)
}

// DeleteImage DELETE /v1/admin/media/images/<publicId>?confirm=true
func (h *MediaHandler) DeleteImage(c *fiber.Ctx) error {
	if !c.QueryBool("confirm") {
		return confirmRequired(c)
	}
	publicID, err := url.PathUnescape(c.Params("+"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid public id"})
	}

	if err := h.mediaService.DeleteImage(c.UserContext(), publicID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteVideo DELETE /v1/admin/media/videos/<publicId>?confirm=true
func (h *MediaHandler) DeleteVideo(c *fiber.Ctx) error {
	if !c.QueryBool("confirm") {
		return confirmRequired(c)
	}
	publicID, err := url.PathUnescape(c.Params("+"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid public id"})
	}

	if err := h.mediaService.DeleteVideo(c.UserContext(), publicID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *MediaHandler) readUpload(c *fiber.Ctx) ([]byte, string, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, "", domain.NewValidationError("file", "is required")
	}

	maxBytes := h.maxUploadMB * 1024 * 1024
	if fileHeader.Size > maxBytes {
		return nil, "", domain.NewValidationError("file", fmt.Sprintf("exceeds maximum of %dMB", h.maxUploadMB))
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read uploaded file: %w", err)
	}
	return data, fileHeader.Filename, nil
}
