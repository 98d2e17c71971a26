package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/tripdesk/internal/domain"
	"github.com/mansoorceksport/tripdesk/internal/telemetry"
)

// respondError maps domain errors to HTTP responses. Store failures are
// logged and answered with a generic message.
func respondError(c *fiber.Ctx, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body := fiber.Map{"error": verr.Error()}
		if verr.Field != "" {
			body["field"] = verr.Field
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(body)
	}

	var cerr *domain.CapacityExceededError
	if errors.As(err, &cerr) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":               cerr.Error(),
			"dateRangeId":         cerr.DateRangeID,
			"maxParticipants":     cerr.Max,
			"currentParticipants": cerr.Current,
		})
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidID):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrVersionConflict), errors.Is(err, domain.ErrLockBusy):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrValidation):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	log.Printf("Error: %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

// confirmRequired answers destructive requests sent without ?confirm=true
func confirmRequired(c *fiber.Ctx) error {
	return c.Status(fiber.StatusPreconditionRequired).JSON(fiber.Map{
		"error": "Destructive operation, repeat the request with ?confirm=true",
	})
}

func packageType(c *fiber.Ctx) (domain.PackageType, error) {
	pkgType, err := domain.ParsePackageType(c.Params("type"))
	if err == nil {
		telemetry.SetSpanAttribute(c, "package.type", string(pkgType))
	}
	return pkgType, err
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
}
