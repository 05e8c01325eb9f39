// handlers/checkpoint_routes.go
package handlers

import (
	"context"
	"log"
	"mime/multipart"
	"strconv"
	"strings"

	"club-platform/middleware"
	"club-platform/models"
	"club-platform/services"
	"club-platform/utils"

	"github.com/gofiber/fiber/v2"
)

// Uploader stores an attachment and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, fileHeader *multipart.FileHeader) (string, error)
}

type submitCheckpointRequest struct {
	Content string `json:"content" form:"content" validate:"max=10000"`
}

// SetupCheckpointRoutes wires participant submissions. uploads may be nil,
// in which case attachments are refused.
func SetupCheckpointRoutes(secured fiber.Router, checkpoints *services.CheckpointService, registrations *services.RegistrationService, uploads Uploader) {
	secured.Put("/registrations/:id/checkpoints/:week", func(c *fiber.Ctx) error {
		user := middleware.CurrentUser(c)
		reg, err := registrations.GetRegistrationByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		if reg.UserID != user.ID {
			return respondError(c, services.ErrNotRegistered)
		}
		return submitCheckpoint(c, checkpoints, uploads, reg.ID)
	})

	secured.Put("/events/:id/checkpoints/:week", func(c *fiber.Ctx) error {
		user := middleware.CurrentUser(c)
		reg, err := registrations.GetRegistration(c.UserContext(), user.ID, c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return submitCheckpoint(c, checkpoints, uploads, reg.ID)
	})

	secured.Get("/registrations/:id/checkpoints", func(c *fiber.Ctx) error {
		user := middleware.CurrentUser(c)
		reg, err := registrations.GetRegistrationByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		if reg.UserID != user.ID && !user.Role.AtLeast(models.RoleCoreMember) {
			return respondError(c, services.ErrRegistrationNotFound)
		}
		list, err := checkpoints.ListCheckpoints(c.UserContext(), reg.ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(list)
	})
}

func submitCheckpoint(c *fiber.Ctx, checkpoints *services.CheckpointService, uploads Uploader, registrationID string) error {
	week, err := strconv.Atoi(c.Params("week"))
	if err != nil {
		return respondError(c, services.ErrInvalidWeek)
	}

	var req submitCheckpointRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	content := strings.TrimSpace(req.Content)

	if fh, err := c.FormFile("attachment"); err == nil {
		if uploads == nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "attachments are disabled"})
		}
		if err := utils.CheckAttachment(fh); err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}
		url, err := uploads.Upload(c.UserContext(), utils.AttachmentKey(registrationID, week, fh.Filename), fh)
		if err != nil {
			log.Printf("❌ [CHECKPOINT] attachment upload for %s failed: %v", registrationID, err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "attachment upload failed"})
		}
		if content == "" {
			content = url
		} else {
			content = content + "\n" + url
		}
	}

	cp, err := checkpoints.SubmitCheckpoint(c.UserContext(), registrationID, week, content)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cp)
}
