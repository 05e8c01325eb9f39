package handlers

import (
	"errors"
	"log"
	"strconv"

	"club-platform/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

var errBadBody = errors.New("invalid JSON body")

// bind parses the JSON body into dst and runs its validate tags.
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return errBadBody
	}
	return validate.Struct(dst)
}

// badRequest answers a bind failure: 400 for unparseable bodies, 422 with
// per-field tags for validation failures.
func badRequest(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = fe.Tag()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "validation failed",
			"code":   "VALIDATION_FAILED",
			"fields": fields,
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindConflict:
		return fiber.StatusConflict
	case services.KindValidation:
		return fiber.StatusUnprocessableEntity
	case services.KindTransient:
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// respondError maps a service failure to its HTTP status and machine code.
func respondError(c *fiber.Ctx, err error) error {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		status := statusFor(svcErr.Kind)
		if svcErr.Kind == services.KindTransient {
			log.Printf("❌ [HTTP] %s %s: %v", c.Method(), c.Path(), err)
			c.Set(fiber.HeaderRetryAfter, "1")
		}
		return c.Status(status).JSON(fiber.Map{
			"error": svcErr.Message,
			"code":  svcErr.Code,
		})
	}
	log.Printf("❌ [HTTP] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

func queryLimit(c *fiber.Ctx, def int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
