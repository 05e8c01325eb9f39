// handlers/admin_routes.go
package handlers

import (
	"club-platform/middleware"
	"club-platform/models"
	"club-platform/services"

	"github.com/gofiber/fiber/v2"
)

// A blank domain is left to AssignDomain, which answers INVALID_DOMAIN.
type assignDomainRequest struct {
	Domain string `json:"domain" validate:"max=100"`
}

type registrationStatusRequest struct {
	Status models.RegistrationStatus `json:"status" validate:"required,oneof=pending accepted rejected"`
}

type eventStatusRequest struct {
	Status models.EventStatus `json:"status" validate:"required,oneof=upcoming live past"`
}

type rejectRequest struct {
	// Blank feedback is rejected by the tracker with MISSING_FEEDBACK.
	Feedback string `json:"feedback" validate:"max=5000"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required"`
}

// AdminServices groups what the admin routes call into.
type AdminServices struct {
	Events        *services.EventService
	Domains       *services.DomainService
	Checkpoints   *services.CheckpointService
	Awards        *services.AwardService
	Users         *services.UserService
	Registrations *services.RegistrationService
}

// SetupAdminRoutes expects admin to already require core_member or above.
func SetupAdminRoutes(admin fiber.Router, s AdminServices) {
	// Events
	admin.Post("/events", func(c *fiber.Ctx) error {
		var req services.EventInput
		if err := bind(c, &req); err != nil {
			return badRequest(c, err)
		}
		event, err := s.Events.CreateEvent(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(event)
	})

	admin.Patch("/events/:id/status", func(c *fiber.Ctx) error {
		var req eventStatusRequest
		if err := bind(c, &req); err != nil {
			return badRequest(c, err)
		}
		event, err := s.Events.AdvanceStatus(c.UserContext(), c.Params("id"), req.Status)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(event)
	})

	admin.Delete("/events/:id", middleware.RequireRole(models.RoleDeputyConvener), func(c *fiber.Ctx) error {
		if err := s.Events.DeleteEvent(c.UserContext(), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	admin.Get("/events/:id/roster", func(c *fiber.Ctx) error {
		roster, err := s.Domains.ListDomainRoster(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(roster)
	})

	admin.Get("/events/:id/teams", func(c *fiber.Ctx) error {
		teams, err := s.Events.ListTeams(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(teams)
	})

	admin.Get("/events/:id/checkpoints/pending", func(c *fiber.Ctx) error {
		list, err := s.Checkpoints.ListPendingReviews(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(list)
	})

	admin.Post("/events/:id/awards", func(c *fiber.Ctx) error {
		var req services.AwardInput
		if err := bind(c, &req); err != nil {
			return badRequest(c, err)
		}
		award, err := s.Awards.CreateAward(c.UserContext(), c.Params("id"), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(award)
	})

	// Registrations
	admin.Patch("/registrations/:id/domain", func(c *fiber.Ctx) error {
		var req assignDomainRequest
		if err := bind(c, &req); err != nil {
			return badRequest(c, err)
		}
		reg, err := s.Domains.AssignDomain(c.UserContext(), c.Params("id"), req.Domain)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"registration_id": reg.ID, "assigned_domain": reg.AssignedDomain})
	})

	admin.Patch("/registrations/:id/status", func(c *fiber.Ctx) error {
		var req registrationStatusRequest
		if err := bind(c, &req); err != nil {
			return badRequest(c, err)
		}
		reg, err := s.Domains.SetRegistrationStatus(c.UserContext(), c.Params("id"), req.Status)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"registration_id": reg.ID, "status": reg.Status})
	})

	// Checkpoint review
	admin.Post("/checkpoints/:id/approve", func(c *fiber.Ctx) error {
		reviewer := middleware.CurrentUser(c)
		res, err := s.Checkpoints.ApproveCheckpoint(c.UserContext(), c.Params("id"), reviewer.ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	})

	admin.Post("/checkpoints/:id/reject", func(c *fiber.Ctx) error {
		var req rejectRequest
		if err := bind(c, &req); err != nil {
			return badRequest(c, err)
		}
		reviewer := middleware.CurrentUser(c)
		cp, err := s.Checkpoints.RejectCheckpoint(c.UserContext(), c.Params("id"), req.Feedback, reviewer.ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(cp)
	})

	// Users
	admin.Get("/users", func(c *fiber.Ctx) error {
		users, err := s.Users.SearchUsers(c.UserContext(), c.Query("q"), queryLimit(c, 50))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(users)
	})

	conveners := admin.Group("/users", middleware.RequireRole(models.RoleConvener))

	conveners.Patch("/:id/role", func(c *fiber.Ctx) error {
		var req roleRequest
		if err := bind(c, &req); err != nil {
			return badRequest(c, err)
		}
		role, err := models.ParseRole(req.Role)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error(), "code": "INVALID_INPUT"})
		}
		actor := middleware.CurrentUser(c)
		user, err := s.Users.SetRole(c.UserContext(), actor.Role, c.Params("id"), role)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(user)
	})

	conveners.Delete("/:id", func(c *fiber.Ctx) error {
		if err := s.Users.RemoveUser(c.UserContext(), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
