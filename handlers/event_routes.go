// handlers/event_routes.go
package handlers

import (
	"club-platform/middleware"
	"club-platform/models"
	"club-platform/services"

	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Mode             string         `json:"mode" validate:"omitempty,oneof=create_team join_team solo"`
	TeamName         string         `json:"team_name" validate:"max=80"`
	JoinCode         string         `json:"join_code" validate:"omitempty,max=16"`
	Answers          map[string]any `json:"answers"`
	DomainPriorities []string       `json:"domain_priorities" validate:"max=10"`
}

// intent picks the registration mode. Without an explicit mode a join code
// means JoinTeam and anything else means CreateTeam.
func (r registerRequest) intent() services.Intent {
	mode := r.Mode
	if mode == "" {
		if r.JoinCode != "" {
			mode = "join_team"
		} else {
			mode = "create_team"
		}
	}
	switch mode {
	case "join_team":
		return services.JoinTeam{JoinCode: r.JoinCode, Answers: r.Answers, DomainPriorities: r.DomainPriorities}
	case "solo":
		return services.Solo{Answers: r.Answers, DomainPriorities: r.DomainPriorities}
	default:
		return services.CreateTeam{TeamName: r.TeamName, Answers: r.Answers, DomainPriorities: r.DomainPriorities}
	}
}

func SetupEventRoutes(secured fiber.Router, events *services.EventService, registrations *services.RegistrationService, awards *services.AwardService) {
	secured.Get("/events", func(c *fiber.Ctx) error {
		list, err := events.ListEvents(c.UserContext(), models.EventStatus(c.Query("status")))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(list)
	})

	// :id accepts the event id or its slug
	secured.Get("/events/:id", func(c *fiber.Ctx) error {
		event, err := events.GetEvent(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(event)
	})

	secured.Get("/events/:id/teams", func(c *fiber.Ctx) error {
		event, err := events.GetEvent(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		teams, err := events.ListTeams(c.UserContext(), event.ID)
		if err != nil {
			return respondError(c, err)
		}
		// Join codes are only for members to share.
		for i := range teams {
			teams[i].JoinCode = ""
		}
		return c.JSON(teams)
	})

	secured.Get("/events/:id/awards", func(c *fiber.Ctx) error {
		event, err := events.GetEvent(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		list, err := awards.ListAwards(c.UserContext(), event.ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(list)
	})

	secured.Post("/events/:id/register", func(c *fiber.Ctx) error {
		var req registerRequest
		if err := bind(c, &req); err != nil {
			return badRequest(c, err)
		}
		userID := c.Locals(middleware.LocalUserID).(string)

		res, err := registrations.Register(c.UserContext(), userID, c.Params("id"), req.intent())
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})

	secured.Get("/events/:id/registration", func(c *fiber.Ctx) error {
		userID := c.Locals(middleware.LocalUserID).(string)
		reg, err := registrations.GetRegistration(c.UserContext(), userID, c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(reg)
	})

	secured.Get("/teams/:id/members", func(c *fiber.Ctx) error {
		members, err := registrations.ListTeamMembers(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		type member struct {
			UserID      string `json:"user_id"`
			DisplayName string `json:"display_name"`
		}
		out := make([]member, 0, len(members))
		for _, m := range members {
			entry := member{UserID: m.UserID}
			if m.User != nil {
				entry.DisplayName = m.User.DisplayName
			}
			out = append(out, entry)
		}
		return c.JSON(out)
	})
}
