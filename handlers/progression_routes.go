// handlers/progression_routes.go
package handlers

import (
	"club-platform/middleware"
	"club-platform/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProgressionRoutes(secured fiber.Router, users *services.UserService, progression *services.ProgressionService) {
	secured.Get("/me", func(c *fiber.Ctx) error {
		profile, err := users.GetProfile(c.UserContext(), middleware.CurrentUser(c).ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(profile)
	})

	secured.Get("/me/progress", func(c *fiber.Ctx) error {
		prog, err := progression.GetProgress(c.UserContext(), middleware.CurrentUser(c).ID, queryLimit(c, 20))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(prog)
	})

	secured.Get("/leaderboard", func(c *fiber.Ctx) error {
		board, err := progression.Leaderboard(c.UserContext(), queryLimit(c, 20))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(board)
	})
}
