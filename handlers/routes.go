// handlers/routes.go
package handlers

import (
	"club-platform/middleware"
	"club-platform/models"
	"club-platform/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Deps is everything the HTTP layer needs. Uploads may be nil.
type Deps struct {
	Events        *services.EventService
	Registrations *services.RegistrationService
	Checkpoints   *services.CheckpointService
	Domains       *services.DomainService
	Awards        *services.AwardService
	Users         *services.UserService
	Progression   *services.ProgressionService
	Uploads       Uploader
}

// NewDeps builds every service on one database handle.
func NewDeps(db *gorm.DB, xpReward int64, defaultMaxTeamSize, joinCodeAttempts int) Deps {
	return Deps{
		Events:        services.NewEventService(db, defaultMaxTeamSize),
		Registrations: services.NewRegistrationService(db, joinCodeAttempts),
		Checkpoints:   services.NewCheckpointService(db, xpReward),
		Domains:       services.NewDomainService(db),
		Awards:        services.NewAwardService(db),
		Users:         services.NewUserService(db),
		Progression:   services.NewProgressionService(db),
	}
}

// SetupRoutes mounts every user-facing route behind the user context
// middleware. Gateway authentication is applied by the caller.
func SetupRoutes(router fiber.Router, d Deps) {
	secured := router.Group("/", middleware.UserContextMiddleware(d.Users))

	SetupEventRoutes(secured, d.Events, d.Registrations, d.Awards)
	SetupCheckpointRoutes(secured, d.Checkpoints, d.Registrations, d.Uploads)
	SetupProgressionRoutes(secured, d.Users, d.Progression)

	admin := secured.Group("/admin", middleware.RequireRole(models.RoleCoreMember))
	SetupAdminRoutes(admin, AdminServices{
		Events:        d.Events,
		Domains:       d.Domains,
		Checkpoints:   d.Checkpoints,
		Awards:        d.Awards,
		Users:         d.Users,
		Registrations: d.Registrations,
	})
}
