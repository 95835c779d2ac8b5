package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lexpraxis/LexPraxis/internal/pkg/billing"
	"github.com/lexpraxis/LexPraxis/internal/pkg/vault"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter wires all route groups. The vault and billing service are
// constructed once at startup and injected into every controller that needs
// them.
func InstallRouter(app *fiber.App, v *vault.Vault, svc *billing.Service) {
	setup(app, NewApiRouter(v, svc))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
