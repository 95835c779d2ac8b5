package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/lexpraxis/LexPraxis/app/repository"
	"github.com/lexpraxis/LexPraxis/internal/pkg/billing"
	"github.com/lexpraxis/LexPraxis/internal/pkg/cache"
	"github.com/lexpraxis/LexPraxis/internal/pkg/database"
	"github.com/lexpraxis/LexPraxis/internal/pkg/env"
	"github.com/lexpraxis/LexPraxis/internal/pkg/router"
	"github.com/lexpraxis/LexPraxis/internal/pkg/vault"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	v := vault.New(repository.GetGlobalFactory().GetSecretRepository())
	client := billing.NewClient(v)
	svc := billing.NewServiceFromDB(database.GetDB(), client)

	app := fiber.New(fiber.Config{
		AppName: "LexPraxis Billing Sync",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// ROUTER
	router.InstallRouter(app, v, svc)

	return app
}
