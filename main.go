package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/rohanmehra24/memory-lane/auth"
	"github.com/rohanmehra24/memory-lane/config"
	"github.com/rohanmehra24/memory-lane/database"
	handler "github.com/rohanmehra24/memory-lane/handlers"
	"github.com/rohanmehra24/memory-lane/models"
	"github.com/rohanmehra24/memory-lane/router"
	"github.com/rohanmehra24/memory-lane/storage"
	"github.com/rohanmehra24/memory-lane/vision"
)

func main() {
	ctx := context.Background()

	_ = database.GetDB()

	// Run migrations
	err := database.MigrateModels(&models.User{}, &models.Memory{})
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	auth.SetupAuthService()

	uploader, err := storage.NewClientUploader(ctx,
		config.Config("GCS_PROJECT_ID"),
		config.Config("GCS_BUCKET_NAME"),
	)
	if err != nil {
		log.Fatalf("Failed to create storage uploader: %v", err)
	}

	captioner, err := vision.NewCaptioner(ctx, config.Optional("CAPTION_MODEL", "gemini-2.5-flash"))
	if err != nil {
		log.Fatalf("Failed to create captioner: %v", err)
	}

	handler.SetupMemoryHandlers(uploader, []vision.Engine{
		vision.NewLabeler(
			config.Config("OPENAI_API_KEY"),
			config.Optional("OPENAI_BASE_URL", ""),
			config.Optional("LABEL_MODEL", "gpt-4o-mini"),
		),
		vision.NewScorer(
			config.Config("VISION_SCORER_URL"),
			config.Config("VISION_SCORER_KEY"),
		),
		captioner,
	})

	app := fiber.New(fiber.Config{
		BodyLimit: 25 * 1024 * 1024,
	})

	app.Get("/hello", func(c *fiber.Ctx) error {
		return c.SendString("Hello, World!")
	})

	router.SetupRoutes(app)

	// close the database connection
	defer func() {
		if err := database.CloseDB(); err != nil {
			fmt.Printf("Error closing the Database connection %v", err)
			log.Fatal(err)
		}
	}()

	fmt.Println("Server is listening at the port 3000")
	log.Fatal(app.Listen(":3000"))
}
