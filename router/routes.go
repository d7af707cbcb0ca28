package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	handler "github.com/rohanmehra24/memory-lane/handlers"
	"github.com/rohanmehra24/memory-lane/middleware"
)

func SetupRoutes(app *fiber.App) {
	api := app.Group("/api", logger.New())

	// Auth
	auth := api.Group("/auth")
	auth.Post("/login", handler.Login)
	auth.Post("/logout", handler.Logout)

	// User
	user := api.Group("/user")
	user.Post("/", handler.CreateUser)
	user.Get("/:id", middleware.AuthMiddleware(), handler.GetUser)
	user.Post("/:id", middleware.AuthMiddleware(), handler.UpdateUser)
	user.Delete("/:id", middleware.AuthMiddleware(), handler.DeleteUser)

	// Memories
	memories := api.Group("/memories", middleware.AuthMiddleware())
	memories.Post("/upload", handler.UploadMemory)
	memories.Get("/all", handler.FetchMemories)
	memories.Get("/tags", handler.TagCounts)
	memories.Post("/search", handler.SearchMemories)
	memories.Get("/id/:id", handler.FetchMemory)
	memories.Post("/id/:id/update", handler.UpdateMemory)
	memories.Post("/id/:id/tags", handler.StoreTags)
	memories.Delete("/id/:id", handler.DeleteMemory)
}
