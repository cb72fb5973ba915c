package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"

	"github.com/devlance-app/devlance_be/internal/cache"
	"github.com/devlance-app/devlance_be/internal/config"
	"github.com/devlance-app/devlance_be/internal/db"
	"github.com/devlance-app/devlance_be/internal/handlers"
	"github.com/devlance-app/devlance_be/internal/middleware"
	"github.com/devlance-app/devlance_be/internal/models"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.ClientProfile{},
		&models.DeveloperProfile{},
		&models.Job{},
		&models.Proposal{},
	); err != nil {
		log.Fatal(err)
	}

	// Browse cache is best-effort; the API runs fine without redis.
	var jobsCache *cache.JobsCache
	rdb := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Println("Redis unavailable, browse cache disabled:", err)
	} else {
		jobsCache = &cache.JobsCache{RDB: rdb}
	}

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	app.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Static("/uploads", cfg.UploadDir)

	authH := &handlers.AuthHandler{
		DB:        gdb,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	googleH := &handlers.GoogleOAuthHandler{
		DB:              gdb,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	onboardH := handlers.NewOnboardingHandler(gdb, cfg.UploadDir, cfg.AppBaseURL, cfg.JWTSecret, cfg.JWTExpiresMin)
	jobH := handlers.NewJobHandler(gdb, jobsCache)
	browseH := handlers.NewBrowseHandler(gdb, jobsCache)
	proposalH := handlers.NewProposalHandler(gdb)
	userH := handlers.NewUserHandler(gdb)

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)
	api.Get("/jobs", browseH.List)
	api.Get("/users/:id", userH.GetProfile)

	// protected (JWT)
	protected := api.Group("/",
		middleware.JWTFromCookie(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/me", authH.Me)
	protected.Get("/jobs/:jobId", jobH.Get)

	// onboarding: role first, then the matching profile
	protected.Post("/onboarding/role", onboardH.SetRole)
	protected.Post("/onboarding/client-profile",
		middleware.RequireRoles("client"),
		onboardH.SetupClientProfile,
	)
	protected.Post("/onboarding/developer-profile",
		middleware.RequireRoles("developer"),
		onboardH.SetupDeveloperProfile,
	)
	protected.Post("/onboarding/proof",
		middleware.RequireRoles("developer"),
		onboardH.UploadProof,
	)

	// client only
	client := protected.Group("/client", middleware.RequireRoles("client"))
	client.Post("/jobs", jobH.Create)
	client.Get("/jobs", jobH.ListMine)
	client.Put("/jobs/:jobId", jobH.Update)
	client.Patch("/jobs/:jobId/status", jobH.ToggleStatus)
	client.Delete("/jobs/:jobId", jobH.Delete)
	client.Patch("/jobs/:jobId/proposals/:proposalId", proposalH.Decide)

	// developer only
	developer := protected.Group("/developer", middleware.RequireRoles("developer"))
	developer.Post("/proposals", proposalH.Submit)
	developer.Get("/proposals", proposalH.ListMine)

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
