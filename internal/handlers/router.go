package handlers

import (
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"internmatch/profile-builder/internal/repositories"
	"internmatch/profile-builder/internal/services"
)

// multipart overhead allowed on top of the largest accepted file
const bodyLimitSlack = 1 << 20

type Dependencies struct {
	Sessions  *services.SessionManager
	Profiles  services.ProfileService
	Generator services.DocumentGenerator
	Parser    services.ResumeParserService
	Storage   services.StorageService
	Uploads   repositories.ResumeUploadRepository
	Bus       services.PreviewBus

	JWTSecret   string
	JWTIssuer   string
	MaxFileSize int64
	// RequestLog turns on the per-request access log.
	RequestLog bool
	Now        func() time.Time
	Logger     *slog.Logger
}

// NewApp builds the fiber app with every route of the API.
func NewApp(deps Dependencies) *fiber.App {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	app := fiber.New(fiber.Config{
		AppName:               "Student Profile Builder API",
		ReadTimeout:           30 * time.Second,
		BodyLimit:             int(deps.MaxFileSize) + bodyLimitSlack,
		ErrorHandler:          NewErrorHandler(deps.Logger),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if deps.RequestLog {
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: "2006-01-02 15:04:05",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now(),
			"sessions": deps.Sessions.Len(),
		})
	})

	sessionHandler := NewSessionHandler(deps.Sessions)
	uploadHandler := NewUploadHandler(deps.Sessions, deps.Uploads, deps.Storage, deps.Parser, deps.MaxFileSize, deps.Logger)
	profileHandler := NewProfileHandler(deps.Profiles, deps.Now)
	resumeHandler := NewResumeHandler(deps.Profiles, deps.Generator)
	previewHandler := NewPreviewHandler(deps.Sessions, deps.Bus, deps.Logger)

	secured := api.Group("", NewAuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	secured.Get("/profile", profileHandler.HandleGet)
	secured.Put("/profile", profileHandler.HandlePut)
	secured.Post("/resume/generate", resumeHandler.HandleGenerate)

	sessions := secured.Group("/sessions")
	sessions.Post("/", sessionHandler.HandleOpen)
	sessions.Get("/:id", sessionHandler.HandleGet)
	sessions.Delete("/:id", sessionHandler.HandleDiscard)
	sessions.Patch("/:id/fields", sessionHandler.HandleSetField)
	sessions.Post("/:id/languages", sessionHandler.HandleAddLanguage)
	sessions.Put("/:id/location", sessionHandler.HandleSetLocation)
	sessions.Post("/:id/items/:collection", sessionHandler.HandleAddItem)
	sessions.Patch("/:id/items/:collection/:itemId", sessionHandler.HandleUpdateItem)
	sessions.Delete("/:id/items/:collection/:itemId", sessionHandler.HandleRemoveItem)
	sessions.Post("/:id/next", sessionHandler.HandleNext)
	sessions.Post("/:id/previous", sessionHandler.HandlePrevious)
	sessions.Post("/:id/submit", sessionHandler.HandleSubmit)
	sessions.Post("/:id/resume", uploadHandler.HandleUpload)
	sessions.Get("/:id/preview", previewHandler.HandleStream)

	return app
}
