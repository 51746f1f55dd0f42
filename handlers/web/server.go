// Package web serves a local preview of the current draft.
package web

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mdmail/config"
	"mdmail/middleware"
	"mdmail/utils"
)

//go:embed templates
var templatesFS embed.FS

// NewApp wires the preview routes onto a new fiber app
func NewApp(h *PreviewHandler, cfg config.PreviewConfig) *fiber.App {
	views, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}

	engine := html.NewFileSystem(http.FS(views), ".html")
	engine.AddFunc("join", strings.Join)
	engine.AddFunc("formatDate", func(t time.Time) string {
		return t.Format("Jan 02, 2006 15:04:05")
	})

	app := fiber.New(fiber.Config{
		Views:                 engine,
		ViewsLayout:           "layouts/main",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := statusCode(err)
			if code >= fiber.StatusInternalServerError {
				utils.Log.Error("Preview error: %v", err)
			}
			return c.Status(code).Render("error", fiber.Map{
				"Title": "Error",
				"Error": err.Error(),
				"Code":  code,
			})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{Output: utils.Log.Writer()}))
	app.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		Requests: cfg.RateLimit,
		Window:   time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health" || strings.HasPrefix(c.Path(), "/cid/")
		},
	}))

	app.Get("/", h.HandleIndex)
	app.Get("/draft.html", h.HandleDocument)
	app.Get("/draft.md", h.HandleMarkdown)
	app.Get("/cid/:id", h.HandleInlineImage)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return app
}

func statusCode(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, utils.ErrNoDraft):
		return fiber.StatusNotFound
	case errors.Is(err, utils.ErrEncoding):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}
