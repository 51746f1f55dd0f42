package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"mdmail/config"
	"mdmail/handlers/tools"
	"mdmail/handlers/web"
	"mdmail/mailer"
	"mdmail/notmuch"
	"mdmail/render"
	"mdmail/storage"
	"mdmail/utils"
)

// application holds the wired components shared by every command
type application struct {
	cfg      *config.Config
	renderer *render.Renderer
	drafts   *storage.DraftStorage
	threads  *notmuch.Client
	composer *mailer.Composer
}

func newApplication(cfg *config.Config) (*application, error) {
	renderer, err := render.NewRenderer(render.Options{
		ImageBaseDir:  cfg.Draft.ImageBaseDir,
		SignatureHTML: cfg.Sendmail.SignatureHTML,
	})
	if err != nil {
		return nil, err
	}

	drafts := storage.NewDraftStorage(cfg.Draft.Dir, renderer)
	threads := notmuch.NewClient(cfg.Notmuch)
	assembler := mailer.NewAssembler(cfg.Sendmail.From, cfg.Sendmail.PlainTextPart)

	return &application{
		cfg:      cfg,
		renderer: renderer,
		drafts:   drafts,
		threads:  threads,
		composer: mailer.NewComposer(drafts, renderer, assembler, threads, newTransport(cfg)),
	}, nil
}

func newTransport(cfg *config.Config) mailer.Transport {
	if cfg.Transport.Kind == "smtp" {
		utils.Log.Info("Delivering through %s:%d", cfg.SMTP.Server, cfg.SMTP.GetPort())
		return mailer.NewSMTPTransport(cfg.SMTP)
	}
	utils.Log.Info("Delivering through %v", cfg.Sendmail.Command)
	return mailer.NewSendmailTransport(cfg.Sendmail.Command)
}

func (a *application) toolHandler() *tools.ToolHandler {
	return tools.NewToolHandler(a.threads, a.composer)
}

func (a *application) previewApp() *fiber.App {
	return web.NewApp(web.NewPreviewHandler(a.drafts, a.renderer), a.cfg.Preview)
}

// runPreview serves the preview until ctx is cancelled
func (a *application) runPreview(ctx context.Context) error {
	app := a.previewApp()

	errc := make(chan error, 1)
	go func() {
		utils.Log.Info("Preview server listening on http://%s", a.cfg.Preview.Address)
		errc <- app.Listen(a.cfg.Preview.Address)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("preview server: %w", err)
	case <-ctx.Done():
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, context.Canceled) {
			utils.Log.Debug("Preview server stopped: %v", err)
		}
		return nil
	}
}

// serve runs the MCP server on stdio, with the preview server alongside
// when enabled.
func (a *application) serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.cfg.Preview.Enabled {
		go func() {
			if err := a.runPreview(ctx); err != nil {
				utils.Log.Error("%v", err)
			}
		}()
	}

	server := tools.NewServer(a.toolHandler(), tools.Options{
		Name:         "Notmuch Email Client",
		Version:      version,
		HasSignature: a.cfg.Sendmail.SignatureHTML != "",
		SyncEnabled:  a.cfg.Notmuch.SyncEnabled(),
	})

	utils.Log.Info("Serving MCP tools on stdio (drafts in %s)", a.cfg.Draft.Dir)
	return tools.Serve(ctx, server)
}
