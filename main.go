package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mdmail/config"
	"mdmail/mailer"
	"mdmail/utils"
)

const version = "0.3.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		utils.Log.Error("%v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var app *application

	root := &cobra.Command{
		Use:           "mdmail",
		Short:         "Search notmuch mail and send markdown drafts, as MCP tools or from the shell",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			if err := utils.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
				return fmt.Errorf("failed to initialise logging: %w", err)
			}

			app, err = newApplication(cfg)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			utils.Log.Sync()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.toml", "path to the TOML configuration file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP tools on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.serve(cmd.Context())
		},
	}
	root.RunE = serve.RunE

	root.AddCommand(
		serve,
		newDraftCmd(func() *application { return app }),
		&cobra.Command{
			Use:   "send",
			Short: "Send the current draft",
			RunE: func(cmd *cobra.Command, args []string) error {
				result, err := app.composer.Send(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), result)
				return nil
			},
		},
		&cobra.Command{
			Use:   "preview",
			Short: "Serve a browser preview of the current draft",
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.runPreview(cmd.Context())
			},
		},
	)

	return root
}

func newDraftCmd(app func() *application) *cobra.Command {
	var (
		markdownFile string
		req          mailer.ComposeRequest
	)

	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Create the draft from a markdown file",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(markdownFile)
			if err != nil {
				return err
			}
			req.Body = string(body)

			result, err := app().composer.Compose(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&markdownFile, "markdown-file", "m", "", "path to the markdown body")
	flags.StringVarP(&req.Subject, "subject", "s", "", "email subject")
	flags.StringSliceVarP(&req.To, "to", "t", nil, "recipient addresses")
	flags.StringSliceVarP(&req.Cc, "cc", "c", nil, "carbon copy addresses")
	flags.StringSliceVarP(&req.Bcc, "bcc", "b", nil, "blind carbon copy addresses")
	flags.StringVar(&req.ThreadID, "thread", "", "notmuch thread id to reply to")
	for _, name := range []string{"markdown-file", "subject", "to"} {
		cmd.MarkFlagRequired(name)
	}

	return cmd
}
