package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RoNRiShaV/dfd/internal/api"
	"github.com/RoNRiShaV/dfd/internal/export"
	"github.com/RoNRiShaV/dfd/internal/history"
	"github.com/RoNRiShaV/dfd/internal/logger"
	"github.com/RoNRiShaV/dfd/internal/model"
	"github.com/RoNRiShaV/dfd/internal/pipeline"
)

// app holds the collaborators shared by every command
type app struct {
	cfg      *model.Config
	log      *slog.Logger
	client   *api.Client
	renderer *pipeline.Renderer
	out      io.Writer
	errOut   io.Writer
}

// newApp loads the configuration and wires the backend client for cmd
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}

	log := logger.SetupLogger(cfg.Env)
	slog.SetDefault(log)

	client, err := api.NewFromConfig(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	renderer, err := pipeline.NewRenderer(cmd.OutOrStdout(), cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		log:      log,
		client:   client,
		renderer: renderer,
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
	}, nil
}

func (a *app) progress(format string, args ...any) {
	if a.cfg.Output.Verbose {
		fmt.Fprintf(a.errOut, format, args...)
	}
}

func (a *app) warn(format string, args ...any) {
	fmt.Fprintf(a.errOut, "%s %s\n", color.YellowString("⚠"), fmt.Sprintf(format, args...))
}

func (a *app) recentList() *history.RecentList {
	return history.NewRecentList(history.NewFileStore(a.cfg.History.RecentFile), a.cfg.History.RecentLimit)
}

// colorNotifier prints export failures to the terminal
type colorNotifier struct {
	w io.Writer
}

func (n colorNotifier) Notify(msg export.Notification) {
	fmt.Fprintf(n.w, "%s %s\n", color.New(color.FgRed, color.Bold).Sprint("✗ "+msg.Title+":"), msg.Message)
	if msg.Err != nil {
		fmt.Fprintf(n.w, "  %s\n", color.New(color.Faint).Sprint(msg.Err.Error()))
	}
}
