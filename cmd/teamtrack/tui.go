package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/tgienger/teamtrack/internal/cache"
	"github.com/tgienger/teamtrack/internal/client"
	"github.com/tgienger/teamtrack/internal/db"
	"github.com/tgienger/teamtrack/internal/mutation"
	"github.com/tgienger/teamtrack/internal/ui"
	"github.com/tgienger/teamtrack/internal/ui/views"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the terminal client against a teamtrack server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context())
	},
}

func runTUI(ctx context.Context) error {
	if cfg.Client.UserID <= 0 {
		return errors.New("client.user_id (TEAMTRACK_USER_ID) is required")
	}

	// the alt screen owns the terminal, so logs go to a file
	dir, err := db.DataDir()
	if err != nil {
		return err
	}
	logFile, err := os.OpenFile(filepath.Join(dir, "tui.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	log := makeLogger(cfg.LogLevel, logFile)

	api := client.New(cfg.Client.BaseURL, cfg.Client.UserID, cfg.Client.Timeout, log)
	me, err := api.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("cannot sign in as user %d: %w", cfg.Client.UserID, err)
	}

	c := cache.New(log)
	deps := views.Deps{
		Data:     cache.NewLayer(c, api),
		Mutate:   mutation.NewService(api, c, me.ID, log),
		Projects: api,
		User:     *me,
		Log:      log,
	}

	p := tea.NewProgram(ui.NewApp(deps), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running application: %w", err)
	}

	st := c.Stats()
	log.Info("tui closed", "cache_hits", st.Hits, "cache_misses", st.Misses, "invalidations", st.Invalidations)
	return nil
}
