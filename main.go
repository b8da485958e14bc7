package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sunnygitgud/nyaaterm/browse"
	"github.com/sunnygitgud/nyaaterm/config"
	"github.com/sunnygitgud/nyaaterm/metrics"
	"github.com/sunnygitgud/nyaaterm/nyaa"
	"github.com/sunnygitgud/nyaaterm/theme"
)

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "nyaaterm [query...]",
		Short: "Browse nyaa.si from the terminal",
		Long: `nyaaterm searches the nyaa.si torrent index and lets you browse,
sort and page through the results. Enter opens the magnet link with
your default torrent client.

With a query the search runs immediately; without one you start typing.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, strings.Join(args, " "))
		},
	}

	flags := cmd.Flags()
	flags.String("sort", "", "initial sort: date, downloads, seeders or size")
	flags.String("category", "", "initial category: all, anime, amv, english, non-english or raw")
	flags.String("filter", "", "result filter: none, no-remakes or trusted")
	flags.String("base-url", "", "index URL (default "+nyaa.DefaultBaseURL+")")
	flags.Duration("timeout", 0, "request timeout (default 30s)")
	flags.String("log-file", "", "log file path, - disables logging")
	flags.String("log-level", "", "log level (default info)")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")
	flags.String("theme", "", "theme.json to use instead of the usual locations")

	for _, name := range []string{"sort", "category", "filter", "base-url", "timeout", "log-file", "log-level", "metrics-addr", "theme"} {
		_ = v.BindPFlag(strings.ReplaceAll(name, "-", "_"), flags.Lookup(name))
	}

	return cmd
}

func run(ctx context.Context, cfg *config.Config, query string) error {
	logger, closer, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer closer.Close()

	logger.Info().
		Str("base_url", cfg.BaseURL).
		Str("sort", cfg.Sort.Label()).
		Str("category", cfg.Category.Label()).
		Msg("Starting nyaaterm")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	metrics.Register()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				logger.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("Metrics server stopped")
			}
		}()
	}

	sel, err := nyaa.NewSelectors()
	if err != nil {
		return fmt.Errorf("failed to compile selectors: %w", err)
	}
	extractor := nyaa.NewExtractor(sel, logger)
	client, err := nyaa.NewClient(cfg.ClientOptions(), extractor, logger)
	if err != nil {
		return err
	}

	ctrl := browse.New(client, openLink, browse.Options{
		Query:    query,
		Sort:     cfg.Sort,
		Category: cfg.Category,
	}, logger)

	themePath := theme.Locate(cfg.ThemePath)
	th := loadTheme(themePath, logger)

	p := tea.NewProgram(newModel(ctrl, th, logger), tea.WithAltScreen(), tea.WithContext(ctx))

	if themePath != "" {
		w := theme.NewWatcher(themePath, 0, func(t theme.Theme) {
			p.Send(theme.ChangedMsg{Theme: t})
		}, logger)
		if err := w.Start(); err != nil {
			logger.Debug().Err(err).Str("path", themePath).Msg("Theme hot reload unavailable")
		} else {
			defer w.Stop()
		}
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	logger.Info().Msg("Exiting")
	return nil
}

func loadTheme(path string, logger zerolog.Logger) theme.Theme {
	if path == "" {
		return theme.Default()
	}
	th, err := theme.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug().Str("path", path).Msg("No theme file, using defaults")
		} else {
			logger.Warn().Err(err).Str("path", path).Msg("Invalid theme, using defaults")
		}
		return theme.Default()
	}
	logger.Info().Str("path", path).Msg("Loaded theme")
	return th
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Alas, there's been an error: %v\n", err)
		os.Exit(1)
	}
}
