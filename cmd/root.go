// Package cmd wires configuration, persistence, the backend gateway, and
// the TUI into the bookforge command tree.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nwestfall/bookforge/internal/api"
	"github.com/nwestfall/bookforge/internal/config"
	"github.com/nwestfall/bookforge/internal/infrastructure/sqlite"
	"github.com/nwestfall/bookforge/internal/log"
	"github.com/nwestfall/bookforge/internal/telemetry"
	"github.com/nwestfall/bookforge/internal/ui"
	"github.com/nwestfall/bookforge/internal/workflow"
	"github.com/nwestfall/bookforge/internal/workflow/domain"
)

var (
	cfg        config.Config
	cfgFile    string
	backendURL string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "bookforge",
	Short: "Write a book with an AI backend, from plot idea to chapters",
	Long: `Bookforge walks a book project through five phases: configuration,
clarifying questions, draft negotiation, outline review, and writing.
Progress survives restarts; an interrupted session resumes where the
backend last saw it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/bookforge/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend-url", "", "backend base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// defaultConfigPath returns ~/.config/bookforge/config.yaml.
func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "bookforge", "config.yaml"), nil
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("backend_url", defaults.BackendURL)
	viper.SetDefault("poll_interval", defaults.PollInterval)
	viper.SetDefault("timeouts.submit", defaults.Timeouts.Submit)
	viper.SetDefault("timeouts.questions", defaults.Timeouts.Questions)
	viper.SetDefault("timeouts.generation", defaults.Timeouts.Generation)
	viper.SetDefault("timeouts.progress", defaults.Timeouts.Progress)
	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("telemetry.exporter", defaults.Telemetry.Exporter)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if path, err := defaultConfigPath(); err == nil {
		viper.SetConfigFile(path)
	}
	viper.SetEnvPrefix("BOOKFORGE")
	viper.AutomaticEnv()

	// A missing config file is fine; defaults apply.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "Warning: could not read config:", err)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: could not parse config:", err)
		cfg = config.Defaults()
	}

	if backendURL != "" {
		cfg.BackendURL = backendURL
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}

	logPath := cfg.Log.Path
	if logPath == "" {
		logPath = filepath.Join(dataDir, "bookforge.log")
	}
	if err := log.Init(logPath, log.ParseLevel(cfg.Log.Level)); err != nil {
		return err
	}
	defer log.Close()

	applyThemeMode(cfg.Theme.Mode)

	var traceWriter io.Writer = io.Discard
	if w := log.Writer(); w != nil {
		traceWriter = w
	}
	shutdownTelemetry, err := telemetry.Init(cfg.Telemetry, traceWriter)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	dbPath := cfg.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "bookforge.db")
	}
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	gateway := api.NewClient(cfg.BackendURL, &http.Client{})

	svcCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.Submit)
	svc, err := gateway.FetchConfig(svcCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("fetching service config from %s: %w", cfg.BackendURL, err)
	}

	pollInterval := cfg.PollInterval
	if svc.PollIntervalMS > 0 {
		pollInterval = time.Duration(svc.PollIntervalMS) * time.Millisecond
	}

	orchestrator := workflow.New(workflow.Config{
		Gateway: gateway,
		Store:   db.SessionStore(),
		Timeouts: workflow.Timeouts{
			Submit:     cfg.Timeouts.Submit,
			Questions:  cfg.Timeouts.Questions,
			Generation: cfg.Timeouts.Generation,
			Progress:   cfg.Timeouts.Progress,
		},
		PollInterval: pollInterval,
	})
	defer orchestrator.Close()

	restoreCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.Submit)
	err = orchestrator.Restore(restoreCtx)
	cancel()
	if err != nil {
		// A transient restore failure keeps the snapshot; start fresh in
		// memory and let the next launch retry.
		log.ErrorErr(log.CatWorkflow, "Session restore failed", err)
	}
	if orchestrator.Session().Phase == domain.PhaseWriting {
		if err := orchestrator.StartPolling(); err != nil {
			log.ErrorErr(log.CatPoll, "Could not resume progress polling", err)
		}
	}

	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	startConfigWatcher(watchCtx, orchestrator)

	program := tea.NewProgram(ui.New(orchestrator, svc),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running interface: %w", err)
	}
	return nil
}

// applyThemeMode forces light or dark rendering, or detects the terminal
// background when unset.
func applyThemeMode(mode string) {
	switch mode {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	default:
		lipgloss.SetHasDarkBackground(termenv.HasDarkBackground())
	}
}

// startConfigWatcher hot-reloads the log level and the polling base
// interval when the config file is edited while bookforge runs. Other
// settings apply on next launch.
func startConfigWatcher(ctx context.Context, orchestrator *workflow.Orchestrator) {
	path := viper.ConfigFileUsed()
	if path == "" {
		return
	}
	watcher, err := config.NewWatcher(path, 0)
	if err != nil {
		log.Warn(log.CatConfig, "Config watcher unavailable", "error", err)
		return
	}
	if err := watcher.Start(ctx); err != nil {
		log.Warn(log.CatConfig, "Config watcher failed to start", "error", err)
		_ = watcher.Close()
		return
	}

	log.SafeGo("config.reload", func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case <-watcher.Changes():
				if err := viper.ReadInConfig(); err != nil {
					log.Warn(log.CatConfig, "Config reload failed", "error", err)
					continue
				}
				var next config.Config
				if err := viper.Unmarshal(&next); err != nil {
					log.Warn(log.CatConfig, "Config reload failed", "error", err)
					continue
				}
				if err := next.Validate(); err != nil {
					log.Warn(log.CatConfig, "Reloaded config is invalid, keeping current", "error", err)
					continue
				}
				log.SetLevel(log.ParseLevel(next.Log.Level))
				orchestrator.SetPollInterval(next.PollInterval)
				log.Info(log.CatConfig, "Config reloaded", "log_level", next.Log.Level, "poll_interval", next.PollInterval)
			}
		}
	})
}
