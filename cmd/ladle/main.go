package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/mmcdole/ladle/internal/config"
	"github.com/mmcdole/ladle/internal/cookbook"
	"github.com/mmcdole/ladle/internal/credential"
	"github.com/mmcdole/ladle/internal/log"
	"github.com/mmcdole/ladle/internal/service"
	"github.com/mmcdole/ladle/internal/store"
	"github.com/mmcdole/ladle/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var (
		showVersion bool
		configPath  string
		setup       bool
		logout      bool
	)
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&configPath, "config", "", "path to config.yaml")
	flag.BoolVar(&setup, "setup", false, "enter the API URL and credentials interactively")
	flag.BoolVar(&logout, "logout", false, "forget the stored API URL and token")
	flag.Parse()

	if showVersion {
		fmt.Printf("ladle %s\n", Version)
		return
	}

	if err := run(configPath, setup, logout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, setup, logout bool) error {
	// .env seeds LADLE_* overrides; a missing file is fine
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting ladle", "version", Version)

	kv, err := store.Open(cfg.Storage.Dir)
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	defer kv.Close()

	creds := credential.New(kv, logger)

	switch {
	case logout:
		if err := creds.Clear(); err != nil {
			return fmt.Errorf("failed to clear credential: %w", err)
		}
		fmt.Println("✓ Logged out.")
		return nil
	case setup:
		return runSetupFlow(creds, cfg.HTTP.Timeout, logger)
	}

	client := cookbook.NewClient(creds, cfg.HTTP.Timeout, logger)
	session := service.NewSession(creds, client, service.Options{
		Timeout:  cfg.HTTP.Timeout,
		PageSize: cfg.UI.PageSize,
	}, logger)
	defer session.Close()

	model := tui.NewModel(session, tui.Options{
		Images:       cfg.UI.Images,
		GlamourStyle: cfg.UI.GlamourStyle,
		Logger:       logger,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	logger.Info("starting TUI")

	final, err := p.Run()
	if m, ok := final.(tui.Model); ok {
		m.Shutdown()
	} else {
		model.Shutdown()
	}
	if err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}
