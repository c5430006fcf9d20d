package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"codesurf/internal/config"
	"codesurf/internal/detail"
	"codesurf/internal/eventbus"
	"codesurf/internal/logging"
	"codesurf/internal/session"
	"codesurf/internal/stream"
	"codesurf/internal/ui"
)

func main() {
	// Parse command line arguments
	var endpoint string
	var initialQuery string
	var debug bool
	flag.StringVar(&endpoint, "endpoint", "", "Search backend base URL (overrides config)")
	flag.StringVar(&initialQuery, "q", "", "Query to run on startup")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	// Remaining args are treated as the initial query
	if initialQuery == "" && flag.NArg() > 0 {
		initialQuery = strings.Join(flag.Args(), " ")
	}

	// Load configuration, creating a default one on first run
	configSvc := config.NewConfigService()
	cfg := loadOrCreateConfig(configSvc)
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}

	// Set up logging next to the config file
	logPath := filepath.Join(filepath.Dir(configSvc.Path()), "codesurf.log")
	logger, err := logging.New(logPath, debug)
	if err != nil {
		fmt.Printf("Error setting up logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Create event bus
	bus := eventbus.New(logger)

	// Wire the streaming client, search session and detail resolver
	client, err := stream.NewClient(cfg.Endpoint, logger, stream.WithAccessToken(cfg.AccessToken))
	if err != nil {
		fmt.Printf("Error configuring endpoint %q: %v\n", cfg.Endpoint, err)
		os.Exit(1)
	}
	sess := session.New(client, bus, logger, session.WithQueryPrefix(cfg.QueryPrefix()))
	resolver := detail.NewResolver(client, logger)

	// Create UI model and Bubble Tea program
	uiModel := ui.NewModel(cfg, sess, resolver, logger, initialQuery)
	p := tea.NewProgram(uiModel, tea.WithAltScreen())
	uiModel.SetProgram(p)

	// Create event channel for UI
	eventChan := make(chan eventbus.DomainEvent, 100)
	forwardEvent := func(e eventbus.DomainEvent) {
		select {
		case eventChan <- e:
		default:
			logger.Warn("event channel full, dropping event", zap.String("type", string(e.Type())))
		}
	}

	// Subscribe to every session event and forward to the UI
	for _, eventType := range []eventbus.EventType{
		eventbus.EventSearchStarted,
		eventbus.EventResultsAppended,
		eventbus.EventSuggestionsUpdated,
		eventbus.EventProgressUpdated,
		eventbus.EventAlertRaised,
		eventbus.EventSearchCompleted,
		eventbus.EventSearchFailed,
		eventbus.EventError,
	} {
		bus.Subscribe(eventType, forwardEvent)
	}

	// Start forwarding events to UI in background
	go func() {
		for event := range eventChan {
			p.Send(ui.EventMsg{Event: event})
		}
	}()

	// Run the UI
	logger.Info("starting UI", zap.String("endpoint", cfg.Endpoint))
	if _, err := p.Run(); err != nil {
		logger.Error("error running program", zap.Error(err))
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
	logger.Info("UI exited normally")

	// Cleanup. The event channel is deliberately left open: a search
	// finishing during shutdown may still publish, and the forwarding
	// goroutine dies with the process anyway.
	sess.Close()
}

// loadOrCreateConfig loads the config file or writes the defaults on first run.
func loadOrCreateConfig(configSvc config.ConfigService) *config.Config {
	if _, err := os.Stat(configSvc.Path()); err == nil {
		if cfg, err := configSvc.Load(); err == nil {
			return cfg
		}
	}

	cfg := config.DefaultConfig()
	if err := configSvc.Save(cfg); err != nil {
		fmt.Printf("Warning: could not save config to %s: %v\n", configSvc.Path(), err)
	}
	return cfg
}
