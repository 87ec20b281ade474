package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"smartfind/internal/api"
	"smartfind/internal/config"
	"smartfind/internal/eventbus"
	"smartfind/internal/session"
	"smartfind/internal/ui"
)

func main() {
	var configPath, token string
	var equipmentID int64
	var saveToken bool
	flag.StringVar(&configPath, "config", "", "Path to the config file (default: "+config.DefaultPath()+")")
	flag.StringVar(&configPath, "c", "", "Path to the config file (shorthand)")
	flag.Int64Var(&equipmentID, "equipment", 0, "Open this equipment on start")
	flag.StringVar(&token, "token", "", "Bearer token for this run")
	flag.BoolVar(&saveToken, "save-token", false, "Store -token in the config file")
	flag.Parse()

	// Create event bus
	bus := eventbus.New()
	defer bus.Close()

	configSvc := config.NewConfigServiceWithBus(bus)
	cfg, err := loadConfig(configSvc, configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Set up logging
	logFile, err := os.OpenFile(cfg.UISettings.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Could not open log file: %v", err)
	} else {
		defer logFile.Close()
		log.SetOutput(logFile)
	}

	bus.Subscribe(eventbus.EventConfigSaved, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.ConfigSavedEvent); ok {
			log.Printf("Config saved to %s", event.Path)
		}
	})

	sess := session.New(bus)
	if token == "" {
		token = resolveToken(cfg)
	} else if saveToken {
		cfg.Session.Token = token
		if err := saveConfig(configSvc, cfg, configPath); err != nil {
			fmt.Printf("Error saving token: %v\n", err)
			os.Exit(1)
		}
	}
	if token != "" {
		if err := sess.Start(token); err != nil {
			log.Printf("Ignoring token: %v", err)
		}
	}

	client := api.New(cfg.Server, sess)

	// Create UI model
	log.Printf("Creating UI model for %s", cfg.Server.BaseURL)
	uiModel := ui.NewModel(bus, cfg, client, sess)
	if equipmentID > 0 {
		uiModel.OpenOnStart(equipmentID)
	}

	var opts []tea.ProgramOption
	if cfg.UISettings.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(uiModel, opts...)
	uiModel.SetProgram(p)

	// Forward domain events to the UI
	forward := func(e eventbus.DomainEvent) {
		p.Send(ui.EventMsg{Event: e})
	}
	bus.Subscribe(eventbus.EventSessionStarted, forward)
	bus.Subscribe(eventbus.EventSessionEnded, forward)
	bus.Subscribe(eventbus.EventError, forward)

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		p.Quit()
	}()

	log.Printf("Starting UI...")
	if _, err := p.Run(); err != nil {
		log.Printf("Error running program: %v", err)
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
	log.Printf("UI exited normally")
}

// loadConfig reads the given file, or the default location when path is empty
func loadConfig(svc config.ConfigService, path string) (*config.Config, error) {
	if path == "" {
		return svc.Load()
	}
	cfg, err := svc.LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	log.Printf("Loaded config from %s", path)
	return cfg, nil
}

// saveConfig writes cfg back where it was read from
func saveConfig(svc config.ConfigService, cfg *config.Config, path string) error {
	if path == "" {
		return svc.Save(cfg)
	}
	if err := svc.SaveToPath(cfg, path); err != nil {
		return err
	}
	log.Printf("Config saved to %s", path)
	return nil
}

// resolveToken prefers an inline token over the token file
func resolveToken(cfg *config.Config) string {
	if cfg.Session.Token != "" {
		return cfg.Session.Token
	}
	if cfg.Session.TokenFile == "" {
		return ""
	}
	token, err := session.LoadToken(cfg.Session.TokenFile)
	if err != nil {
		log.Printf("No token loaded: %v", err)
		return ""
	}
	return token
}
