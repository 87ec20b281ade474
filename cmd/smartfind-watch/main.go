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
	"smartfind/internal/domain"
	"smartfind/internal/eventbus"
	"smartfind/internal/notifications"
	"smartfind/internal/session"
)

var out = log.New(os.Stdout, "smartfind-watch: ", log.LstdFlags)

// sessionEndedMsg stops the watcher once the credential is gone
type sessionEndedMsg struct {
	reason domain.SessionEndReason
}

// watcher drives a notification feed without a renderer and reports unread changes
type watcher struct {
	feed   *notifications.Feed
	unread int
	seen   map[int64]bool
}

func (w *watcher) Init() tea.Cmd {
	return w.feed.Start()
}

func (w *watcher) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionEndedMsg:
		out.Printf("session ended (%s), stopping", msg.reason)
		w.feed.Stop()
		return w, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return w, tea.Quit
		}
		return w, nil
	}

	cmd := w.feed.Update(msg)
	st := w.feed.State()
	if st.Unread != w.unread {
		out.Printf("unread: %d -> %d", w.unread, st.Unread)
		w.unread = st.Unread
	}
	for _, n := range st.Items {
		if w.seen[n.ID] {
			continue
		}
		w.seen[n.ID] = true
		if !n.Read {
			out.Printf("[%s] %s", n.Type, n.Message)
		}
	}
	return w, cmd
}

func (w *watcher) View() string { return "" }

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to the config file")
	flag.Parse()

	bus := eventbus.New()
	defer bus.Close()

	bus.Subscribe(eventbus.EventConfigLoaded, func(e eventbus.DomainEvent) {
		if loaded, ok := e.(eventbus.ConfigLoadedEvent); ok {
			out.Printf("config %s loaded", loaded.Path)
		}
	})

	svc := config.NewConfigServiceWithBus(bus)
	var cfg *config.Config
	var err error
	if configPath == "" {
		cfg, err = svc.Load()
	} else if cfg, err = svc.LoadFromPath(configPath); err == nil {
		err = config.ApplyEnv(cfg)
	}
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	token := cfg.Session.Token
	if token == "" && cfg.Session.TokenFile != "" {
		if token, err = session.LoadToken(cfg.Session.TokenFile); err != nil {
			out.Printf("no token: %v", err)
		}
	}
	sess := session.New(bus)
	if err := sess.Start(token); err != nil {
		fmt.Printf("A session token is required: %v\n", err)
		os.Exit(1)
	}

	client := api.New(cfg.Server, sess)
	w := &watcher{
		feed: notifications.New(client, notifications.Options{
			Limit:        cfg.Notifications.Limit,
			PollInterval: cfg.Notifications.PollInterval(),
			Timeout:      cfg.Server.Timeout(),
		}),
		seen: make(map[int64]bool),
	}

	p := tea.NewProgram(w, tea.WithoutRenderer(), tea.WithInput(nil))

	bus.Subscribe(eventbus.EventSessionEnded, func(e eventbus.DomainEvent) {
		if ended, ok := e.(eventbus.SessionEndedEvent); ok {
			p.Send(sessionEndedMsg{reason: ended.Reason})
		}
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		p.Quit()
	}()

	out.Printf("watching %s every %s", cfg.Server.BaseURL, cfg.Notifications.PollInterval())
	if _, err := p.Run(); err != nil {
		out.Printf("error: %v", err)
		os.Exit(1)
	}
}
