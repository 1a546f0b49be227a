package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adhikary97/imsgbot/internal/api"
	"github.com/adhikary97/imsgbot/internal/bus"
	"github.com/adhikary97/imsgbot/internal/chatdb"
	"github.com/adhikary97/imsgbot/internal/config"
	"github.com/adhikary97/imsgbot/internal/contacts"
	"github.com/adhikary97/imsgbot/internal/echo"
	"github.com/adhikary97/imsgbot/internal/history"
	"github.com/adhikary97/imsgbot/internal/imessage"
	"github.com/adhikary97/imsgbot/internal/llm"
	"github.com/adhikary97/imsgbot/internal/relay"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("imsgbot starting", "model", cfg.Model, "port", cfg.Port)

	if cfg.Model != "base" && cfg.Model != "permissive" {
		slog.Error("IMSGBOT_MODEL must be base or permissive", "model", cfg.Model)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Messages database, read-only. Failing here usually means the process
	// lacks Full Disk Access (System Settings → Privacy & Security).
	if _, err := os.Stat(cfg.ChatDBPath); err != nil {
		slog.Error("Messages database not found", "path", cfg.ChatDBPath, "error", err)
		os.Exit(1)
	}
	db, err := chatdb.Open(ctx, cfg.ChatDBPath)
	if err != nil {
		slog.Error("cannot access Messages database — grant Full Disk Access to your terminal",
			"path", cfg.ChatDBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("messages database connected", "path", cfg.ChatDBPath)

	// Completion backend. The models probe is diagnostics only.
	llmClient := llm.NewClient(cfg.APIBaseURL, cfg.Model, cfg.LLMTimeout)
	probeCtx, probeCancel := context.WithTimeout(ctx, 5*time.Second)
	if models, err := llmClient.Models(probeCtx); err != nil {
		slog.Warn("cannot reach completion API — start it before expecting replies",
			"url", cfg.APIBaseURL, "error", err)
	} else {
		slog.Info("completion API reachable", "models", models)
	}
	probeCancel()

	allowList := contacts.NewAllowList(cfg.Contacts)
	if allowList.Open() {
		slog.Warn("allow-list is empty — responding to ALL contacts; set IMSGBOT_CONTACTS to limit replies")
	} else {
		slog.Info("responding only to allowed contacts", "contacts", allowList.Entries())
	}

	// Event bus (optional — the relay works without NATS, just no external observers).
	var publisher relay.Publisher
	if cfg.NatsURL != "" {
		busClient, err := bus.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer busClient.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)
		publisher = busClient
	}

	sender := imessage.NewSender(cfg.SendTimeout, slog.Default())

	rel := relay.New(relay.Options{
		Source:   db,
		LLM:      llmClient,
		Sender:   sender,
		Bus:      publisher,
		Contacts: allowList,
		History:  history.New(cfg.MaxHistory),
		Echo:     echo.New(cfg.SentTTL),
		Model:    cfg.Model,
		Interval: cfg.PollInterval,
		Logger:   slog.Default(),
	})

	// Diagnostics API
	srv := api.NewServer(cfg.Port, rel.Status)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	// Graceful shutdown between cycles; in-flight calls run to their own timeouts.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		cancel()
	}()

	if err := rel.Run(ctx); err != nil {
		slog.Error("relay failed to start", "error", err)
		os.Exit(1)
	}
	slog.Info("imsgbot stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
