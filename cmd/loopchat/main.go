package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"LoopChat/internal/chatbot"
	"LoopChat/internal/config"
	"LoopChat/internal/server"
	"LoopChat/internal/session"
	"LoopChat/internal/telemetry"
)

func main() {
	var (
		configPath    string
		provider      string
		model         string
		sessionID     string
		systemMessage string
		serveAddr     string
		debug         bool
	)

	flag.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flag.StringVar(&provider, "provider", "", "LLM provider (openai|anthropic|gemini)")
	flag.StringVar(&model, "model", "", "Model name")
	flag.StringVar(&sessionID, "session-id", "", "Load or create a session by ID")
	flag.StringVar(&systemMessage, "system", "", "System instruction")
	flag.StringVar(&serveAddr, "serve", "", "Serve the HTTP API on this address instead of the REPL")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// flags win over the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "provider":
			cfg.Provider = provider
		case "model":
			cfg.Model = model
		case "session-id":
			cfg.SessionID = sessionID
		case "system":
			cfg.SystemMessage = systemMessage
		case "serve":
			cfg.ServeAddr = serveAddr
		case "debug":
			cfg.Debug = debug
		}
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := telemetry.InitLogger(cfg.LogDir, cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	tracer, meter, cleanup, err := telemetry.InitTelemetry(ctx, cfg.LogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer cleanup()

	if cfg.ServeAddr != "" {
		h, err := server.NewHandler(logger, tracer, meter)
		if err != nil {
			return err
		}
		shutdown, baseURL, err := server.Start(cfg.ServeAddr, h)
		if err != nil {
			return err
		}
		fmt.Printf("Serving on %s (Ctrl+C to stop)\n", baseURL)
		<-ctx.Done()
		return shutdown(context.Background())
	}

	db, err := telemetry.InitDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}(db)

	bot, err := chatbot.NewChatBot(ctx, cfg, chatbot.Deps{
		Logger: logger,
		Tracer: tracer,
		Meter:  meter,
		Store:  session.NewStore(db),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chatbot: %w", err)
	}

	return bot.Run(ctx, os.Stdin, os.Stdout)
}
