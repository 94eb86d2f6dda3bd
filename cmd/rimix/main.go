package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/notexe/rimix/internal/app"
	"github.com/notexe/rimix/internal/config"
	"github.com/notexe/rimix/internal/repl"
	"golang.org/x/term"
)

func main() {
	configPath := flag.String("config", config.GetDefaultConfigPath(), "Path to configuration file")
	provider := flag.String("provider", "", "Extractor to use (plain, deepseek, ollama)")
	modelName := flag.String("model", "", "Model name (overrides config)")
	storePath := flag.String("store", "", "Path to the reminders database (overrides config)")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Apply CLI flag overrides
	if *provider != "" {
		cfg.Extract.Provider = *provider
	}
	if *modelName != "" {
		cfg.Extract.Model.Name = *modelName
	}
	if *storePath != "" {
		cfg.Store.Path = config.ExpandPath(*storePath)
	}
	if *noColor || !term.IsTerminal(int(os.Stdout.Fd())) {
		cfg.UI.ColoredOutput = false
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		if cfg.Extract.Provider == config.ProviderDeepSeek {
			fmt.Fprintf(os.Stderr, "Tip: Set DEEPSEEK_API_KEY environment variable or add it to config file\n")
		}
		os.Exit(1)
	}

	logger, closeLog, err := openLog(cfg.Log.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v; logging disabled\n", err)
		logger = log.New(io.Discard, "", 0)
		closeLog = func() {}
	}
	defer closeLog()

	a, err := app.New(cfg, *configPath, logger, app.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting rimix: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	replInstance, err := repl.NewREPL(a)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating REPL: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting engine: %v\n", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
		replInstance.Stop()
	}()

	if err := replInstance.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openLog sends log output to a file so it never lands on the prompt.
func openLog(path string) (*log.Logger, func(), error) {
	if path == "" {
		return log.New(io.Discard, "", 0), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return log.New(f, "", log.LstdFlags), func() { f.Close() }, nil
}
