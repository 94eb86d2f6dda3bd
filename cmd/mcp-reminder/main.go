// Command mcp-reminder provides an MCP server for reminder management.
//
// It exposes tools for creating, listing, completing, importing and deleting
// reminders in the same SQLite database the rimix REPL and daemon use.
//
// Usage:
//
//	./mcp-reminder          # Start MCP server (stdio)
//	./mcp-reminder --help   # Show help
//
// Environment:
//
//	RIMIX_CONFIG       Path to the config file (default: ~/.rimix/config.yaml)
//	RIMIX_STORE__PATH  Path to SQLite database (default: ~/.rimix/reminders.db)
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"
	"github.com/notexe/rimix/internal/config"
	"github.com/notexe/rimix/internal/extract"
	"github.com/notexe/rimix/internal/reminder"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--help", "-h":
			printHelp()
			return
		}
	}

	// Stdout carries the MCP protocol.
	logger := log.New(os.Stderr, "", log.LstdFlags)

	configPath := os.Getenv("RIMIX_CONFIG")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create data directory: %v\n", err)
		os.Exit(1)
	}

	store, err := reminder.NewStore(cfg.Store.Path, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ex, closeEx, err := extract.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create extractor: %v\n", err)
		os.Exit(1)
	}
	defer closeEx()

	s := reminder.NewServer(store, reminder.WithDraftFunc(ex.Extract))

	if err := server.ServeStdio(s.MCPServer()); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`MCP Reminder Server - Reminder management via MCP protocol

USAGE:
    mcp-reminder          Start MCP server (communicates via stdio)
    mcp-reminder --help   Show this help

ENVIRONMENT:
    RIMIX_CONFIG       Path to the config file
                       Default: ~/.rimix/config.yaml
    RIMIX_STORE__PATH  Path to SQLite database file
                       Default: ~/.rimix/reminders.db

TOOLS:
    add_reminder       Add a new reminder (title, date, time, description, priority, category)
    list_reminders     List reminders (optional query and status filter)
    get_reminder       Show one reminder
    get_due_reminders  Get pending reminders that are due or overdue
    complete_reminder  Mark a reminder as completed
    update_reminder    Change fields of a reminder
    import_reminder    Create a reminder from free text
    delete_reminder    Delete a reminder permanently`)
}
