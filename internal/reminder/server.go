package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "reminder"
	serverVersion = "1.1.0"
)

// DraftFunc turns free text into a reminder draft.
type DraftFunc func(ctx context.Context, input string) (Draft, error)

// Server is the MCP server for reminder management.
type Server struct {
	mcpServer *server.MCPServer
	store     *Store
	extract   DraftFunc
	now       func() time.Time
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithDraftFunc enables the import_reminder tool.
func WithDraftFunc(fn DraftFunc) ServerOption {
	return func(s *Server) {
		s.extract = fn
	}
}

// WithNow overrides the clock used by get_due_reminders.
func WithNow(now func() time.Time) ServerOption {
	return func(s *Server) {
		s.now = now
	}
}

// NewServer creates a new Reminder MCP server backed by the given store.
func NewServer(store *Store, opts ...ServerOption) *Server {
	s := &Server{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("add_reminder",
			mcp.WithDescription("Add a new reminder with a title and optional date, time, description, priority and category"),
			mcp.WithString("title", mcp.Required(), mcp.Description("Reminder title")),
			mcp.WithString("date", mcp.Description("Due date as YYYY-MM-DD")),
			mcp.WithString("time", mcp.Description("Due time as HH:MM (24h, local time)")),
			mcp.WithString("description", mcp.Description("Optional description")),
			mcp.WithString("priority", mcp.Description("Priority: low, medium, high (default: medium)")),
			mcp.WithString("category", mcp.Description("Category label (default: Personal)")),
		),
		s.handleAddReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_reminders",
			mcp.WithDescription("Search reminders by text, optionally filtered by completion, newest first"),
			mcp.WithString("query", mcp.Description("Text to match against title and description")),
			mcp.WithString("completed", mcp.Description("Filter: true, false, or empty for all")),
			mcp.WithNumber("page", mcp.Description("Page number starting at 1 (default 1)")),
			mcp.WithNumber("limit", mcp.Description("Page size 1-100 (default 50)")),
		),
		s.handleListReminders,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_reminder",
			mcp.WithDescription("Get a single reminder by ID or unique ID prefix"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID")),
		),
		s.handleGetReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_due_reminders",
			mcp.WithDescription("Get all pending reminders whose date and time are now or in the past"),
		),
		s.handleGetDueReminders,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("complete_reminder",
			mcp.WithDescription("Mark a reminder as completed"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID")),
		),
		s.handleCompleteReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("delete_reminder",
			mcp.WithDescription("Delete a reminder permanently"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID")),
		),
		s.handleDeleteReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("update_reminder",
			mcp.WithDescription("Update a reminder's fields; omitted fields are left unchanged"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID")),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("description", mcp.Description("New description")),
			mcp.WithString("date", mcp.Description("New date as YYYY-MM-DD")),
			mcp.WithString("time", mcp.Description("New time as HH:MM")),
			mcp.WithString("priority", mcp.Description("New priority: low, medium, high")),
			mcp.WithString("category", mcp.Description("New category")),
			mcp.WithBoolean("clear_schedule", mcp.Description("Remove date and time so the reminder never alerts")),
		),
		s.handleUpdateReminder,
	)

	if s.extract != nil {
		s.mcpServer.AddTool(
			mcp.NewTool("import_reminder",
				mcp.WithDescription("Create a reminder from free text such as a voice transcript or a note"),
				mcp.WithString("text", mcp.Required(), mcp.Description("Unstructured text describing the reminder")),
			),
			s.handleImportReminder,
		)
	}
}

func jsonResult(v interface{}) *mcp.CallToolResult {
	output, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(output))
}

func (s *Server) handleAddReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r := Reminder{
		Title:       req.GetString("title", ""),
		Description: req.GetString("description", ""),
		Date:        req.GetString("date", ""),
		Time:        req.GetString("time", ""),
		Priority:    req.GetString("priority", ""),
		Category:    req.GetString("category", ""),
	}

	added, err := s.store.Add(ctx, r)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add reminder: %v", err)), nil
	}

	return jsonResult(added), nil
}

func (s *Server) handleListReminders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := Query{
		Text:  req.GetString("query", ""),
		Page:  int(req.GetFloat("page", 1)),
		Limit: int(req.GetFloat("limit", DefaultLimit)),
	}
	switch req.GetString("completed", "") {
	case "true":
		done := true
		q.Completed = &done
	case "false":
		pending := false
		q.Completed = &pending
	}

	page, err := s.store.Search(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list reminders: %v", err)), nil
	}

	if page.Total == 0 {
		return mcp.NewToolResultText("No reminders found."), nil
	}

	return jsonResult(page), nil
}

func (s *Server) handleGetReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := s.lookup(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(r), nil
}

func (s *Server) handleGetDueReminders(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get due reminders: %v", err)), nil
	}

	now := s.now()
	due := []Reminder{}
	for _, r := range all {
		if r.Completed {
			continue
		}
		if at, ok := r.DueAt(now.Location()); ok && !at.After(now) {
			due = append(due, r)
		}
	}

	if len(due) == 0 {
		return mcp.NewToolResultText("No due reminders."), nil
	}

	return jsonResult(due), nil
}

func (s *Server) handleCompleteReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := s.lookup(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := s.store.Complete(ctx, r.ID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to complete reminder: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Reminder %s marked as completed.", r.ID)), nil
}

func (s *Server) handleDeleteReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := s.lookup(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.store.Delete(ctx, r.ID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete reminder: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Reminder %s deleted.", r.ID)), nil
}

func (s *Server) handleUpdateReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := s.lookup(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var fields UpdateFields

	if v := req.GetString("title", ""); v != "" {
		fields.Title = &v
	}
	if v := req.GetString("description", ""); v != "" {
		fields.Description = &v
	}
	if v := req.GetString("date", ""); v != "" {
		fields.Date = &v
	}
	if v := req.GetString("time", ""); v != "" {
		fields.Time = &v
	}
	if v := req.GetString("priority", ""); v != "" {
		fields.Priority = &v
	}
	if v := req.GetString("category", ""); v != "" {
		fields.Category = &v
	}
	if req.GetBool("clear_schedule", false) {
		empty := ""
		fields.Date = &empty
		fields.Time = &empty
	}

	updated, err := s.store.Update(ctx, r.ID, fields)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update reminder: %v", err)), nil
	}

	return jsonResult(updated), nil
}

func (s *Server) handleImportReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	draft, err := s.extract(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to extract reminder: %v", err)), nil
	}

	added, err := s.store.Add(ctx, draft.Reminder())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add reminder: %v", err)), nil
	}

	return jsonResult(added), nil
}

func (s *Server) lookup(ctx context.Context, req mcp.CallToolRequest) (*Reminder, error) {
	id, err := s.store.Resolve(ctx, req.GetString("id", ""))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve reminder: %w", err)
	}
	return s.store.Get(ctx, id)
}
