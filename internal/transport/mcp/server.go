// Package mcp exposes the report, topic, and collection registries as MCP
// tools over stdio for agent clients.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

var reportListToolDef = mcp.NewTool("report_list",
	mcp.WithDescription("List generated reports for a user, newest first."),
	mcp.WithString("user_email", mcp.Description("Email scoping the listing; defaults to the configured system user.")),
	mcp.WithString("status", mcp.Description("Filter by lifecycle status."), mcp.Enum("running", "complete")),
	mcp.WithString("topic_id", mcp.Description("Filter by saved topic UUID.")),
	mcp.WithBoolean("include_content", mcp.Description("Inline each report's markdown transcript when available.")),
)

var reportGetToolDef = mcp.NewTool("report_get",
	mcp.WithDescription("Fetch one report by ID."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Report UUID.")),
	mcp.WithString("user_email", mcp.Description("Email scoping the lookup; defaults to the configured system user.")),
	mcp.WithBoolean("include_content", mcp.Description("Inline the markdown transcript when available.")),
)

var reportGenerateToolDef = mcp.NewTool("report_generate",
	mcp.WithDescription("Generate a report from an outline and persist it. Saves the topic for the user as a side effect."),
	mcp.WithString("topic", mcp.Required(), mcp.Description("Topic the report is about.")),
	mcp.WithString("report_title", mcp.Description("Display title; defaults to the topic.")),
	mcp.WithArray("sections",
		mcp.Required(),
		mcp.Description("Outline sections to write, in order."),
		mcp.Items(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":       map[string]any{"type": "string"},
				"description": map[string]any{"type": "string"},
			},
			"required": []string{"title"},
		}),
	),
	mcp.WithString("user_email", mcp.Description("Owner email; defaults to the configured system user.")),
	mcp.WithString("username", mcp.Description("Display name used if the owner is created by this call.")),
)

var topicListToolDef = mcp.NewTool("topic_list",
	mcp.WithDescription("List a user's saved topics."),
	mcp.WithString("user_email", mcp.Description("Email scoping the listing; defaults to the configured system user.")),
	mcp.WithString("collection_id", mcp.Description("Limit to one collection UUID.")),
)

var collectionListToolDef = mcp.NewTool("collection_list",
	mcp.WithDescription("List a user's topic collections in display order."),
	mcp.WithString("user_email", mcp.Description("Email scoping the listing; defaults to the configured system user.")),
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"report_list": {
		def:     reportListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReportList },
	},
	"report_get": {
		def:     reportGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReportGet },
	},
	"report_generate": {
		def:     reportGenerateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReportGenerate },
	},
	"topic_list": {
		def:     topicListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTopicList },
	},
	"collection_list": {
		def:     collectionListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCollectionList },
	},
}

// AllToolNames returns a list of all registered tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// NewServer creates an MCP server with the explorer tools registered.
func NewServer(h *Handlers, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"explorer",
		version,
		server.WithToolCapabilities(true),
	)

	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run serves the MCP tools over stdio until the client disconnects.
func Run(h *Handlers, version string) error {
	return server.ServeStdio(NewServer(h, version))
}
