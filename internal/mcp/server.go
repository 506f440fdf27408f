// Package mcp exposes the swap engine as Model Context Protocol tools over
// stdio.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/ppiankov/threadshift/internal/core"
	"github.com/ppiankov/threadshift/internal/profile"
)

// Config holds MCP server configuration.
type Config struct {
	ProfileName string // applied on top of whatever the core loaded
}

// Server wraps the MCP SDK server around a started core.
type Server struct {
	mcpServer *mcpsdk.Server
	core      *core.Core
	log       *zap.Logger
}

// New creates an MCP server with all tools registered. c must be started.
func New(c *core.Core, cfg Config, log *zap.Logger) (*Server, error) {
	if c == nil || c.Engine() == nil {
		return nil, fmt.Errorf("mcp: %w", core.ErrNotStarted)
	}
	if log == nil {
		log = zap.NewNop()
	}

	if cfg.ProfileName != "" {
		prof, err := profile.Load(cfg.ProfileName)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile %q: %w", cfg.ProfileName, err)
		}
		if err := c.ApplyProfile(prof); err != nil {
			return nil, fmt.Errorf("failed to apply profile %q: %w", cfg.ProfileName, err)
		}
	}

	s := &Server{core: c, log: log}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "threadshift",
			Version: core.PluginVersion,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Connect serves a single session over t. Used with in-memory transports.
func (s *Server) Connect(ctx context.Context, t mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}

// registerTools adds all threadshift tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "threadshift_validate",
		Description: "Validate a body map against the schema. Returns every violation found.",
	}, s.handleValidate)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "threadshift_swap",
		Description: "Swap the zones a garment covers from the source character onto the target. Returns both updated characters and the swap id needed to reverse it.",
	}, s.handleSwap)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "threadshift_reverse",
		Description: "Reverse an active swap by id, restoring both characters.",
	}, s.handleReverse)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "threadshift_preview",
		Description: "Show what each body map would receive from a reciprocal swap without performing it.",
	}, s.handlePreview)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "threadshift_reciprocal",
		Description: "Exchange every zone covered by the worn garments between two body maps.",
	}, s.handleReciprocal)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "threadshift_status",
		Description: "Report engine status, attached components and stored settings.",
	}, s.handleStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "threadshift_history",
		Description: "List swap history, newest last. Optionally filter by character.",
	}, s.handleHistory)
}
