package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/threadshift/internal/core"
	tsmcp "github.com/ppiankov/threadshift/internal/mcp"
)

var mcpProfile string

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpProfile, "profile", "", "Mapping profile to apply (e.g., formalwear)")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long:  "Runs threadshift as an MCP (Model Context Protocol) server over stdio.\nExposes tools: validate, swap, reverse, preview, reciprocal, status, history.",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := core.New(cfg, core.WithLogger(log))
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer c.Close()

	srv, err := tsmcp.New(c, tsmcp.Config{ProfileName: mcpProfile}, log)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	fmt.Fprintln(os.Stderr, "threadshift MCP server running on stdio")
	if mcpProfile != "" {
		fmt.Fprintf(os.Stderr, "Profile: %s\n", mcpProfile)
	}
	fmt.Fprintln(os.Stderr)

	err = srv.Run(ctx)

	// Print engine status on exit
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Session summary:")
	out, _ := json.MarshalIndent(c.Engine().Status(), "", "  ")
	fmt.Fprintln(os.Stderr, string(out))

	return err
}
