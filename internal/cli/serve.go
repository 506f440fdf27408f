package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/threadshift/internal/core"
	"github.com/ppiankov/threadshift/internal/integrity"
	"github.com/ppiankov/threadshift/internal/profile"
	"github.com/ppiankov/threadshift/internal/server"
)

var (
	servePort    int
	serveProfile string
	serveWatch   string
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 50051, "gRPC listen port")
	serveCmd.Flags().StringVar(&serveProfile, "profile", "", "Mapping profile to apply (e.g., swimwear)")
	serveCmd.Flags().StringVar(&serveWatch, "watch", "", "Profile YAML file to apply and hot-reload on change")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC swap server",
	Long:  "Runs threadshift as a long-lived gRPC server. Swaps stay reversible for the\nlifetime of the process. With --watch, a profile file is re-applied whenever it changes.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	defer log.Sync()

	res, err := integrity.Verify()
	if err != nil {
		return err
	}
	log.Debug("binary checksum", zap.String("status", res.Status), zap.String("hash", res.Short()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := core.New(cfg, core.WithLogger(log))
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer c.Close()

	if serveProfile != "" {
		p, err := profile.Load(serveProfile)
		if err != nil {
			return fmt.Errorf("failed to load profile %q: %w", serveProfile, err)
		}
		if err := c.ApplyProfile(p); err != nil {
			return err
		}
	}

	srv, err := server.New(c, server.Config{Port: servePort, ProfilePath: serveWatch, RateLimits: cfg.RateLimits}, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if serveWatch != "" {
		if err := srv.ReloadProfile(); err != nil {
			return err
		}
		reloader, err := server.NewReloader(srv, []string{serveWatch}, log)
		if err != nil {
			log.Warn("hot-reload disabled", zap.Error(err))
		} else {
			go reloader.Run(ctx)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down swap server...")
		cancel()
		srv.GracefulStop()
	}()

	fmt.Fprintf(os.Stderr, "threadshift server listening on :%d\n", servePort)
	if serveProfile != "" {
		fmt.Fprintf(os.Stderr, "Profile: %s\n", serveProfile)
	}
	if serveWatch != "" {
		fmt.Fprintf(os.Stderr, "Watching: %s (hot-reload enabled)\n", serveWatch)
	}
	fmt.Fprintln(os.Stderr)

	return srv.Serve()
}
