package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ppiankov/threadshift/internal/client"
)

var statusRemote string

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusRemote, "remote", "", "Query a threadshift server at host:port instead of in-process")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show engine status, attached components and stored settings",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if statusRemote != "" {
		cl, err := client.New(statusRemote)
		if err != nil {
			return err
		}
		defer cl.Close()
		st, err := cl.Status(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd, st)
	}

	c, err := startCore(ctx)
	if err != nil {
		return err
	}
	defer c.Close()
	return printJSON(cmd, c.Status(ctx))
}
