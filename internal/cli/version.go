package cli

import (
	"github.com/spf13/cobra"

	"github.com/ppiankov/threadshift/internal/core"
	"github.com/ppiankov/threadshift/internal/swap"
)

const version = "0.3.0"

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJSON(cmd, map[string]string{
			"version":    version,
			"name":       "threadshift",
			"plugin":     core.PluginName,
			"apiVersion": core.APIVersion,
			"engine":     swap.Version,
		})
	},
}
