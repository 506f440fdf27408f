package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/threadshift/internal/settings"
)

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)

	rootCmd.AddCommand(mappingsCmd)
	mappingsCmd.AddCommand(mappingsShowCmd)
	mappingsCmd.AddCommand(mappingsSetCmd)
	mappingsCmd.AddCommand(mappingsClearCmd)
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Stored engine settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored settings document",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		c, err := startCore(ctx)
		if err != nil {
			return err
		}
		defer c.Close()
		return printJSON(cmd, c.Status(ctx).Settings)
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Update one stored setting (e.g. historyLimit 50, zoneValidation false)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		c, err := startCore(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		doc, err := c.UpdateSettings(ctx, map[string]any{args[0]: parseValue(args[1])})
		if err != nil {
			return err
		}
		return printJSON(cmd, doc)
	},
}

// parseValue reads booleans and integers; anything else stays a string.
func parseValue(s string) any {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}

var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "Stored garment -> zone overrides",
}

var mappingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored override table",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		c, err := startCore(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		m, err := storedMappings(ctx, c.Store())
		if err != nil {
			return err
		}
		return printJSON(cmd, m)
	},
}

var mappingsSetCmd = &cobra.Command{
	Use:   "set <garment-type> <zone,zone,...>",
	Short: "Map a garment type to zones, keeping the other stored overrides",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		c, err := startCore(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		m, err := storedMappings(ctx, c.Store())
		if err != nil {
			return err
		}
		var zones []string
		for _, z := range strings.Split(args[1], ",") {
			if z = strings.TrimSpace(z); z != "" {
				zones = append(zones, z)
			}
		}
		m[strings.ToLower(args[0])] = zones
		if err := c.SetZoneMappings(ctx, m); err != nil {
			return err
		}
		return printJSON(cmd, m)
	},
}

var mappingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every stored override",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		c, err := startCore(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.SetZoneMappings(ctx, nil); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Stored mappings cleared.")
		return nil
	},
}

func storedMappings(ctx context.Context, store settings.Store) (map[string][]string, error) {
	m := map[string][]string{}
	if _, err := settings.GetJSON(ctx, store, settings.KeyZoneMappings, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string][]string{}
	}
	return m, nil
}
