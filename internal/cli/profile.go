package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/threadshift/internal/profile"
)

var initOutput string

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileCheckCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileInitCmd)
	profileInitCmd.Flags().StringVarP(&initOutput, "output", "o", "", "Output path (default: ~/.threadshift/profiles/<name>.yaml)")
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage garment -> zone mapping profiles",
	Long:  "List, check, show and create named mapping profiles. A profile is applied with the\n\"profile\" config key or the --profile flag of serve and mcp.",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available profiles",
	RunE:  runProfileList,
}

var profileCheckCmd = &cobra.Command{
	Use:   "check <name>",
	Short: "Validate a profile loads cleanly",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileCheck,
}

var profileShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the mappings a profile overrides",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileShow,
}

var profileInitCmd = &cobra.Command{
	Use:   "init <name>",
	Short: "Generate a starter profile template",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileInit,
}

func runProfileList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	names := profile.List()
	if len(names) == 0 {
		fmt.Fprintln(out, "No profiles available.")
		return nil
	}

	fmt.Fprintln(out, "Available profiles:")
	for _, name := range names {
		p, err := profile.Load(name)
		if err != nil {
			fmt.Fprintf(out, "  %-15s (error loading: %v)\n", name, err)
			continue
		}
		origin := ""
		if profile.IsBuiltin(name) {
			origin = " [built-in]"
		}
		fmt.Fprintf(out, "  %-15s %s%s\n", name, p.Description, origin)
	}
	return nil
}

func runProfileCheck(cmd *cobra.Command, args []string) error {
	name := args[0]
	p, err := profile.Load(name)
	if err != nil {
		return fmt.Errorf("failed to load profile %q: %w", name, err)
	}
	if err := profile.Validate(p); err != nil {
		return fmt.Errorf("profile %q is invalid: %w", name, err)
	}

	zones := 0
	for _, z := range p.ZoneMappings {
		zones += len(z)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Profile %q (%s) is valid.\n", name, p.Name)
	fmt.Fprintf(cmd.OutOrStdout(), "  Garment types:  %d\n", len(p.ZoneMappings))
	fmt.Fprintf(cmd.OutOrStdout(), "  Zone entries:   %d\n", zones)
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	name := args[0]
	p, err := profile.Load(name)
	if err != nil {
		return fmt.Errorf("failed to load profile %q: %w", name, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Profile: %s (%s)\n\n", p.Name, p.Description)
	if len(p.ZoneMappings) == 0 {
		fmt.Fprintln(out, "No overrides: the built-in table applies unchanged.")
	} else {
		types := make([]string, 0, len(p.ZoneMappings))
		for t := range p.ZoneMappings {
			types = append(types, t)
		}
		slices.Sort(types)
		fmt.Fprintln(out, "Zone mappings:")
		for _, t := range types {
			fmt.Fprintf(out, "  - %-10s -> %s\n", t, strings.Join(p.ZoneMappings[t], ", "))
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "To apply at runtime:")
	fmt.Fprintf(out, "  threadshift serve --profile %s\n", name)
	fmt.Fprintf(out, "  threadshift mcp --profile %s\n", name)
	return nil
}

func runProfileInit(cmd *cobra.Command, args []string) error {
	name := args[0]

	outPath := initOutput
	if outPath == "" {
		dir, err := profile.Dir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		outPath = filepath.Join(dir, name+".yaml")
	}

	if _, err := os.Stat(outPath); err == nil {
		return fmt.Errorf("file already exists: %s (remove it first or use --output)", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(outPath, []byte(profile.InitProfile(name)), 0o644); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created profile template: %s\n", outPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Edit it, then validate with: threadshift profile check %s\n", name)
	return nil
}
