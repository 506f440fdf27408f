package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/threadshift/internal/config"
	"github.com/ppiankov/threadshift/internal/profile"
)

var (
	initProfile string
	initMode    string
	initForce   bool
)

func init() {
	initCmd.Flags().StringVar(&initProfile, "profile", "", "Mapping profile to select (built-in name, or a new name to scaffold)")
	initCmd.Flags().StringVar(&initMode, "mode", "user", "Config location: user (~/.threadshift) or system (/etc/threadshift)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config files")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap threadshift configuration",
	Long: `Creates the config directory, a commented config.yaml and the profile directory.

User mode (default):  writes to ~/.threadshift/
System mode:          writes to /etc/threadshift/ (pass --config to use it)

With --profile: selects a built-in profile in config.yaml, or scaffolds
profiles/<name>.yaml for a new one and selects that.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := initConfigDir()
	if err != nil {
		return err
	}

	var created []string

	profilesDir := filepath.Join(configDir, "profiles")
	if err := os.MkdirAll(profilesDir, 0o755); err != nil {
		return fmt.Errorf("create profiles directory: %w", err)
	}

	if initProfile != "" && !profile.IsBuiltin(initProfile) {
		profPath := filepath.Join(profilesDir, initProfile+".yaml")
		if wrote, err := writeIfMissing(profPath, profile.InitProfile(initProfile)); err != nil {
			return err
		} else if wrote {
			created = append(created, profPath)
		}
	}

	configPath := filepath.Join(configDir, "config.yaml")
	if wrote, err := writeIfMissing(configPath, initConfigYAML(initProfile)); err != nil {
		return err
	} else if wrote {
		created = append(created, configPath)
	}

	fmt.Println("threadshift init complete.")
	fmt.Println()
	if len(created) > 0 {
		fmt.Println("Created:")
		for _, path := range created {
			fmt.Printf("  %s\n", path)
		}
		fmt.Println()
	} else {
		fmt.Println("All files already exist (use --force to overwrite).")
		fmt.Println()
	}

	fmt.Println("Verify:")
	fmt.Println("  threadshift doctor")
	fmt.Println()
	fmt.Println("Inspect the active garment table:")
	fmt.Println("  threadshift zones")
	return nil
}

// initConfigYAML returns the default config with the profile key set.
func initConfigYAML(profileName string) string {
	content := config.DefaultConfigYAML()
	if profileName == "" {
		return content
	}
	return strings.Replace(content, `profile: ""`, fmt.Sprintf("profile: %s", profileName), 1)
}

// initConfigDir returns the configuration directory based on mode.
func initConfigDir() (string, error) {
	switch initMode {
	case "system":
		return "/etc/threadshift", nil
	case "user", "":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(home, ".threadshift"), nil
	default:
		return "", fmt.Errorf("unknown mode %q: use 'user' or 'system'", initMode)
	}
}

// writeIfMissing writes content to path if it doesn't exist or --force is set.
// Returns true if the file was written.
func writeIfMissing(path, content string) (bool, error) {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
