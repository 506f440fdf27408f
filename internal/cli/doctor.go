package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/threadshift/internal/audit"
	"github.com/ppiankov/threadshift/internal/config"
	"github.com/ppiankov/threadshift/internal/integrity"
	"github.com/ppiankov/threadshift/internal/profile"
	"github.com/ppiankov/threadshift/internal/settings"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, store, profile and audit log health",
	RunE:  runDoctor,
}

type checkResult struct {
	label  string
	ok     bool
	detail string
	fix    string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	var checks []checkResult

	// 1. Binary location and version.
	if execPath, _ := os.Executable(); execPath != "" {
		checks = append(checks, checkResult{label: "threadshift binary", ok: true, detail: fmt.Sprintf("%s (v%s)", execPath, version)})
	} else {
		checks = append(checks, checkResult{label: "threadshift binary", detail: "cannot determine executable path"})
	}

	if res, err := integrity.Verify(); err != nil {
		checks = append(checks, checkResult{label: "binary checksum", detail: err.Error(), fix: "reinstall threadshift"})
	} else if res.Status == integrity.Skipped {
		checks = append(checks, checkResult{label: "binary checksum", ok: true, detail: "no expected hash (dev build)"})
	} else {
		checks = append(checks, checkResult{label: "binary checksum", ok: true, detail: res.Short()})
	}

	// 2. Config file.
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	if _, err := os.Stat(path); err != nil {
		checks = append(checks, checkResult{label: "config file", ok: true, detail: "absent, using defaults"})
	} else {
		checks = append(checks, checkResult{label: "config file", ok: true, detail: path})
	}

	cfg, err := loadConfig()
	if err != nil {
		checks = append(checks, checkResult{label: "config", detail: err.Error(), fix: "threadshift init --force"})
		return report(cmd, checks)
	}
	checks = append(checks, checkResult{label: "config", ok: true, detail: "valid"})

	// 3. Settings store.
	storePath := cfg.StorePath()
	if store, err := settings.Open(cfg.Store.Backend, storePath); err != nil {
		checks = append(checks, checkResult{label: "settings store", detail: err.Error(), fix: "check store.path permissions"})
	} else {
		store.Close()
		checks = append(checks, checkResult{label: "settings store", ok: true, detail: fmt.Sprintf("%s (%s)", cfg.Store.Backend, storePath)})
	}

	// 4. Profile.
	if cfg.Profile == "" {
		checks = append(checks, checkResult{label: "profile", ok: true, detail: "none (built-in table)"})
	} else if p, err := profile.Load(cfg.Profile); err != nil {
		checks = append(checks, checkResult{label: "profile", detail: err.Error(), fix: "threadshift profile init " + cfg.Profile})
	} else if err := profile.Validate(p); err != nil {
		checks = append(checks, checkResult{label: "profile", detail: err.Error(), fix: "threadshift profile check " + cfg.Profile})
	} else {
		checks = append(checks, checkResult{label: "profile", ok: true, detail: fmt.Sprintf("%s (%d overrides)", p.Name, len(p.ZoneMappings))})
	}

	// 5. Audit log chain.
	if cfg.AuditLog == "" {
		checks = append(checks, checkResult{label: "audit log", ok: true, detail: "disabled"})
	} else if _, err := os.Stat(cfg.AuditLog); err != nil {
		checks = append(checks, checkResult{label: "audit log", ok: true, detail: "not yet written"})
	} else if rep := audit.Verify(cfg.AuditLog); !rep.Intact {
		checks = append(checks, checkResult{label: "audit log", detail: fmt.Sprintf("chain broken at line %d: %s", rep.BrokenAt, rep.Problem), fix: "threadshift audit verify"})
	} else {
		checks = append(checks, checkResult{label: "audit log", ok: true, detail: fmt.Sprintf("%d entries verified", rep.Entries)})
	}

	return report(cmd, checks)
}

func report(cmd *cobra.Command, checks []checkResult) error {
	out := cmd.OutOrStdout()
	hasFailures := false
	for _, c := range checks {
		mark := "\u2713" // ✓
		if !c.ok {
			mark = "\u2717" // ✗
			hasFailures = true
		}
		line := fmt.Sprintf("%s %-20s %s", mark, c.label+":", c.detail)
		if !c.ok && c.fix != "" {
			line += fmt.Sprintf("  ->  %s", c.fix)
		}
		fmt.Fprintln(out, line)
	}

	if hasFailures {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Some checks failed. Run the suggested commands to fix.")
		return fmt.Errorf("doctor found issues")
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "All checks passed.")
	return nil
}
