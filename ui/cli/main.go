// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface for winacl using the Cobra
// library. It defines the root command, the shared service bootstrap
// (config, i18n, logging, database) and the version plumbing.

package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kburgoyne/winacl/buildvars"
	"github.com/kburgoyne/winacl/internal/config"
	"github.com/kburgoyne/winacl/internal/db"
	"github.com/kburgoyne/winacl/internal/i18n"
	"github.com/kburgoyne/winacl/internal/logging"
	"github.com/kburgoyne/winacl/internal/winsec"
)

var gitCommit = "dev" // set at build time with the short commit SHA
var buildDate = ""    // set at build time (RFC3339)

var cfgFile string
var verbose bool
var showVersionFlag bool
var dryRun bool

var appConfig config.Config

// backend, when non-nil, overrides the platform backend. Tests inject a
// memory backend here.
var backend winsec.Backend

func getBackend() winsec.Backend {
	if backend != nil {
		return backend
	}
	return winsec.DefaultBackend()
}

// setupDefaultServices loads configuration and initializes i18n, logging
// and the database. It runs as PersistentPreRunE for every subcommand.
func setupDefaultServices(cmd *cobra.Command, args []string) error {
	optionalConfigPath, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	defaults := map[string]any{
		"database.type": "sqlite",
		"database.dsn":  "./winacl.db",
		"language":      "en",
	}

	appConfig, err = config.LoadConfig[config.Config](cmd, defaults, optionalConfigPath)
	// A missing config file is expected on first run; anything else is not.
	if err != nil && !errors.As(err, &viper.ConfigFileNotFoundError{}) {
		return fmt.Errorf("error loading config: %w", err)
	}

	// Fall back to defaults where the user's config file left values empty.
	if appConfig.Database.Type == "" {
		appConfig.Database.Type = defaults["database.type"].(string)
	}
	if appConfig.Database.Dsn == "" {
		appConfig.Database.Dsn = defaults["database.dsn"].(string)
	}
	if appConfig.Language == "" {
		appConfig.Language = defaults["language"].(string)
	}

	i18n.Init(appConfig.Language)
	logging.SetDebug(verbose || appConfig.Debug)

	if appConfig.DryRun {
		dryRun = true
	}

	if !db.IsInitialized() {
		if err := db.InitDB(appConfig.Database.Type, appConfig.Database.Dsn); err != nil {
			return fmt.Errorf("error initializing database: %w", err)
		}
	}

	return nil
}

// Execute runs the CLI entrypoint. The root main package should call this
// function and handle process exit.
func Execute() error {
	return NewRootCmd().Execute()
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	// Only proceed if the user has explicitly set the --config flag.
	if cmd.Flags().Changed("config") {
		path, err := cmd.Flags().GetString("config")
		if err != nil {
			return nil, fmt.Errorf("could not read --config flag: %w", err)
		}
		if path == "" {
			return nil, nil
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
		}
		return &path, nil
	}
	return nil, nil
}

// NewRootCmd creates and configures a new root cobra command. This function
// builds the main application command as well as fresh instances for
// isolated testing.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "winacl",
		Short: i18n.T("cli.root.short"),
		Long: `winacl inspects and manages the security descriptors of Windows files,
directories and registry keys: owners, groups and discretionary access
control lists. Descriptors can be captured as baselines, compared against
policy files and exported as compressed snapshots.

On non-Windows platforms, mutating operations run against an in-memory
mirror of the filesystem, which makes every command safe to rehearse.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if showVersionFlag {
				fmt.Println(compositeVersion())
				os.Exit(0)
			}
			return setupDefaultServices(cmd, args)
		},
	}

	cmd.Version = compositeVersion()

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (debug) output")
	cmd.PersistentFlags().BoolVarP(&showVersionFlag, "version", "V", false, "Print version and exit")
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	cmd.PersistentFlags().String("language", "en", `CLI language ("en", "de")`)
	cmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without making changes")
	cmd.PersistentFlags().String("database.type", "sqlite", "Database type (e.g., sqlite, postgres)")
	cmd.PersistentFlags().String("database.dsn", "./winacl.db", "Database connection string (DSN)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			v, c, d := resolveBuildVersion(nil)
			fmt.Printf("version: %s\n", v)
			fmt.Printf("commit: %s\n", c)
			if d != "" {
				fmt.Printf("built: %s\n", d)
			}
		},
	}

	cmd.AddCommand(
		newGetCmd(),
		newSetCmd(),
		newCreateCmd(),
		newVerifyCmd(),
		newBaselineCmd(),
		newExportCmd(),
		newImportCmd(),
		newAuditCmd(),
		newMaintenanceCmd(),
		versionCmd,
	)

	return cmd
}

func compositeVersion() string {
	v, c, d := resolveBuildVersion(nil)
	out := v
	if c != "" && c != "dev" {
		out = out + " (" + c + ")"
	}
	if d != "" {
		out = out + " built: " + d
	}
	return out
}

// resolveBuildVersion computes the best-available version, commit and build
// date for the running binary. If `info` is nil, it reads build info from
// the runtime. This helper is separated to make unit testing straightforward.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	resolvedVersion := buildvars.VersionOrDefault("dev")
	resolvedCommit := gitCommit
	resolvedDate := buildDate

	if info == nil {
		info, _ = debug.ReadBuildInfo()
	}
	if info != nil {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			resolvedVersion = info.Main.Version
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if s.Value != "" {
					resolvedCommit = s.Value
				}
			case "vcs.time":
				if s.Value != "" {
					resolvedDate = s.Value
				}
			}
		}
	}
	return resolvedVersion, resolvedCommit, resolvedDate
}

// requireStore guards commands that need the store.
func requireStore() (db.Store, error) {
	if !db.IsInitialized() {
		return nil, errors.New("database not initialized")
	}
	return db.Get(), nil
}

// logAction writes an audit entry, logging failures without aborting the
// command that triggered it.
func logAction(action, details string) {
	if !db.IsInitialized() {
		return
	}
	if err := db.Get().LogAction(action, details); err != nil {
		log.Warnf("could not write audit entry: %v", err)
	}
}
