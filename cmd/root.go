package cmd

import (
	"fmt"
	"strings"

	"arbor/internal/config"
	"arbor/pkg/logger"
	"arbor/pkg/models"
	"arbor/pkg/utils"

	"github.com/spf13/cobra"
)

// Version information
var Version = "0.0.1"

// RootCmd represents the base command when called without any subcommands
var RootCmd = NewRootCmd()

// NewRootCmd builds the command tree with its own flag storage
func NewRootCmd() *cobra.Command {
	opts := &models.CLIOptions{}
	var profiles string

	root := &cobra.Command{
		Use:     "arbor",
		Short:   "Query, filter and mirror directory trees",
		Version: Version,
		Long: `Arbor builds an in-memory model of a directory tree, from the local disk or
a GitHub or GitLab repository, and answers questions about it: which files
match a set of conditions, which directories are leaves, where a path lives.
It can also recreate the tree elsewhere, with or without its files.

Sources:
  - local paths: ./project, /srv/data, .
  - GitHub: https://github.com/owner/repo, owner/repo, git@github.com:owner/repo.git
  - GitLab: https://gitlab.com/group/sub/repo (self-hosted with --base-url)
  Append #ref to pick a branch, tag or commit on remote sources.

Conditions:
  Flags such as --ext and --exclude-dir form an inline condition. Named
  conditions live in .arbor.yml under "conditions" and are selected with
  --profile. Several conditions match a file when any one of them does.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.Profiles = utils.ParsePatterns(profiles)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file path (default .arbor.yml)")
	pf.StringVarP(&opts.Token, "token", "t", "", "Personal access token for remote sources")
	pf.StringVar(&opts.BaseURL, "base-url", "", "Custom base URL for self-hosted instances")
	pf.StringVar(&opts.DefaultPlatform, "default-platform", "", "Platform for owner/repo sources (github or gitlab)")
	pf.StringVarP(&profiles, "profile", "p", "", "Comma-separated condition profiles from the config file")
	pf.StringVarP(&opts.Extensions, "ext", "e", "", "Comma-separated file extensions to keep")
	pf.StringVar(&opts.Contain, "contain", "", "Keep file names containing any of these comma-separated literals")
	pf.StringVar(&opts.Exclude, "exclude", "", "Drop file names containing any of these comma-separated literals")
	pf.StringVar(&opts.ContainDirs, "contain-dir", "", "Keep files under any of these comma-separated directory names")
	pf.StringVar(&opts.ExcludeDirs, "exclude-dir", "", "Drop files under any of these comma-separated directory names")
	pf.StringVar(&opts.Match, "match", "", "Keep files matching any of these comma-separated globs")
	pf.BoolVar(&opts.OnlyTerminal, "only-terminal", false, "Keep only files in directories without subdirectories")
	pf.BoolVar(&opts.Gitignore, "gitignore", false, "Drop files ignored by .gitignore (local sources)")
	pf.BoolVar(&opts.Empty, "empty", false, "Build the tree without files")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "Verbose output")
	pf.BoolVarP(&opts.Quiet, "quiet", "q", false, "Only log errors")

	collectCmd := &cobra.Command{
		Use:   "collect <source>",
		Short: "Print the files matching the conditions",
		Example: `  arbor collect ./project --ext go --exclude-dir vendor
  arbor collect owner/repo#main --match "*_test.go" --format json
  arbor collect . --profile python,docs --format grouped`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := newRunner(cmd, opts)
			if err != nil {
				return err
			}
			return runner.Collect(cmd.Context(), args[0])
		},
	}
	collectCmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json or grouped")
	collectCmd.Flags().BoolVar(&opts.Flatten, "flatten", false, "Print json as a flat list")

	leavesCmd := &cobra.Command{
		Use:   "leaves <source>",
		Short: "Print the directories that have no subdirectories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := newRunner(cmd, opts)
			if err != nil {
				return err
			}
			return runner.Leaves(cmd.Context(), args[0])
		},
	}

	locateCmd := &cobra.Command{
		Use:   "locate <source> <path>",
		Short: "Print the directory holding a relative path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := newRunner(cmd, opts)
			if err != nil {
				return err
			}
			return runner.Locate(cmd.Context(), args[0], args[1])
		},
	}

	treeCmd := &cobra.Command{
		Use:   "tree <source>",
		Short: "Draw the tree with the files matching the conditions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := newRunner(cmd, opts)
			if err != nil {
				return err
			}
			return runner.Tree(cmd.Context(), args[0])
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats <source>",
		Short: "Summarize directories and matching files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := newRunner(cmd, opts)
			if err != nil {
				return err
			}
			return runner.Stats(cmd.Context(), args[0])
		},
	}
	statsCmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text or json")

	mirrorCmd := &cobra.Command{
		Use:   "mirror <source> <destination>",
		Short: "Recreate the tree under a local directory",
		Long: `Mirror creates <destination>/<name of source> and every directory below it,
then copies the files matching the conditions (every file when none is
given). Existing directories are reused and existing files are left alone
unless --overwrite is set.`,
		Example: `  arbor mirror ./data /tmp/backup --ext csv
  arbor mirror owner/repo ./skeleton --hollow`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := newRunner(cmd, opts)
			if err != nil {
				return err
			}
			_, err = runner.Mirror(cmd.Context(), args[0], args[1])
			return err
		},
	}
	mirrorCmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "Replace files that already exist")
	mirrorCmd.Flags().BoolVar(&opts.Hollow, "hollow", false, "Create directories only")

	root.AddCommand(collectCmd, leavesCmd, locateCmd, treeCmd, statsCmd, mirrorCmd)
	return root
}

// newRunner loads the configuration, applies the flags and configures logging
func newRunner(cmd *cobra.Command, opts *models.CLIOptions) (*Runner, error) {
	if err := validatePlatform(opts.DefaultPlatform); err != nil {
		return nil, err
	}
	opts.DefaultPlatform = strings.ToLower(opts.DefaultPlatform)

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = config.DefaultFile
	}

	configLoader := config.NewLoader()
	cfg, err := configLoader.LoadConfig(configFile)
	if err != nil {
		logger.Logger.WithError(err).Error("Failed to load configuration")
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := configLoader.OverrideWithFlags(cfg, opts); err != nil {
		logger.Logger.WithError(err).Error("Failed to process configuration")
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}

	if err := configLoader.ValidateConfig(cfg); err != nil {
		logger.Logger.WithError(err).Error("Configuration validation failed")
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	configureLogging(cfg, opts)
	logger.Logger.WithField("command", cmd.Name()).Debug("Configuration loaded")

	return NewRunner(cfg, opts, cmd.OutOrStdout()), nil
}

// configureLogging applies the logging section, then --quiet or --verbose
func configureLogging(cfg *models.Config, opts *models.CLIOptions) {
	logger.SetLevel(cfg.Logging.Level)
	logger.SetFormat(cfg.Logging.Format)

	if opts.Quiet {
		logger.SetQuiet()
	} else if opts.Verbose {
		logger.SetVerbose()
	}
}

func validatePlatform(platform string) error {
	switch strings.ToLower(platform) {
	case "", string(models.PlatformGitHub), string(models.PlatformGitLab):
		return nil
	default:
		return fmt.Errorf("invalid default platform '%s'. Valid options: github, gitlab", platform)
	}
}
