package config

import (
	"fmt"
	"os"
	"sort"

	"arbor/pkg/condition"
	"arbor/pkg/logger"
	"arbor/pkg/models"
	"arbor/pkg/utils"

	"github.com/go-git/go-billy/v5"
	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when --config is not given.
const DefaultFile = ".arbor.yml"

// InlineProfile names the profile built from condition flags.
const InlineProfile = "cli"

// Loader handles configuration loading and validation
type Loader struct{}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadConfig loads configuration from file or returns default config.
// A missing file is not an error.
func (l *Loader) LoadConfig(configFile string) (*models.Config, error) {
	config := l.getDefaultConfig()

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			data, err := os.ReadFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	return config, nil
}

// getDefaultConfig returns the default configuration
func (l *Loader) getDefaultConfig() *models.Config {
	return &models.Config{
		GitLab: models.GitLabConfig{
			BaseURL:  "https://gitlab.com",
			TokenEnv: "GITLAB_TOKEN",
		},
		GitHub: models.GitHubConfig{
			BaseURL:  "https://api.github.com",
			TokenEnv: "GITHUB_TOKEN",
		},
		Conditions: map[string]models.ConditionProfile{},
		Use:        []string{},
		Output: models.OutputConfig{
			Format: models.FormatText,
		},
		Logging: models.LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// OverrideWithFlags overrides config values with command line flags.
// --profile replaces the profiles selected in the file. Condition flags form
// an extra profile named "cli", ORed with --profile when both are given and
// used alone otherwise.
func (l *Loader) OverrideWithFlags(config *models.Config, flags *models.CLIOptions) error {
	if flags.BaseURL != "" {
		// Determine which platform to update based on the base URL
		if flags.BaseURL == "https://api.github.com" || flags.BaseURL == "https://github.com" {
			config.GitHub.BaseURL = flags.BaseURL
		} else {
			config.GitLab.BaseURL = flags.BaseURL
		}
	}

	if len(flags.Profiles) > 0 {
		config.Use = append([]string(nil), flags.Profiles...)
	}

	if flags.HasInlineCondition() {
		if config.Conditions == nil {
			config.Conditions = map[string]models.ConditionProfile{}
		}
		config.Conditions[InlineProfile] = models.ConditionProfile{
			OnlyTerminal: flags.OnlyTerminal,
			Contain:      utils.ParsePatterns(flags.Contain),
			Exclude:      utils.ParsePatterns(flags.Exclude),
			ContainDirs:  utils.ParsePatterns(flags.ContainDirs),
			ExcludeDirs:  utils.ParsePatterns(flags.ExcludeDirs),
			Extensions:   utils.ParsePatterns(flags.Extensions),
			Match:        utils.ParsePatterns(flags.Match),
			Gitignore:    flags.Gitignore,
		}
		if len(flags.Profiles) > 0 {
			config.Use = utils.AppendUnique(config.Use, InlineProfile)
		} else {
			config.Use = []string{InlineProfile}
		}
	}

	if flags.Format != "" {
		config.Output.Format = models.OutputFormat(flags.Format)
	}
	if flags.Flatten {
		config.Output.Flatten = true
	}
	if flags.Overwrite {
		config.Mirror.Overwrite = true
	}
	if flags.Hollow {
		config.Mirror.Hollow = true
	}
	if flags.Empty {
		config.Build.Empty = true
	}

	return nil
}

// ValidateConfig validates the configuration
func (l *Loader) ValidateConfig(config *models.Config) error {
	switch config.Output.Format {
	case models.FormatText, models.FormatJSON, models.FormatGrouped:
	default:
		return fmt.Errorf("invalid output format %q: must be text, json or grouped", config.Output.Format)
	}

	switch config.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid logging format %q: must be text or json", config.Logging.Format)
	}

	for _, name := range config.Use {
		if _, ok := config.Conditions[name]; !ok {
			return fmt.Errorf("unknown condition profile %q", name)
		}
	}

	for _, name := range profileNames(config) {
		for _, pattern := range config.Conditions[name].Match {
			if _, err := glob.Compile(pattern, '/'); err != nil {
				return fmt.Errorf("invalid match pattern %q in profile %q: %w", pattern, name, err)
			}
		}
	}

	return nil
}

func profileNames(config *models.Config) []string {
	names := make([]string, 0, len(config.Conditions))
	for name := range config.Conditions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildCondition turns a profile into a Condition. ignoreFS is the tree root
// seen as a billy filesystem and root the path the tree is built with; both
// only matter for gitignore profiles. A nil ignoreFS skips gitignore rules.
func BuildCondition(profile models.ConditionProfile, ignoreFS billy.Filesystem, root string) (*condition.Condition, error) {
	c := condition.New().
		OnlyTerminal(profile.OnlyTerminal).
		AddContainFilename(profile.Contain...).
		AddExcludeFilename(profile.Exclude...).
		AddContainDir(profile.ContainDirs...).
		AddExcludeDir(profile.ExcludeDirs...).
		SpecifyExtension(profile.Extensions...)

	if len(profile.Match) > 0 {
		fn, err := condition.GlobPredicate(profile.Match...)
		if err != nil {
			return nil, err
		}
		c.AddCustomPredicate(fn)
	}

	if profile.Gitignore {
		if ignoreFS == nil {
			logger.Logger.WithField("root", root).Warn("Gitignore rules are only read from local sources, skipping them")
		} else {
			fn, err := condition.GitignorePredicate(ignoreFS, root)
			if err != nil {
				return nil, err
			}
			c.AddCustomPredicate(fn)
		}
	}

	return c, nil
}

// BuildMatcher compiles the selected profiles into one matcher. Several
// profiles match a file when any of them does. Without profiles it returns
// nil, which matches every file.
func BuildMatcher(config *models.Config, ignoreFS billy.Filesystem, root string) (condition.Matcher, error) {
	if len(config.Use) == 0 {
		return nil, nil
	}

	conditions := make([]*condition.Condition, 0, len(config.Use))
	for _, name := range config.Use {
		profile, ok := config.Conditions[name]
		if !ok {
			return nil, fmt.Errorf("unknown condition profile %q", name)
		}
		if profile.IsZero() {
			logger.Logger.WithField("profile", name).Warn("Condition profile sets no criterion, it matches every file")
		}
		c, err := BuildCondition(profile, ignoreFS, root)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
		conditions = append(conditions, c)
	}

	return condition.Combine(conditions...), nil
}
