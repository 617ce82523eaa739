package models

// Config represents the complete configuration for arbor
type Config struct {
	GitLab     GitLabConfig                `yaml:"gitlab"`
	GitHub     GitHubConfig                `yaml:"github"`
	Build      BuildConfig                 `yaml:"build"`
	Conditions map[string]ConditionProfile `yaml:"conditions"`
	Use        []string                    `yaml:"use"` // profiles ORed together; empty matches every file
	Output     OutputConfig                `yaml:"output"`
	Mirror     MirrorConfig                `yaml:"mirror"`
	Logging    LoggingConfig               `yaml:"logging"`
}

// GitLabConfig contains GitLab connection settings
type GitLabConfig struct {
	BaseURL  string `yaml:"base_url"`
	TokenEnv string `yaml:"token_env"`
}

// GitHubConfig contains GitHub connection settings
type GitHubConfig struct {
	BaseURL  string `yaml:"base_url"`
	TokenEnv string `yaml:"token_env"`
}

// BuildConfig controls how trees are populated
type BuildConfig struct {
	Empty bool `yaml:"empty"` // discard files, keep the skeleton
}

// ConditionProfile is the declarative form of a condition.Condition
type ConditionProfile struct {
	OnlyTerminal bool     `yaml:"only_terminal"`
	Contain      []string `yaml:"contain"`
	Exclude      []string `yaml:"exclude"`
	ContainDirs  []string `yaml:"contain_dirs"`
	ExcludeDirs  []string `yaml:"exclude_dirs"`
	Extensions   []string `yaml:"extensions"`
	Match        []string `yaml:"match"`     // glob patterns, any may match
	Gitignore    bool     `yaml:"gitignore"` // drop files git would ignore
}

// IsZero reports whether the profile sets no criterion at all
func (p ConditionProfile) IsZero() bool {
	return !p.OnlyTerminal && !p.Gitignore &&
		len(p.Contain) == 0 && len(p.Exclude) == 0 &&
		len(p.ContainDirs) == 0 && len(p.ExcludeDirs) == 0 &&
		len(p.Extensions) == 0 && len(p.Match) == 0
}

// OutputFormat selects how collected paths are printed
type OutputFormat string

const (
	FormatText    OutputFormat = "text"
	FormatJSON    OutputFormat = "json"
	FormatGrouped OutputFormat = "grouped"
)

// OutputConfig contains result printing settings
type OutputConfig struct {
	Format  OutputFormat `yaml:"format"`
	Flatten bool         `yaml:"flatten"` // json only: a flat list instead of nested groups
}

// MirrorConfig contains settings for the mirror command
type MirrorConfig struct {
	Overwrite bool `yaml:"overwrite"`
	Hollow    bool `yaml:"hollow"` // directories only, no files
}

// LoggingConfig contains logger settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Platform represents where a tree is read from
type Platform string

const (
	PlatformGitLab Platform = "gitlab"
	PlatformGitHub Platform = "github"
	PlatformLocal  Platform = "local"
)

// SourceInfo contains a parsed source argument
type SourceInfo struct {
	Platform Platform
	Owner    string // remote only; may contain subgroups on GitLab
	Name     string // repository name or local directory path
	FullName string // owner/repo format
	URL      string // original URL if provided
	Ref      string // branch, tag or commit; empty means default branch
}

// CLIOptions contains command-line options
type CLIOptions struct {
	Token           string
	BaseURL         string
	ConfigFile      string
	DefaultPlatform string
	Profiles        []string
	Extensions      string
	Contain         string
	Exclude         string
	ContainDirs     string
	ExcludeDirs     string
	Match           string
	OnlyTerminal    bool
	Gitignore       bool
	Empty           bool
	Format          string
	Flatten         bool
	Overwrite       bool
	Hollow          bool
	Verbose         bool
	Quiet           bool
}

// HasInlineCondition reports whether any condition flag was given
func (o *CLIOptions) HasInlineCondition() bool {
	return o.Extensions != "" || o.Contain != "" || o.Exclude != "" ||
		o.ContainDirs != "" || o.ExcludeDirs != "" || o.Match != "" ||
		o.OnlyTerminal || o.Gitignore
}
