package config

import (
	"os"
	"path/filepath"
	"testing"

	"arbor/pkg/condition"
	"arbor/pkg/logger"
	"arbor/pkg/models"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	assert.NotNil(t, loader)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoader_LoadConfig(t *testing.T) {
	loader := NewLoader()

	t.Run("should load default config when no file specified", func(t *testing.T) {
		config, err := loader.LoadConfig("")
		require.NoError(t, err)

		assert.Equal(t, models.FormatText, config.Output.Format)
		assert.Equal(t, "GITLAB_TOKEN", config.GitLab.TokenEnv)
		assert.Equal(t, "GITHUB_TOKEN", config.GitHub.TokenEnv)
		assert.Equal(t, "https://api.github.com", config.GitHub.BaseURL)
		assert.Empty(t, config.Use)
		assert.Equal(t, "info", config.Logging.Level)
	})

	t.Run("should use default config when file does not exist", func(t *testing.T) {
		config, err := loader.LoadConfig("nonexistent.yml")
		require.NoError(t, err)
		assert.Equal(t, models.FormatText, config.Output.Format)
	})

	t.Run("should load config from valid file", func(t *testing.T) {
		path := writeConfig(t, `
gitlab:
  token_env: "CUSTOM_GITLAB_TOKEN"
conditions:
  python:
    extensions: [py]
    exclude_dirs: [venv]
use: [python]
output:
  format: json
  flatten: true
mirror:
  overwrite: true
build:
  empty: true
`)

		config, err := loader.LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "CUSTOM_GITLAB_TOKEN", config.GitLab.TokenEnv)
		assert.Equal(t, "GITHUB_TOKEN", config.GitHub.TokenEnv)
		assert.Equal(t, []string{"py"}, config.Conditions["python"].Extensions)
		assert.Equal(t, []string{"python"}, config.Use)
		assert.Equal(t, models.FormatJSON, config.Output.Format)
		assert.True(t, config.Output.Flatten)
		assert.True(t, config.Mirror.Overwrite)
		assert.True(t, config.Build.Empty)
	})

	t.Run("should error on invalid YAML", func(t *testing.T) {
		_, err := loader.LoadConfig(writeConfig(t, "invalid: yaml: content: ["))
		assert.Error(t, err)
	})
}

func TestLoader_OverrideWithFlags(t *testing.T) {
	loader := NewLoader()

	t.Run("should turn condition flags into the cli profile", func(t *testing.T) {
		config := loader.getDefaultConfig()
		config.Use = []string{"python"}

		err := loader.OverrideWithFlags(config, &models.CLIOptions{
			Extensions:   "go, mod",
			ExcludeDirs:  "vendor",
			Match:        "*_test.go",
			OnlyTerminal: true,
		})
		require.NoError(t, err)

		assert.Equal(t, []string{InlineProfile}, config.Use)
		profile := config.Conditions[InlineProfile]
		assert.Equal(t, []string{"go", "mod"}, profile.Extensions)
		assert.Equal(t, []string{"vendor"}, profile.ExcludeDirs)
		assert.Equal(t, []string{"*_test.go"}, profile.Match)
		assert.True(t, profile.OnlyTerminal)
	})

	t.Run("should OR the cli profile with selected profiles", func(t *testing.T) {
		config := loader.getDefaultConfig()

		err := loader.OverrideWithFlags(config, &models.CLIOptions{
			Profiles: []string{"python", "docs"},
			Contain:  "spec",
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"python", "docs", InlineProfile}, config.Use)
	})

	t.Run("should override output and mirror settings", func(t *testing.T) {
		config := loader.getDefaultConfig()

		err := loader.OverrideWithFlags(config, &models.CLIOptions{
			Format:    "grouped",
			Overwrite: true,
			Hollow:    true,
			Empty:     true,
			Verbose:   true,
			BaseURL:   "https://custom.gitlab.com",
		})
		require.NoError(t, err)

		assert.Equal(t, models.FormatGrouped, config.Output.Format)
		assert.True(t, config.Mirror.Overwrite)
		assert.True(t, config.Mirror.Hollow)
		assert.True(t, config.Build.Empty)
		assert.Equal(t, "info", config.Logging.Level, "verbosity flags are applied to the logger, not the file level")
		assert.Equal(t, "https://custom.gitlab.com", config.GitLab.BaseURL)
		assert.Equal(t, "https://api.github.com", config.GitHub.BaseURL)
	})

	t.Run("should not override with empty CLI options", func(t *testing.T) {
		config := loader.getDefaultConfig()
		config.Use = []string{"python"}
		config.Mirror.Overwrite = true

		require.NoError(t, loader.OverrideWithFlags(config, &models.CLIOptions{}))

		assert.Equal(t, []string{"python"}, config.Use)
		assert.True(t, config.Mirror.Overwrite)
		assert.Equal(t, models.FormatText, config.Output.Format)
		assert.NotContains(t, config.Conditions, InlineProfile)
	})
}

func TestLoader_ValidateConfig(t *testing.T) {
	loader := NewLoader()

	tests := []struct {
		name    string
		mutate  func(*models.Config)
		wantErr string
	}{
		{
			name:   "should accept the defaults",
			mutate: func(*models.Config) {},
		},
		{
			name:    "should reject unknown output formats",
			mutate:  func(c *models.Config) { c.Output.Format = "xml" },
			wantErr: "invalid output format",
		},
		{
			name:    "should reject unknown logging formats",
			mutate:  func(c *models.Config) { c.Logging.Format = "logfmt" },
			wantErr: "invalid logging format",
		},
		{
			name:    "should reject undefined profiles",
			mutate:  func(c *models.Config) { c.Use = []string{"missing"} },
			wantErr: "unknown condition profile",
		},
		{
			name: "should reject invalid globs",
			mutate: func(c *models.Config) {
				c.Conditions["broken"] = models.ConditionProfile{Match: []string{"[oops"}}
			},
			wantErr: "invalid match pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := loader.getDefaultConfig()
			tt.mutate(config)

			err := loader.ValidateConfig(config)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildMatcher(t *testing.T) {
	loader := NewLoader()

	t.Run("should match everything without profiles", func(t *testing.T) {
		m, err := BuildMatcher(loader.getDefaultConfig(), nil, "root")
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("should warn about a profile without criteria", func(t *testing.T) {
		hook := test.NewLocal(logger.Logger)
		defer logger.Logger.ReplaceHooks(make(logrus.LevelHooks))

		config := loader.getDefaultConfig()
		config.Conditions["everything"] = models.ConditionProfile{}
		config.Use = []string{"everything"}

		m, err := BuildMatcher(config, nil, "root")
		require.NoError(t, err)
		assert.True(t, m.Match("root/any.bin", false))

		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
		assert.Equal(t, "everything", hook.LastEntry().Data["profile"])
	})

	t.Run("should return a single condition for one profile", func(t *testing.T) {
		config := loader.getDefaultConfig()
		config.Conditions["python"] = models.ConditionProfile{Extensions: []string{".py"}, ExcludeDirs: []string{"venv"}}
		config.Use = []string{"python"}

		m, err := BuildMatcher(config, nil, "root")
		require.NoError(t, err)
		require.IsType(t, &condition.Condition{}, m)
		assert.True(t, m.Match("root/a.py", false))
		assert.False(t, m.Match("root/venv/a.py", false))
		assert.False(t, m.Match("root/a.go", false))
	})

	t.Run("should OR several profiles", func(t *testing.T) {
		config := loader.getDefaultConfig()
		config.Conditions["python"] = models.ConditionProfile{Extensions: []string{"py"}}
		config.Conditions["tests"] = models.ConditionProfile{Match: []string{"*_test.go"}}
		config.Use = []string{"python", "tests"}

		m, err := BuildMatcher(config, nil, "root")
		require.NoError(t, err)
		assert.True(t, m.Match("root/a.py", false))
		assert.True(t, m.Match("root/pkg/a_test.go", false))
		assert.False(t, m.Match("root/pkg/a.go", false))
	})

	t.Run("should apply gitignore rules", func(t *testing.T) {
		mem := memfs.New()
		require.NoError(t, util.WriteFile(mem, "root/.gitignore", []byte("*.log\n"), 0644))
		fs, err := mem.Chroot("root")
		require.NoError(t, err)

		config := loader.getDefaultConfig()
		config.Conditions["tracked"] = models.ConditionProfile{Gitignore: true}
		config.Use = []string{"tracked"}

		m, err := BuildMatcher(config, fs, "root")
		require.NoError(t, err)
		assert.True(t, m.Match("root/main.go", false))
		assert.False(t, m.Match("root/debug.log", false))
	})

	t.Run("should skip gitignore rules without a filesystem", func(t *testing.T) {
		config := loader.getDefaultConfig()
		config.Conditions["tracked"] = models.ConditionProfile{Gitignore: true}
		config.Use = []string{"tracked"}

		m, err := BuildMatcher(config, nil, "root")
		require.NoError(t, err)
		assert.True(t, m.Match("root/debug.log", false))
	})

	t.Run("should report unknown profiles", func(t *testing.T) {
		config := loader.getDefaultConfig()
		config.Use = []string{"missing"}

		_, err := BuildMatcher(config, nil, "root")
		assert.Error(t, err)
	})
}
