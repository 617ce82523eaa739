package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"arbor/pkg/logger"
	"arbor/pkg/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd(t *testing.T) {
	t.Run("should have correct use", func(t *testing.T) {
		assert.Equal(t, "arbor", RootCmd.Use)
	})

	t.Run("should register subcommands", func(t *testing.T) {
		root := NewRootCmd()
		for _, name := range []string{"collect", "leaves", "locate", "tree", "stats", "mirror"} {
			cmd, _, err := root.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, cmd.Name())
		}
	})

	t.Run("should declare persistent condition flags", func(t *testing.T) {
		root := NewRootCmd()
		for _, name := range []string{"config", "token", "profile", "ext", "contain", "exclude",
			"contain-dir", "exclude-dir", "match", "only-terminal", "gitignore", "empty"} {
			assert.NotNil(t, root.PersistentFlags().Lookup(name), name)
		}
	})
}

func TestCommandArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{name: "should require a source for collect", args: []string{"collect"}, wantErr: true},
		{name: "should require a path for locate", args: []string{"locate", "."}, wantErr: true},
		{name: "should require a destination for mirror", args: []string{"mirror", "."}, wantErr: true},
		{name: "should reject extra leaves args", args: []string{"leaves", ".", "x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCollectCmd(t *testing.T) {
	root := newProject(t)

	t.Run("should print matching files", func(t *testing.T) {
		out, err := execute(t, "collect", root, "--ext", "txt")
		require.NoError(t, err)
		assert.Equal(t, filepath.ToSlash(filepath.Join(root, "b.txt"))+"\n", out)
	})

	t.Run("should print flat json", func(t *testing.T) {
		out, err := execute(t, "collect", root, "--ext", "txt", "--format", "json", "--flatten")
		require.NoError(t, err)
		assert.JSONEq(t, `["`+filepath.ToSlash(filepath.Join(root, "b.txt"))+`"]`, out)
	})

	t.Run("should reject unknown formats", func(t *testing.T) {
		_, err := execute(t, "collect", root, "--format", "xml")
		assert.Error(t, err)
	})

	t.Run("should reject unknown profiles", func(t *testing.T) {
		_, err := execute(t, "collect", root, "--profile", "missing")
		assert.Error(t, err)
	})

	t.Run("should reject unknown default platforms", func(t *testing.T) {
		_, err := execute(t, "collect", root, "--default-platform", "bitbucket")
		assert.Error(t, err)
	})
}

func TestLocateCmd(t *testing.T) {
	root := newProject(t)

	out, err := execute(t, "locate", root, "pkg/inner/d.go")
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(filepath.Join(root, "pkg", "inner"))+"\n", out)

	_, err = execute(t, "locate", root, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMirrorCmd(t *testing.T) {
	root := newProject(t)
	dest := t.TempDir()

	out, err := execute(t, "mirror", root, dest, "--ext", "go", "--exclude-dir", "inner")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dest, "root", "pkg", "c.go"))
	assert.NoFileExists(t, filepath.Join(dest, "root", "pkg", "inner", "d.go"))
	assert.NoFileExists(t, filepath.Join(dest, "root", "b.txt"))
	assert.Contains(t, out, "copy: ")
}

func TestStatsCmd(t *testing.T) {
	root := newProject(t)

	out, err := execute(t, "stats", root, "--ext", "go")
	require.NoError(t, err)
	assert.Contains(t, out, "directories:  4 (2 terminal)")
	assert.Contains(t, out, "files:        4 (3 matching)")
	assert.Contains(t, out, ".go           3")
}

func TestConfigureLogging(t *testing.T) {
	defer logger.SetLevel("info")

	tests := []struct {
		name     string
		level    string
		opts     *models.CLIOptions
		expected logrus.Level
	}{
		{name: "should use the configured level", level: "warn", opts: &models.CLIOptions{}, expected: logrus.WarnLevel},
		{name: "should enable debug when verbose", level: "info", opts: &models.CLIOptions{Verbose: true}, expected: logrus.DebugLevel},
		{name: "should keep only errors when quiet", level: "debug", opts: &models.CLIOptions{Quiet: true}, expected: logrus.ErrorLevel},
		{name: "should prefer quiet over verbose", level: "info", opts: &models.CLIOptions{Quiet: true, Verbose: true}, expected: logrus.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &models.Config{Logging: models.LoggingConfig{Level: tt.level, Format: "text"}}
			configureLogging(cfg, tt.opts)
			assert.Equal(t, tt.expected, logger.Logger.GetLevel())
		})
	}
}
