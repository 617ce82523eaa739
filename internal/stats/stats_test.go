package stats

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"arbor/pkg/condition"
	"arbor/pkg/fsys"
	"arbor/pkg/models"
	"arbor/pkg/tree"

	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTree(t *testing.T) *tree.Directory {
	t.Helper()
	mem := fsys.NewMemory()
	for _, name := range []string{"/db/a.py", "/db/b.txt", "/db/Makefile", "/db/x/c.py", "/db/x/y/d.py", "/db/z/e.txt"} {
		require.NoError(t, util.WriteFile(mem.Filesystem(), name, []byte(name), 0644))
	}
	root, err := tree.Open(mem, "db", false)
	require.NoError(t, err)
	return root
}

func TestNewCalculator(t *testing.T) {
	calculator := NewCalculator()
	assert.NotNil(t, calculator)
}

func TestCalculator_Compute(t *testing.T) {
	calculator := NewCalculator()
	root := newTree(t)

	t.Run("should count every file without a matcher", func(t *testing.T) {
		stats := calculator.Compute(root, nil, 2*time.Second)

		assert.Equal(t, "db", stats.Root)
		assert.Equal(t, 4, stats.Directories)
		assert.Equal(t, 2, stats.TerminalDirectories)
		assert.Equal(t, 2, stats.MaxDepth)
		assert.Equal(t, 6, stats.TotalFiles)
		assert.Equal(t, 6, stats.MatchingFiles)
		assert.Equal(t, map[string]int{"py": 3, "txt": 2, "": 1}, stats.Extensions)
		assert.Equal(t, "2s", stats.BuildDuration)
	})

	t.Run("should count matching files only in extensions", func(t *testing.T) {
		stats := calculator.Compute(root, condition.New().OnlyTerminal(true), 0)

		assert.Equal(t, 6, stats.TotalFiles)
		assert.Equal(t, 2, stats.MatchingFiles)
		assert.Equal(t, map[string]int{"py": 1, "txt": 1}, stats.Extensions)
	})
}

func TestTreeStats_Write(t *testing.T) {
	stats := NewCalculator().Compute(newTree(t), nil, time.Second)

	t.Run("should print text sorted by frequency", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, stats.Write(&buf, models.FormatText))

		expected := "db\n" +
			"  directories:  4 (2 terminal)\n" +
			"  max depth:    2\n" +
			"  files:        6 (6 matching)\n" +
			"  .py           3\n" +
			"  .txt          2\n" +
			"  (none)        1\n"
		assert.Equal(t, expected, buf.String())
	})

	t.Run("should print json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, stats.Write(&buf, models.FormatJSON))

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, float64(4), decoded["directories"])
		assert.Equal(t, "1s", decoded["build_duration"])
	})
}
