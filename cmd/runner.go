package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"arbor/internal/adapters"
	"arbor/internal/collector"
	"arbor/internal/config"
	"arbor/internal/stats"
	"arbor/pkg/condition"
	"arbor/pkg/fsys"
	"arbor/pkg/logger"
	"arbor/pkg/models"
	"arbor/pkg/tree"
	"arbor/pkg/utils"
)

// ErrNotFound is returned by Locate when the path is not in the tree.
var ErrNotFound = errors.New("not found")

// Runner wires configuration, sources and trees for the commands
type Runner struct {
	config     *models.Config
	cliOptions *models.CLIOptions
	out        io.Writer
}

// NewRunner creates a runner printing results to out
func NewRunner(config *models.Config, cliOptions *models.CLIOptions, out io.Writer) *Runner {
	return &Runner{
		config:     config,
		cliOptions: cliOptions,
		out:        out,
	}
}

// open parses arg, builds its tree and compiles the selected profiles
// against it.
func (r *Runner) open(ctx context.Context, arg string) (*tree.Directory, condition.Matcher, error) {
	info, err := adapters.ParseSource(arg, models.Platform(r.cliOptions.DefaultPlatform))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse source '%s': %w", arg, err)
	}

	token, err := adapters.GetTokenForPlatform(info.Platform, r.config, r.cliOptions.Token)
	if err != nil {
		return nil, nil, err
	}

	src, err := adapters.CreateSource(ctx, info, r.config, token)
	if err != nil {
		return nil, nil, err
	}

	root, err := tree.New(src, src.Root, r.config.Build.Empty)
	if err != nil {
		return nil, nil, err
	}
	if _, err := root.Build(); err != nil {
		return nil, nil, err
	}

	matcher, err := config.BuildMatcher(r.config, src.Ignore, root.Path())
	if err != nil {
		return nil, nil, err
	}

	logger.Logger.WithFields(map[string]interface{}{
		"platform": info.Platform,
		"root":     root.Path(),
		"profiles": r.config.Use,
	}).Debug("Tree built")

	return root, matcher, nil
}

// Collect prints the files of arg matching the selected profiles
func (r *Runner) Collect(ctx context.Context, arg string) error {
	root, matcher, err := r.open(ctx, arg)
	if err != nil {
		return err
	}

	return collector.New(matcher, root).Write(r.out, r.config.Output.Format, r.config.Output.Flatten)
}

// Leaves prints the terminal directories of arg
func (r *Runner) Leaves(ctx context.Context, arg string) error {
	root, _, err := r.open(ctx, arg)
	if err != nil {
		return err
	}

	for _, leaf := range root.TerminalInstances() {
		if _, err := fmt.Fprintln(r.out, utils.ToSlash(leaf.Path())); err != nil {
			return err
		}
	}
	return nil
}

// Locate prints the directory of arg that holds path
func (r *Runner) Locate(ctx context.Context, arg, path string) error {
	root, _, err := r.open(ctx, arg)
	if err != nil {
		return err
	}

	found := root.Locate(path)
	if found == nil {
		return fmt.Errorf("%s: %w in %s", path, ErrNotFound, root.Path())
	}
	_, err = fmt.Fprintln(r.out, utils.ToSlash(found.Path()))
	return err
}

// Tree draws arg with the files matching the selected profiles
func (r *Runner) Tree(ctx context.Context, arg string) error {
	root, matcher, err := r.open(ctx, arg)
	if err != nil {
		return err
	}

	_, err = io.WriteString(r.out, root.RenderUnix(matcher))
	return err
}

// Stats prints a summary of arg: directory counts, depth and the matching
// files per extension
func (r *Runner) Stats(ctx context.Context, arg string) error {
	start := time.Now()
	root, matcher, err := r.open(ctx, arg)
	if err != nil {
		return err
	}

	treeStats := stats.NewCalculator().Compute(root, matcher, time.Since(start))
	return treeStats.Write(r.out, r.config.Output.Format)
}

// MirrorSummary totals the events of one mirror run
type MirrorSummary struct {
	Directories int
	Copied      int
	Overwritten int
	Existing    int
	Bytes       int64
}

func (s *MirrorSummary) record(e tree.Event) {
	switch e.Kind {
	case tree.EventCopied:
		s.Copied++
	case tree.EventOverwrote:
		s.Overwritten++
	case tree.EventExists:
		s.Existing++
	}
	s.Bytes += e.Bytes
}

// Mirror recreates arg under the host directory dest. Hollow mirrors copy no
// files; otherwise the files matching the selected profiles are copied, all
// of them when no profile is selected.
func (r *Runner) Mirror(ctx context.Context, arg, dest string) (*MirrorSummary, error) {
	root, matcher, err := r.open(ctx, arg)
	if err != nil {
		return nil, err
	}

	host, err := fsys.NewHost()
	if err != nil {
		return nil, err
	}

	summary := &MirrorSummary{}
	var writeErr error
	opts := tree.CopyOptions{
		Overwrite: r.config.Mirror.Overwrite,
		OnEvent: func(e tree.Event) {
			summary.record(e)
			logger.Logger.WithFields(map[string]interface{}{
				"kind":   e.Kind,
				"source": e.Source,
				"target": e.Target,
			}).Debug("Mirror event")
			if _, err := fmt.Fprintln(r.out, e.String()); err != nil && writeErr == nil {
				writeErr = err
			}
		},
	}

	if r.config.Mirror.Hollow {
		root = root.Hollow()
	} else {
		opts.Matcher = matcher
		if opts.Matcher == nil {
			opts.Matcher = condition.New()
		}
	}

	created, err := root.Materialize(host, filepath.Clean(dest), opts)
	summary.Directories = created
	if err != nil {
		return summary, err
	}

	if writeErr != nil {
		return summary, fmt.Errorf("failed to report mirror events: %w", writeErr)
	}

	if _, err := fmt.Fprintf(r.out, "\n%d directories created, %d copied, %d overwritten, %d already present (%s)\n",
		summary.Directories, summary.Copied, summary.Overwritten, summary.Existing, utils.FormatBytes(summary.Bytes)); err != nil {
		return summary, err
	}
	return summary, nil
}
