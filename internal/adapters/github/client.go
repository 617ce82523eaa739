package github

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"arbor/pkg/fsys"
	"arbor/pkg/logger"

	"github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://api.github.com/"

// Client reads repository trees from the GitHub API
type Client struct {
	client  *github.Client
	baseURL string
	retries int
}

// NewClient creates a new GitHub client
func NewClient(baseURL, token string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token is required")
	}

	tokenSource := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	client := github.NewClient(oauth2.NewClient(context.Background(), tokenSource))

	if baseURL != "" && strings.TrimSuffix(baseURL, "/")+"/" != defaultBaseURL {
		// go-github requires a trailing slash on the base URL
		newURL, err := client.BaseURL.Parse(strings.TrimSuffix(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("failed to parse base URL: %w", err)
		}
		client.BaseURL = newURL
	}

	logger.Logger.WithField("base_url", client.BaseURL.String()).Debug("Created GitHub client")

	return &Client{
		client:  client,
		baseURL: client.BaseURL.String(),
		retries: 2,
	}, nil
}

// DefaultBranch returns the repository's default branch, "main" when unset
func (c *Client) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	repository, _, err := c.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", fmt.Errorf("failed to fetch repository %s/%s: %w", owner, repo, err)
	}
	if branch := repository.GetDefaultBranch(); branch != "" {
		return branch, nil
	}
	return "main", nil
}

// ListTree lists every blob and tree of the repository at ref in one
// recursive call.
func (c *Client) ListTree(ctx context.Context, owner, repo, ref string) ([]fsys.IndexEntry, error) {
	fields := map[string]interface{}{
		"owner":      owner,
		"repository": repo,
		"ref":        ref,
		"base_url":   c.baseURL,
	}
	logger.Logger.WithFields(fields).Debug("Fetching GitHub repository tree")

	tree, _, err := c.client.Git.GetTree(ctx, owner, repo, ref, true)
	if err != nil {
		logger.Logger.WithError(err).WithFields(fields).Error("Failed to fetch GitHub repository tree")
		return nil, fmt.Errorf("failed to fetch repository tree of %s/%s from %s: %w", owner, repo, c.baseURL, err)
	}
	if tree.GetTruncated() {
		logger.Logger.WithFields(fields).Warn("GitHub truncated the repository tree, some entries are missing")
	}

	entries := make([]fsys.IndexEntry, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		switch entry.GetType() {
		case "blob":
			entries = append(entries, fsys.IndexEntry{Path: entry.GetPath()})
		case "tree":
			entries = append(entries, fsys.IndexEntry{Path: entry.GetPath(), IsDir: true})
		}
	}

	logger.Logger.WithFields(fields).WithField("entries", len(entries)).Debug("Fetched GitHub repository tree")
	return entries, nil
}

// GetFileContent fetches the decoded content of a file at ref
func (c *Client) GetFileContent(ctx context.Context, owner, repo, filePath, ref string) ([]byte, error) {
	opts := &github.RepositoryContentGetOptions{Ref: ref}

	var content string
	err := c.WithRetry(ctx, c.retries, func() error {
		fileContent, _, _, err := c.client.Repositories.GetContents(ctx, owner, repo, filePath, opts)
		if err != nil {
			return err
		}
		if fileContent == nil {
			return fmt.Errorf("%s is a directory", filePath)
		}
		content, err = fileContent.GetContent()
		return err
	})
	if err != nil {
		logger.Logger.WithError(err).WithField("file", filePath).Error("Failed to fetch file from GitHub")
		return nil, fmt.Errorf("failed to fetch file %s: %w", filePath, err)
	}
	return []byte(content), nil
}

// Snapshot lists the repository once and returns it as a read-only source
// rooted at the repository name. Files are fetched when opened.
func (c *Client) Snapshot(ctx context.Context, owner, repo, ref string) (*fsys.Index, error) {
	if ref == "" {
		branch, err := c.DefaultBranch(ctx, owner, repo)
		if err != nil {
			return nil, err
		}
		ref = branch
	}

	entries, err := c.ListTree(ctx, owner, repo, ref)
	if err != nil {
		return nil, err
	}

	open := func(relPath string) (io.ReadCloser, error) {
		data, err := c.GetFileContent(ctx, owner, repo, relPath, ref)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return fsys.NewIndex(repo, entries, open), nil
}

// WithRetry executes a function with quadratic backoff, retrying only rate
// limit and temporary errors
func (c *Client) WithRetry(ctx context.Context, maxRetries int, fn func() error) error {
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			backoff := time.Duration(i*i) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := fn(); err != nil {
			lastErr = err
			if isRateLimitError(err) || isTemporaryError(err) {
				continue
			}
			return err
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return true
	}
	return strings.Contains(err.Error(), "rate limit")
}

func isTemporaryError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "temporary failure")
}
