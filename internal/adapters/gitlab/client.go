package gitlab

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"arbor/pkg/fsys"
	"arbor/pkg/logger"

	"gitlab.com/gitlab-org/api/client-go"
)

// Client reads repository trees from the GitLab API
type Client struct {
	client  *gitlab.Client
	baseURL string
}

// NewClient creates a new GitLab client
func NewClient(baseURL, token string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("GitLab token is required")
	}

	if baseURL == "" {
		baseURL = "https://gitlab.com"
	}

	client, err := gitlab.NewClient(token, gitlab.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}

	return &Client{
		client:  client,
		baseURL: baseURL,
	}, nil
}

// DefaultBranch returns the project's default branch, "main" when unset
func (c *Client) DefaultBranch(ctx context.Context, projectPath string) (string, error) {
	project, _, err := c.client.Projects.GetProject(projectPath, &gitlab.GetProjectOptions{}, gitlab.WithContext(ctx))
	if err != nil {
		logger.Logger.WithError(err).WithField("repository", projectPath).Error("Failed to fetch repository")
		return "", fmt.Errorf("failed to fetch repository %s: %w", projectPath, err)
	}
	if project.DefaultBranch != "" {
		return project.DefaultBranch, nil
	}
	return "main", nil
}

// ListTree lists every blob and tree of the project at ref, following pages
func (c *Client) ListTree(ctx context.Context, projectPath, ref string) ([]fsys.IndexEntry, error) {
	logger.Logger.WithFields(map[string]interface{}{
		"repository": projectPath,
		"ref":        ref,
		"base_url":   c.baseURL,
	}).Debug("Fetching GitLab repository tree")

	recursive := true
	opt := &gitlab.ListTreeOptions{
		Recursive: &recursive,
		ListOptions: gitlab.ListOptions{
			PerPage: 100,
		},
	}
	if ref != "" {
		opt.Ref = &ref
	}

	var entries []fsys.IndexEntry
	for {
		nodes, resp, err := c.client.Repositories.ListTree(projectPath, opt, gitlab.WithContext(ctx))
		if err != nil {
			logger.Logger.WithError(err).WithField("repository", projectPath).Error("Failed to fetch repository tree")
			return nil, fmt.Errorf("failed to list tree of %s on %s: %w", projectPath, c.baseURL, err)
		}

		for _, node := range nodes {
			switch node.Type {
			case "blob":
				entries = append(entries, fsys.IndexEntry{Path: node.Path})
			case "tree":
				entries = append(entries, fsys.IndexEntry{Path: node.Path, IsDir: true})
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	logger.Logger.WithFields(map[string]interface{}{
		"repository": projectPath,
		"entries":    len(entries),
	}).Debug("Fetched GitLab repository tree")
	return entries, nil
}

// GetFileContent fetches the decoded content of a file at ref
func (c *Client) GetFileContent(ctx context.Context, projectPath, filePath, ref string) ([]byte, error) {
	opt := &gitlab.GetFileOptions{Ref: &ref}

	file, _, err := c.client.RepositoryFiles.GetFile(projectPath, filePath, opt, gitlab.WithContext(ctx))
	if err != nil {
		logger.Logger.WithError(err).WithFields(map[string]interface{}{
			"repository": projectPath,
			"file":       filePath,
		}).Error("Failed to fetch file from GitLab")
		return nil, fmt.Errorf("failed to fetch file %s: %w", filePath, err)
	}

	if file.Encoding != "base64" {
		return []byte(file.Content), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(file.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode file content: %w", err)
	}
	return decoded, nil
}

// Snapshot lists the project once and returns it as a read-only source rooted
// at name. Files are fetched when opened.
func (c *Client) Snapshot(ctx context.Context, projectPath, name, ref string) (*fsys.Index, error) {
	if ref == "" {
		branch, err := c.DefaultBranch(ctx, projectPath)
		if err != nil {
			return nil, err
		}
		ref = branch
	}

	entries, err := c.ListTree(ctx, projectPath, ref)
	if err != nil {
		return nil, err
	}

	open := func(relPath string) (io.ReadCloser, error) {
		data, err := c.GetFileContent(ctx, projectPath, relPath, ref)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return fsys.NewIndex(name, entries, open), nil
}
