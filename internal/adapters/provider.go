package adapters

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"arbor/internal/adapters/github"
	"arbor/internal/adapters/gitlab"
	"arbor/pkg/fsys"
	"arbor/pkg/logger"
	"arbor/pkg/models"

	"github.com/go-git/go-billy/v5"
)

// Source is a tree source ready to be built.
type Source struct {
	fsys.Source
	// Root is the path to build the tree from.
	Root string
	// Ignore is the root as a billy filesystem for gitignore rules. It is nil
	// for remote sources.
	Ignore billy.Filesystem
	Info   *models.SourceInfo
}

// ParseSource parses a local path, a repository URL, an SSH remote or an
// owner/repo pair. A "#ref" suffix selects a branch, tag or commit; local
// sources record it but have nothing to select. An existing directory is
// taken whole even when its name contains '#'.
func ParseSource(input string, defaultPlatform models.Platform) (*models.SourceInfo, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty source")
	}

	// Extract ref from fragment (e.g., #develop), unless the whole input
	// names an existing directory such as ./data#1
	var ref string
	if i := strings.LastIndex(input, "#"); i > 0 && !isDir(input) {
		input, ref = input[:i], input[i+1:]
	}

	if isLocalPath(input) {
		info, err := parseLocalPath(input)
		if err != nil {
			return nil, err
		}
		info.Ref = ref
		return info, nil
	}

	var info *models.SourceInfo
	var err error
	switch {
	case strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://"):
		info, err = parseURL(input)
	case strings.HasPrefix(input, "git@"):
		info, err = parseSSHURL(input)
	default:
		info, err = parseOwnerRepo(input, defaultPlatform)
	}
	if err != nil {
		return nil, err
	}
	info.Ref = ref
	return info, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// isLocalPath checks if the input appears to be a local filesystem path.
// Anything without a slash that is not a URL is local too.
func isLocalPath(input string) bool {
	if strings.HasPrefix(input, "/") ||
		strings.HasPrefix(input, "./") ||
		strings.HasPrefix(input, "../") ||
		strings.HasPrefix(input, "~") ||
		input == "." || input == ".." ||
		(len(input) > 2 && input[1] == ':' && (input[0] >= 'A' && input[0] <= 'Z' || input[0] >= 'a' && input[0] <= 'z')) { // Windows drive letters
		return true
	}

	if strings.Contains(input, "://") || strings.HasPrefix(input, "git@") {
		return false
	}

	if !strings.Contains(input, "/") {
		return true
	}

	// Check if it's a relative path that exists on the filesystem
	return isDir(input)
}

func parseLocalPath(input string) (*models.SourceInfo, error) {
	if strings.HasPrefix(input, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to expand %s: %w", input, err)
		}
		input = filepath.Join(home, strings.TrimPrefix(input, "~"))
	}

	absPath, err := filepath.Abs(input)
	if err != nil {
		return nil, fmt.Errorf("invalid local path: %w", err)
	}

	if info, err := os.Stat(absPath); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("local path does not exist or is not a directory: %s", input)
	}

	return &models.SourceInfo{
		Platform: models.PlatformLocal,
		Owner:    "local",
		Name:     input,
		FullName: absPath,
		URL:      fmt.Sprintf("file://%s", filepath.ToSlash(absPath)),
	}, nil
}

func parseOwnerRepo(input string, defaultPlatform models.Platform) (*models.SourceInfo, error) {
	if strings.Contains(input, " ") {
		return nil, fmt.Errorf("invalid repository %q", input)
	}

	parts := strings.Split(strings.Trim(input, "/"), "/")
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid repository %q, expected owner/repo", input)
	}

	platform := defaultPlatform
	if platform == "" || platform == models.PlatformLocal {
		platform = models.PlatformGitHub
	}
	if platform == models.PlatformGitHub && len(parts) != 2 {
		return nil, fmt.Errorf("invalid GitHub repository %q, expected owner/repo", input)
	}

	return &models.SourceInfo{
		Platform: platform,
		Owner:    strings.Join(parts[:len(parts)-1], "/"),
		Name:     parts[len(parts)-1],
		FullName: strings.Join(parts, "/"),
	}, nil
}

func parseURL(input string) (*models.SourceInfo, error) {
	u, err := url.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Hostname() {
	case "github.com", "www.github.com":
		return parseGitHubURL(u, input)
	case "gitlab.com", "www.gitlab.com":
		return parseGitLabURL(u, input)
	default:
		// For self-hosted instances, try to determine by URL structure
		if strings.Contains(u.Path, "/tree/") || strings.Contains(u.Path, "/blob/") {
			return parseGitHubURL(u, input)
		}
		return parseGitLabURL(u, input)
	}
}

func parseGitHubURL(u *url.URL, original string) (*models.SourceInfo, error) {
	// GitHub URL format: https://github.com/owner/repo
	pathParts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(pathParts) < 2 {
		return nil, fmt.Errorf("invalid GitHub URL format")
	}

	owner := pathParts[0]
	repo := strings.TrimSuffix(pathParts[1], ".git")

	return &models.SourceInfo{
		Platform: models.PlatformGitHub,
		Owner:    owner,
		Name:     repo,
		FullName: fmt.Sprintf("%s/%s", owner, repo),
		URL:      original,
	}, nil
}

func parseGitLabURL(u *url.URL, original string) (*models.SourceInfo, error) {
	// GitLab URL format: https://gitlab.com/owner/repo or https://gitlab.com/group/subgroup/repo
	path := strings.Trim(u.Path, "/")
	if i := strings.Index(path, "/-/"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSuffix(path, ".git")

	pathParts := strings.Split(path, "/")
	if len(pathParts) < 2 {
		return nil, fmt.Errorf("invalid GitLab URL format")
	}

	return &models.SourceInfo{
		Platform: models.PlatformGitLab,
		Owner:    strings.Join(pathParts[:len(pathParts)-1], "/"),
		Name:     pathParts[len(pathParts)-1],
		FullName: path,
		URL:      original,
	}, nil
}

var sshURLPattern = regexp.MustCompile(`^git@([^:]+):(.+?)(\.git)?$`)

func parseSSHURL(input string) (*models.SourceInfo, error) {
	// SSH URL formats:
	// git@github.com:owner/repo.git
	// git@gitlab.com:group/subgroup/repo.git
	matches := sshURLPattern.FindStringSubmatch(input)
	if matches == nil {
		return nil, fmt.Errorf("invalid SSH URL format")
	}

	hostname := matches[1]
	repoPath := matches[2]

	platform := models.PlatformGitLab
	if hostname == "github.com" {
		platform = models.PlatformGitHub
	}

	pathParts := strings.Split(repoPath, "/")
	if len(pathParts) < 2 {
		return nil, fmt.Errorf("invalid SSH URL format")
	}

	return &models.SourceInfo{
		Platform: platform,
		Owner:    strings.Join(pathParts[:len(pathParts)-1], "/"),
		Name:     pathParts[len(pathParts)-1],
		FullName: repoPath,
		URL:      input,
	}, nil
}

// GetTokenForPlatform returns the CLI token or the platform's token from the environment
func GetTokenForPlatform(platform models.Platform, config *models.Config, cliToken string) (string, error) {
	switch platform {
	case models.PlatformLocal:
		return "", nil
	case models.PlatformGitLab, models.PlatformGitHub:
	default:
		return "", fmt.Errorf("unsupported platform: %s", platform)
	}

	if cliToken != "" {
		return cliToken, nil
	}

	if platform == models.PlatformGitLab {
		if envToken := os.Getenv(config.GitLab.TokenEnv); envToken != "" {
			return envToken, nil
		}
		return "", fmt.Errorf("GitLab token not found. Set %s environment variable or use --token flag", config.GitLab.TokenEnv)
	}

	if envToken := os.Getenv(config.GitHub.TokenEnv); envToken != "" {
		return envToken, nil
	}
	return "", fmt.Errorf("GitHub token not found. Set %s environment variable or use --token flag", config.GitHub.TokenEnv)
}

// CreateSource opens the source described by info. Local sources read the
// host filesystem; remote ones are listed once and fetch files on demand.
func CreateSource(ctx context.Context, info *models.SourceInfo, config *models.Config, token string) (*Source, error) {
	switch info.Platform {
	case models.PlatformLocal:
		host, err := fsys.NewHost()
		if err != nil {
			return nil, err
		}
		ignore, err := host.Chroot(info.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", info.Name, err)
		}
		return &Source{Source: host, Root: info.Name, Ignore: ignore, Info: info}, nil

	case models.PlatformGitHub:
		client, err := github.NewClient(config.GitHub.BaseURL, token)
		if err != nil {
			return nil, err
		}
		idx, err := client.Snapshot(ctx, info.Owner, info.Name, info.Ref)
		if err != nil {
			return nil, err
		}
		return remoteSource(idx, info), nil

	case models.PlatformGitLab:
		client, err := gitlab.NewClient(config.GitLab.BaseURL, token)
		if err != nil {
			return nil, err
		}
		idx, err := client.Snapshot(ctx, info.FullName, info.Name, info.Ref)
		if err != nil {
			return nil, err
		}
		return remoteSource(idx, info), nil

	default:
		return nil, fmt.Errorf("unsupported platform: %s", info.Platform)
	}
}

func remoteSource(idx *fsys.Index, info *models.SourceInfo) *Source {
	logger.Logger.WithFields(map[string]interface{}{
		"platform":   info.Platform,
		"repository": info.FullName,
		"ref":        info.Ref,
	}).Debug("Listed remote repository")
	return &Source{Source: idx, Root: idx.Root(), Info: info}
}
