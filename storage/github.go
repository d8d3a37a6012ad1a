package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/google/go-github/v63/github"
	"github.com/ruteri/kongcloak/interfaces"
)

// GitHubBackend implements a read-only storage backend over repository contents.
// Keys are file paths relative to prefix/<content type dir> at the configured ref.
type GitHubBackend struct {
	client      *github.Client
	owner       string
	repo        string
	ref         string
	prefix      string
	log         *slog.Logger
	locationURI string
}

// NewGitHubBackend creates a new GitHub storage backend for reading from a repository.
//
// Parameters:
//   - owner, repo: repository coordinates
//   - ref: branch, tag or commit, empty for the default branch
//   - prefix: directory inside the repository holding the content type directories
//   - apiBaseURL: GitHub Enterprise API URL, empty for github.com
//   - token: optional access token for private repositories
func NewGitHubBackend(owner, repo, ref, prefix, apiBaseURL, token string, log *slog.Logger) (*GitHubBackend, error) {
	client := github.NewClient(&http.Client{Timeout: 30 * time.Second})
	if apiBaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(apiBaseURL, "")
		if err != nil {
			return nil, fmt.Errorf("unable to create GitHub client for %s: %w", apiBaseURL, err)
		}
	}
	if token != "" {
		client = client.WithAuthToken(token)
	}

	return &GitHubBackend{
		client:      client,
		owner:       owner,
		repo:        repo,
		ref:         ref,
		prefix:      prefix,
		log:         log,
		locationURI: fmt.Sprintf("github://%s/%s", owner, repo),
	}, nil
}

// Fetch retrieves a file from the repository.
func (b *GitHubBackend) Fetch(ctx context.Context, key string, contentType interfaces.ContentType) ([]byte, error) {
	filePath := path.Join(b.prefix, contentType.Dir(), key)

	file, _, resp, err := b.client.Repositories.GetContents(ctx, b.owner, b.repo, filePath, &github.RepositoryContentGetOptions{Ref: b.ref})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, interfaces.ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to get %s from GitHub: %w", filePath, err)
	}
	if file == nil {
		return nil, fmt.Errorf("%s is a directory", filePath)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filePath, err)
	}

	b.log.Debug("Fetched content from GitHub",
		slog.String("path", filePath),
		slog.String("sha", file.GetSHA()),
		slog.Int("size", len(content)))

	return []byte(content), nil
}

// Store is not supported by this read-only backend.
func (b *GitHubBackend) Store(ctx context.Context, key string, data []byte, contentType interfaces.ContentType) (string, error) {
	return "", fmt.Errorf("github backend: %w", interfaces.ErrReadOnlyBackend)
}

// Available checks if the repository is reachable.
func (b *GitHubBackend) Available(ctx context.Context) bool {
	_, _, err := b.client.Repositories.Get(ctx, b.owner, b.repo)
	if err != nil {
		var rateErr *github.RateLimitError
		if errors.As(err, &rateErr) {
			b.log.Warn("GitHub rate limit reached", slog.Time("reset", rateErr.Rate.Reset.Time))
		}
		b.log.Debug("GitHub backend unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this storage backend.
func (b *GitHubBackend) Name() string {
	return fmt.Sprintf("github-%s-%s", b.owner, b.repo)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *GitHubBackend) LocationURI() string {
	return b.locationURI
}
