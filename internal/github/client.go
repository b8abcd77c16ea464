// Package github wraps the GitHub REST API surface impactboard needs:
// reading README/config content and committing rendered files back.
package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gogithub "github.com/google/go-github/v57/github"
	"github.com/impactboard/impactboard-go/internal/cache"
	"golang.org/x/time/rate"
)

// TokenProvider yields an API token for an installation. The static
// implementation below serves PAT setups; a GitHub App deployment plugs
// in its own provider.
type TokenProvider interface {
	Token(ctx context.Context, installationID int64) (string, error)
}

// StaticTokenProvider returns the same token for every installation
type StaticTokenProvider string

// Token implements TokenProvider
func (p StaticTokenProvider) Token(_ context.Context, _ int64) (string, error) {
	if p == "" {
		return "", fmt.Errorf("no github token configured")
	}
	return string(p), nil
}

// Client wraps the GitHub API client with rate limiting and a
// caller-owned token cache
type Client struct {
	tokens      TokenProvider
	tokenCache  *cache.Cache
	rateLimiter *rate.Limiter
	baseClient  func(token string) *gogithub.Client
}

// NewClient creates a client. tokenCache is owned by the caller; pass a
// cache with a TTL shorter than the upstream token lifetime.
func NewClient(tokens TokenProvider, tokenCache *cache.Cache, rateLimit int) *Client {
	return &Client{
		tokens:      tokens,
		tokenCache:  tokenCache,
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimit), 1),
		baseClient: func(token string) *gogithub.Client {
			return gogithub.NewClient(nil).WithAuthToken(token)
		},
	}
}

// FileContent is a fetched repository file plus the blob SHA needed to
// update it
type FileContent struct {
	Path    string
	Content string
	SHA     string
}

// apiClient resolves a token (cached per installation) and builds an
// authenticated API client for it.
func (c *Client) apiClient(ctx context.Context, installationID int64) (*gogithub.Client, error) {
	key := fmt.Sprintf("inst-token-%d", installationID)
	if cached, ok := c.tokenCache.Get(key); ok {
		return c.baseClient(cached.(string)), nil
	}
	token, err := c.tokens.Token(ctx, installationID)
	if err != nil {
		return nil, fmt.Errorf("resolve installation token: %w", err)
	}
	c.tokenCache.Set(key, token)
	return c.baseClient(token), nil
}

// FetchFile reads one file from a repository's default branch. Returns
// nil (not an error) when the file does not exist.
func (c *Client) FetchFile(ctx context.Context, installationID int64, owner, repo, path string) (*FileContent, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	api, err := c.apiClient(ctx, installationID)
	if err != nil {
		return nil, err
	}

	file, _, resp, err := api.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch %s/%s/%s: %w", owner, repo, path, err)
	}
	if file == nil {
		return nil, fmt.Errorf("fetch %s/%s/%s: path is a directory", owner, repo, path)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &FileContent{
		Path:    path,
		Content: content,
		SHA:     file.GetSHA(),
	}, nil
}

// PutFile creates or updates a file on the default branch. sha is empty
// for a new file.
func (c *Client) PutFile(ctx context.Context, installationID int64, owner, repo, path, sha, content, message string) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	api, err := c.apiClient(ctx, installationID)
	if err != nil {
		return err
	}

	opts := &gogithub.RepositoryContentFileOptions{
		Message: gogithub.String(message),
		Content: []byte(content),
		Committer: &gogithub.CommitAuthor{
			Name:  gogithub.String("impactboard[bot]"),
			Email: gogithub.String("impactboard@users.noreply.github.com"),
			Date:  &gogithub.Timestamp{Time: time.Now().UTC()},
		},
	}
	if sha != "" {
		opts.SHA = gogithub.String(sha)
	}

	if _, _, err := api.Repositories.UpdateFile(ctx, owner, repo, path, opts); err != nil {
		return fmt.Errorf("update %s/%s/%s: %w", owner, repo, path, err)
	}
	return nil
}
