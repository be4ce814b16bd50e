package source

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
)

// GitHub reads documents from a directory inside a GitHub repository.
type GitHub struct {
	client   *github.Client
	owner    string
	repo     string
	basePath string
}

// NewGitHubClient creates a GitHub API client with automatic rate-limit
// handling. If GITHUB_TOKEN is set, the client is authenticated for higher
// limits.
func NewGitHubClient() (*github.Client, error) {
	// Handles both primary rate limits (5000 req/hour authenticated, 60
	// unauthenticated) and secondary abuse-detection limits with retry.
	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, err
	}

	client := github.NewClient(rateLimiter)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		client = client.WithAuthToken(token)
	}

	return client, nil
}

// NewGitHub creates a source for owner/repo rooted at basePath.
func NewGitHub(client *github.Client, owner, repo, basePath string) *GitHub {
	return &GitHub{
		client:   client,
		owner:    owner,
		repo:     repo,
		basePath: basePath,
	}
}

// List recursively lists all files under the base path.
func (g *GitHub) List(ctx context.Context) ([]string, error) {
	return g.listRecursive(ctx, g.basePath, "")
}

func (g *GitHub) listRecursive(ctx context.Context, fullPath, relativePath string) ([]string, error) {
	_, dirContents, _, err := g.client.Repositories.GetContents(
		ctx,
		g.owner,
		g.repo,
		fullPath,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get contents of %s: %w", fullPath, err)
	}

	var docs []string
	for _, item := range dirContents {
		if item.Type == nil || item.Name == nil {
			continue
		}

		itemRelPath := path.Join(relativePath, *item.Name)

		switch *item.Type {
		case "file":
			docs = append(docs, itemRelPath)

		case "dir":
			subDocs, err := g.listRecursive(ctx, path.Join(fullPath, *item.Name), itemRelPath)
			if err != nil {
				return nil, err
			}
			docs = append(docs, subDocs...)
		}
	}

	return docs, nil
}

// Fetch retrieves and decodes the file at the given relative path.
func (g *GitHub) Fetch(ctx context.Context, relativePath string) (*Document, error) {
	fullPath := path.Join(g.basePath, relativePath)

	fileContent, _, _, err := g.client.Repositories.GetContents(
		ctx,
		g.owner,
		g.repo,
		fullPath,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get content of %s: %w", fullPath, err)
	}

	if fileContent == nil {
		return nil, fmt.Errorf("no file content returned for %s", fullPath)
	}

	data, err := base64.StdEncoding.DecodeString(*fileContent.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content of %s: %w", fullPath, err)
	}

	return &Document{Path: relativePath, Data: data}, nil
}
