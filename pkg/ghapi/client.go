// Package ghapi wraps the GitHub REST API for issue retrieval and repository
// inspection. An empty token yields an unauthenticated client, which works
// for public repositories at reduced rate limits.
package ghapi

import (
	"context"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

// Client is a thin wrapper over the go-github client
type Client struct {
	gh *github.Client
}

// Config holds GitHub client configuration
type Config struct {
	Token   string
	BaseURL string
}

// New creates a GitHub client
func New(cfg Config) (*Client, error) {
	httpClient := oauth2.NewClient(context.Background(), nil)
	if cfg.Token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), src)
	}

	gh := github.NewClient(httpClient)
	if cfg.BaseURL != "" {
		var err error
		gh, err = gh.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	return &Client{gh: gh}, nil
}

// Raw exposes the underlying go-github client
func (c *Client) Raw() *github.Client {
	return c.gh
}
