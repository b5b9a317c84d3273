package ghapi

import (
	"context"
	"fmt"

	"github.com/google/go-github/v68/github"
)

// DefaultIssueLimit caps how many issues one fetch returns
const DefaultIssueLimit = 10

// Issue is the subset of a GitHub issue the agent works with
type Issue struct {
	Number      int      `json:"number"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Labels      []string `json:"labels"`
	CreatorName string   `json:"creator_name"`
	Status      string   `json:"status"`
	URL         string   `json:"url"`
}

// FetchIssues returns up to limit open issues for the repository, newest
// first. Pull requests are excluded even though the API lists them as
// issues.
func (c *Client) FetchIssues(ctx context.Context, owner, repo string, limit int) ([]Issue, error) {
	if limit <= 0 {
		limit = DefaultIssueLimit
	}

	opts := &github.IssueListByRepoOptions{
		State:       "open",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: limit},
	}

	issues := make([]Issue, 0, limit)
	for len(issues) < limit {
		page, resp, err := c.gh.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list issues for %s/%s: %w", owner, repo, err)
		}

		for _, item := range page {
			if item.IsPullRequest() {
				continue
			}
			issues = append(issues, convertIssue(item))
			if len(issues) == limit {
				break
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return issues, nil
}

func convertIssue(item *github.Issue) Issue {
	labels := make([]string, 0, len(item.Labels))
	for _, label := range item.Labels {
		labels = append(labels, label.GetName())
	}

	return Issue{
		Number:      item.GetNumber(),
		Title:       item.GetTitle(),
		Description: item.GetBody(),
		Labels:      labels,
		CreatorName: item.GetUser().GetLogin(),
		Status:      item.GetState(),
		URL:         item.GetHTMLURL(),
	}
}
