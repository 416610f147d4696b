// MIT License
//
// Copyright (c) 2025 Mike Lane
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/google/go-github/v66/github"
	"github.com/shurcooL/githubv4"
)

// RetryConfig defines the retry behavior for API calls
type RetryConfig struct {
	MaxRetries     uint
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxJitter      time.Duration
}

// DefaultRetryConfig returns the retry behavior used when none is supplied
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		MaxJitter:      20 * time.Millisecond,
	}
}

// githubClient implements the Provider interface using go-github for REST
// calls and githubv4 for GraphQL queries
type githubClient struct {
	client      *github.Client
	graphql     *githubv4.Client
	retryConfig *RetryConfig
}

type clientOptions struct {
	enterpriseURL string
	retryConfig   *RetryConfig
}

// Option configures the client returned by NewClient
type Option func(*clientOptions)

// WithRetryConfig overrides the default retry behavior
func WithRetryConfig(cfg *RetryConfig) Option {
	return func(o *clientOptions) {
		o.retryConfig = cfg
	}
}

// WithEnterpriseURL points the client at a GitHub Enterprise Server instance
func WithEnterpriseURL(baseURL string) Option {
	return func(o *clientOptions) {
		o.enterpriseURL = baseURL
	}
}

// NewClient creates a Provider backed by the GitHub API. The http client is
// expected to carry authentication (see config.NewHTTPClient).
func NewClient(httpClient *http.Client, opts ...Option) (Provider, error) {
	o := &clientOptions{retryConfig: DefaultRetryConfig()}
	for _, opt := range opts {
		opt(o)
	}

	rest := github.NewClient(httpClient)
	gql := githubv4.NewClient(httpClient)
	if o.enterpriseURL != "" {
		var err error
		rest, err = rest.WithEnterpriseURLs(o.enterpriseURL, o.enterpriseURL)
		if err != nil {
			return nil, fmt.Errorf("configuring enterprise url: %w", err)
		}
		gql = githubv4.NewEnterpriseClient(strings.TrimSuffix(o.enterpriseURL, "/")+"/api/graphql", httpClient)
	}

	return &githubClient{
		client:      rest,
		graphql:     gql,
		retryConfig: o.retryConfig,
	}, nil
}

// FetchContributors returns the logins of everyone with commits in the repository
func (c *githubClient) FetchContributors(ctx context.Context, owner, repo string) ([]string, error) {
	logins := []string{}
	opts := &github.ListContributorsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		var contributors []*github.Contributor
		var resp *github.Response

		err := c.executeWithRetry(ctx, func() error {
			var err error
			contributors, resp, err = c.client.Repositories.ListContributors(ctx, owner, repo, opts)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list contributors: %w", err)
		}

		for _, contributor := range contributors {
			if login := contributor.GetLogin(); login != "" {
				logins = append(logins, login)
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return logins, nil
}

// FetchPullRequestComments returns the conversation comments on a pull request
func (c *githubClient) FetchPullRequestComments(ctx context.Context, ref Ref) ([]Comment, error) {
	comments := []Comment{}
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		var page []*github.IssueComment
		var resp *github.Response

		err := c.executeWithRetry(ctx, func() error {
			var err error
			page, resp, err = c.client.Issues.ListComments(ctx, ref.Owner, ref.Repo, ref.Number, opts)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list comments: %w", err)
		}

		for _, comment := range page {
			comments = append(comments, Comment{
				Author: comment.GetUser().GetLogin(),
				Body:   comment.GetBody(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return comments, nil
}

// FetchReviewSummary counts the latest opinionated review of every reviewer.
// A reviewer who approved after requesting changes counts as an approval only.
func (c *githubClient) FetchReviewSummary(ctx context.Context, ref Ref) (*ReviewSummary, error) {
	summary := &ReviewSummary{}
	variables := refVariables(ref)
	variables["cursor"] = (*githubv4.String)(nil)

	for {
		var query struct {
			Repository struct {
				PullRequest struct {
					LatestOpinionatedReviews struct {
						Nodes []struct {
							State githubv4.PullRequestReviewState
						}
						PageInfo pageInfo
					} `graphql:"latestOpinionatedReviews(first: 100, after: $cursor)"`
					Reviews struct {
						TotalCount int
					}
				} `graphql:"pullRequest(number: $number)"`
			} `graphql:"repository(owner: $owner, name: $repo)"`
		}

		err := c.executeWithRetry(ctx, func() error {
			return c.graphql.Query(ctx, &query, variables)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query reviews: %w", err)
		}

		pr := query.Repository.PullRequest
		summary.Total = pr.Reviews.TotalCount
		for _, review := range pr.LatestOpinionatedReviews.Nodes {
			switch review.State {
			case githubv4.PullRequestReviewStateApproved:
				summary.Approvals++
			case githubv4.PullRequestReviewStateChangesRequested:
				summary.ChangesRequested = true
			}
		}

		if !pr.LatestOpinionatedReviews.PageInfo.HasNextPage {
			return summary, nil
		}
		variables["cursor"] = githubv4.NewString(pr.LatestOpinionatedReviews.PageInfo.EndCursor)
	}
}

// FetchCheckRunStatus returns the check rollup of the pull request's head commit
func (c *githubClient) FetchCheckRunStatus(ctx context.Context, ref Ref) (*CheckRunStatus, error) {
	status := &CheckRunStatus{Checks: []CheckRun{}}
	variables := refVariables(ref)
	variables["cursor"] = (*githubv4.String)(nil)

	for {
		var query struct {
			Repository struct {
				PullRequest struct {
					Commits struct {
						Nodes []struct {
							Commit struct {
								StatusCheckRollup *struct {
									State    githubv4.StatusState
									Contexts struct {
										Nodes []struct {
											Typename string `graphql:"__typename"`
											CheckRun struct {
												Name       string
												Status     githubv4.CheckStatusState
												Conclusion *githubv4.CheckConclusionState
												IsRequired bool `graphql:"isRequired(pullRequestNumber: $number)"`
											} `graphql:"... on CheckRun"`
											StatusContext struct {
												Context    string
												State      githubv4.StatusState
												IsRequired bool `graphql:"isRequired(pullRequestNumber: $number)"`
											} `graphql:"... on StatusContext"`
										}
										PageInfo pageInfo
									} `graphql:"contexts(first: 100, after: $cursor)"`
								}
							}
						}
					} `graphql:"commits(last: 1)"`
				} `graphql:"pullRequest(number: $number)"`
			} `graphql:"repository(owner: $owner, name: $repo)"`
		}

		err := c.executeWithRetry(ctx, func() error {
			return c.graphql.Query(ctx, &query, variables)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query check runs: %w", err)
		}

		commits := query.Repository.PullRequest.Commits.Nodes
		if len(commits) == 0 || commits[0].Commit.StatusCheckRollup == nil {
			return status, nil
		}

		rollup := commits[0].Commit.StatusCheckRollup
		if rollup.State != "" {
			overall := CheckStatus(rollup.State)
			status.Overall = &overall
		}

		for _, node := range rollup.Contexts.Nodes {
			switch node.Typename {
			case "CheckRun":
				result := CheckResultPending
				if string(node.CheckRun.Status) == "COMPLETED" && node.CheckRun.Conclusion != nil {
					result = CheckResult(*node.CheckRun.Conclusion)
				}
				status.Checks = append(status.Checks, CheckRun{
					Name:       node.CheckRun.Name,
					IsRequired: node.CheckRun.IsRequired,
					Result:     result,
				})
			case "StatusContext":
				status.Checks = append(status.Checks, CheckRun{
					Name:       node.StatusContext.Context,
					IsRequired: node.StatusContext.IsRequired,
					Result:     convertStatusState(node.StatusContext.State),
				})
			}
		}

		if !rollup.Contexts.PageInfo.HasNextPage {
			return status, nil
		}
		variables["cursor"] = githubv4.NewString(rollup.Contexts.PageInfo.EndCursor)
	}
}

// FetchPullRequest retrieves metadata about a pull request
func (c *githubClient) FetchPullRequest(ctx context.Context, ref Ref) (*PullRequest, error) {
	var pr *github.PullRequest

	err := c.executeWithRetry(ctx, func() error {
		var err error
		pr, _, err = c.client.PullRequests.Get(ctx, ref.Owner, ref.Repo, ref.Number)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get pull request: %w", err)
	}

	return c.convertPullRequest(pr), nil
}

// FetchPullRequestFiles retrieves the list of files changed in a pull request
func (c *githubClient) FetchPullRequestFiles(ctx context.Context, ref Ref) ([]*File, error) {
	allFiles := []*File{} // Initialize as empty slice, not nil
	opts := &github.ListOptions{
		PerPage: 100,
	}

	for {
		var files []*github.CommitFile
		var resp *github.Response

		err := c.executeWithRetry(ctx, func() error {
			var err error
			files, resp, err = c.client.PullRequests.ListFiles(ctx, ref.Owner, ref.Repo, ref.Number, opts)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list PR files: %w", err)
		}

		for _, file := range files {
			allFiles = append(allFiles, c.convertFile(file))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allFiles, nil
}

// LabelExists reports whether the issue or pull request carries label.
// GitHub label names are case-insensitive.
func (c *githubClient) LabelExists(ctx context.Context, label string, ref Ref) (bool, error) {
	opts := &github.ListOptions{PerPage: 100}

	for {
		var labels []*github.Label
		var resp *github.Response

		err := c.executeWithRetry(ctx, func() error {
			var err error
			labels, resp, err = c.client.Issues.ListLabelsByIssue(ctx, ref.Owner, ref.Repo, ref.Number, opts)
			return err
		})
		if err != nil {
			return false, fmt.Errorf("failed to list labels: %w", err)
		}

		for _, l := range labels {
			if strings.EqualFold(l.GetName(), label) {
				return true, nil
			}
		}

		if resp.NextPage == 0 {
			return false, nil
		}
		opts.Page = resp.NextPage
	}
}

// AddLabel adds label to the issue or pull request
func (c *githubClient) AddLabel(ctx context.Context, ref Ref, label string) error {
	err := c.executeWithRetry(ctx, func() error {
		_, _, err := c.client.Issues.AddLabelsToIssue(ctx, ref.Owner, ref.Repo, ref.Number, []string{label})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to add label %q: %w", label, err)
	}

	return nil
}

// RemoveLabel removes label from the issue or pull request. With onlyIfExists
// the labels are listed first so an absent label costs no mutation call.
// Removing an absent label is never an error.
func (c *githubClient) RemoveLabel(ctx context.Context, ref Ref, label string, onlyIfExists bool) (bool, error) {
	if onlyIfExists {
		exists, err := c.LabelExists(ctx, label, ref)
		if err != nil {
			return false, err
		}
		if !exists {
			return false, nil
		}
	}

	err := c.executeWithRetry(ctx, func() error {
		_, err := c.client.Issues.RemoveLabelForIssue(ctx, ref.Owner, ref.Repo, ref.Number, label)
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to remove label %q: %w", label, err)
	}

	return true, nil
}

// MergePullRequest merges the pull request with the given method
func (c *githubClient) MergePullRequest(ctx context.Context, ref Ref, method MergeMethod) (*MergeResult, error) {
	var result *github.PullRequestMergeResult

	err := c.executeWithRetry(ctx, func() error {
		var err error
		result, _, err = c.client.PullRequests.Merge(ctx, ref.Owner, ref.Repo, ref.Number, "", &github.PullRequestOptions{
			MergeMethod: string(method),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to merge pull request: %w", err)
	}

	return &MergeResult{
		Merged:  result.GetMerged(),
		SHA:     result.GetSHA(),
		Message: result.GetMessage(),
	}, nil
}

// executeWithRetry executes an operation with exponential backoff retry.
// Only transient failures are retried; everything else returns immediately.
func (c *githubClient) executeWithRetry(ctx context.Context, operation func() error) error {
	var lastErr error
	attempts := 0

	err := retry.Do(
		func() error {
			attempts++
			lastErr = operation()
			return lastErr
		},
		retry.Context(ctx),
		retry.Attempts(c.retryConfig.MaxRetries+1),
		retry.Delay(c.retryConfig.InitialBackoff),
		retry.MaxDelay(c.retryConfig.MaxBackoff),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxJitter(c.retryConfig.MaxJitter),
		retry.RetryIf(isRetryableError),
	)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if lastErr != nil && isRetryableError(lastErr) && attempts > 1 {
		return fmt.Errorf("operation failed after %d retries: %w", attempts-1, lastErr)
	}
	if lastErr != nil {
		return lastErr
	}
	return err
}

// graphqlStatusPattern extracts the HTTP status from githubv4 transport errors
var graphqlStatusPattern = regexp.MustCompile(`non-200 OK status code: (\d{3})`)

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Secondary rate limits clear within seconds; primary rate limits can
	// take up to an hour to reset, so those fail fast.
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return true
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return false
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return isRetryableStatus(ghErr.Response.StatusCode)
	}

	if m := graphqlStatusPattern.FindStringSubmatch(err.Error()); m != nil {
		code, convErr := strconv.Atoi(m[1])
		return convErr == nil && isRetryableStatus(code)
	}

	return false
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isNotFound(err error) bool {
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
}

// pageInfo is the GraphQL connection cursor
type pageInfo struct {
	HasNextPage bool
	EndCursor   githubv4.String
}

func refVariables(ref Ref) map[string]any {
	return map[string]any{
		"owner":  githubv4.String(ref.Owner),
		"repo":   githubv4.String(ref.Repo),
		"number": githubv4.Int(ref.Number),
	}
}

func convertStatusState(state githubv4.StatusState) CheckResult {
	switch string(state) {
	case "SUCCESS":
		return CheckResultSuccess
	case "FAILURE", "ERROR":
		return CheckResultFailure
	default:
		return CheckResultPending
	}
}

// convertPullRequest converts a GitHub PR to our domain model
func (c *githubClient) convertPullRequest(pr *github.PullRequest) *PullRequest {
	if pr == nil {
		return nil
	}

	result := &PullRequest{
		Number:         pr.GetNumber(),
		Title:          pr.GetTitle(),
		Description:    pr.GetBody(),
		State:          pr.GetState(),
		Merged:         pr.GetMerged(),
		Mergeable:      pr.Mergeable,
		MergeableState: pr.GetMergeableState(),
		Additions:      pr.GetAdditions(),
		Deletions:      pr.GetDeletions(),
		ChangedFiles:   pr.GetChangedFiles(),
		Commits:        pr.GetCommits(),
	}

	if pr.Head != nil {
		result.HeadSHA = pr.Head.GetSHA()
	}

	if pr.User != nil {
		result.Author = pr.User.GetLogin()
	}

	for _, label := range pr.Labels {
		if label != nil {
			result.Labels = append(result.Labels, label.GetName())
		}
	}

	return result
}

// convertFile converts a GitHub CommitFile to our domain model
func (c *githubClient) convertFile(file *github.CommitFile) *File {
	if file == nil {
		return nil
	}

	return &File{
		Filename:  file.GetFilename(),
		Status:    file.GetStatus(),
		Additions: file.GetAdditions(),
		Deletions: file.GetDeletions(),
		Changes:   file.GetChanges(),
		Binary:    file.Patch == nil && file.GetChanges() == 0 && file.GetStatus() != "renamed",
	}
}
