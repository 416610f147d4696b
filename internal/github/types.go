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
	"fmt"
)

// Provider defines the contract for reading and mutating GitHub state
type Provider interface {
	// FetchContributors returns the logins of the repository's contributors
	FetchContributors(ctx context.Context, owner, repo string) ([]string, error)
	// FetchPullRequestComments returns the conversation comments on a pull request
	FetchPullRequestComments(ctx context.Context, ref Ref) ([]Comment, error)
	// FetchReviewSummary returns aggregate review counts for a pull request
	FetchReviewSummary(ctx context.Context, ref Ref) (*ReviewSummary, error)
	// FetchCheckRunStatus returns the check rollup of the pull request's head commit
	FetchCheckRunStatus(ctx context.Context, ref Ref) (*CheckRunStatus, error)
	// FetchPullRequest retrieves metadata about a pull request
	FetchPullRequest(ctx context.Context, ref Ref) (*PullRequest, error)
	// FetchPullRequestFiles retrieves the list of files changed in a pull request
	FetchPullRequestFiles(ctx context.Context, ref Ref) ([]*File, error)
	// LabelExists reports whether the issue or pull request carries label
	LabelExists(ctx context.Context, label string, ref Ref) (bool, error)
	// AddLabel adds label to the issue or pull request
	AddLabel(ctx context.Context, ref Ref, label string) error
	// RemoveLabel removes label and reports whether a mutation happened
	RemoveLabel(ctx context.Context, ref Ref, label string, onlyIfExists bool) (bool, error)
	// MergePullRequest merges the pull request with the given method
	MergePullRequest(ctx context.Context, ref Ref, method MergeMethod) (*MergeResult, error)
}

// Ref identifies an issue or pull request. GitHub shares the number space
// between the two, so the same type addresses both.
type Ref struct {
	Owner  string
	Repo   string
	Number int
}

// String renders the reference as owner/repo#number
func (r Ref) String() string {
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Repo, r.Number)
}

// PullRequest represents GitHub pull request metadata
type PullRequest struct {
	Number         int
	Title          string
	Description    string
	HeadSHA        string
	Author         string
	State          string // open, closed
	Merged         bool
	Mergeable      *bool // nil while GitHub is still computing mergeability
	MergeableState string
	Labels         []string
	Additions      int
	Deletions      int
	ChangedFiles   int
	Commits        int
}

// File represents a file changed in a pull request
type File struct {
	Filename  string
	Status    string // added, removed, modified, renamed
	Additions int
	Deletions int
	Changes   int
	Binary    bool // GitHub omits the patch for binary files
}

// Comment is a conversation comment on an issue or pull request
type Comment struct {
	Author string
	Body   string
}

// ReviewSummary aggregates the formal reviews on a pull request
type ReviewSummary struct {
	Approvals        int
	ChangesRequested bool
	Total            int
}

// CheckStatus is the rollup state GitHub reports for a commit
type CheckStatus string

const (
	// CheckStatusSuccess indicates that every check passed
	CheckStatusSuccess CheckStatus = "SUCCESS"
	// CheckStatusFailure indicates that at least one check failed
	CheckStatusFailure CheckStatus = "FAILURE"
	// CheckStatusPending indicates that checks are still running
	CheckStatusPending CheckStatus = "PENDING"
	// CheckStatusError indicates that a check errored
	CheckStatusError CheckStatus = "ERROR"
	// CheckStatusExpected indicates that a required check has not reported yet
	CheckStatusExpected CheckStatus = "EXPECTED"
)

// CheckResult is the outcome of a single check run or status context
type CheckResult string

const (
	CheckResultSuccess   CheckResult = "SUCCESS"
	CheckResultFailure   CheckResult = "FAILURE"
	CheckResultNeutral   CheckResult = "NEUTRAL"
	CheckResultSkipped   CheckResult = "SKIPPED"
	CheckResultCancelled CheckResult = "CANCELLED"
	CheckResultTimedOut  CheckResult = "TIMED_OUT"
	CheckResultPending   CheckResult = "PENDING"
)

// CheckRun is one entry of a check rollup
type CheckRun struct {
	Name       string
	IsRequired bool
	Result     CheckResult
}

// CheckRunStatus is the check rollup of a pull request's head commit.
// Overall is nil when GitHub reports no rollup state.
type CheckRunStatus struct {
	Overall *CheckStatus
	Checks  []CheckRun
}

// MergeMethod selects how a pull request is merged
type MergeMethod string

const (
	MergeMethodSquash MergeMethod = "squash"
	MergeMethodMerge  MergeMethod = "merge"
	MergeMethodRebase MergeMethod = "rebase"
)

// MergeResult reports the outcome of a merge request
type MergeResult struct {
	Merged  bool
	SHA     string
	Message string
}
