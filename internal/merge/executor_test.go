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

package merge

import (
	"context"
	"errors"

	gh "github.com/google/go-github/v66/github"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tari-project/gh-pilot-sub000/internal/dispatch"
	"github.com/tari-project/gh-pilot-sub000/internal/event"
	"github.com/tari-project/gh-pilot-sub000/internal/github"
	"github.com/tari-project/gh-pilot-sub000/internal/github/githubtest"
	"github.com/tari-project/gh-pilot-sub000/internal/rules"
)

var _ = Describe("Merge policy executor", func() {
	var (
		ctx      context.Context
		fake     *githubtest.Fake
		executor *Executor
		params   rules.MergeParams
		ev       *event.Event
	)

	repo := &gh.Repository{
		Name:  gh.String("tari"),
		Owner: &gh.User{Login: gh.String("tari-project")},
	}

	BeforeEach(func() {
		ctx = context.Background()
		fake = githubtest.New()
		fake.Contributors = []string{"alice", "bob", "che"}
		fake.Comments = comments("alice", "ACK", "bob", "ACK")
		fake.Reviews = github.ReviewSummary{Approvals: 1, Total: 1}
		success := github.CheckStatusSuccess
		fake.Checks = github.CheckRunStatus{Overall: &success}

		executor = NewExecutor(fake)
		params = rules.MergeParams{
			MinAcks:       2,
			MinReviews:    1,
			RequireChecks: true,
			MergeLabel:    "P-merge",
		}

		ev = event.New(event.KindIssueComment, &gh.IssueCommentEvent{
			Action: gh.String("created"),
			Repo:   repo,
			Issue: &gh.Issue{
				Number:           gh.Int(42),
				PullRequestLinks: &gh.PullRequestLinks{URL: gh.String("https://api.github.com/repos/tari-project/tari/pulls/42")},
			},
			Comment: &gh.IssueComment{User: &gh.User{Login: gh.String("bob")}, Body: gh.String("ACK")},
		})
	})

	Describe("Scenario: every stage passes", func() {
		It("adds the merge label when auto-merge is off", func() {
			report := executor.Run(ctx, ev, params)

			Expect(report.Outcome).To(Equal(OutcomeLabeled))
			Expect(report.Acks).To(Equal(2))
			Expect(report.Ref).To(Equal(github.Ref{Owner: "tari-project", Repo: "tari", Number: 42}))
			Expect(fake.Mutations()).To(Equal([]string{"AddLabel:P-merge"}))
		})

		It("squash-merges when the label is present and auto-merge is on", func() {
			fake = githubtest.New("P-merge")
			fake.Contributors = []string{"alice", "bob"}
			fake.Comments = comments("alice", "ACK", "bob", ":+1:")
			fake.Reviews = github.ReviewSummary{Approvals: 1}
			executor = NewExecutor(fake)
			params.AutoMerge = true
			params.RequireChecks = false

			report := executor.Run(ctx, ev, params)

			Expect(report.Outcome).To(Equal(OutcomeMerged))
			Expect(fake.Merges()).To(Equal([]github.MergeMethod{github.MergeMethodSquash}))
			Expect(fake.Calls(githubtest.MethodFetchCheckRunStatus)).To(BeZero())
		})

		It("withholds the merge when auto-merge is on but the label is absent", func() {
			params.AutoMerge = true

			report := executor.Run(ctx, ev, params)

			Expect(report.Outcome).To(Equal(OutcomeWithheld))
			Expect(fake.Mutations()).To(BeEmpty())
		})

		It("does nothing when the label is present and auto-merge is off", func() {
			fake.AddLabel(ctx, github.Ref{}, "P-merge")
			before := len(fake.Mutations())

			report := executor.Run(ctx, ev, params)

			Expect(report.Outcome).To(Equal(OutcomeAlreadyLabeled))
			Expect(fake.Mutations()).To(HaveLen(before))
		})
	})

	Describe("Scenario: short-circuiting", func() {
		It("never queries reviews or checks when ACKs are missing", func() {
			fake.Comments = comments("alice", "ACK", "alice", "ACK", "rando", "ACK")

			report := executor.Run(ctx, ev, params)

			Expect(report.Outcome).To(Equal(OutcomeNotReady))
			Expect(report.Stage).To(Equal(StageAcks))
			Expect(fake.Calls(githubtest.MethodFetchReviewSummary)).To(BeZero())
			Expect(fake.Calls(githubtest.MethodFetchCheckRunStatus)).To(BeZero())
			Expect(fake.Calls(githubtest.MethodLabelExists)).To(BeZero())
			Expect(fake.Mutations()).To(BeEmpty())
		})

		It("never queries checks when a change request is outstanding", func() {
			fake.Reviews = github.ReviewSummary{Approvals: 5, ChangesRequested: true, Total: 6}

			report := executor.Run(ctx, ev, params)

			Expect(report.Outcome).To(Equal(OutcomeNotReady))
			Expect(report.Stage).To(Equal(StageReviews))
			Expect(fake.Calls(githubtest.MethodFetchCheckRunStatus)).To(BeZero())
			Expect(fake.Mutations()).To(BeEmpty())
		})

		It("stops at checks when the rollup failed", func() {
			failure := github.CheckStatusFailure
			fake.Checks = github.CheckRunStatus{Overall: &failure}

			report := executor.Run(ctx, ev, params)

			Expect(report.Outcome).To(Equal(OutcomeNotReady))
			Expect(report.Stage).To(Equal(StageChecks))
			Expect(fake.Calls(githubtest.MethodLabelExists)).To(BeZero())
		})

		It("treats a comment fetch error as a failed ACK stage", func() {
			fake.Errors[githubtest.MethodFetchPullRequestComments] = errors.New("502 bad gateway")

			report := executor.Run(ctx, ev, params)

			Expect(report.Outcome).To(Equal(OutcomeNotReady))
			Expect(report.Err).To(HaveOccurred())
			Expect(fake.Calls(githubtest.MethodFetchReviewSummary)).To(BeZero())
		})
	})

	Describe("Scenario: provider failures", func() {
		It("aborts when contributors cannot be fetched", func() {
			fake.Errors[githubtest.MethodFetchContributors] = errors.New("401 bad credentials")

			report := executor.Run(ctx, ev, params)

			Expect(report.Outcome).To(Equal(OutcomeAborted))
			Expect(report.Outcome.Result()).To(Equal(rules.Failed))
			Expect(fake.Calls(githubtest.MethodFetchPullRequestComments)).To(BeZero())
		})

		It("abandons the run without mutation when the label check fails", func() {
			fake.Errors[githubtest.MethodLabelExists] = errors.New("503 service unavailable")

			report := executor.Run(ctx, ev, params)

			Expect(report.Outcome).To(Equal(OutcomeLabelCheckFailed))
			Expect(fake.Mutations()).To(BeEmpty())
			Expect(fake.Calls(githubtest.MethodAddLabel)).To(BeZero())
			Expect(fake.Calls(githubtest.MethodMergePullRequest)).To(BeZero())
		})

		It("reports a failed merge", func() {
			fake.AddLabel(ctx, github.Ref{}, "P-merge")
			fake.Errors[githubtest.MethodMergePullRequest] = errors.New("405 not mergeable")
			params.AutoMerge = true

			report := executor.Run(ctx, ev, params)

			Expect(report.Outcome).To(Equal(OutcomeMutationFailed))
			Expect(report.Outcome.Result()).To(Equal(rules.Failed))
		})
	})

	Describe("Scenario: events without a pull request", func() {
		It("skips without calling the provider", func() {
			issue := event.New(event.KindIssues, &gh.IssuesEvent{
				Action: gh.String("opened"),
				Repo:   repo,
				Issue:  &gh.Issue{Number: gh.Int(7)},
			})

			report := executor.Run(ctx, issue, params)

			Expect(report.Outcome).To(Equal(OutcomeSkipped))
			Expect(fake.Calls(githubtest.MethodFetchContributors)).To(BeZero())
		})
	})

	Describe("Handle", func() {
		It("maps the outcome to an action result", func() {
			result := executor.Handle(ctx, dispatch.Message{RuleName: "merge", Event: ev, Action: rules.Merge{Params: params}})
			Expect(result).To(Equal(rules.Success))
		})

		It("leaves other actions unhandled", func() {
			result := executor.Handle(ctx, dispatch.Message{RuleName: "label", Event: ev, Action: rules.AddLabel{Label: "x"}})
			Expect(result).To(Equal(rules.Indeterminate))
			Expect(fake.Calls(githubtest.MethodFetchContributors)).To(BeZero())
		})
	})
})
