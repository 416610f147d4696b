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

package predicate

import (
	"strings"

	gh "github.com/google/go-github/v66/github"

	"github.com/tari-project/gh-pilot-sub000/internal/event"
	"github.com/tari-project/gh-pilot-sub000/internal/heuristics"
)

// Evaluator matches predicates against events. Matching is pure: it reads
// only the event and the analyzer's thresholds.
type Evaluator struct {
	analyzer *heuristics.Analyzer
}

// NewEvaluator creates an evaluator. If analyzer is nil, default
// thresholds are used.
func NewEvaluator(analyzer *heuristics.Analyzer) *Evaluator {
	if analyzer == nil {
		analyzer = heuristics.NewAnalyzer(nil)
	}
	return &Evaluator{analyzer: analyzer}
}

// Matches reports whether ev satisfies p. It is total: any predicate that
// does not apply to the event's kind is false.
func (e *Evaluator) Matches(p Predicate, ev *event.Event) bool {
	if ev == nil || p == nil {
		return false
	}

	if anyOf, ok := p.(AnyOf); ok {
		for _, member := range anyOf.Predicates {
			if e.Matches(member, ev) {
				return true
			}
		}
		return false
	}

	switch payload := ev.Payload().(type) {
	case *gh.PullRequestEvent:
		return e.matchPullRequest(p, payload, ev)
	case *gh.PullRequestReviewEvent:
		return matchReview(p, payload)
	case *gh.IssueCommentEvent:
		return matchComment(p, payload)
	case *gh.CheckSuiteEvent:
		return matchCheckSuite(p, payload)
	}
	return false
}

func (e *Evaluator) matchPullRequest(p Predicate, payload *gh.PullRequestEvent, ev *event.Event) bool {
	action := payload.GetAction()

	switch p := p.(type) {
	case Opened:
		return action == "opened"
	case Reopened:
		return action == "reopened"
	case Edited:
		return action == "edited"
	case Synchronized:
		return action == "synchronize"
	case Closed:
		return action == "closed"
	case Merged:
		return action == "closed" && payload.GetPullRequest().GetMerged()
	case ClosedWithUnmergedCommits:
		return action == "closed" && !payload.GetPullRequest().GetMerged()
	case ReviewRequested:
		return action == "review_requested"
	case ReadyForReview:
		return action == "ready_for_review"
	case ConvertedToDraft:
		return action == "converted_to_draft"
	case Assigned:
		return action == "assigned" && optional(p.User, payload.GetAssignee().GetLogin())
	case Unassigned:
		return action == "unassigned" && optional(p.User, payload.GetAssignee().GetLogin())
	case Labeled:
		return action == "labeled" && optional(p.Label, payload.GetLabel().GetName())
	case Unlabeled:
		return action == "unlabeled" && optional(p.Label, payload.GetLabel().GetName())
	case SizeGreaterThan:
		snapshot, ok := heuristicSnapshot(action, ev)
		return ok && e.analyzer.Size(snapshot) > p.Size
	case MoreComplexThan:
		snapshot, ok := heuristicSnapshot(action, ev)
		return ok && e.analyzer.Complexity(snapshot) > p.Complexity
	case PoorJustification:
		snapshot, ok := heuristicSnapshot(action, ev)
		return ok && !e.analyzer.HasSufficientContext(snapshot)
	}
	return false
}

// heuristicSnapshot returns the snapshot for actions that change the
// pull request's content or description
func heuristicSnapshot(action string, ev *event.Event) (heuristics.Snapshot, bool) {
	switch action {
	case "opened", "synchronize", "reopened", "edited":
		return ev.Snapshot()
	}
	return heuristics.Snapshot{}, false
}

func matchReview(p Predicate, payload *gh.PullRequestReviewEvent) bool {
	action := payload.GetAction()
	state := payload.GetReview().GetState()

	switch p.(type) {
	case ReviewSubmitted:
		return action == "submitted"
	case ReviewEdited:
		return action == "edited"
	case ReviewDismissed:
		return action == "dismissed"
	case Approved:
		return action == "submitted" && strings.EqualFold(state, "approved")
	case ChangesRequested:
		return action == "submitted" && strings.EqualFold(state, "changes_requested")
	case Commented:
		return action == "submitted" && strings.EqualFold(state, "commented")
	}
	return false
}

func matchComment(p Predicate, payload *gh.IssueCommentEvent) bool {
	if _, ok := p.(CommentAdded); !ok {
		return false
	}
	issue := payload.GetIssue()
	return payload.GetAction() == "created" && issue != nil && issue.IsPullRequest()
}

func matchCheckSuite(p Predicate, payload *gh.CheckSuiteEvent) bool {
	if _, ok := p.(CheckSuiteCompleted); !ok {
		return false
	}
	suite := payload.GetCheckSuite()
	return payload.GetAction() == "completed" && suite != nil && len(suite.PullRequests) > 0
}

// optional compares an optional predicate parameter. GitHub logins and
// label names are case-insensitive.
func optional(want, got string) bool {
	return want == "" || strings.EqualFold(want, got)
}
