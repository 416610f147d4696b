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

// Package event models inbound GitHub webhook deliveries.
package event

import (
	"encoding/json"
	"fmt"

	gh "github.com/google/go-github/v66/github"

	"github.com/tari-project/gh-pilot-sub000/internal/github"
	"github.com/tari-project/gh-pilot-sub000/internal/heuristics"
)

// Kind is the value of the X-GitHub-Event header
type Kind string

const (
	KindPullRequest              Kind = "pull_request"
	KindPullRequestReview        Kind = "pull_request_review"
	KindPullRequestReviewComment Kind = "pull_request_review_comment"
	KindIssueComment             Kind = "issue_comment"
	KindIssues                   Kind = "issues"
	KindCheckSuite               Kind = "check_suite"
	KindCheckRun                 Kind = "check_run"
	KindPush                     Kind = "push"
	KindPing                     Kind = "ping"
	KindLabel                    Kind = "label"
	KindStatus                   Kind = "status"
)

var knownKinds = map[Kind]bool{
	KindPullRequest:              true,
	KindPullRequestReview:        true,
	KindPullRequestReviewComment: true,
	KindIssueComment:             true,
	KindIssues:                   true,
	KindCheckSuite:               true,
	KindCheckRun:                 true,
	KindPush:                     true,
	KindPing:                     true,
	KindLabel:                    true,
	KindStatus:                   true,
}

// Unknown is the payload of a delivery whose kind is not modelled
type Unknown struct {
	Kind string
	Raw  json.RawMessage
}

// Event is one webhook delivery. It is immutable once parsed; WithFiles
// returns an enriched copy.
type Event struct {
	kind       Kind
	deliveryID string
	payload    any
	raw        []byte
	files      []heuristics.FileChange
}

// Parse decodes a webhook body according to its X-GitHub-Event kind.
// Kinds that are not modelled decode into an Unknown payload.
func Parse(kind, deliveryID string, body []byte) (*Event, error) {
	k := Kind(kind)
	if !knownKinds[k] {
		return &Event{
			kind:       k,
			deliveryID: deliveryID,
			payload:    Unknown{Kind: kind, Raw: json.RawMessage(body)},
			raw:        body,
		}, nil
	}

	payload, err := gh.ParseWebHook(kind, body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s payload: %w", kind, err)
	}

	return &Event{
		kind:       k,
		deliveryID: deliveryID,
		payload:    payload,
		raw:        body,
	}, nil
}

// New wraps an already decoded go-github payload
func New(kind Kind, payload any) *Event {
	return &Event{kind: kind, payload: payload}
}

func (e *Event) Kind() Kind         { return e.kind }
func (e *Event) DeliveryID() string { return e.deliveryID }
func (e *Event) Raw() []byte        { return e.raw }

// Payload returns the decoded go-github event value, e.g.
// *github.PullRequestEvent, or an Unknown.
func (e *Event) Payload() any { return e.payload }

// Action returns the payload's action field, or "" for kinds without one
func (e *Event) Action() string {
	switch p := e.payload.(type) {
	case *gh.PullRequestEvent:
		return p.GetAction()
	case *gh.PullRequestReviewEvent:
		return p.GetAction()
	case *gh.PullRequestReviewCommentEvent:
		return p.GetAction()
	case *gh.IssueCommentEvent:
		return p.GetAction()
	case *gh.IssuesEvent:
		return p.GetAction()
	case *gh.CheckSuiteEvent:
		return p.GetAction()
	case *gh.CheckRunEvent:
		return p.GetAction()
	case *gh.LabelEvent:
		return p.GetAction()
	}
	return ""
}

// Repository returns the owner and name of the repository the event
// belongs to
func (e *Event) Repository() (owner, name string, ok bool) {
	var repo *gh.Repository
	switch p := e.payload.(type) {
	case *gh.PullRequestEvent:
		repo = p.GetRepo()
	case *gh.PullRequestReviewEvent:
		repo = p.GetRepo()
	case *gh.PullRequestReviewCommentEvent:
		repo = p.GetRepo()
	case *gh.IssueCommentEvent:
		repo = p.GetRepo()
	case *gh.IssuesEvent:
		repo = p.GetRepo()
	case *gh.CheckSuiteEvent:
		repo = p.GetRepo()
	case *gh.CheckRunEvent:
		repo = p.GetRepo()
	case *gh.LabelEvent:
		repo = p.GetRepo()
	case *gh.StatusEvent:
		repo = p.GetRepo()
	case *gh.PingEvent:
		return "", "", false
	case *gh.PushEvent:
		r := p.GetRepo()
		if r == nil {
			return "", "", false
		}
		return r.GetOwner().GetLogin(), r.GetName(), r.GetName() != ""
	}
	if repo == nil {
		return "", "", false
	}
	return repo.GetOwner().GetLogin(), repo.GetName(), repo.GetName() != ""
}

// RelatedPullRequest returns the pull request the event concerns. Check
// suites map to their first attached pull request; issue comments count
// only when the issue is a pull request.
func (e *Event) RelatedPullRequest() (github.Ref, bool) {
	var number int
	switch p := e.payload.(type) {
	case *gh.PullRequestEvent:
		number = p.GetPullRequest().GetNumber()
		if number == 0 {
			number = p.GetNumber()
		}
	case *gh.PullRequestReviewEvent:
		number = p.GetPullRequest().GetNumber()
	case *gh.PullRequestReviewCommentEvent:
		number = p.GetPullRequest().GetNumber()
	case *gh.IssueCommentEvent:
		if issue := p.GetIssue(); issue == nil || !issue.IsPullRequest() {
			return github.Ref{}, false
		}
		number = p.GetIssue().GetNumber()
	case *gh.CheckSuiteEvent:
		suite := p.GetCheckSuite()
		if suite == nil || len(suite.PullRequests) == 0 {
			return github.Ref{}, false
		}
		number = suite.PullRequests[0].GetNumber()
	default:
		return github.Ref{}, false
	}
	return e.ref(number)
}

// Issue returns the issue the event concerns, for issues and issue_comment
// events
func (e *Event) Issue() (github.Ref, bool) {
	switch p := e.payload.(type) {
	case *gh.IssuesEvent:
		return e.ref(p.GetIssue().GetNumber())
	case *gh.IssueCommentEvent:
		return e.ref(p.GetIssue().GetNumber())
	}
	return github.Ref{}, false
}

func (e *Event) ref(number int) (github.Ref, bool) {
	owner, name, ok := e.Repository()
	if !ok || number == 0 {
		return github.Ref{}, false
	}
	return github.Ref{Owner: owner, Repo: name, Number: number}, true
}

// Snapshot returns the heuristic inputs carried by a pull_request payload,
// including the file list if one was attached with WithFiles
func (e *Event) Snapshot() (heuristics.Snapshot, bool) {
	p, ok := e.payload.(*gh.PullRequestEvent)
	if !ok || p.GetPullRequest() == nil {
		return heuristics.Snapshot{}, false
	}
	pr := p.GetPullRequest()
	return heuristics.Snapshot{
		ChangedFiles: pr.GetChangedFiles(),
		Additions:    pr.GetAdditions(),
		Deletions:    pr.GetDeletions(),
		Commits:      pr.GetCommits(),
		Body:         pr.GetBody(),
		Files:        e.files,
	}, true
}

// HasFiles reports whether a file list has been attached
func (e *Event) HasFiles() bool { return e.files != nil }

// WithFiles returns a copy of the event carrying the pull request's file list
func (e *Event) WithFiles(files []*github.File) *Event {
	changes := make([]heuristics.FileChange, 0, len(files))
	for _, f := range files {
		if f == nil {
			continue
		}
		changes = append(changes, heuristics.FileChange{
			Filename:  f.Filename,
			Additions: f.Additions,
			Deletions: f.Deletions,
			Binary:    f.Binary,
		})
	}

	c := *e
	c.files = changes
	return &c
}

// Summary renders the event as one human-readable line
func (e *Event) Summary() string {
	switch p := e.payload.(type) {
	case *gh.PullRequestEvent:
		return fmt.Sprintf("pull request %s %s: %q", e.target(), p.GetAction(), p.GetPullRequest().GetTitle())
	case *gh.PullRequestReviewEvent:
		return fmt.Sprintf("review %s on %s by %s (%s)", p.GetAction(), e.target(),
			p.GetReview().GetUser().GetLogin(), p.GetReview().GetState())
	case *gh.PullRequestReviewCommentEvent:
		return fmt.Sprintf("review comment %s on %s by %s", p.GetAction(), e.target(), p.GetComment().GetUser().GetLogin())
	case *gh.IssueCommentEvent:
		return fmt.Sprintf("comment %s on %s by %s", p.GetAction(), e.target(), p.GetComment().GetUser().GetLogin())
	case *gh.IssuesEvent:
		return fmt.Sprintf("issue %s %s: %q", e.target(), p.GetAction(), p.GetIssue().GetTitle())
	case *gh.CheckSuiteEvent:
		return fmt.Sprintf("check suite %s on %s: %s", p.GetAction(), e.target(), p.GetCheckSuite().GetConclusion())
	case *gh.CheckRunEvent:
		return fmt.Sprintf("check run %q %s on %s: %s", p.GetCheckRun().GetName(), p.GetAction(), e.target(),
			p.GetCheckRun().GetConclusion())
	case *gh.PushEvent:
		return fmt.Sprintf("push to %s %s (%d commits)", e.target(), p.GetRef(), len(p.Commits))
	case *gh.PingEvent:
		return fmt.Sprintf("ping: %s", p.GetZen())
	case *gh.LabelEvent:
		return fmt.Sprintf("label %q %s in %s", p.GetLabel().GetName(), p.GetAction(), e.target())
	case *gh.StatusEvent:
		return fmt.Sprintf("status %q on %s: %s", p.GetContext(), e.target(), p.GetState())
	case Unknown:
		return fmt.Sprintf("unhandled %s event", p.Kind)
	}
	return fmt.Sprintf("%s event", e.kind)
}

// target names the most specific thing the event is about
func (e *Event) target() string {
	if ref, ok := e.RelatedPullRequest(); ok {
		return ref.String()
	}
	if ref, ok := e.Issue(); ok {
		return ref.String()
	}
	if owner, name, ok := e.Repository(); ok {
		return owner + "/" + name
	}
	return "unknown repository"
}
