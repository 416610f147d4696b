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

// Package predicate classifies webhook events against named conditions.
package predicate

import (
	"fmt"
	"strings"

	"github.com/tari-project/gh-pilot-sub000/internal/heuristics"
)

// Predicate is a condition over an event. The set of implementations is
// closed; Evaluator.Matches handles every one of them.
type Predicate interface {
	// Name returns the configuration name of the predicate
	Name() string
	predicate()
}

// Pull request transitions
type (
	Opened                    struct{}
	Reopened                  struct{}
	Edited                    struct{}
	Synchronized              struct{}
	Closed                    struct{}
	Merged                    struct{}
	ClosedWithUnmergedCommits struct{}
	ReviewRequested           struct{}
	ReadyForReview            struct{}
	ConvertedToDraft          struct{}

	// Assigned matches an assignment; an empty User matches any assignee
	Assigned struct{ User string }
	// Unassigned matches an unassignment; an empty User matches any assignee
	Unassigned struct{ User string }
	// Labeled matches a label being added; an empty Label matches any label
	Labeled struct{ Label string }
	// Unlabeled matches a label being removed; an empty Label matches any label
	Unlabeled struct{ Label string }
)

// Heuristics over the pull request content
type (
	SizeGreaterThan   struct{ Size heuristics.Size }
	MoreComplexThan   struct{ Complexity heuristics.Complexity }
	PoorJustification struct{}
)

// Reviews
type (
	ReviewSubmitted  struct{}
	ReviewEdited     struct{}
	ReviewDismissed  struct{}
	Approved         struct{}
	ChangesRequested struct{}
	Commented        struct{}
)

// Conversation and CI
type (
	// CommentAdded matches a new conversation comment on a pull request
	CommentAdded struct{}
	// CheckSuiteCompleted matches a finished check suite attached to a pull request
	CheckSuiteCompleted struct{}
)

// AnyOf matches when at least one member matches
type AnyOf struct {
	Predicates []Predicate
}

func (Opened) Name() string                    { return "opened" }
func (Reopened) Name() string                  { return "reopened" }
func (Edited) Name() string                    { return "edited" }
func (Synchronized) Name() string              { return "synchronized" }
func (Closed) Name() string                    { return "closed" }
func (Merged) Name() string                    { return "merged" }
func (ClosedWithUnmergedCommits) Name() string { return "closed_with_unmerged_commits" }
func (ReviewRequested) Name() string           { return "review_requested" }
func (ReadyForReview) Name() string            { return "ready_for_review" }
func (ConvertedToDraft) Name() string          { return "converted_to_draft" }
func (Assigned) Name() string                  { return "assigned" }
func (Unassigned) Name() string                { return "unassigned" }
func (Labeled) Name() string                   { return "labeled" }
func (Unlabeled) Name() string                 { return "unlabeled" }
func (SizeGreaterThan) Name() string           { return "size_greater_than" }
func (MoreComplexThan) Name() string           { return "more_complex_than" }
func (PoorJustification) Name() string         { return "poor_justification" }
func (ReviewSubmitted) Name() string           { return "review_submitted" }
func (ReviewEdited) Name() string              { return "review_edited" }
func (ReviewDismissed) Name() string           { return "review_dismissed" }
func (Approved) Name() string                  { return "approved" }
func (ChangesRequested) Name() string          { return "changes_requested" }
func (Commented) Name() string                 { return "commented" }
func (CommentAdded) Name() string              { return "comment_added" }
func (CheckSuiteCompleted) Name() string       { return "check_suite_completed" }
func (AnyOf) Name() string                     { return "any_of" }

func (Opened) predicate()                    {}
func (Reopened) predicate()                  {}
func (Edited) predicate()                    {}
func (Synchronized) predicate()              {}
func (Closed) predicate()                    {}
func (Merged) predicate()                    {}
func (ClosedWithUnmergedCommits) predicate() {}
func (ReviewRequested) predicate()           {}
func (ReadyForReview) predicate()            {}
func (ConvertedToDraft) predicate()          {}
func (Assigned) predicate()                  {}
func (Unassigned) predicate()                {}
func (Labeled) predicate()                   {}
func (Unlabeled) predicate()                 {}
func (SizeGreaterThan) predicate()           {}
func (MoreComplexThan) predicate()           {}
func (PoorJustification) predicate()         {}
func (ReviewSubmitted) predicate()           {}
func (ReviewEdited) predicate()              {}
func (ReviewDismissed) predicate()           {}
func (Approved) predicate()                  {}
func (ChangesRequested) predicate()          {}
func (Commented) predicate()                 {}
func (CommentAdded) predicate()              {}
func (CheckSuiteCompleted) predicate()       {}
func (AnyOf) predicate()                     {}

// Parse builds a predicate from its configuration name and optional
// argument. AnyOf is composed by the caller.
func Parse(name, arg string) (Predicate, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "opened":
		return Opened{}, nil
	case "reopened":
		return Reopened{}, nil
	case "edited":
		return Edited{}, nil
	case "synchronized", "synchronize":
		return Synchronized{}, nil
	case "closed":
		return Closed{}, nil
	case "merged":
		return Merged{}, nil
	case "closed_with_unmerged_commits":
		return ClosedWithUnmergedCommits{}, nil
	case "review_requested":
		return ReviewRequested{}, nil
	case "ready_for_review":
		return ReadyForReview{}, nil
	case "converted_to_draft":
		return ConvertedToDraft{}, nil
	case "assigned":
		return Assigned{User: arg}, nil
	case "unassigned":
		return Unassigned{User: arg}, nil
	case "labeled":
		return Labeled{Label: arg}, nil
	case "unlabeled":
		return Unlabeled{Label: arg}, nil
	case "size_greater_than":
		size, err := heuristics.ParseSize(arg)
		if err != nil {
			return nil, fmt.Errorf("size_greater_than: %w", err)
		}
		return SizeGreaterThan{Size: size}, nil
	case "more_complex_than":
		complexity, err := heuristics.ParseComplexity(arg)
		if err != nil {
			return nil, fmt.Errorf("more_complex_than: %w", err)
		}
		return MoreComplexThan{Complexity: complexity}, nil
	case "poor_justification":
		return PoorJustification{}, nil
	case "review_submitted":
		return ReviewSubmitted{}, nil
	case "review_edited":
		return ReviewEdited{}, nil
	case "review_dismissed":
		return ReviewDismissed{}, nil
	case "approved":
		return Approved{}, nil
	case "changes_requested":
		return ChangesRequested{}, nil
	case "commented":
		return Commented{}, nil
	case "comment_added":
		return CommentAdded{}, nil
	case "check_suite_completed":
		return CheckSuiteCompleted{}, nil
	}
	return nil, fmt.Errorf("unknown predicate %q", name)
}

// NeedsFiles reports whether evaluating p benefits from the pull request's
// file list being attached to the event
func NeedsFiles(p Predicate) bool {
	switch p := p.(type) {
	case MoreComplexThan:
		return true
	case AnyOf:
		for _, member := range p.Predicates {
			if NeedsFiles(member) {
				return true
			}
		}
	}
	return false
}
