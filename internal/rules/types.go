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

package rules

import (
	"regexp"

	"github.com/tari-project/gh-pilot-sub000/internal/predicate"
)

// ConflictLabel is the label CheckConflicts applies to pull requests that
// cannot be merged cleanly
const ConflictLabel = "P-conflicts"

// DefaultMergeLabel gates and marks pull requests ready to merge
const DefaultMergeLabel = "P-merge"

// Rule associates a predicate with the actions to run when it matches
type Rule struct {
	Name      string
	Predicate predicate.Predicate
	Actions   []Action
}

// ActionKind identifies which executor handles an action
type ActionKind string

const (
	KindAddLabel       ActionKind = "add_label"
	KindRemoveLabel    ActionKind = "remove_label"
	KindCheckConflicts ActionKind = "check_conflicts"
	KindMerge          ActionKind = "merge"
)

// Action carries the parameters of a side effect. Actions do not execute
// themselves; executors registered with the dispatcher do.
type Action interface {
	Kind() ActionKind
	action()
}

// AddLabel adds Label to the pull request or issue
type AddLabel struct{ Label string }

// RemoveLabel removes Label from the pull request or issue
type RemoveLabel struct{ Label string }

// CheckConflicts labels the pull request with ConflictLabel while it has
// merge conflicts
type CheckConflicts struct{}

// Merge runs the merge policy
type Merge struct{ Params MergeParams }

func (AddLabel) Kind() ActionKind       { return KindAddLabel }
func (RemoveLabel) Kind() ActionKind    { return KindRemoveLabel }
func (CheckConflicts) Kind() ActionKind { return KindCheckConflicts }
func (Merge) Kind() ActionKind          { return KindMerge }

func (AddLabel) action()       {}
func (RemoveLabel) action()    {}
func (CheckConflicts) action() {}
func (Merge) action()          {}

// MergeParams configures the merge policy
type MergeParams struct {
	MinAcks       int
	MinReviews    int
	RequireChecks bool
	MergeLabel    string
	AutoMerge     bool
	// IsAck classifies a comment body as an ACK. Nil means DefaultIsAck.
	IsAck func(body string) bool
}

// Ack returns the effective ACK classifier
func (p MergeParams) Ack() func(string) bool {
	if p.IsAck != nil {
		return p.IsAck
	}
	return DefaultIsAck
}

// Label returns the effective merge-gate label
func (p MergeParams) Label() string {
	if p.MergeLabel != "" {
		return p.MergeLabel
	}
	return DefaultMergeLabel
}

// ackPattern accepts a line starting with the word ACK or the :+1: shortcode.
// utACK, tACK and emoji thumbs do not count.
var ackPattern = regexp.MustCompile(`(?m)^[ \t]*(ACK|:\+1:)([ \t\r.,!:]|$)`)

// DefaultIsAck reports whether body contains an ACK line
func DefaultIsAck(body string) bool {
	return ackPattern.MatchString(body)
}

// AckMatcher builds a classifier accepting any of the given regular
// expressions. With no patterns it returns DefaultIsAck.
func AckMatcher(patterns ...string) (func(string) bool, error) {
	if len(patterns) == 0 {
		return DefaultIsAck, nil
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}

	return func(body string) bool {
		for _, re := range compiled {
			if re.MatchString(body) {
				return true
			}
		}
		return false
	}, nil
}

// ActionResult reports how an action invocation ended
type ActionResult int

const (
	// Indeterminate means no executor handled the action
	Indeterminate ActionResult = iota
	Success
	Failed
)

func (r ActionResult) String() string {
	switch r {
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "indeterminate"
	}
}
