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

// Package githubtest provides an in-memory github.Provider for tests.
package githubtest

import (
	"context"
	"strings"
	"sync"

	"github.com/tari-project/gh-pilot-sub000/internal/github"
)

// Provider method names, used as keys for Calls and Errors.
const (
	MethodFetchContributors        = "FetchContributors"
	MethodFetchPullRequestComments = "FetchPullRequestComments"
	MethodFetchReviewSummary       = "FetchReviewSummary"
	MethodFetchCheckRunStatus      = "FetchCheckRunStatus"
	MethodFetchPullRequest         = "FetchPullRequest"
	MethodFetchPullRequestFiles    = "FetchPullRequestFiles"
	MethodLabelExists              = "LabelExists"
	MethodAddLabel                 = "AddLabel"
	MethodRemoveLabel              = "RemoveLabel"
	MethodMergePullRequest         = "MergePullRequest"
)

// Fake is a github.Provider backed by fixed data. Set the exported fields
// before handing it to the code under test; the fake records every call and
// applies label mutations to its own label set.
type Fake struct {
	Contributors []string
	Comments     []github.Comment
	Reviews      github.ReviewSummary
	Checks       github.CheckRunStatus
	PullRequest  github.PullRequest
	Files        []*github.File

	// Errors makes the named method fail with the given error.
	Errors map[string]error

	mu       sync.Mutex
	labels   map[string]string
	calls    map[string]int
	mutated  []string
	mergedBy []github.MergeMethod
}

var _ github.Provider = (*Fake)(nil)

// New returns a Fake whose pull request carries labels.
func New(labels ...string) *Fake {
	f := &Fake{
		Errors: map[string]error{},
		labels: map[string]string{},
		calls:  map[string]int{},
	}
	for _, l := range labels {
		f.labels[strings.ToLower(l)] = l
	}
	return f
}

// Calls returns how many times method was invoked.
func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// Mutations returns the successful mutating calls in order, e.g.
// "AddLabel:needs-review" or "MergePullRequest:squash".
func (f *Fake) Mutations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.mutated...)
}

// HasLabel reports whether the fake currently carries label.
func (f *Fake) HasLabel(label string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.labels[strings.ToLower(label)]
	return ok
}

// Merges returns the merge methods used by successful merges.
func (f *Fake) Merges() []github.MergeMethod {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]github.MergeMethod(nil), f.mergedBy...)
}

func (f *Fake) record(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
		f.labels = map[string]string{}
	}
	f.calls[method]++
	return f.Errors[method]
}

func (f *Fake) FetchContributors(_ context.Context, _, _ string) ([]string, error) {
	if err := f.record(MethodFetchContributors); err != nil {
		return nil, err
	}
	return append([]string(nil), f.Contributors...), nil
}

func (f *Fake) FetchPullRequestComments(_ context.Context, _ github.Ref) ([]github.Comment, error) {
	if err := f.record(MethodFetchPullRequestComments); err != nil {
		return nil, err
	}
	return append([]github.Comment(nil), f.Comments...), nil
}

func (f *Fake) FetchReviewSummary(_ context.Context, _ github.Ref) (*github.ReviewSummary, error) {
	if err := f.record(MethodFetchReviewSummary); err != nil {
		return nil, err
	}
	summary := f.Reviews
	return &summary, nil
}

func (f *Fake) FetchCheckRunStatus(_ context.Context, _ github.Ref) (*github.CheckRunStatus, error) {
	if err := f.record(MethodFetchCheckRunStatus); err != nil {
		return nil, err
	}
	status := f.Checks
	if status.Checks == nil {
		status.Checks = []github.CheckRun{}
	}
	return &status, nil
}

func (f *Fake) FetchPullRequest(_ context.Context, ref github.Ref) (*github.PullRequest, error) {
	if err := f.record(MethodFetchPullRequest); err != nil {
		return nil, err
	}
	pr := f.PullRequest
	if pr.Number == 0 {
		pr.Number = ref.Number
	}
	return &pr, nil
}

func (f *Fake) FetchPullRequestFiles(_ context.Context, _ github.Ref) ([]*github.File, error) {
	if err := f.record(MethodFetchPullRequestFiles); err != nil {
		return nil, err
	}
	return append([]*github.File{}, f.Files...), nil
}

func (f *Fake) LabelExists(_ context.Context, label string, _ github.Ref) (bool, error) {
	if err := f.record(MethodLabelExists); err != nil {
		return false, err
	}
	return f.HasLabel(label), nil
}

func (f *Fake) AddLabel(_ context.Context, _ github.Ref, label string) error {
	if err := f.record(MethodAddLabel); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.labels[strings.ToLower(label)] = label
	f.mutated = append(f.mutated, MethodAddLabel+":"+label)
	return nil
}

func (f *Fake) RemoveLabel(_ context.Context, _ github.Ref, label string, _ bool) (bool, error) {
	if err := f.record(MethodRemoveLabel); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.ToLower(label)
	if _, ok := f.labels[key]; !ok {
		return false, nil
	}
	delete(f.labels, key)
	f.mutated = append(f.mutated, MethodRemoveLabel+":"+label)
	return true, nil
}

func (f *Fake) MergePullRequest(_ context.Context, _ github.Ref, method github.MergeMethod) (*github.MergeResult, error) {
	if err := f.record(MethodMergePullRequest); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mergedBy = append(f.mergedBy, method)
	f.mutated = append(f.mutated, MethodMergePullRequest+":"+string(method))
	return &github.MergeResult{Merged: true, SHA: "0000000", Message: "merged"}, nil
}
