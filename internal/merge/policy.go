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
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/tari-project/gh-pilot-sub000/internal/github"
)

// CountAcks counts ACK comments from contributors. Each contributor is
// removed from the eligible set once their first ACK is counted, so an
// author posting several ACKs still counts once.
func CountAcks(contributors []string, comments []github.Comment, isAck func(string) bool) int {
	remaining := sets.New(contributors...)

	count := 0
	for _, comment := range comments {
		if !remaining.Has(comment.Author) || !isAck(comment.Body) {
			continue
		}
		count++
		remaining.Delete(comment.Author)
	}
	return count
}

// ReviewsPass reports whether the reviews allow a merge. An outstanding
// change request vetoes any number of approvals.
func ReviewsPass(summary *github.ReviewSummary, minReviews int) bool {
	if summary == nil || summary.ChangesRequested {
		return false
	}
	return summary.Approvals >= minReviews
}

// ChecksPass reports whether CI allows a merge. An explicit overall state
// decides on its own; otherwise every required check must have succeeded.
// Checks that are not required never block.
func ChecksPass(status *github.CheckRunStatus) bool {
	if status == nil {
		return false
	}

	if status.Overall != nil {
		switch *status.Overall {
		case github.CheckStatusSuccess:
			return true
		case github.CheckStatusFailure:
			return false
		}
	}

	required, passed := 0, 0
	for _, check := range status.Checks {
		if !check.IsRequired {
			continue
		}
		required++
		if check.Result == github.CheckResultSuccess {
			passed++
		}
	}
	return passed >= required
}
