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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tari-project/gh-pilot-sub000/internal/github"
	"github.com/tari-project/gh-pilot-sub000/internal/rules"
)

func comments(pairs ...string) []github.Comment {
	out := make([]github.Comment, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, github.Comment{Author: pairs[i], Body: pairs[i+1]})
	}
	return out
}

func status(overall github.CheckStatus, checks ...github.CheckRun) *github.CheckRunStatus {
	s := &github.CheckRunStatus{Checks: checks}
	if overall != "" {
		s.Overall = &overall
	}
	return s
}

var _ = Describe("CountAcks", func() {
	DescribeTable("counts at most one ACK per contributor",
		func(contributors []string, cs []github.Comment, want int) {
			Expect(CountAcks(contributors, cs, rules.DefaultIsAck)).To(Equal(want))
		},
		Entry("one author repeating ACKs counts once",
			[]string{"bob"},
			comments("bob", "utACK", "bob", "ACK", "bob", "👍"),
			1),
		Entry("repeated valid ACKs still count once",
			[]string{"bob"},
			comments("bob", "ACK", "bob", "ACK", "bob", ":+1:"),
			1),
		Entry("non-contributors never count",
			[]string{"alice", "bob", "che"},
			comments("rando", ":+1:"),
			0),
		Entry("each contributor counts once",
			[]string{"alice", "bob", "che"},
			comments("alice", "ACK", "bob", ":+1:", "alice", "ACK", "che", "looks good"),
			2),
		Entry("empty contributor list",
			[]string{},
			comments("bob", "ACK"),
			0),
		Entry("empty comment list",
			[]string{"bob"},
			[]github.Comment{},
			0),
		Entry("nil inputs",
			nil,
			nil,
			0),
	)

	It("uses the supplied classifier", func() {
		lgtm := func(body string) bool { return body == "LGTM" }
		Expect(CountAcks([]string{"alice"}, comments("alice", "ACK", "alice", "LGTM"), lgtm)).To(Equal(1))
	})
})

var _ = Describe("ReviewsPass", func() {
	DescribeTable("applies approvals and the change-request veto",
		func(summary *github.ReviewSummary, minReviews int, want bool) {
			Expect(ReviewsPass(summary, minReviews)).To(Equal(want))
		},
		Entry("enough approvals", &github.ReviewSummary{Approvals: 2, Total: 2}, 2, true),
		Entry("too few approvals", &github.ReviewSummary{Approvals: 1, Total: 3}, 2, false),
		Entry("no reviews required", &github.ReviewSummary{}, 0, true),
		Entry("change request vetoes many approvals", &github.ReviewSummary{Approvals: 50, ChangesRequested: true, Total: 51}, 1, false),
		Entry("change request vetoes with nothing required", &github.ReviewSummary{ChangesRequested: true}, 0, false),
		Entry("missing summary", nil, 0, false),
	)
})

var _ = Describe("ChecksPass", func() {
	required := func(result github.CheckResult) github.CheckRun {
		return github.CheckRun{Name: "ci", IsRequired: true, Result: result}
	}
	optional := func(result github.CheckResult) github.CheckRun {
		return github.CheckRun{Name: "lint", IsRequired: false, Result: result}
	}

	DescribeTable("applies rollup precedence",
		func(s *github.CheckRunStatus, want bool) {
			Expect(ChecksPass(s)).To(Equal(want))
		},
		Entry("overall success with no checks", status(github.CheckStatusSuccess), true),
		Entry("overall success despite a failed check",
			status(github.CheckStatusSuccess, required(github.CheckResultFailure)), true),
		Entry("overall failure despite passing checks",
			status(github.CheckStatusFailure, required(github.CheckResultSuccess), required(github.CheckResultSuccess)), false),
		Entry("pending rollup with all required checks passed",
			status(github.CheckStatusPending, required(github.CheckResultSuccess), optional(github.CheckResultPending)), true),
		Entry("pending rollup with a required check pending",
			status(github.CheckStatusPending, required(github.CheckResultSuccess), required(github.CheckResultPending)), false),
		Entry("optional failures never block",
			status("", required(github.CheckResultSuccess), optional(github.CheckResultFailure)), true),
		Entry("no rollup and no checks", status(""), true),
		Entry("missing status", nil, false),
	)
})
