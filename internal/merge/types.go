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
	"github.com/tari-project/gh-pilot-sub000/internal/github"
	"github.com/tari-project/gh-pilot-sub000/internal/rules"
)

// Outcome describes how a merge policy run ended
type Outcome string

const (
	// OutcomeSkipped means the event does not concern a pull request
	OutcomeSkipped Outcome = "skipped"
	// OutcomeAborted means the contributor list could not be fetched
	OutcomeAborted Outcome = "aborted"
	// OutcomeNotReady means the ACK, review or check stage failed
	OutcomeNotReady Outcome = "not_ready"
	// OutcomeMerged means the pull request was squash-merged
	OutcomeMerged Outcome = "merged"
	// OutcomeLabeled means the merge label was added
	OutcomeLabeled Outcome = "labeled"
	// OutcomeWithheld means auto-merge is waiting for the merge label
	OutcomeWithheld Outcome = "withheld"
	// OutcomeAlreadyLabeled means the merge label was already present
	OutcomeAlreadyLabeled Outcome = "already_labeled"
	// OutcomeLabelCheckFailed means label presence could not be determined
	OutcomeLabelCheckFailed Outcome = "label_check_failed"
	// OutcomeMutationFailed means the merge or label call failed
	OutcomeMutationFailed Outcome = "mutation_failed"
)

// Result maps the outcome onto an action result
func (o Outcome) Result() rules.ActionResult {
	switch o {
	case OutcomeAborted, OutcomeLabelCheckFailed, OutcomeMutationFailed:
		return rules.Failed
	default:
		return rules.Success
	}
}

// Stage names, in execution order
const (
	StageContributors = "contributors"
	StageAcks         = "acks"
	StageReviews      = "reviews"
	StageChecks       = "checks"
	StageExecute      = "execute"
)

// RunReport summarises one merge policy run
type RunReport struct {
	Ref     github.Ref
	Outcome Outcome
	// Stage is the last stage that ran
	Stage string
	Acks  int
	Err   error
}
