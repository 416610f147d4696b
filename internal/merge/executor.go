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
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/tari-project/gh-pilot-sub000/internal/dispatch"
	"github.com/tari-project/gh-pilot-sub000/internal/event"
	"github.com/tari-project/gh-pilot-sub000/internal/github"
	"github.com/tari-project/gh-pilot-sub000/internal/metrics"
	"github.com/tari-project/gh-pilot-sub000/internal/rules"
)

const instrumentationName = "github.com/tari-project/gh-pilot-sub000/internal/merge"

// Executor runs the merge policy for Merge actions
type Executor struct {
	provider github.Provider
	tracer   trace.Tracer
}

var _ dispatch.Handler = (*Executor)(nil)

// NewExecutor creates a merge policy executor backed by provider
func NewExecutor(provider github.Provider) *Executor {
	return &Executor{
		provider: provider,
		tracer:   otel.Tracer(instrumentationName, trace.WithInstrumentationVersion("1.0.0")),
	}
}

// Handle runs the policy for a Merge action
func (e *Executor) Handle(ctx context.Context, msg dispatch.Message) rules.ActionResult {
	action, ok := msg.Action.(rules.Merge)
	if !ok {
		log.FromContext(ctx).Info("Merge executor does not handle action", "action", msg.Action.Kind())
		return rules.Indeterminate
	}

	ctx = log.IntoContext(ctx, log.FromContext(ctx).WithValues("rule", msg.RuleName, "event", msg.Event.Kind()))
	report := e.Run(ctx, msg.Event, action.Params)
	metrics.MergeOutcome(string(report.Outcome))
	return report.Outcome.Result()
}

// Run evaluates the policy for the pull request ev concerns. Stages run in
// order and stop at the first failure, so later stages cost no API calls:
// contributors, ACKs, reviews, checks, then the merge or label decision.
func (e *Executor) Run(ctx context.Context, ev *event.Event, params rules.MergeParams) RunReport {
	logger := log.FromContext(ctx)

	ref, ok := ev.RelatedPullRequest()
	if !ok {
		logger.V(1).Info("Event does not concern a pull request, skipping merge policy")
		return RunReport{Outcome: OutcomeSkipped}
	}

	ctx, span := e.tracer.Start(ctx, "merge.run", trace.WithAttributes(
		attribute.String("github.repository", ref.Owner+"/"+ref.Repo),
		attribute.Int("github.pull_request", ref.Number),
	))
	defer span.End()

	logger = logger.WithValues("pullRequest", ref.String())
	ctx = log.IntoContext(ctx, logger)

	report := e.run(ctx, ref, params)
	span.SetAttributes(
		attribute.String("merge.outcome", string(report.Outcome)),
		attribute.String("merge.stage", report.Stage),
	)
	if report.Err != nil {
		span.RecordError(report.Err)
		span.SetStatus(codes.Error, report.Err.Error())
	}

	logger.Info("Merge policy finished", "outcome", report.Outcome, "stage", report.Stage, "acks", report.Acks)
	return report
}

func (e *Executor) run(ctx context.Context, ref github.Ref, params rules.MergeParams) RunReport {
	logger := log.FromContext(ctx)
	report := RunReport{Ref: ref}

	var contributors []string
	report.Stage = StageContributors
	if _, err := e.stage(ctx, StageContributors, func(ctx context.Context, span trace.Span) (bool, error) {
		var err error
		contributors, err = e.provider.FetchContributors(ctx, ref.Owner, ref.Repo)
		if err != nil {
			return false, fmt.Errorf("fetching contributors: %w", err)
		}
		span.SetAttributes(attribute.Int("merge.contributors", len(contributors)))
		return true, nil
	}); err != nil {
		logger.Error(err, "Cannot validate ACKs, aborting merge policy")
		report.Outcome = OutcomeAborted
		report.Err = err
		return report
	}

	report.Stage = StageAcks
	passed, err := e.stage(ctx, StageAcks, func(ctx context.Context, span trace.Span) (bool, error) {
		comments, err := e.provider.FetchPullRequestComments(ctx, ref)
		if err != nil {
			return false, fmt.Errorf("fetching comments: %w", err)
		}
		report.Acks = CountAcks(contributors, comments, params.Ack())
		span.SetAttributes(attribute.Int("merge.acks", report.Acks), attribute.Int("merge.min_acks", params.MinAcks))
		return report.Acks >= params.MinAcks, nil
	})
	if !passed {
		return notReady(ctx, report, err, "acks", report.Acks, "required", params.MinAcks)
	}

	report.Stage = StageReviews
	passed, err = e.stage(ctx, StageReviews, func(ctx context.Context, span trace.Span) (bool, error) {
		summary, err := e.provider.FetchReviewSummary(ctx, ref)
		if err != nil {
			return false, fmt.Errorf("fetching review summary: %w", err)
		}
		span.SetAttributes(
			attribute.Int("merge.approvals", summary.Approvals),
			attribute.Bool("merge.changes_requested", summary.ChangesRequested),
		)
		return ReviewsPass(summary, params.MinReviews), nil
	})
	if !passed {
		return notReady(ctx, report, err, "required", params.MinReviews)
	}

	report.Stage = StageChecks
	passed, err = e.stage(ctx, StageChecks, func(ctx context.Context, span trace.Span) (bool, error) {
		if !params.RequireChecks {
			return true, nil
		}
		status, err := e.provider.FetchCheckRunStatus(ctx, ref)
		if err != nil {
			return false, fmt.Errorf("fetching check runs: %w", err)
		}
		span.SetAttributes(attribute.Int("merge.checks", len(status.Checks)))
		return ChecksPass(status), nil
	})
	if !passed {
		return notReady(ctx, report, err)
	}

	report.Stage = StageExecute
	var outcome Outcome
	_, err = e.stage(ctx, StageExecute, func(ctx context.Context, span trace.Span) (bool, error) {
		var err error
		outcome, err = e.execute(ctx, ref, params)
		span.SetAttributes(attribute.String("merge.outcome", string(outcome)))
		return err == nil, err
	})
	report.Outcome = outcome
	report.Err = err
	return report
}

// notReady ends a run whose ACK, review or check stage failed. Provider
// errors in these stages count as stage failures.
func notReady(ctx context.Context, report RunReport, err error, keysAndValues ...any) RunReport {
	logger := log.FromContext(ctx)
	if err != nil {
		logger.Error(err, "Merge policy stage failed", "stage", report.Stage)
		report.Err = err
	} else {
		logger.Info("Pull request is not ready to merge", append([]any{"stage", report.Stage}, keysAndValues...)...)
	}
	report.Outcome = OutcomeNotReady
	return report
}

// execute applies the merge decision. Label lookup errors abandon the run
// without a mutation.
func (e *Executor) execute(ctx context.Context, ref github.Ref, params rules.MergeParams) (Outcome, error) {
	logger := log.FromContext(ctx)
	label := params.Label()

	present, err := e.provider.LabelExists(ctx, label, ref)
	if err != nil {
		logger.Error(err, "Could not determine merge label presence, leaving pull request untouched", "label", label)
		return OutcomeLabelCheckFailed, fmt.Errorf("checking label %q: %w", label, err)
	}

	switch {
	case present && params.AutoMerge:
		result, err := e.provider.MergePullRequest(ctx, ref, github.MergeMethodSquash)
		if err != nil {
			logger.Error(err, "Failed to merge pull request")
			return OutcomeMutationFailed, fmt.Errorf("merging: %w", err)
		}
		if !result.Merged {
			err := fmt.Errorf("merge not performed: %s", result.Message)
			logger.Error(err, "GitHub declined the merge")
			return OutcomeMutationFailed, err
		}
		logger.Info("Merged pull request", "sha", result.SHA)
		return OutcomeMerged, nil

	case !present && !params.AutoMerge:
		if err := e.provider.AddLabel(ctx, ref, label); err != nil {
			logger.Error(err, "Failed to add merge label", "label", label)
			return OutcomeMutationFailed, fmt.Errorf("adding label %q: %w", label, err)
		}
		logger.Info("Marked pull request ready to merge", "label", label)
		return OutcomeLabeled, nil

	case !present && params.AutoMerge:
		logger.Info("Merge withheld until the merge label is applied", "label", label)
		return OutcomeWithheld, nil

	default:
		logger.V(1).Info("Pull request already carries the merge label", "label", label)
		return OutcomeAlreadyLabeled, nil
	}
}

// stage runs fn inside its own span
func (e *Executor) stage(ctx context.Context, name string, fn func(context.Context, trace.Span) (bool, error)) (bool, error) {
	ctx, span := e.tracer.Start(ctx, "merge."+name)
	defer span.End()

	passed, err := fn(ctx, span)
	span.SetAttributes(attribute.Bool("merge.passed", passed))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return passed, err
}
