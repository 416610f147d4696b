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

// Package actions executes one-shot label mutations for matched rules.
package actions

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/tari-project/gh-pilot-sub000/internal/dispatch"
	"github.com/tari-project/gh-pilot-sub000/internal/event"
	"github.com/tari-project/gh-pilot-sub000/internal/github"
	"github.com/tari-project/gh-pilot-sub000/internal/rules"
)

// Executor handles AddLabel, RemoveLabel and CheckConflicts actions
type Executor struct {
	provider github.Provider
}

var _ dispatch.Handler = (*Executor)(nil)

// NewExecutor creates an executor that mutates GitHub through provider
func NewExecutor(provider github.Provider) *Executor {
	return &Executor{provider: provider}
}

// Handle runs msg.Action. Provider errors are logged and reported as
// Failed; they are not retried.
func (e *Executor) Handle(ctx context.Context, msg dispatch.Message) rules.ActionResult {
	logger := log.FromContext(ctx).WithValues(
		"rule", msg.RuleName,
		"event", msg.Event.Kind(),
		"action", msg.Action.Kind(),
	)

	var err error
	switch action := msg.Action.(type) {
	case rules.AddLabel:
		err = e.addLabel(ctx, logger, msg.Event, action.Label)
	case rules.RemoveLabel:
		err = e.removeLabel(ctx, logger, msg.Event, action.Label)
	case rules.CheckConflicts:
		err = e.checkConflicts(ctx, logger, msg.Event)
	default:
		logger.Info("Executor does not handle action")
		return rules.Indeterminate
	}

	if err != nil {
		logger.Error(err, "Action failed")
		return rules.Failed
	}
	return rules.Success
}

// target resolves the pull request the event concerns, or the issue for
// issues events
func target(ev *event.Event) (github.Ref, error) {
	if ref, ok := ev.RelatedPullRequest(); ok {
		return ref, nil
	}
	if ev.Kind() == event.KindIssues {
		if ref, ok := ev.Issue(); ok {
			return ref, nil
		}
	}
	return github.Ref{}, fmt.Errorf("%s event does not identify a pull request or issue", ev.Kind())
}

func (e *Executor) addLabel(ctx context.Context, logger logr.Logger, ev *event.Event, label string) error {
	ref, err := target(ev)
	if err != nil {
		return err
	}

	if err := e.provider.AddLabel(ctx, ref, label); err != nil {
		return fmt.Errorf("adding label %q to %s: %w", label, ref, err)
	}
	logger.Info("Added label", "label", label, "target", ref.String())
	return nil
}

// removeLabel is idempotent: removing an absent label succeeds without a
// mutation
func (e *Executor) removeLabel(ctx context.Context, logger logr.Logger, ev *event.Event, label string) error {
	ref, err := target(ev)
	if err != nil {
		return err
	}

	removed, err := e.provider.RemoveLabel(ctx, ref, label, false)
	if err != nil {
		return fmt.Errorf("removing label %q from %s: %w", label, ref, err)
	}
	if removed {
		logger.Info("Removed label", "label", label, "target", ref.String())
	} else {
		logger.V(1).Info("Label was not present", "label", label, "target", ref.String())
	}
	return nil
}

// checkConflicts keeps rules.ConflictLabel in sync with the pull request's
// mergeable flag. While GitHub is still computing mergeability nothing
// changes; a later event re-evaluates.
func (e *Executor) checkConflicts(ctx context.Context, logger logr.Logger, ev *event.Event) error {
	ref, ok := ev.RelatedPullRequest()
	if !ok {
		return fmt.Errorf("%s event does not identify a pull request", ev.Kind())
	}

	pr, err := e.provider.FetchPullRequest(ctx, ref)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", ref, err)
	}

	switch {
	case pr.Mergeable == nil:
		logger.V(1).Info("Mergeability not computed yet", "target", ref.String())
		return nil
	case !*pr.Mergeable:
		if err := e.provider.AddLabel(ctx, ref, rules.ConflictLabel); err != nil {
			return fmt.Errorf("adding label %q to %s: %w", rules.ConflictLabel, ref, err)
		}
		logger.Info("Pull request has conflicts", "target", ref.String())
		return nil
	default:
		removed, err := e.provider.RemoveLabel(ctx, ref, rules.ConflictLabel, true)
		if err != nil {
			return fmt.Errorf("removing label %q from %s: %w", rules.ConflictLabel, ref, err)
		}
		if removed {
			logger.Info("Pull request conflicts resolved", "target", ref.String())
		}
		return nil
	}
}
