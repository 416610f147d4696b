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

package dispatch

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/tari-project/gh-pilot-sub000/internal/event"
	"github.com/tari-project/gh-pilot-sub000/internal/github"
	"github.com/tari-project/gh-pilot-sub000/internal/metrics"
	"github.com/tari-project/gh-pilot-sub000/internal/predicate"
	"github.com/tari-project/gh-pilot-sub000/internal/rules"
)

// Result reports the outcome of one action of one matched rule
type Result struct {
	Rule   string
	Action rules.ActionKind
	Status rules.ActionResult
}

// FileFetcher lists the files changed by a pull request
type FileFetcher interface {
	FetchPullRequestFiles(ctx context.Context, ref github.Ref) ([]*github.File, error)
}

// Dispatcher evaluates registered rules against events and routes the
// actions of matching rules to workers by action kind
type Dispatcher struct {
	registry  *rules.Registry
	evaluator *predicate.Evaluator
	routes    map[rules.ActionKind]*Worker
	files     FileFetcher
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithRoute sends actions of the given kinds to w
func WithRoute(w *Worker, kinds ...rules.ActionKind) Option {
	return func(d *Dispatcher) {
		for _, kind := range kinds {
			d.routes[kind] = w
		}
	}
}

// WithFileFetcher attaches the pull request file list to events before
// evaluation whenever a registered rule needs it
func WithFileFetcher(f FileFetcher) Option {
	return func(d *Dispatcher) {
		d.files = f
	}
}

// NewDispatcher creates a dispatcher over registry
func NewDispatcher(registry *rules.Registry, evaluator *predicate.Evaluator, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:  registry,
		evaluator: evaluator,
		routes:    map[rules.ActionKind]*Worker{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch evaluates every rule against ev concurrently and waits for the
// actions of matching rules to finish. Results are in rule order, then
// action order. A failing or unroutable action never affects other rules.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *event.Event) []Result {
	logger := log.FromContext(ctx).WithValues("event", ev.Kind(), "delivery", ev.DeliveryID())
	ctx = log.IntoContext(ctx, logger)

	ruleset := d.registry.Rules()
	ev = d.enrich(ctx, ev, ruleset)

	logger.V(1).Info("Dispatching event", "summary", ev.Summary(), "rules", len(ruleset))

	perRule := make([][]Result, len(ruleset))
	var g errgroup.Group
	for i, rule := range ruleset {
		g.Go(func() error {
			if !d.evaluator.Matches(rule.Predicate, ev) {
				return nil
			}
			logger.Info("Rule matched", "rule", rule.Name, "predicate", rule.Predicate.Name())
			perRule[i] = d.run(ctx, rule, ev)
			return nil
		})
	}
	_ = g.Wait()

	var results []Result
	for _, r := range perRule {
		results = append(results, r...)
	}
	return results
}

// run submits one message per action and collects the results
func (d *Dispatcher) run(ctx context.Context, rule rules.Rule, ev *event.Event) []Result {
	logger := log.FromContext(ctx).WithValues("rule", rule.Name)

	pending := make([]<-chan rules.ActionResult, len(rule.Actions))
	for i, action := range rule.Actions {
		pending[i] = d.submit(ctx, Message{RuleName: rule.Name, Event: ev, Action: action})
	}

	results := make([]Result, len(rule.Actions))
	for i, action := range rule.Actions {
		status := rules.Indeterminate
		if pending[i] != nil {
			select {
			case status = <-pending[i]:
			case <-ctx.Done():
			}
		}

		results[i] = Result{Rule: rule.Name, Action: action.Kind(), Status: status}
		metrics.ActionCompleted(rule.Name, string(action.Kind()), status.String())

		switch status {
		case rules.Success:
			logger.V(1).Info("Action succeeded", "action", action.Kind())
		case rules.Failed:
			logger.Info("Action failed", "action", action.Kind())
		default:
			logger.Info("Action was not handled", "action", action.Kind())
		}
	}
	return results
}

// submit routes msg to its worker. A nil channel means nobody took it.
func (d *Dispatcher) submit(ctx context.Context, msg Message) <-chan rules.ActionResult {
	logger := log.FromContext(ctx)
	kind := msg.Action.Kind()

	w, ok := d.routes[kind]
	if !ok {
		logger.Info("No worker registered for action", "action", kind)
		return nil
	}

	reply, err := w.Submit(ctx, msg)
	if err != nil {
		if errors.Is(err, ErrNotRunning) {
			logger.Info("Worker is not running", "action", kind, "worker", w.Name())
		} else {
			logger.Error(err, "Failed to submit action", "action", kind, "worker", w.Name())
		}
		return nil
	}
	return reply
}

// enrich attaches the pull request's file list when a rule needs it. A
// failed fetch is logged and evaluation continues on payload statistics.
func (d *Dispatcher) enrich(ctx context.Context, ev *event.Event, ruleset []rules.Rule) *event.Event {
	if d.files == nil || ev.HasFiles() || ev.Kind() != event.KindPullRequest {
		return ev
	}

	needed := false
	for _, rule := range ruleset {
		if predicate.NeedsFiles(rule.Predicate) {
			needed = true
			break
		}
	}
	if !needed {
		return ev
	}

	ref, ok := ev.RelatedPullRequest()
	if !ok {
		return ev
	}

	files, err := d.files.FetchPullRequestFiles(ctx, ref)
	if err != nil {
		log.FromContext(ctx).Error(err, "Failed to fetch pull request files", "pullRequest", ref.String())
		return ev
	}
	return ev.WithFiles(files)
}
