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

// Package dispatch routes webhook events to action executors.
//
// A Dispatcher holds the rule registry and a route per action kind. For each
// event it evaluates every rule in its own goroutine; a matching rule turns
// into one Message per action, which is submitted to the Worker registered
// for that action's kind.
//
// Workers are small actors: a goroutine owning one Handler, reachable only
// through Submit. Messages are immutable values, so executors share no state
// with each other except the GitHub provider behind them.
//
// An action whose kind has no route, or whose worker is not running, ends as
// rules.Indeterminate. That is logged and counted but never retried, and it
// does not stop other rules from running.
//
// Example usage:
//
//	labels := dispatch.NewWorker("labels", actions.NewExecutor(provider))
//	go labels.Start(ctx)
//
//	d := dispatch.NewDispatcher(registry, evaluator,
//	    dispatch.WithRoute(labels, rules.KindAddLabel, rules.KindRemoveLabel),
//	    dispatch.WithFileFetcher(provider),
//	)
//	results := d.Dispatch(ctx, ev)
package dispatch
