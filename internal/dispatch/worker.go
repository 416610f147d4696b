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
	"fmt"
	"sync"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/tari-project/gh-pilot-sub000/internal/event"
	"github.com/tari-project/gh-pilot-sub000/internal/rules"
)

// ErrNotRunning is returned by Submit when the worker loop is not running
var ErrNotRunning = errors.New("worker is not running")

// Message asks an executor to run one action for one matched rule.
// Messages are values; executors must not modify the event.
type Message struct {
	RuleName string
	Event    *event.Event
	Action   rules.Action
}

// Handler executes messages
type Handler interface {
	Handle(ctx context.Context, msg Message) rules.ActionResult
}

// HandlerFunc adapts a function to the Handler interface
type HandlerFunc func(ctx context.Context, msg Message) rules.ActionResult

// Handle calls f(ctx, msg)
func (f HandlerFunc) Handle(ctx context.Context, msg Message) rules.ActionResult {
	return f(ctx, msg)
}

type envelope struct {
	ctx   context.Context
	msg   Message
	reply chan rules.ActionResult
}

// Worker owns one executor and is reachable only through Submit. The loop
// receives messages and handles each in its own goroutine, so a slow
// message does not hold up the next one.
type Worker struct {
	name    string
	handler Handler
	inbox   chan envelope

	mu      sync.Mutex
	running bool
	stopped chan struct{}
}

// NewWorker creates a stopped worker around handler
func NewWorker(name string, handler Handler) *Worker {
	return &Worker{
		name:    name,
		handler: handler,
		inbox:   make(chan envelope),
	}
}

// Name returns the worker's name
func (w *Worker) Name() string { return w.name }

// Running reports whether the worker loop is accepting messages
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Start runs the worker loop until ctx is canceled. It waits for in-flight
// messages to finish before returning.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("worker %s is already running", w.name)
	}
	stopped := make(chan struct{})
	w.running = true
	w.stopped = stopped
	w.mu.Unlock()

	logger := log.FromContext(ctx).WithValues("worker", w.name)
	logger.Info("Starting worker")

	var inflight sync.WaitGroup
	defer func() {
		w.mu.Lock()
		w.running = false
		close(stopped)
		w.mu.Unlock()

		inflight.Wait()
		logger.Info("Worker stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case env := <-w.inbox:
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				env.reply <- w.handler.Handle(env.ctx, env.msg)
			}()
		}
	}
}

// Submit hands msg to the worker and returns a channel that receives the
// result. It fails with ErrNotRunning if the loop is not running.
func (w *Worker) Submit(ctx context.Context, msg Message) (<-chan rules.ActionResult, error) {
	w.mu.Lock()
	running, stopped := w.running, w.stopped
	w.mu.Unlock()

	if !running {
		return nil, ErrNotRunning
	}

	reply := make(chan rules.ActionResult, 1)
	select {
	case w.inbox <- envelope{ctx: ctx, msg: msg, reply: reply}:
		return reply, nil
	case <-stopped:
		return nil, ErrNotRunning
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
