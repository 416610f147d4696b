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

package webhook

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-logr/logr"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/tari-project/gh-pilot-sub000/internal/dispatch"
	"github.com/tari-project/gh-pilot-sub000/internal/event"
	"github.com/tari-project/gh-pilot-sub000/internal/metrics"
)

const (
	// GitHub caps webhook payloads at 25 MB
	maxPayloadBytes = 25 << 20

	defaultDeliveryCacheSize = 1024
)

// Dispatcher receives accepted events
type Dispatcher interface {
	Dispatch(ctx context.Context, ev *event.Event) []dispatch.Result
}

// Server handles GitHub webhook requests
type Server struct {
	addr          string
	port          int
	webhookSecret string
	dispatcher    Dispatcher
	server        *http.Server
	rateLimiter   *RateLimiter
	deliveries    *lru.Cache[string, struct{}]

	// background dispatches still running
	inflight sync.WaitGroup
}

// Option configures a Server
type Option func(*Server)

// WithRateLimit sets the per-repository delivery rate
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(s *Server) {
		s.rateLimiter = NewRateLimiter(limit, burst)
	}
}

// WithDeliveryCache remembers the last size accepted delivery IDs so that
// duplicate deliveries are acknowledged without being dispatched again.
// A size of zero or less disables the check.
func WithDeliveryCache(size int) Option {
	return func(s *Server) {
		s.deliveries = nil
		if size > 0 {
			s.deliveries, _ = lru.New[string, struct{}](size)
		}
	}
}

// RateLimiter provides per-repository rate limiting
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewServer creates a new webhook server
func NewServer(addr string, port int, webhookSecret string, dispatcher Dispatcher, opts ...Option) *Server {
	s := &Server{
		addr:          addr,
		port:          port,
		webhookSecret: webhookSecret,
		dispatcher:    dispatcher,
		rateLimiter:   NewRateLimiter(10, 20),
	}
	s.deliveries, _ = lru.New[string, struct{}](defaultDeliveryCacheSize)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewRateLimiter creates a token bucket per repository refilling at limit
// tokens per second
func NewRateLimiter(limit rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

// Allow checks if a request from the given repository should be allowed
func (rl *RateLimiter) Allow(repo string) bool {
	rl.mu.Lock()
	l, ok := rl.limiters[repo]
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[repo] = l
	}
	rl.mu.Unlock()

	return l.Allow()
}

// Handler returns the HTTP routes served by the webhook server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.handleWebhook)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.addr, s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.FromContext(ctx).Info("Starting webhook server", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Shutdown stops accepting deliveries and waits for running dispatches
func (s *Server) Shutdown(ctx context.Context) error {
	logger := log.FromContext(ctx)
	if s.server != nil {
		logger.Info("Shutting down webhook server")
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight dispatches: %w", ctx.Err())
	}
}

func (s *Server) duplicate(w http.ResponseWriter, logger logr.Logger) {
	logger.Info("Ignoring duplicate delivery")
	metrics.WebhookRejected(metrics.RejectDuplicate)
	w.WriteHeader(http.StatusOK)
}

// rateLimitKey buckets deliveries by repository. Deliveries without one
// (installation, organization and similar events) are bucketed by kind.
func rateLimitKey(ev *event.Event) string {
	if owner, name, ok := ev.Repository(); ok {
		return owner + "/" + name
	}
	return "event:" + string(ev.Kind())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	if r.Method != http.MethodPost {
		metrics.WebhookRejected(metrics.RejectMethod)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		logger.Error(err, "Failed to read request body")
		metrics.WebhookRejected(metrics.RejectBody)
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Hub-Signature-256")
	if signature == "" {
		signature = r.Header.Get("X-Hub-Signature")
	}
	if !ValidateSignature(payload, signature, s.webhookSecret) {
		logger.Info("Invalid webhook signature")
		metrics.WebhookRejected(metrics.RejectSignature)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	kind := r.Header.Get("X-GitHub-Event")
	delivery := r.Header.Get("X-GitHub-Delivery")
	logger = logger.WithValues("event", kind, "delivery", delivery)

	if kind == "ping" {
		logger.Info("Received ping")
		w.WriteHeader(http.StatusOK)
		return
	}

	ev, err := event.Parse(kind, delivery, payload)
	if err != nil {
		logger.Error(err, "Failed to parse webhook payload")
		metrics.WebhookRejected(metrics.RejectPayload)
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	track := s.deliveries != nil && delivery != ""
	if track && s.deliveries.Contains(delivery) {
		s.duplicate(w, logger)
		return
	}

	key := rateLimitKey(ev)
	if !s.rateLimiter.Allow(key) {
		logger.Info("Rate limit exceeded", "bucket", key)
		metrics.WebhookRejected(metrics.RejectRateLimited)
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	// Concurrent copies of one delivery can both pass Contains.
	if track {
		if seen, _ := s.deliveries.ContainsOrAdd(delivery, struct{}{}); seen {
			s.duplicate(w, logger)
			return
		}
	}

	metrics.EventReceived(kind)
	logger.V(1).Info("Accepted event", "summary", ev.Summary())
	w.WriteHeader(http.StatusAccepted)

	ctx := log.IntoContext(context.WithoutCancel(r.Context()), logger)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.dispatcher.Dispatch(ctx, ev)
	}()
}
