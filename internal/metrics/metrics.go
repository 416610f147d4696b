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

// Package metrics exposes Prometheus counters for event handling.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghpilot_events_received_total",
			Help: "Total number of webhook events accepted for dispatch",
		},
		[]string{"kind"},
	)

	webhookRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghpilot_webhook_rejections_total",
			Help: "Total number of webhook deliveries rejected before dispatch",
		},
		[]string{"reason"},
	)

	actionResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghpilot_action_results_total",
			Help: "Total number of dispatched actions by outcome",
		},
		[]string{"rule", "action", "result"},
	)

	mergeOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghpilot_merge_outcomes_total",
			Help: "Total number of merge policy runs by outcome",
		},
		[]string{"outcome"},
	)
)

// EventReceived counts an accepted webhook event
func EventReceived(kind string) {
	eventsReceived.WithLabelValues(kind).Inc()
}

// Rejection reasons reported by WebhookRejected
const (
	RejectMethod      = "method"
	RejectBody        = "body"
	RejectSignature   = "signature"
	RejectPayload     = "payload"
	RejectRateLimited = "rate_limited"
	RejectDuplicate   = "duplicate"
)

// WebhookRejected counts a delivery rejected for reason, one of the Reject
// constants
func WebhookRejected(reason string) {
	webhookRejections.WithLabelValues(reason).Inc()
}

// ActionCompleted counts one action invocation
func ActionCompleted(rule, action, result string) {
	actionResults.WithLabelValues(rule, action, result).Inc()
}

// MergeOutcome counts one merge policy run
func MergeOutcome(outcome string) {
	mergeOutcomes.WithLabelValues(outcome).Inc()
}
