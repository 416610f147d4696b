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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	tests := []struct {
		name      string
		increment func()
		read      func() float64
	}{
		{
			name:      "Events received",
			increment: func() { EventReceived("pull_request") },
			read:      func() float64 { return testutil.ToFloat64(eventsReceived.WithLabelValues("pull_request")) },
		},
		{
			name:      "Webhook rejections",
			increment: func() { WebhookRejected(RejectSignature) },
			read:      func() float64 { return testutil.ToFloat64(webhookRejections.WithLabelValues("signature")) },
		},
		{
			name:      "Action results",
			increment: func() { ActionCompleted("label-large", "add_label", "success") },
			read: func() float64 {
				return testutil.ToFloat64(actionResults.WithLabelValues("label-large", "add_label", "success"))
			},
		},
		{
			name:      "Merge outcomes",
			increment: func() { MergeOutcome("merged") },
			read:      func() float64 { return testutil.ToFloat64(mergeOutcomes.WithLabelValues("merged")) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.read()
			tt.increment()
			tt.increment()
			if got := tt.read() - before; got != 2 {
				t.Errorf("counter increased by %v, want 2", got)
			}
		})
	}
}
