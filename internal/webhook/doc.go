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

// Package webhook implements the HTTP endpoint that receives GitHub webhook
// deliveries and hands them to the rule dispatcher.
//
// Endpoints:
//   - POST /webhook: signed webhook deliveries
//   - GET /healthz: liveness probe, answers "OK"
//   - GET /metrics: Prometheus exposition
//
// Webhook Security:
//
// Deliveries must carry an X-Hub-Signature-256 header (or the legacy
// X-Hub-Signature) with an HMAC of the body computed with the webhook secret.
// Requests with invalid or missing signatures are rejected with HTTP 401.
//
// Event Handling:
//
// A ping delivery is answered with 200. Every other delivery is parsed into
// an event.Event and answered with 202 Accepted before the dispatcher runs,
// so GitHub never waits on rule evaluation. Payloads that cannot be parsed
// are rejected with 400. A delivery whose X-GitHub-Delivery ID was already
// accepted is answered with 200 and not dispatched again.
//
// Rate Limiting:
//
// Deliveries are rate-limited per repository with a token bucket. Requests
// exceeding the limit receive HTTP 429 Too Many Requests.
//
// Example usage:
//
//	server := webhook.NewServer("0.0.0.0", 8080, secret, dispatcher,
//		webhook.WithRateLimit(10, 20))
//	if err := server.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
package webhook
