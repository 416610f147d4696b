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

// Package github provides the GitHub Provider used by gh-pilot.
//
// The Provider interface is the only way the rule engine reads or mutates
// GitHub state. The implementation in this package uses go-github for REST
// calls (contributors, comments, labels, pull requests, merges) and githubv4
// for the two GraphQL queries that REST cannot answer cheaply: the latest
// opinionated review of every reviewer, and the check rollup of the head
// commit including each context's required flag.
//
// Authentication:
//
// NewClient takes an *http.Client that already carries credentials. Use a
// personal access token through oauth2, or a GitHub App installation
// transport. The token needs:
//   - repo (issues, pull requests, labels, merges)
//   - read:org when contributor lists are private
//
// Example usage:
//
//	provider, err := github.NewClient(httpClient)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ref := github.Ref{Owner: "tari-project", Repo: "tari", Number: 42}
//	summary, err := provider.FetchReviewSummary(ctx, ref)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s: %d approvals\n", ref, summary.Approvals)
//
// Retry Logic:
//
// Transient failures are retried with exponential backoff:
//   - Initial backoff: 100 milliseconds
//   - Maximum backoff: 30 seconds
//   - Maximum retries: 3
//
// Retries cover 429, 502, 503, 504 and secondary rate limits. Primary rate
// limit errors and other 4xx responses are returned immediately; the next
// webhook delivery re-triggers whatever work was dropped.
package github
