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

package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-github/v66/github"
	"github.com/shurcooL/githubv4"
)

var testRef = Ref{Owner: "tari-project", Repo: "tari", Number: 42}

// newTestClient builds a client whose REST and GraphQL endpoints both point at handler
func newTestClient(t *testing.T, handler http.HandlerFunc) *githubClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := &githubClient{
		client:  github.NewClient(nil),
		graphql: githubv4.NewEnterpriseClient(server.URL+"/graphql", server.Client()),
		retryConfig: &RetryConfig{
			MaxRetries:     3,
			InitialBackoff: 10 * time.Millisecond,
			MaxBackoff:     100 * time.Millisecond,
		},
	}
	client.client.BaseURL, _ = client.client.BaseURL.Parse(server.URL + "/")
	return client
}

// TestNewClient tests the creation of a new GitHub provider
func TestNewClient(t *testing.T) {
	tests := []struct {
		name      string
		opts      []Option
		wantError bool
	}{
		{
			name:      "Default client",
			wantError: false,
		},
		{
			name:      "Enterprise client",
			opts:      []Option{WithEnterpriseURL("https://github.example.com/")},
			wantError: false,
		},
		{
			name:      "Custom retry config",
			opts:      []Option{WithRetryConfig(&RetryConfig{MaxRetries: 1})},
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewClient(http.DefaultClient, tt.opts...)
			if tt.wantError && err == nil {
				t.Errorf("NewClient() expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("NewClient() unexpected error: %v", err)
			}
			if !tt.wantError && provider == nil {
				t.Errorf("NewClient() returned nil provider")
			}
		})
	}
}

func TestRefString(t *testing.T) {
	if got, want := testRef.String(), "tari-project/tari#42"; got != want {
		t.Errorf("Ref.String() = %q, want %q", got, want)
	}
}

// TestFetchPullRequest tests fetching pull request metadata
func TestFetchPullRequest(t *testing.T) {
	tests := []struct {
		name       string
		mockPR     *github.PullRequest
		wantPR     *PullRequest
		wantError  bool
		statusCode int
	}{
		{
			name: "Successfully fetches pull request",
			mockPR: &github.PullRequest{
				Number:         github.Int(42),
				Title:          github.String("feat: add ack counting"),
				Body:           github.String("Counts ACK comments"),
				State:          github.String("open"),
				Mergeable:      github.Bool(false),
				MergeableState: github.String("dirty"),
				Additions:      github.Int(120),
				Deletions:      github.Int(30),
				ChangedFiles:   github.Int(4),
				Commits:        github.Int(2),
				Head:           &github.PullRequestBranch{SHA: github.String("abc123")},
				User:           &github.User{Login: github.String("sdbondi")},
				Labels: []*github.Label{
					{Name: github.String("P-merge")},
				},
			},
			wantPR: &PullRequest{
				Number:         42,
				Title:          "feat: add ack counting",
				Description:    "Counts ACK comments",
				HeadSHA:        "abc123",
				Author:         "sdbondi",
				State:          "open",
				Mergeable:      github.Bool(false),
				MergeableState: "dirty",
				Labels:         []string{"P-merge"},
				Additions:      120,
				Deletions:      30,
				ChangedFiles:   4,
				Commits:        2,
			},
			statusCode: http.StatusOK,
		},
		{
			name:       "Handles not found error",
			wantError:  true,
			statusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				expectedPath := "/repos/tari-project/tari/pulls/42"
				if r.URL.Path != expectedPath {
					t.Errorf("Expected path %s, got %s", expectedPath, r.URL.Path)
				}

				if tt.statusCode != http.StatusOK {
					w.WriteHeader(tt.statusCode)
					w.Write([]byte(`{"message":"Not Found"}`))
					return
				}

				json.NewEncoder(w).Encode(tt.mockPR)
			})

			pr, err := client.FetchPullRequest(context.Background(), testRef)

			if tt.wantError && err == nil {
				t.Errorf("FetchPullRequest() expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("FetchPullRequest() unexpected error: %v", err)
			}
			if tt.wantPR != nil {
				if diff := cmp.Diff(tt.wantPR, pr); diff != "" {
					t.Errorf("FetchPullRequest() mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

// TestFetchPullRequestFilesPagination tests pagination handling for large PRs
func TestFetchPullRequestFilesPagination(t *testing.T) {
	pageCount := 0

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		pageCount++

		switch pageCount {
		case 1:
			w.Header().Set("Link", `<http://api.github.com/repos/tari-project/tari/pulls/42/files?page=2>; rel="next"`)
			json.NewEncoder(w).Encode([]*github.CommitFile{
				{
					Filename:  github.String("base_layer/core/src/lib.rs"),
					Status:    github.String("modified"),
					Additions: github.Int(10),
					Changes:   github.Int(10),
					Patch:     github.String("@@ -1 +1,10 @@"),
				},
			})
		case 2:
			json.NewEncoder(w).Encode([]*github.CommitFile{
				{
					Filename: github.String("docs/logo.png"),
					Status:   github.String("added"),
				},
			})
		default:
			t.Errorf("Unexpected page request: %d", pageCount)
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	files, err := client.FetchPullRequestFiles(context.Background(), testRef)
	if err != nil {
		t.Fatalf("FetchPullRequestFiles() unexpected error: %v", err)
	}

	want := []*File{
		{Filename: "base_layer/core/src/lib.rs", Status: "modified", Additions: 10, Changes: 10},
		{Filename: "docs/logo.png", Status: "added", Binary: true},
	}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("FetchPullRequestFiles() mismatch (-want +got):\n%s", diff)
	}
	if pageCount != 2 {
		t.Errorf("FetchPullRequestFiles() made %d requests, want 2", pageCount)
	}
}

func TestFetchContributors(t *testing.T) {
	pageCount := 0

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		pageCount++
		if r.URL.Path != "/repos/tari-project/tari/contributors" {
			t.Errorf("Expected contributors path, got %s", r.URL.Path)
		}

		if pageCount == 1 {
			w.Header().Set("Link", `<http://api.github.com/repos/tari-project/tari/contributors?page=2>; rel="next"`)
			w.Write([]byte(`[{"login":"alice"},{"login":"bob"}]`))
			return
		}
		w.Write([]byte(`[{"login":"che"}]`))
	})

	logins, err := client.FetchContributors(context.Background(), "tari-project", "tari")
	if err != nil {
		t.Fatalf("FetchContributors() unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"alice", "bob", "che"}, logins); diff != "" {
		t.Errorf("FetchContributors() mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchPullRequestComments(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/tari-project/tari/issues/42/comments" {
			t.Errorf("Expected comments path, got %s", r.URL.Path)
		}
		w.Write([]byte(`[
			{"user":{"login":"bob"},"body":"ACK"},
			{"user":{"login":"rando"},"body":":+1:"}
		]`))
	})

	comments, err := client.FetchPullRequestComments(context.Background(), testRef)
	if err != nil {
		t.Fatalf("FetchPullRequestComments() unexpected error: %v", err)
	}

	want := []Comment{
		{Author: "bob", Body: "ACK"},
		{Author: "rando", Body: ":+1:"},
	}
	if diff := cmp.Diff(want, comments); diff != "" {
		t.Errorf("FetchPullRequestComments() mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchReviewSummary(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     *ReviewSummary
	}{
		{
			name: "Approvals only",
			response: `{"data":{"repository":{"pullRequest":{
				"latestOpinionatedReviews":{"nodes":[{"state":"APPROVED"},{"state":"APPROVED"}]},
				"reviews":{"totalCount":3}}}}}`,
			want: &ReviewSummary{Approvals: 2, Total: 3},
		},
		{
			name: "Outstanding change request",
			response: `{"data":{"repository":{"pullRequest":{
				"latestOpinionatedReviews":{"nodes":[{"state":"APPROVED"},{"state":"CHANGES_REQUESTED"}]},
				"reviews":{"totalCount":2}}}}}`,
			want: &ReviewSummary{Approvals: 1, ChangesRequested: true, Total: 2},
		},
		{
			name: "No reviews",
			response: `{"data":{"repository":{"pullRequest":{
				"latestOpinionatedReviews":{"nodes":[]},
				"reviews":{"totalCount":0}}}}}`,
			want: &ReviewSummary{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/graphql" {
					t.Errorf("Expected graphql path, got %s", r.URL.Path)
				}
				body, _ := io.ReadAll(r.Body)
				if !strings.Contains(string(body), "latestOpinionatedReviews") {
					t.Errorf("Query does not request latestOpinionatedReviews: %s", body)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.response))
			})

			got, err := client.FetchReviewSummary(context.Background(), testRef)
			if err != nil {
				t.Fatalf("FetchReviewSummary() unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FetchReviewSummary() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFetchCheckRunStatus(t *testing.T) {
	success := CheckStatusSuccess

	tests := []struct {
		name     string
		response string
		want     *CheckRunStatus
	}{
		{
			name: "Mixed check runs and status contexts",
			response: `{"data":{"repository":{"pullRequest":{"commits":{"nodes":[{"commit":{
				"statusCheckRollup":{"state":"SUCCESS","contexts":{"nodes":[
					{"__typename":"CheckRun","name":"test","status":"COMPLETED","conclusion":"SUCCESS","isRequired":true},
					{"__typename":"CheckRun","name":"lint","status":"IN_PROGRESS","conclusion":null,"isRequired":false},
					{"__typename":"StatusContext","context":"ci/jenkins","state":"ERROR","isRequired":true}
				]}}}}]}}}}}`,
			want: &CheckRunStatus{
				Overall: &success,
				Checks: []CheckRun{
					{Name: "test", IsRequired: true, Result: CheckResultSuccess},
					{Name: "lint", IsRequired: false, Result: CheckResultPending},
					{Name: "ci/jenkins", IsRequired: true, Result: CheckResultFailure},
				},
			},
		},
		{
			name:     "Commit without rollup",
			response: `{"data":{"repository":{"pullRequest":{"commits":{"nodes":[{"commit":{"statusCheckRollup":null}}]}}}}}`,
			want:     &CheckRunStatus{Checks: []CheckRun{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.response))
			})

			got, err := client.FetchCheckRunStatus(context.Background(), testRef)
			if err != nil {
				t.Fatalf("FetchCheckRunStatus() unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FetchCheckRunStatus() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// pagedGraphQL serves pages[cursor], where the first request carries a null cursor
func pagedGraphQL(t *testing.T, pages map[string]string, requests *int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables struct {
				Cursor *string `json:"cursor"`
			} `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode GraphQL request: %v", err)
		}
		*requests++

		cursor := ""
		if req.Variables.Cursor != nil {
			cursor = *req.Variables.Cursor
		}
		page, ok := pages[cursor]
		if !ok {
			t.Errorf("Unexpected cursor %q", cursor)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(page))
	}
}

func TestFetchReviewSummaryPagination(t *testing.T) {
	var requests int
	client := newTestClient(t, pagedGraphQL(t, map[string]string{
		"": `{"data":{"repository":{"pullRequest":{
			"latestOpinionatedReviews":{"nodes":[{"state":"APPROVED"},{"state":"APPROVED"}],
				"pageInfo":{"hasNextPage":true,"endCursor":"r2"}},
			"reviews":{"totalCount":140}}}}}`,
		"r2": `{"data":{"repository":{"pullRequest":{
			"latestOpinionatedReviews":{"nodes":[{"state":"CHANGES_REQUESTED"},{"state":"APPROVED"}],
				"pageInfo":{"hasNextPage":false,"endCursor":"r3"}},
			"reviews":{"totalCount":140}}}}}`,
	}, &requests))

	got, err := client.FetchReviewSummary(context.Background(), testRef)
	if err != nil {
		t.Fatalf("FetchReviewSummary() unexpected error: %v", err)
	}

	want := &ReviewSummary{Approvals: 3, ChangesRequested: true, Total: 140}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FetchReviewSummary() mismatch (-want +got):\n%s", diff)
	}
	if requests != 2 {
		t.Errorf("FetchReviewSummary() made %d requests, want 2", requests)
	}
}

func TestFetchCheckRunStatusPagination(t *testing.T) {
	pending := CheckStatusPending
	var requests int
	client := newTestClient(t, pagedGraphQL(t, map[string]string{
		"": `{"data":{"repository":{"pullRequest":{"commits":{"nodes":[{"commit":{
			"statusCheckRollup":{"state":"PENDING","contexts":{"nodes":[
				{"__typename":"CheckRun","name":"build","status":"COMPLETED","conclusion":"SUCCESS","isRequired":true}
			],"pageInfo":{"hasNextPage":true,"endCursor":"c2"}}}}}]}}}}}`,
		"c2": `{"data":{"repository":{"pullRequest":{"commits":{"nodes":[{"commit":{
			"statusCheckRollup":{"state":"PENDING","contexts":{"nodes":[
				{"__typename":"StatusContext","context":"ci/deploy","state":"PENDING","isRequired":true}
			],"pageInfo":{"hasNextPage":false,"endCursor":"c3"}}}}}]}}}}}`,
	}, &requests))

	got, err := client.FetchCheckRunStatus(context.Background(), testRef)
	if err != nil {
		t.Fatalf("FetchCheckRunStatus() unexpected error: %v", err)
	}

	want := &CheckRunStatus{
		Overall: &pending,
		Checks: []CheckRun{
			{Name: "build", IsRequired: true, Result: CheckResultSuccess},
			{Name: "ci/deploy", IsRequired: true, Result: CheckResultPending},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FetchCheckRunStatus() mismatch (-want +got):\n%s", diff)
	}
	if requests != 2 {
		t.Errorf("FetchCheckRunStatus() made %d requests, want 2", requests)
	}
}

func TestLabelExists(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/tari-project/tari/issues/42/labels" {
			t.Errorf("Expected labels path, got %s", r.URL.Path)
		}
		w.Write([]byte(`[{"name":"P-merge"},{"name":"needs-review"}]`))
	})

	tests := []struct {
		label string
		want  bool
	}{
		{"P-merge", true},
		{"p-MERGE", true},
		{"conflicts", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := client.LabelExists(context.Background(), tt.label, testRef)
			if err != nil {
				t.Fatalf("LabelExists() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("LabelExists(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}

func TestRemoveLabel(t *testing.T) {
	tests := []struct {
		name         string
		onlyIfExists bool
		labels       string
		deleteStatus int
		wantMutated  bool
		wantDeletes  int
		wantError    bool
	}{
		{
			name:         "Absent label with existence check makes no mutation",
			onlyIfExists: true,
			labels:       `[{"name":"other"}]`,
			wantMutated:  false,
			wantDeletes:  0,
		},
		{
			name:         "Present label with existence check is removed",
			onlyIfExists: true,
			labels:       `[{"name":"conflicts"}]`,
			deleteStatus: http.StatusOK,
			wantMutated:  true,
			wantDeletes:  1,
		},
		{
			name:         "Absent label without existence check is not an error",
			onlyIfExists: false,
			deleteStatus: http.StatusNotFound,
			wantMutated:  false,
			wantDeletes:  1,
		},
		{
			name:         "Server error is reported",
			onlyIfExists: false,
			deleteStatus: http.StatusInternalServerError,
			wantDeletes:  1,
			wantError:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deletes := 0
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				switch r.Method {
				case http.MethodGet:
					w.Write([]byte(tt.labels))
				case http.MethodDelete:
					deletes++
					if r.URL.Path != "/repos/tari-project/tari/issues/42/labels/conflicts" {
						t.Errorf("Unexpected delete path %s", r.URL.Path)
					}
					w.WriteHeader(tt.deleteStatus)
					if tt.deleteStatus == http.StatusOK {
						w.Write([]byte(`[]`))
					} else {
						w.Write([]byte(`{"message":"Label does not exist"}`))
					}
				}
			})

			mutated, err := client.RemoveLabel(context.Background(), testRef, "conflicts", tt.onlyIfExists)
			if tt.wantError && err == nil {
				t.Errorf("RemoveLabel() expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("RemoveLabel() unexpected error: %v", err)
			}
			if mutated != tt.wantMutated {
				t.Errorf("RemoveLabel() mutated = %v, want %v", mutated, tt.wantMutated)
			}
			if deletes != tt.wantDeletes {
				t.Errorf("RemoveLabel() issued %d deletes, want %d", deletes, tt.wantDeletes)
			}
		})
	}
}

func TestAddLabel(t *testing.T) {
	var got []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected method POST, got %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`[{"name":"needs-review"}]`))
	})

	if err := client.AddLabel(context.Background(), testRef, "needs-review"); err != nil {
		t.Fatalf("AddLabel() unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"needs-review"}, got); diff != "" {
		t.Errorf("AddLabel() request mismatch (-want +got):\n%s", diff)
	}
}

func TestMergePullRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		expectedPath := "/repos/tari-project/tari/pulls/42/merge"
		if r.URL.Path != expectedPath || r.Method != http.MethodPut {
			t.Errorf("Expected PUT %s, got %s %s", expectedPath, r.Method, r.URL.Path)
		}

		var req struct {
			MergeMethod string `json:"merge_method"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.MergeMethod != "squash" {
			t.Errorf("merge_method = %q, want squash", req.MergeMethod)
		}

		fmt.Fprint(w, `{"merged":true,"sha":"def456","message":"Pull Request successfully merged"}`)
	})

	result, err := client.MergePullRequest(context.Background(), testRef, MergeMethodSquash)
	if err != nil {
		t.Fatalf("MergePullRequest() unexpected error: %v", err)
	}

	want := &MergeResult{Merged: true, SHA: "def456", Message: "Pull Request successfully merged"}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Errorf("MergePullRequest() mismatch (-want +got):\n%s", diff)
	}
}
