package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c := New(Config{BaseURL: server.URL, Token: "t0k3n", Owner: "acme", Repo: "widgets"})
	return c, server
}

func TestCreateIssue(t *testing.T) {
	var gotAuth, gotPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Issue{Number: 7, Title: "bug", State: "open"})
	})

	issue, err := c.CreateIssue(context.Background(), "bug", "body text", []string{"bug"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if issue.Number != 7 {
		t.Errorf("unexpected issue number: %d", issue.Number)
	}
	if gotAuth != "Bearer t0k3n" {
		t.Errorf("unexpected auth header: %q", gotAuth)
	}
	if gotPath != "/repos/acme/widgets/issues" {
		t.Errorf("unexpected path: %q", gotPath)
	}
}

func TestGetIssue_NotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetIssue(context.Background(), 999)
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListIssues_EncodesStateAndLabels(t *testing.T) {
	var gotQuery string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]Issue{})
	})

	_, err := c.ListIssues(context.Background(), "open", []string{"backend", "bug"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "state=open&labels=backend,bug" {
		t.Errorf("unexpected query: %q", gotQuery)
	}
}

func TestCreateBranch_ResolvesBaseThenCreatesRef(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/repos/acme/widgets/git/ref/heads/main":
			json.NewEncoder(w).Encode(map[string]any{
				"object": map[string]any{"sha": "abc123"},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/repos/acme/widgets/git/refs":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			if body["sha"] != "abc123" {
				t.Errorf("expected sha abc123, got %v", body["sha"])
			}
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})

	if err := c.CreateBranch(context.Background(), "main", "feature/x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestPutFile_IncludesShaOnlyWhenProvided(t *testing.T) {
	var bodies []map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)
		w.WriteHeader(http.StatusOK)
	})

	if err := c.PutFile(context.Background(), "a.txt", "main", "add", []byte("hello"), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := bodies[0]["sha"]; ok {
		t.Errorf("expected no sha field on create, got %v", bodies[0]["sha"])
	}

	if err := c.PutFile(context.Background(), "a.txt", "main", "update", []byte("hello2"), "deadbeef"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bodies[1]["sha"] != "deadbeef" {
		t.Errorf("expected sha deadbeef, got %v", bodies[1]["sha"])
	}
}

func TestGetWorkflowRunLogs_TruncatesToMaxBytes(t *testing.T) {
	long := make([]byte, 10000)
	for i := range long {
		long[i] = 'x'
	}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(long)
	})

	logs, err := c.GetWorkflowRunLogs(context.Background(), 42, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 5000 {
		t.Errorf("expected truncated length 5000, got %d", len(logs))
	}
}

func TestMergePullRequest_DefaultsToSquash(t *testing.T) {
	var gotMethod string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		gotMethod, _ = body["merge_method"].(string)
		w.WriteHeader(http.StatusOK)
	})

	if err := c.MergePullRequest(context.Background(), 12, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != "squash" {
		t.Errorf("expected squash, got %q", gotMethod)
	}
}
