package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shaiso/devpipeline/internal/domain"
)

func TestAnnotator_AnnotateFailure_CommentsAndLabels(t *testing.T) {
	var paths []string
	var labelBody map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.Method == http.MethodPatch {
			json.NewDecoder(r.Body).Decode(&labelBody)
		}
		w.WriteHeader(http.StatusOK)
	})

	a := NewAnnotator(c)
	err := a.AnnotateFailure(context.Background(), domain.Task{Issue: 3, AssignedAgent: domain.AgentBackend}, "missing dependency")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected comment + label update, got %v", paths)
	}
	labels, _ := labelBody["labels"].([]any)
	if len(labels) != 1 || labels[0] != "needs-attention" {
		t.Errorf("unexpected labels: %v", labelBody["labels"])
	}
}

func TestAnnotator_AnnotateCompletion_PostsComment(t *testing.T) {
	var gotBody map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	})

	a := NewAnnotator(c)
	err := a.AnnotateCompletion(context.Background(), domain.Task{Issue: 3, AssignedAgent: domain.AgentBackend}, &domain.Result{Summary: "opened PR #5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, _ := gotBody["body"].(string)
	if body == "" {
		t.Error("expected non-empty comment body")
	}
}
