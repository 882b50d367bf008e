package lessons

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchLessons(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2024-01-01/data/query/production" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("query") == "" {
			t.Fatalf("expected a GROQ query parameter")
		}
		if got := r.Header.Get("Authorization"); got != "Bearer cms-token" {
			t.Fatalf("unexpected authorization header: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":[
			{"_id":"a1","titulo":"Introducao","ordem":1,"materia":{"titulo":"Basico"},"videoUrl":"https://cdn.test/a1.mp4"},
			{"_id":"a2","titulo":"Anatomia","ordem":2,"materia":{"titulo":"Anatomia"},"videoUrl":"https://cdn.test/a2.mp4"},
			{"_id":"","titulo":"broken entry"}
		]}`))
	}))
	defer ts.Close()

	client := &Client{
		Dataset:    "production",
		APIVersion: "v2024-01-01",
		Token:      "cms-token",
		BaseURL:    ts.URL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}

	list, err := client.FetchLessons(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 lessons (entry without id dropped), got %d", len(list))
	}
	if list[0].ID != "a1" || list[0].Title != "Introducao" || list[0].Subject != "Basico" {
		t.Fatalf("unexpected first lesson: %+v", list[0])
	}
	if list[1].Order != 2 || list[1].VideoURL != "https://cdn.test/a2.mp4" {
		t.Fatalf("unexpected second lesson: %+v", list[1])
	}
}

func TestFetchLessons_UpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	client := &Client{
		Dataset:    "production",
		APIVersion: "v2024-01-01",
		BaseURL:    ts.URL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
	if _, err := client.FetchLessons(context.Background()); err == nil {
		t.Fatalf("expected error for upstream 401")
	}
}

func TestQueryURL_RequiresProject(t *testing.T) {
	client := &Client{Dataset: "production", APIVersion: "v2024-01-01"}
	if _, err := client.queryURL(); err == nil {
		t.Fatalf("expected error when project id is missing")
	}
}
