package http

import (
	"net/http"
	"testing"
)

func TestTrackedEndpoints(t *testing.T) {
	ts := startTestServer(t, createTestStore(t))
	h := ts.Config.Handler

	resp := doJSON(t, h, http.MethodPost, "/api/views",
		`{"source":"web","url":"https://example.com/a","visitor":"v1","meta":{"lang":"fr"}}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	view := decode[TrackedResponse](t, resp)
	if view.ID == 0 || view.Meta["lang"] != "fr" || view.Action != "" || view.CreatedAt == "" {
		t.Fatalf("unexpected view: %+v", view)
	}

	resp = doJSON(t, h, http.MethodPost, "/api/actions",
		`{"source":"web","url":"https://example.com/a","visitor":"v1","action":"click","createdAt":"2024-05-01T10:00:00Z"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	action := decode[TrackedResponse](t, resp)
	if action.Action != "click" || action.CreatedAt != "2024-05-01T10:00:00Z" || action.Meta == nil {
		t.Fatalf("unexpected action: %+v", action)
	}

	invalid := map[string]string{
		"/api/views":   `{"source":"web","url":"not a url","visitor":"v1"}`,
		"/api/actions": `{"source":"web","url":"https://example.com","visitor":"v1"}`,
		"/api/goals":   `{"source":"web","url":"https://example.com","goal":"signup"}`,
	}
	for path, body := range invalid {
		if resp := doJSON(t, h, http.MethodPost, path, body); resp.Code != http.StatusBadRequest {
			t.Errorf("POST %s %s: expected 400, got %d", path, body, resp.Code)
		}
	}

	// A view id is not an action.
	if resp := doJSON(t, h, http.MethodGet, "/api/actions/1", ""); resp.Code != http.StatusNotFound {
		t.Errorf("expected 404 for view id under actions, got %d", resp.Code)
	}

	resp = doJSON(t, h, http.MethodPut, "/api/views/1", `{"source":"app","url":"https://example.com/b","visitor":"v1"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d: %s", resp.Code, resp.Body.String())
	}
	if got := decode[TrackedResponse](t, resp); got.Source != "app" || got.URL != "https://example.com/b" {
		t.Fatalf("update not applied: %+v", got)
	}

	if list := decode[[]TrackedResponse](t, doJSON(t, h, http.MethodGet, "/api/views", "")); len(list) != 1 {
		t.Fatalf("unexpected views: %+v", list)
	}

	if resp := doJSON(t, h, http.MethodDelete, "/api/views/1", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", resp.Code)
	}
	if resp := doJSON(t, h, http.MethodDelete, "/api/views/1", ""); resp.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", resp.Code)
	}
	if resp := doJSON(t, h, http.MethodGet, "/api/goals/nope", ""); resp.Code != http.StatusBadRequest {
		t.Errorf("expected 400 on bad id, got %d", resp.Code)
	}
}

func TestGoalDetailsEndpoint(t *testing.T) {
	ts := startTestServer(t, createTestStore(t))
	h := ts.Config.Handler

	seed := []struct{ path, body string }{
		{"/api/views", `{"source":"web","url":"https://example.com","visitor":"alice"}`},
		{"/api/views", `{"source":"web","url":"https://example.com/pricing","visitor":"alice"}`},
		{"/api/views", `{"source":"web","url":"https://example.com","visitor":"bob"}`},
		{"/api/actions", `{"source":"web","url":"https://example.com","visitor":"alice","action":"click"}`},
		{"/api/goals", `{"source":"web","url":"https://example.com/done","visitor":"alice","goal":"signup"}`},
	}
	var goal TrackedResponse
	for _, s := range seed {
		resp := doJSON(t, h, http.MethodPost, s.path, s.body)
		if resp.Code != http.StatusCreated {
			t.Fatalf("seed %s: %d %s", s.path, resp.Code, resp.Body.String())
		}
		if s.path == "/api/goals" {
			goal = decode[TrackedResponse](t, resp)
		}
	}

	resp := doJSON(t, h, http.MethodGet, "/api/goals/"+itoa(goal.ID)+"/details", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	details := decode[GoalDetailsResponse](t, resp)
	if details.Goal.Goal != "signup" {
		t.Fatalf("unexpected goal: %+v", details.Goal)
	}
	summary := details.Analytics.Summary
	if summary.TotalViews != 2 || summary.TotalActions != 1 || summary.Visitor != "alice" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(details.Analytics.Views) != 2 || details.Analytics.Actions[0].Action != "click" {
		t.Fatalf("unexpected analytics: %+v", details.Analytics)
	}

	if resp := doJSON(t, h, http.MethodGet, "/api/goals/999/details", ""); resp.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing goal, got %d", resp.Code)
	}
}
