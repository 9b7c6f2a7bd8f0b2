package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/presence-chat/internal/store"
)

func TestTrackedCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	view, err := s.CreateTracked(ctx, store.KindView, store.TrackedInput{
		Source:    "web",
		URL:       "https://example.com/pricing",
		Visitor:   "v1",
		Meta:      map[string]any{"referrer": "ads"},
		CreatedAt: at,
	})
	if err != nil {
		t.Fatalf("create view: %v", err)
	}
	if view.Kind != store.KindView || !view.CreatedAt.Equal(at) || view.Meta["referrer"] != "ads" {
		t.Fatalf("unexpected view: %+v", view)
	}

	// An id is only visible under its own kind.
	if _, err := s.GetTracked(ctx, store.KindAction, view.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound across kinds, got %v", err)
	}

	updated, err := s.UpdateTracked(ctx, store.KindView, view.ID, store.TrackedInput{
		Source:  "mobile",
		URL:     "https://example.com/",
		Visitor: "v1",
	})
	if err != nil {
		t.Fatalf("update view: %v", err)
	}
	if updated.Source != "mobile" || len(updated.Meta) != 0 || updated.CreatedAt.IsZero() {
		t.Fatalf("update not applied: %+v", updated)
	}

	if _, err := s.UpdateTracked(ctx, store.KindView, 999, store.TrackedInput{Source: "x", URL: "x", Visitor: "x"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on missing update, got %v", err)
	}

	list, err := s.ListTracked(ctx, store.KindView)
	if err != nil {
		t.Fatalf("list views: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("unexpected views: %+v", list)
	}
	if goals, _ := s.ListTracked(ctx, store.KindGoal); len(goals) != 0 {
		t.Fatalf("views leaked into goals: %+v", goals)
	}

	if err := s.DeleteTracked(ctx, store.KindView, view.ID); err != nil {
		t.Fatalf("delete view: %v", err)
	}
	if err := s.DeleteTracked(ctx, store.KindView, view.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestGoalDetailsJoinsVisitor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	create := func(kind store.TrackedKind, visitor, label string) *store.Tracked {
		t.Helper()
		rec, err := s.CreateTracked(ctx, kind, store.TrackedInput{
			Source: "web", URL: "https://example.com", Visitor: visitor, Label: label,
		})
		if err != nil {
			t.Fatalf("create %s: %v", kind, err)
		}
		return rec
	}

	create(store.KindView, "alice", "")
	create(store.KindView, "alice", "")
	create(store.KindView, "bob", "")
	create(store.KindAction, "alice", "click")
	create(store.KindAction, "bob", "scroll")
	goal := create(store.KindGoal, "alice", "signup")

	details, err := s.GoalDetails(ctx, goal.ID)
	if err != nil {
		t.Fatalf("goal details: %v", err)
	}
	if details.Goal.Label != "signup" {
		t.Fatalf("unexpected goal: %+v", details.Goal)
	}
	if len(details.Views) != 2 || len(details.Actions) != 1 || details.Actions[0].Label != "click" {
		t.Fatalf("unexpected details: views=%+v actions=%+v", details.Views, details.Actions)
	}

	if _, err := s.GoalDetails(ctx, 999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
