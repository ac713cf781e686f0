package render

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gobinath/gcalendar/internal"
)

func testEvents() []*internal.Event {
	loc := time.UTC
	return []*internal.Event{
		{
			ID:       "e1",
			Summary:  "Standup",
			StartsAt: time.Date(2024, time.March, 18, 9, 30, 0, 0, loc),
			EndsAt:   time.Date(2024, time.March, 18, 9, 45, 0, 0, loc),
			Calendar: "Work",
		},
		{
			ID:       "e2",
			Summary:  "Dentist",
			StartsAt: time.Date(2024, time.March, 18, 14, 0, 0, 0, loc),
			EndsAt:   time.Date(2024, time.March, 18, 15, 0, 0, 0, loc),
			Calendar: "Personal",
		},
		{
			ID:       "e3",
			Summary:  "Conference",
			StartsAt: time.Date(2024, time.March, 19, 0, 0, 0, 0, loc),
			EndsAt:   time.Date(2024, time.March, 20, 0, 0, 0, 0, loc),
			AllDay:   true,
			Calendar: "Work",
		},
	}
}

func TestRenderText(t *testing.T) {
	var sb strings.Builder
	if err := Render(&sb, testEvents(), FormatText); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := "09:30 Standup (Work)\n" +
		"14:00 Dentist (Personal)\n" +
		"00:00 Conference (Work)\n"
	if sb.String() != want {
		t.Errorf("Render() = %q, want %q", sb.String(), want)
	}
}

func TestRenderJSONPreservesOrder(t *testing.T) {
	var sb strings.Builder
	if err := Render(&sb, testEvents(), FormatJSON); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal([]byte(sb.String()), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 events, got %d", len(out))
	}

	wantTitles := []string{"Standup", "Dentist", "Conference"}
	for i, want := range wantTitles {
		if out[i]["title"] != want {
			t.Errorf("event %d title = %v, want %q", i, out[i]["title"], want)
		}
	}
	if out[2]["allDay"] != true {
		t.Errorf("event 2 allDay = %v, want true", out[2]["allDay"])
	}
	if out[0]["calendar"] != "Work" {
		t.Errorf("event 0 calendar = %v, want Work", out[0]["calendar"])
	}
}

func TestRenderJSONStableKeyOrder(t *testing.T) {
	var first strings.Builder
	var second strings.Builder

	if err := Render(&first, testEvents(), FormatJSON); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if err := Render(&second, testEvents(), FormatJSON); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if first.String() != second.String() {
		t.Error("JSON output is not byte-stable across runs")
	}
	idx := func(key string) int { return strings.Index(first.String(), `"`+key+`"`) }
	order := []string{"title", "start", "end", "allDay", "calendar"}
	for i := 1; i < len(order); i++ {
		if idx(order[i-1]) > idx(order[i]) {
			t.Errorf("key %q serialized after %q", order[i-1], order[i])
		}
	}
}

func TestRenderEmptyList(t *testing.T) {
	var sb strings.Builder
	if err := Render(&sb, nil, FormatJSON); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.TrimSpace(sb.String()) != "[]" {
		t.Errorf("Render() = %q, want empty JSON array", sb.String())
	}

	sb.Reset()
	if err := Render(&sb, nil, FormatText); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if sb.String() != "" {
		t.Errorf("Render() = %q, want empty output", sb.String())
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	var sb strings.Builder
	err := Render(&sb, testEvents(), "yaml")
	if err == nil {
		t.Fatal("Render() with unknown format should fail")
	}
}
