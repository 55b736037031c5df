package attribution

import (
	"sort"
	"testing"
)

func TestAttributePrefersContext(t *testing.T) {
	table := NewContextTable()
	table.Set("ctx-1", "https://news.example")

	events := []MatchEvent{
		// Context resolves even though the initiator points elsewhere
		{ContextID: "ctx-1", InitiatorURL: "https://other.example/page"},
	}

	counts := Attribute(events, table)
	if counts["https://news.example"] != 1 {
		t.Errorf("Expected context-based attribution, got %v", counts)
	}
	if _, ok := counts["https://other.example"]; ok {
		t.Error("Initiator must not be used when the context resolves")
	}
}

func TestAttributeInitiatorFallback(t *testing.T) {
	table := NewContextTable()

	events := []MatchEvent{
		// Unknown context falls back to the initiator URL's origin
		{ContextID: "gone", InitiatorURL: "https://blog.example/article?id=1"},
		// No context at all
		{InitiatorURL: "https://blog.example/other"},
	}

	counts := Attribute(events, table)
	if counts["https://blog.example"] != 2 {
		t.Errorf("Expected 2 initiator-attributed hits, got %v", counts)
	}
}

func TestAttributeDropsUncountable(t *testing.T) {
	events := []MatchEvent{
		{}, // neither context nor initiator
		{ContextID: "unknown"},
		{InitiatorURL: "::::not-a-url"},
	}

	counts := Attribute(events, NewContextTable())
	if len(counts) != 0 {
		t.Errorf("Expected all events dropped, got %v", counts)
	}
}

func TestAttributeAggregatesByOrigin(t *testing.T) {
	table := NewContextTable()
	table.Set("a", "https://one.example")
	table.Set("b", "https://one.example")
	table.Set("c", "https://two.example")

	events := []MatchEvent{
		{ContextID: "a"},
		{ContextID: "b"},
		{ContextID: "c"},
		{InitiatorURL: "https://one.example/x"},
	}

	counts := Attribute(events, table)
	if counts["https://one.example"] != 3 {
		t.Errorf("one.example = %d, want 3", counts["https://one.example"])
	}
	if counts["https://two.example"] != 1 {
		t.Errorf("two.example = %d, want 1", counts["https://two.example"])
	}
}

func TestContextTableLifecycle(t *testing.T) {
	table := NewContextTable()

	if _, ok := table.Lookup("tab"); ok {
		t.Error("Lookup on empty table should miss")
	}

	table.Set("tab", "https://site.example")
	origin, ok := table.Lookup("tab")
	if !ok || origin != "https://site.example" {
		t.Errorf("Lookup = %q, %v", origin, ok)
	}

	// Navigation to a new origin replaces the mapping
	table.Set("tab", "https://elsewhere.example")
	origin, _ = table.Lookup("tab")
	if origin != "https://elsewhere.example" {
		t.Errorf("Expected updated origin, got %q", origin)
	}

	table.Remove("tab")
	if _, ok := table.Lookup("tab"); ok {
		t.Error("Lookup after Remove should miss")
	}
}

func TestContextsFor(t *testing.T) {
	table := NewContextTable()
	table.Set("a", "https://site.example")
	table.Set("b", "https://site.example")
	table.Set("c", "https://other.example")

	ids := table.ContextsFor("https://site.example")
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("ContextsFor = %v", ids)
	}

	if ids := table.ContextsFor("https://unknown.example"); len(ids) != 0 {
		t.Errorf("Expected no contexts, got %v", ids)
	}
}
