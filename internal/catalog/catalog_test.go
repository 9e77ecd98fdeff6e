package catalog

import "testing"

func testGroups() []Group {
	return []Group{
		{ID: "g1", PhotoUIDs: []string{"p1", "p2", "p3", "p4"}},
		{ID: "g2", PhotoUIDs: []string{"p5", "p6", "p7"}},
		{ID: "g3", PhotoUIDs: []string{"p8", "p9", "p10"}},
	}
}

func TestCreate_Counters(t *testing.T) {
	c := New()
	c.Create("trip", testGroups())

	if got := c.TotalGroups("trip"); got != 3 {
		t.Errorf("expected 3 total groups, got %d", got)
	}
	if got := c.RemainingGroups("trip"); got != 3 {
		t.Errorf("expected 3 remaining groups, got %d", got)
	}
	if got := c.TotalImages("trip"); got != 10 {
		t.Errorf("expected 10 total images, got %d", got)
	}
	if got := c.RemainingImages("trip"); got != 10 {
		t.Errorf("expected 10 remaining images, got %d", got)
	}
}

func TestCreate_ReplacesPriorState(t *testing.T) {
	c := New()
	c.Create("trip", testGroups())
	c.MarkProcessed("trip", []string{"g1"})

	c.Create("trip", []Group{{ID: "h1", PhotoUIDs: []string{"x1", "x2"}}})

	if got := c.TotalGroups("trip"); got != 1 {
		t.Errorf("expected 1 total group after replace, got %d", got)
	}
	if got := c.RemainingGroups("trip"); got != 1 {
		t.Errorf("expected processed flags cleared on replace, remaining %d", got)
	}
}

func TestMarkProcessed_Counters(t *testing.T) {
	c := New()
	c.Create("trip", testGroups())

	c.MarkProcessed("trip", []string{"g1"})

	if got := c.RemainingGroups("trip"); got != 2 {
		t.Errorf("expected 2 remaining groups, got %d", got)
	}
	if got := c.RemainingImages("trip"); got != 6 {
		t.Errorf("expected 6 remaining images, got %d", got)
	}
}

func TestMarkProcessed_Idempotent(t *testing.T) {
	c := New()
	c.Create("trip", testGroups())

	c.MarkProcessed("trip", []string{"g1"})
	c.MarkProcessed("trip", []string{"g1"})

	if got := c.RemainingGroups("trip"); got != 2 {
		t.Errorf("expected double mark to count once, remaining %d", got)
	}
}

func TestMarkProcessed_UnknownIDsIgnored(t *testing.T) {
	c := New()
	c.Create("trip", testGroups())

	c.MarkProcessed("trip", []string{"nope", "g2"})
	c.MarkProcessed("other", []string{"g1"})

	if got := c.RemainingGroups("trip"); got != 2 {
		t.Errorf("expected only g2 marked, remaining %d", got)
	}
	if got := c.RemainingGroups("other"); got != 0 {
		t.Errorf("expected unknown collection to stay empty, got %d", got)
	}
}

func TestUnprocessedGroups_Order(t *testing.T) {
	c := New()
	c.Create("trip", testGroups())
	c.MarkProcessed("trip", []string{"g2"})

	groups := c.UnprocessedGroups("trip")
	if len(groups) != 2 {
		t.Fatalf("expected 2 unprocessed groups, got %d", len(groups))
	}
	if groups[0].ID != "g1" || groups[1].ID != "g3" {
		t.Errorf("expected analysis order [g1 g3], got [%s %s]", groups[0].ID, groups[1].ID)
	}
}

func TestResetProcessed(t *testing.T) {
	c := New()
	c.Create("trip", testGroups())
	c.MarkProcessed("trip", []string{"g1", "g2", "g3"})

	c.ResetProcessed("trip")

	if got := c.RemainingGroups("trip"); got != 3 {
		t.Errorf("expected all groups remaining after reset, got %d", got)
	}
	if got := c.RemainingImages("trip"); got != 10 {
		t.Errorf("expected all images remaining after reset, got %d", got)
	}
}

func TestUnknownCollection_Queries(t *testing.T) {
	c := New()

	if c.Has("nope") {
		t.Error("expected Has to be false for unknown collection")
	}
	if got := c.TotalGroups("nope"); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if groups := c.UnprocessedGroups("nope"); groups != nil {
		t.Errorf("expected nil groups, got %v", groups)
	}
}

func TestGroupID_Deterministic(t *testing.T) {
	a := GroupID([]string{"p1", "p2", "p3"})
	b := GroupID([]string{"p3", "p1", "p2"})
	if a != b {
		t.Errorf("expected membership order not to matter: %s != %s", a, b)
	}

	other := GroupID([]string{"p1", "p2"})
	if a == other {
		t.Errorf("expected different membership to produce a different ID")
	}
}
