package store

import (
	"testing"
)

func seedStore() *Store {
	s := New()
	s.ReplaceAll([]Item{
		{ID: "item-1", Title: "Vintage Watch", CurrentBid: 100, HighestBidder: "user_aaa", BidCount: 3, EndTime: 2000},
		{ID: "item-2", Title: "Oil Painting", CurrentBid: 250, BidCount: 0, EndTime: 1000},
	})
	return s
}

func TestApplyPatchLastWriteWins(t *testing.T) {
	s := seedStore()

	s.ApplyPatch("item-1", Patch{CurrentBid: 110, HighestBidder: "user_bbb", BidCount: 4})
	prev, next, ok := s.ApplyPatch("item-1", Patch{CurrentBid: 120, HighestBidder: "user_ccc", BidCount: 5})
	if !ok {
		t.Fatal("expected patch to apply")
	}
	if prev.CurrentBid != 110 || prev.HighestBidder != "user_bbb" || prev.BidCount != 4 {
		t.Errorf("prev = %+v, want state of previous patch", prev)
	}
	if next.CurrentBid != 120 || next.HighestBidder != "user_ccc" || next.BidCount != 5 {
		t.Errorf("next = %+v, want state of latest patch", next)
	}

	got, _ := s.Get("item-1")
	if got != next {
		t.Errorf("stored item = %+v, want %+v", got, next)
	}
	if got.Title != "Vintage Watch" {
		t.Errorf("patch must not touch display metadata, title = %q", got.Title)
	}
}

func TestApplyPatchUnknownItem(t *testing.T) {
	s := seedStore()

	_, _, ok := s.ApplyPatch("item-404", Patch{CurrentBid: 999})
	if ok {
		t.Error("expected ok=false for unknown item")
	}
	if s.Len() != 2 {
		t.Errorf("collection size changed to %d, want 2", s.Len())
	}
}

func TestReplaceAllDropsStaleItems(t *testing.T) {
	s := seedStore()

	s.ReplaceAll([]Item{{ID: "item-3", Title: "Rare Vinyl", CurrentBid: 40}})
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
	if _, ok := s.Get("item-1"); ok {
		t.Error("item-1 should be gone after full replace")
	}
}

func TestSnapshotOrderedByEndTime(t *testing.T) {
	s := seedStore()

	items := s.Snapshot()
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].ID != "item-2" || items[1].ID != "item-1" {
		t.Errorf("snapshot order = %s, %s; want item-2, item-1", items[0].ID, items[1].ID)
	}

	// Snapshot is a copy; mutating it must not leak into the store.
	items[0].CurrentBid = 9999
	got, _ := s.Get("item-2")
	if got.CurrentBid == 9999 {
		t.Error("snapshot mutation leaked into the store")
	}
}
