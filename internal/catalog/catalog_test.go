package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/items" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[
			{"id":"item-1","title":"Vintage Watch","currentBid":100,"bidCount":3,"endTime":1750000000000},
			{"id":"item-2","title":"Oil Painting","currentBid":250,"highestBidder":"user_abc","endTime":1750000100000}
		]}`))
	}))
	defer srv.Close()

	items, err := FetchItems(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].ID != "item-1" || items[0].CurrentBid != 100 {
		t.Errorf("item[0] = %+v", items[0])
	}
	if items[1].HighestBidder != "user_abc" {
		t.Errorf("item[1].HighestBidder = %q", items[1].HighestBidder)
	}
}

func TestFetchItemsTrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/items" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	if _, err := FetchItems(context.Background(), srv.URL+"/"); err != nil {
		t.Fatal(err)
	}
}

func TestFetchItemsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := FetchItems(context.Background(), srv.URL); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestFetchItemsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	if _, err := FetchItems(context.Background(), url); err == nil {
		t.Error("expected error when nothing is listening")
	}
}
