package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetch(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Write([]byte("<rss></rss>"))
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "RssReader/test", time.Minute)

	body, err := client.Fetch(context.Background(), server.URL, Options{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(body) != "<rss></rss>" {
		t.Errorf("Expected body to round-trip, got: %s", body)
	}
	if gotUserAgent != "RssReader/test" {
		t.Errorf("Expected custom user agent, got: %s", gotUserAgent)
	}
}

func TestFetchNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "RssReader/test", time.Minute)

	if _, err := client.Fetch(context.Background(), server.URL, Options{}); err == nil {
		t.Error("Expected error for 404 response")
	}
}

func TestFetchUsesCache(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("cached body"))
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "RssReader/test", time.Minute)

	for i := 0; i < 3; i++ {
		body, err := client.Fetch(context.Background(), server.URL, Options{UseCache: true, TTL: time.Minute})
		if err != nil {
			t.Fatalf("Fetch %d failed: %v", i, err)
		}
		if string(body) != "cached body" {
			t.Errorf("Fetch %d: unexpected body: %s", i, body)
		}
	}

	if hits.Load() != 1 {
		t.Errorf("Expected 1 upstream request, got %d", hits.Load())
	}
}

func TestFetchBypassesCacheWhenDisabled(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("body"))
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "RssReader/test", time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := client.Fetch(context.Background(), server.URL, Options{}); err != nil {
			t.Fatalf("Fetch %d failed: %v", i, err)
		}
	}

	if hits.Load() != 2 {
		t.Errorf("Expected 2 upstream requests, got %d", hits.Load())
	}
}

func TestFetchCacheExpiry(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("body"))
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "RssReader/test", time.Minute)

	opts := Options{UseCache: true, TTL: 30 * time.Millisecond}
	if _, err := client.Fetch(context.Background(), server.URL, opts); err != nil {
		t.Fatalf("First fetch failed: %v", err)
	}

	time.Sleep(60 * time.Millisecond)

	if _, err := client.Fetch(context.Background(), server.URL, opts); err != nil {
		t.Fatalf("Second fetch failed: %v", err)
	}

	if hits.Load() != 2 {
		t.Errorf("Expected expired entry to refetch, got %d upstream requests", hits.Load())
	}
}

func TestFetchContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "RssReader/test", time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Fetch(ctx, server.URL, Options{}); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestCacheEviction(t *testing.T) {
	c := newCache(time.Minute)

	for i := 0; i < maxCacheEntries+10; i++ {
		c.set(string(rune('a'+i%26))+string(rune('0'+i/26)), []byte("x"), time.Minute)
	}

	c.mu.Lock()
	size := len(c.entries)
	c.mu.Unlock()
	if size > maxCacheEntries {
		t.Errorf("Expected at most %d entries, got %d", maxCacheEntries, size)
	}
}
