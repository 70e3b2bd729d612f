package cache

import "testing"

func TestGenerateCacheKey(t *testing.T) {
	a := GenerateCacheKey("openai", "gpt-4o", "sys", "hello")
	if a != GenerateCacheKey("openai", "gpt-4o", "sys", "hello") {
		t.Fatalf("expected stable key")
	}
	if len(a) != 64 {
		t.Fatalf("expected sha256 hex, got %q", a)
	}
	if a == GenerateCacheKey("openai", "gpt-4o", "sys", "hello!") {
		t.Fatalf("expected different key for different text")
	}
	if GenerateCacheKey("ab", "c", "", "") == GenerateCacheKey("a", "bc", "", "") {
		t.Fatalf("expected field boundaries to matter")
	}
}

func TestCacheLoadStore(t *testing.T) {
	var c Cache
	if _, ok := c.Load("k"); ok {
		t.Fatalf("expected miss on empty cache")
	}
	c.Store("k", "v")
	got, ok := c.Load("k")
	if !ok || got.Response != "v" || got.Timestamp.IsZero() {
		t.Fatalf("unexpected entry: %+v %v", got, ok)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Len())
	}
}
