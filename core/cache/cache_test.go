package cache

import (
	"testing"
	"time"
)

func TestNewCache(t *testing.T) {
	c := NewCache()
	if c == nil {
		t.Fatal("NewCache returned nil")
	}
}

func TestGetInstance(t *testing.T) {
	inst := GetInstance()
	if inst == nil {
		t.Fatal("GetInstance returned nil")
	}
	if GetInstance() != inst {
		t.Error("GetInstance should return same instance")
	}
}

func TestSet_Get(t *testing.T) {
	c := NewCache()
	c.Set("k", "val", 0, nil)
	got, ok := c.Get("k")
	if !ok {
		t.Fatal("Get: want true")
	}
	if got != "val" {
		t.Errorf("Get = %v, want val", got)
	}
}

func TestGet_Missing(t *testing.T) {
	c := NewCache()
	_, ok := c.Get("nonexistent-key-xyz")
	if ok {
		t.Error("Get missing key: want false")
	}
}

func TestGetOrDef(t *testing.T) {
	c := NewCache()
	if v := c.GetOrDef("missing", 42); v != 42 {
		t.Errorf("GetOrDef = %v, want 42", v)
	}
	c.Set("present", "x", 0, nil)
	if v := c.GetOrDef("present", 42); v != "x" {
		t.Errorf("GetOrDef = %v, want x", v)
	}
}

func TestTTLExpiry(t *testing.T) {
	c := NewCache()
	c.Set("short", "v", 1, nil)
	c.m.Store("short", cacheItem{Value: "v", ExpiresAt: time.Now().Add(-time.Second).UnixNano()})
	if _, ok := c.Get("short"); ok {
		t.Error("expired key should not be returned")
	}
}

func TestCompositeKeys(t *testing.T) {
	c := NewCache()
	c.SetN([]interface{}{"org", 1, "part", 7}, int64(20), 0, nil)
	got, ok := c.GetN("org", 1, "part", 7)
	if !ok || got != int64(20) {
		t.Errorf("GetN = %v, %v; want 20, true", got, ok)
	}
	c.DeleteN("org", 1, "part", 7)
	if _, ok := c.GetN("org", 1, "part", 7); ok {
		t.Error("DeleteN: key should be gone")
	}
}

func TestInvalidateTag(t *testing.T) {
	c := NewCache()
	c.Set("a", 1, 0, []string{"parts:1"})
	c.Set("b", 2, 0, []string{"parts:1"})
	c.Set("c", 3, 0, []string{"parts:2"})

	c.InvalidateTag("parts:1")

	if _, ok := c.Get("a"); ok {
		t.Error("a should be invalidated")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("b should be invalidated")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("c should survive")
	}
}
