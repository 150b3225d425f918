package cache

import (
	"testing"
	"time"

	"github.com/clauseguard/clauseguard/internal/model"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := NewMemoryStore(time.Hour, time.Hour)

	if err := s.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if val, found := s.Get("k"); !found || string(val) != "v" {
		t.Errorf("expected v, got %q found=%v", val, found)
	}

	_ = s.Delete("k")
	if _, found := s.Get("k"); found {
		t.Error("expected key deleted")
	}
}

func TestDiskStore_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	s := NewDiskStore(dir, time.Hour)

	if err := s.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if val, found := s.Get("k"); !found || string(val) != "v" {
		t.Errorf("expected v, got %q found=%v", val, found)
	}

	if err := s.Set("gone", []byte("x"), -time.Minute); err != nil {
		t.Fatalf("set expired: %v", err)
	}
	if _, found := s.Get("gone"); found {
		t.Error("expected expired entry dropped")
	}
}

func TestLayeredStore_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	layered := NewLayeredStore(time.Hour, dir, time.Hour)

	// Seed only the disk layer, then read through the layered store
	disk := NewDiskStore(dir, time.Hour)
	if err := disk.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("seed disk: %v", err)
	}

	if val, found := layered.Get("k"); !found || string(val) != "v" {
		t.Fatalf("expected disk hit through layered store, got %q found=%v", val, found)
	}

	// Now present in the memory layer as well
	if val, found := layered.memory.Get("k"); !found || string(val) != "v" {
		t.Errorf("expected promotion to memory, got %q found=%v", val, found)
	}
}

func TestStoreKey_StableAndDistinct(t *testing.T) {
	a := StoreKey(model.Fingerprint{Origin: "o", Text: "t"})
	b := StoreKey(model.Fingerprint{Origin: "o", Text: "t"})
	c := StoreKey(model.Fingerprint{Origin: "o2", Text: "t"})

	if a != b {
		t.Error("expected stable keys for identical fingerprints")
	}
	if a == c {
		t.Error("expected distinct keys for distinct origins")
	}
}
