package storage

import (
	"bytes"
	"errors"
	"testing"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	s := NewDiskStore(t.TempDir())

	payload := []byte{0x50, 0x4b, 0x03, 0x04, 0x00}
	if err := s.Put("test-case/abc.zip", payload); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get("test-case/abc.zip")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Get returned %v, want %v", got, payload)
	}

	if _, err := s.Get("test-case/missing.zip"); !errors.Is(err, ErrNotExist) {
		t.Errorf("missing blob: got %v, want ErrNotExist", err)
	}
}

func TestDiskStoreRejectsTraversal(t *testing.T) {
	s := NewDiskStore(t.TempDir())
	if err := s.Put("../escape", []byte("x")); err == nil {
		t.Error("Put with traversal path should fail")
	}
	if _, err := s.Get("/etc/passwd"); err == nil {
		t.Error("Get with absolute path should fail")
	}
}

func TestMemStoreRoundTrip(t *testing.T) {
	s := NewMemStore()
	if err := s.Put("k", []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get("k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	// mutations of the returned slice must not leak into the store
	got[0] = 'x'
	again, _ := s.Get("k")
	if string(again) != "v" {
		t.Error("store content was mutated through a returned slice")
	}

	if _, err := s.Get("nope"); !errors.Is(err, ErrNotExist) {
		t.Errorf("missing key: got %v, want ErrNotExist", err)
	}
}
