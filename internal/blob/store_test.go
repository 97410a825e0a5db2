package blob

import (
	"strings"
	"sync"
	"testing"
)

func TestCreateGetRevoke(t *testing.T) {
	s := NewStore()
	a := s.Create([]byte("a"), "image/png")
	b := s.Create([]byte("b"), "image/png")

	if a == b {
		t.Fatal("each Create should return a fresh URL")
	}
	if !strings.HasPrefix(a, "blob:") {
		t.Errorf("unexpected URL %q", a)
	}
	got, ok := s.Get(a)
	if !ok || string(got.Data) != "a" || got.ContentType != "image/png" {
		t.Errorf("Get(a) = %+v, %v", got, ok)
	}

	s.Revoke(a)
	s.Revoke("blob:superchat/unknown")
	if _, ok := s.Get(a); ok {
		t.Error("revoked URL should be gone")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestConcurrentCreate(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Revoke(s.Create(nil, ""))
		}()
	}
	wg.Wait()
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}
