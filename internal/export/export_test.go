package export

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/blacktop/superchat/internal/superchat"
	"github.com/charmbracelet/log"
)

type fakeRenderer struct {
	renders, fetches int
	err              error
	block            chan struct{}
	started          chan struct{}
}

func (f *fakeRenderer) Render(ctx context.Context, p superchat.Params) (*superchat.Image, error) {
	f.renders++
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return &superchat.Image{Data: []byte("post:" + p.Name), ContentType: "image/png"}, nil
}

func (f *fakeRenderer) Fetch(ctx context.Context, p superchat.Params) (*superchat.Image, error) {
	f.fetches++
	return &superchat.Image{Data: []byte("get:" + p.Name), ContentType: "image/png"}, nil
}

type fakeSharer struct {
	got ShareData
	err error
}

func (s *fakeSharer) Share(ctx context.Context, data ShareData) error {
	s.got = data
	return s.err
}

func quietLogger() *log.Logger { return log.New(io.Discard) }

func TestShareAttachesRenderedFile(t *testing.T) {
	r := &fakeRenderer{}
	s := &fakeSharer{}
	e := New(Config{Renderer: r, Sharer: s, Logger: quietLogger()})

	if !e.CanShare() {
		t.Fatal("exporter with a sharer should be able to share")
	}
	res, err := e.Run(context.Background(), superchat.Params{Name: "Bob", Price: 5000})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.Shared {
		t.Error("expected a shared result")
	}
	if s.got.URL != "https://superchat.uzimaru.com" {
		t.Errorf("share URL = %q", s.got.URL)
	}
	if len(s.got.Files) != 1 {
		t.Fatalf("files = %d, want 1", len(s.got.Files))
	}
	f := s.got.Files[0]
	if f.Name != "superChat.png" || f.Type != "image/png" || string(f.Data) != "post:Bob" {
		t.Errorf("unexpected attachment %+v", f)
	}
}

func TestShareFailureIsSwallowed(t *testing.T) {
	s := &fakeSharer{err: context.Canceled}
	e := New(Config{Renderer: &fakeRenderer{}, Sharer: s, Logger: quietLogger()})

	res, err := e.Run(context.Background(), superchat.DefaultParams())
	if err != nil {
		t.Fatalf("share failures should not surface, got %v", err)
	}
	if res.Shared {
		t.Error("a failed share should not be reported as shared")
	}
	if e.busy.Load() {
		t.Error("busy flag should clear")
	}
}

func TestDownloadStrategies(t *testing.T) {
	tests := []struct {
		strategy Strategy
		want     string
	}{
		{StrategyPost, "post:Alice"},
		{StrategyGet, "get:Alice"},
		{"", "post:Alice"},
	}
	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "out")
			e := New(Config{Renderer: &fakeRenderer{}, OutputFolder: dir, Strategy: tt.strategy, Logger: quietLogger()})

			res, err := e.Run(context.Background(), superchat.Params{Name: "Alice", Price: 100})
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if res.Shared || res.Path != filepath.Join(dir, "superChat.png") {
				t.Errorf("unexpected result %+v", res)
			}
			data, err := os.ReadFile(res.Path)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.want {
				t.Errorf("saved %q, want %q", data, tt.want)
			}
		})
	}
}

func TestRenderFailureClearsBusy(t *testing.T) {
	r := &fakeRenderer{err: &superchat.RequestFailedError{StatusCode: 500, Status: "500 Internal Server Error"}}
	e := New(Config{Renderer: r, OutputFolder: t.TempDir(), Logger: quietLogger()})

	_, err := e.Run(context.Background(), superchat.DefaultParams())
	if !errors.Is(err, superchat.ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	if e.busy.Load() {
		t.Error("busy flag should clear after a failure")
	}
}

func TestRunIsNotReentrant(t *testing.T) {
	r := &fakeRenderer{block: make(chan struct{}), started: make(chan struct{})}
	e := New(Config{Renderer: r, OutputFolder: t.TempDir(), Logger: quietLogger()})

	done := make(chan error, 1)
	go func() {
		_, err := e.Run(context.Background(), superchat.DefaultParams())
		done <- err
	}()
	<-r.started

	if !e.busy.Load() {
		t.Error("exporter should report busy while running")
	}
	if _, err := e.Run(context.Background(), superchat.DefaultParams()); !errors.Is(err, ErrBusy) {
		t.Errorf("second Run() = %v, want ErrBusy", err)
	}

	close(r.block)
	if err := <-done; err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if r.renders != 1 {
		t.Errorf("renders = %d, want 1", r.renders)
	}
}
