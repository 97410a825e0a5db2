package superchat

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\nfake")

type capturedForm struct {
	values map[string][]string
	files  map[string][]string // field -> filenames
	icon   []byte
}

func renderServer(t *testing.T, captured *capturedForm) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		captured.values = r.MultipartForm.Value
		captured.files = map[string][]string{}
		for field, hs := range r.MultipartForm.File {
			for _, h := range hs {
				captured.files[field] = append(captured.files[field], h.Filename)
				f, err := h.Open()
				if err != nil {
					t.Errorf("open part: %v", err)
					continue
				}
				captured.icon, _ = io.ReadAll(f)
				f.Close()
			}
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngMagic)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRenderDefaultsName(t *testing.T) {
	var got capturedForm
	srv := renderServer(t, &got)
	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	img, err := c.Render(context.Background(), Params{Price: 5000})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if string(img.Data) != string(pngMagic) || img.ContentType != "image/png" {
		t.Errorf("unexpected image %q (%s)", img.Data, img.ContentType)
	}
	if v := got.values["name"]; len(v) != 1 || v[0] != "Anonymous" {
		t.Errorf("name = %v, want [Anonymous]", v)
	}
	if v := got.values["price"]; len(v) != 1 || v[0] != "5000" {
		t.Errorf("price = %v, want [5000]", v)
	}
	if _, ok := got.values["message"]; ok {
		t.Error("message should be omitted when empty")
	}
	if len(got.files) != 0 {
		t.Errorf("icon should be omitted, got %v", got.files)
	}
}

func TestRenderWithNameMessageAndIcon(t *testing.T) {
	var got capturedForm
	srv := renderServer(t, &got)
	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	icon := filepath.Join(t.TempDir(), "me.png")
	if err := os.WriteFile(icon, pngMagic, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = c.Render(context.Background(), Params{Name: "Alice", Price: 200, Message: "hi", Icon: icon})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if v := got.values["name"]; len(v) != 1 || v[0] != "Alice" {
		t.Errorf("name = %v, want [Alice]", v)
	}
	if v := got.values["message"]; len(v) != 1 || v[0] != "hi" {
		t.Errorf("message = %v, want [hi]", v)
	}
	if f := got.files["icon"]; len(f) != 1 || f[0] != "me.png" {
		t.Errorf("icon files = %v, want [me.png]", f)
	}
	if string(got.icon) != string(pngMagic) {
		t.Errorf("icon payload = %q", got.icon)
	}
}

func TestRenderMissingIcon(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:1/super-chat")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Render(context.Background(), Params{Price: 100, Icon: "/does/not/exist.png"}); err == nil {
		t.Error("expected an error for an unreadable icon")
	}
}

func TestRenderRequestFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	img, err := c.Render(context.Background(), DefaultParams())
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	if img != nil {
		t.Error("failed request should not return an image")
	}
	var rf *RequestFailedError
	if !errors.As(err, &rf) || rf.StatusCode != http.StatusBadGateway {
		t.Errorf("expected status 502, got %v", err)
	}
}

func TestShareURLRoundTrip(t *testing.T) {
	c, err := NewClient("https://render.example.com/super-chat")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		p    Params
		want url.Values
	}{
		{Params{Price: 5000}, url.Values{"price": {"5000"}}},
		{Params{Name: "Bob & Co", Price: 200, Message: "こんにちは?"},
			url.Values{"name": {"Bob & Co"}, "price": {"200"}, "message": {"こんにちは?"}}},
		{Params{Name: "x", Icon: "/tmp/icon.png", Price: 100}, url.Values{"name": {"x"}, "price": {"100"}}},
	}
	for _, tt := range tests {
		raw := c.ShareURL(tt.p)
		u, err := url.Parse(raw)
		if err != nil {
			t.Fatalf("ShareURL produced unparsable %q: %v", raw, err)
		}
		if u.Host != "render.example.com" || u.Path != "/super-chat" {
			t.Errorf("unexpected base in %q", raw)
		}
		got := u.Query()
		if len(got) != len(tt.want) {
			t.Errorf("ShareURL(%+v) query = %v, want %v", tt.p, got, tt.want)
			continue
		}
		for k := range tt.want {
			if got.Get(k) != tt.want.Get(k) {
				t.Errorf("ShareURL(%+v) %s = %q, want %q", tt.p, k, got.Get(k), tt.want.Get(k))
			}
		}
	}
}

func TestFetchUsesShareURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Query().Get("name") != "Bob" {
			t.Errorf("name = %q", r.URL.Query().Get("name"))
		}
		w.Write(pngMagic)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL + "/super-chat")
	if err != nil {
		t.Fatal(err)
	}
	img, err := c.Fetch(context.Background(), Params{Name: "Bob", Price: 5000})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if img.ContentType != "image/png" {
		t.Errorf("sniffed content type = %q", img.ContentType)
	}
}

func TestNewClientRejectsBadScheme(t *testing.T) {
	if _, err := NewClient("ftp://example.com"); err == nil {
		t.Error("expected an error for a non-http endpoint")
	}
}
