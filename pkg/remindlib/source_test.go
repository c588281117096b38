package remindlib

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSourceRouterSchemes(t *testing.T) {
	r := NewSourceRouter(nil)
	want := []string{"ftp", "ftps", "http", "https", "sftp"}
	got := r.Schemes()
	if len(got) != len(want) {
		t.Fatalf("Schemes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Schemes() = %v, want %v", got, want)
		}
	}
}

func TestSourceRouterUnsupported(t *testing.T) {
	r := NewSourceRouter(nil)
	for _, raw := range []string{
		"",
		"gopher://example.com/a.mp3",
		"example.com/a.mp3",
	} {
		if _, err := r.Open(raw); !errors.Is(err, ErrUnsupportedSoundScheme) {
			t.Errorf("Open(%q) = %v, want ErrUnsupportedSoundScheme", raw, err)
		}
	}
}

func TestSourceRouterCaseInsensitive(t *testing.T) {
	r := NewSourceRouter(nil)
	if _, err := r.Open("HTTPS://example.com/a.mp3"); err != nil {
		t.Errorf("uppercase scheme rejected: %v", err)
	}
}

func TestSourceRouterRegister(t *testing.T) {
	r := NewSourceRouter(nil)
	called := false
	r.Register("Custom", func(string) (SoundSource, error) {
		called = true
		return nil, nil
	})
	if _, err := r.Open("custom://x/a.mp3"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !called {
		t.Error("registered factory not invoked")
	}
}

func TestHTTPSoundSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ding"))
	}))
	defer srv.Close()

	r := NewSourceRouter(srv.Client())
	src, err := r.Open(srv.URL + "/a.mp3")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	rc, size, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("source Open: %v", err)
	}
	defer rc.Close()
	if size != 4 {
		t.Errorf("size = %d, want 4", size)
	}
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "ding" {
		t.Errorf("body = %q", data)
	}
}

func TestHTTPSoundSourceBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer srv.Close()

	r := NewSourceRouter(srv.Client())
	src, err := r.Open(srv.URL + "/missing.mp3")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, _, err := src.Open(context.Background()); err == nil {
		t.Error("expected an error for a 404 response")
	}
}
