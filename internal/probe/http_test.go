package probe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

func TestHTTPBannerConcatenatesFragments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "Tapo-Camera-Httpd")
		_, _ = w.Write([]byte("hello from " + r.URL.Path))
	}))
	defer srv.Close()

	host, portStr, _ := net.SplitHostPort(srv.Listener.Addr().String())
	port, _ := strconv.Atoi(portStr)

	banner := HTTPBanner(context.Background(), host, port, false)
	if banner == "" {
		t.Fatal("expected a non-empty banner")
	}
	if want := "Tapo-Camera-Httpd"; !strings.Contains(banner, want) {
		t.Errorf("banner %q does not contain %q", banner, want)
	}
}

func TestHTTPBannerEmptyOnConnRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve a port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	banner := HTTPBanner(context.Background(), "127.0.0.1", port, false)
	if banner != "" {
		t.Errorf("expected empty banner, got %q", banner)
	}
}
