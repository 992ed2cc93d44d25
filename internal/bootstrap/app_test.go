package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ben-burie/Stryde/internal/domain/page"
	"github.com/ben-burie/Stryde/internal/infra/config"
)

func TestServeOpensBrowserAndShutsDown(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pages := page.NewRegistry(page.Deps{Logger: logger})
	_, err := pages.Create(page.KindLogon)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })

	cfg := &config.Config{Browser: config.BrowserConfig{OpenOnStart: true}}
	app := NewApp(cfg, logger, &http.Server{Handler: mux}, pages)
	opened := make(chan string, 1)
	app.open = func(url string) error {
		opened <- url
		return nil
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, ln) }()

	var url string
	select {
	case url = <-opened:
	case <-time.After(2 * time.Second):
		t.Fatal("browser was not opened")
	}
	require.Equal(t, "http://"+ln.Addr().String()+"/", url)

	resp, err := http.Get(url)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not shut down")
	}
	require.Zero(t, pages.Len())
}

func TestLocalURLUnspecifiedHost(t *testing.T) {
	require.Equal(t, "http://127.0.0.1:8080/", localURL(&net.TCPAddr{Port: 8080}))
	require.Equal(t, "http://127.0.0.1:8080/", localURL(&net.TCPAddr{IP: net.IPv6unspecified, Port: 8080}))
}
